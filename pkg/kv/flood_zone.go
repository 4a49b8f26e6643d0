package kv

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"lintang/floodnav/pkg/geo"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/uber/h3-go/v4"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

var ErrInvalidZone = errors.New("kv: invalid flood zone")

const (
	ZonePolygon      = "polygon"
	ZoneCircle       = "circle"
	ZoneMultiPolygon = "multipolygon"

	DefaultZoneSeverity = 5.0
	// resolusi h3 untuk index flood zone, ~0.74 km2 per cell
	zoneCellResolution = 8
)

const (
	zonePrefix     = "zone/"
	zoneCellPrefix = "zonecell/"
)

// FloodZone genangan yang disimpan admin. Geometry disimpan sebagai GeoJSON geometry.
type FloodZone struct {
	ID        string
	Name      string
	Type      string
	Geometry  []byte
	Radius    float64 // meter, hanya untuk circle
	Severity  float64
	Active    bool
	UpdatedAt int64
}

// Geom decode geometry GeoJSON dari zone.
func (z FloodZone) Geom() (orb.Geometry, error) {
	g, err := geojson.UnmarshalGeometry(z.Geometry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidZone, err)
	}
	return g.Geometry(), nil
}

// FloodZonePatch field nil tidak diubah.
type FloodZonePatch struct {
	Name     *string
	Type     *string
	Geometry []byte
	Radius   *float64
	Severity *float64
	Active   *bool
}

func (p FloodZonePatch) apply(z FloodZone) FloodZone {
	if p.Name != nil {
		z.Name = *p.Name
	}
	if p.Type != nil {
		z.Type = *p.Type
	}
	if p.Geometry != nil {
		z.Geometry = p.Geometry
	}
	if p.Radius != nil {
		z.Radius = *p.Radius
	}
	if p.Severity != nil {
		z.Severity = *p.Severity
	}
	if p.Active != nil {
		z.Active = *p.Active
	}
	return z
}

func validateZone(z FloodZone) (orb.Geometry, error) {
	if strings.TrimSpace(z.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidZone)
	}
	if z.Severity < 0 || math.IsNaN(z.Severity) {
		return nil, fmt.Errorf("%w: severity %v", ErrInvalidZone, z.Severity)
	}
	g, err := z.Geom()
	if err != nil {
		return nil, err
	}
	switch z.Type {
	case ZonePolygon:
		if _, ok := g.(orb.Polygon); !ok {
			return nil, fmt.Errorf("%w: type polygon needs Polygon geometry, got %s", ErrInvalidZone, g.GeoJSONType())
		}
	case ZoneMultiPolygon:
		if _, ok := g.(orb.MultiPolygon); !ok {
			return nil, fmt.Errorf("%w: type multipolygon needs MultiPolygon geometry, got %s", ErrInvalidZone, g.GeoJSONType())
		}
	case ZoneCircle:
		if _, ok := g.(orb.Point); !ok {
			return nil, fmt.Errorf("%w: type circle needs Point geometry, got %s", ErrInvalidZone, g.GeoJSONType())
		}
		if z.Radius <= 0 {
			return nil, fmt.Errorf("%w: circle needs a positive radius", ErrInvalidZone)
		}
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidZone, z.Type)
	}
	return g, nil
}

// zoneCells h3 cell yang menutupi bounding circle dari zone.
func zoneCells(g orb.Geometry, radiusMeters float64) []h3.Cell {
	b := g.Bound()
	center := b.Center()
	reach := geo.HaversineDistance(center[1], center[0], b.Max[1], b.Max[0]) + radiusMeters
	return kRingIndexesArea(center[1], center[0], reach/1000, zoneCellResolution)
}

func zoneKey(id string) []byte {
	return []byte(zonePrefix + id)
}

func zoneCellKey(cell h3.Cell, id string) []byte {
	return []byte(zoneCellPrefix + cell.String() + "/" + id)
}

func (k *KVDB) writeZone(b *pebble.Batch, z FloodZone, g orb.Geometry) error {
	val, err := encode(z)
	if err != nil {
		return err
	}
	if err := b.Set(zoneKey(z.ID), val, nil); err != nil {
		return err
	}
	for _, cell := range zoneCells(g, z.Radius) {
		if err := b.Set(zoneCellKey(cell, z.ID), nil, nil); err != nil {
			return err
		}
	}
	return nil
}

func (k *KVDB) deleteZoneCells(b *pebble.Batch, z FloodZone) error {
	g, err := z.Geom()
	if err != nil {
		return err
	}
	for _, cell := range zoneCells(g, z.Radius) {
		if err := b.Delete(zoneCellKey(cell, z.ID), nil); err != nil {
			return err
		}
	}
	return nil
}

// CreateFloodZone assign id baru (uuid) lalu simpan zone beserta h3 index-nya.
func (k *KVDB) CreateFloodZone(z FloodZone) (FloodZone, error) {
	if z.Severity == 0 {
		z.Severity = DefaultZoneSeverity
	}
	g, err := validateZone(z)
	if err != nil {
		return FloodZone{}, err
	}
	z.ID = uuid.NewString()
	z.UpdatedAt = time.Now().Unix()

	b := k.db.NewBatch()
	defer b.Close()
	if err := k.writeZone(b, z, g); err != nil {
		return FloodZone{}, err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return FloodZone{}, err
	}
	k.log.Info("flood zone created", zap.String("id", z.ID), zap.String("name", z.Name), zap.Float64("severity", z.Severity))
	return z, nil
}

func (k *KVDB) GetFloodZone(id string) (FloodZone, error) {
	var z FloodZone
	if err := k.get(zoneKey(id), &z); err != nil {
		return FloodZone{}, err
	}
	return z, nil
}

func (k *KVDB) UpdateFloodZone(id string, patch FloodZonePatch) (FloodZone, error) {
	old, err := k.GetFloodZone(id)
	if err != nil {
		return FloodZone{}, err
	}
	z := patch.apply(old)
	g, err := validateZone(z)
	if err != nil {
		return FloodZone{}, err
	}
	z.UpdatedAt = time.Now().Unix()

	b := k.db.NewBatch()
	defer b.Close()
	if err := k.deleteZoneCells(b, old); err != nil {
		return FloodZone{}, err
	}
	if err := k.writeZone(b, z, g); err != nil {
		return FloodZone{}, err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return FloodZone{}, err
	}
	return z, nil
}

func (k *KVDB) DeleteFloodZone(id string) error {
	z, err := k.GetFloodZone(id)
	if err != nil {
		return err
	}
	b := k.db.NewBatch()
	defer b.Close()
	if err := k.deleteZoneCells(b, z); err != nil {
		return err
	}
	if err := b.Delete(zoneKey(id), nil); err != nil {
		return err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return err
	}
	k.log.Info("flood zone deleted", zap.String("id", id))
	return nil
}

// ListFloodZones urut berdasarkan name lalu id.
func (k *KVDB) ListFloodZones(includeInactive bool) ([]FloodZone, error) {
	zones := []FloodZone{}
	err := k.scanPrefix([]byte(zonePrefix), func(_, val []byte) error {
		var z FloodZone
		if err := decode(val, &z); err != nil {
			return err
		}
		if includeInactive || z.Active {
			zones = append(zones, z)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortZones(zones)
	return zones, nil
}

// FloodZonesNear active zones yang h3 cell-nya ada dalam radiusKm dari (lat, lon). Hasilnya
// superset, geometry exact test dilakukan resolver.
func (k *KVDB) FloodZonesNear(lat, lon, radiusKm float64) ([]FloodZone, error) {
	ids := map[string]struct{}{}
	for _, cell := range kRingIndexesArea(lat, lon, radiusKm, zoneCellResolution) {
		prefix := []byte(zoneCellPrefix + cell.String() + "/")
		err := k.scanPrefix(prefix, func(key, _ []byte) error {
			ids[string(key[len(prefix):])] = struct{}{}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	zones := []FloodZone{}
	for id := range ids {
		z, err := k.GetFloodZone(id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if z.Active {
			zones = append(zones, z)
		}
	}
	sortZones(zones)
	return zones, nil
}

func sortZones(zones []FloodZone) {
	slices.SortFunc(zones, func(a, b FloodZone) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

/*
*
  - https://observablehq.com/@nrabinowitz/h3-radius-lookup?collection=@nrabinowitz/h3
    search cell neighbor dari cell dari lat,lon  yang radius nya = searchRadiusKm
*/
func kRingIndexesArea(lat, lon, searchRadiusKm float64, res int) []h3.Cell {
	home := h3.NewLatLng(lat, lon)
	origin := h3.LatLngToCell(home, res)
	originArea := h3.CellAreaKm2(origin)
	searchArea := math.Pi * searchRadiusKm * searchRadiusKm

	radius := 0
	diskArea := originArea

	for diskArea < searchArea {
		radius++
		cellCount := float64(3*radius*(radius+1) + 1)
		diskArea = cellCount * originArea
	}

	// satu ring ekstra supaya tepi lingkaran yang jatuh di sisi hexagon tetap tercakup
	return h3.GridDisk(origin, radius+1)
}
