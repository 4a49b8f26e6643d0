package service

import (
	"errors"
	"math"

	"lintang/floodnav/pkg/kv"
	"lintang/floodnav/pkg/server"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// FloodZoneService CRUD flood zone tersimpan. Tidak butuh routing graph, jadi bisa dipakai sebelum graph siap.
type FloodZoneService struct {
	store FloodZoneStore
}

func NewFloodZoneService(store FloodZoneStore) *FloodZoneService {
	return &FloodZoneService{store: store}
}

func zoneError(err error, format string, a ...interface{}) error {
	switch {
	case errors.Is(err, kv.ErrNotFound):
		return server.WrapErrorf(err, server.ErrNotFound, format, a...)
	case errors.Is(err, kv.ErrInvalidZone):
		return server.WrapErrorf(err, server.ErrBadParamInput, format, a...)
	}
	return server.WrapErrorf(err, server.ErrInternalServerError, format, a...)
}

func (s *FloodZoneService) Create(z kv.FloodZone) (kv.FloodZone, error) {
	created, err := s.store.CreateFloodZone(z)
	if err != nil {
		return kv.FloodZone{}, zoneError(err, "create flood zone %q", z.Name)
	}
	return created, nil
}

func (s *FloodZoneService) Get(id string) (kv.FloodZone, error) {
	z, err := s.store.GetFloodZone(id)
	if err != nil {
		return kv.FloodZone{}, zoneError(err, "flood zone %s", id)
	}
	return z, nil
}

func (s *FloodZoneService) Update(id string, patch kv.FloodZonePatch) (kv.FloodZone, error) {
	z, err := s.store.UpdateFloodZone(id, patch)
	if err != nil {
		return kv.FloodZone{}, zoneError(err, "update flood zone %s", id)
	}
	return z, nil
}

func (s *FloodZoneService) Delete(id string) error {
	if err := s.store.DeleteFloodZone(id); err != nil {
		return zoneError(err, "delete flood zone %s", id)
	}
	return nil
}

func (s *FloodZoneService) List(includeInactive bool) ([]kv.FloodZone, error) {
	zones, err := s.store.ListFloodZones(includeInactive)
	if err != nil {
		return nil, zoneError(err, "list flood zones")
	}
	return zones, nil
}

// ZoneAreaKm2 luas zone di permukaan bumi. 0 kalau geometry tidak bisa dibaca.
func ZoneAreaKm2(z kv.FloodZone) float64 {
	g, err := z.Geom()
	if err != nil {
		return 0
	}
	if _, ok := g.(orb.Point); ok {
		return math.Pi * z.Radius * z.Radius / 1e6
	}
	return orbgeo.Area(g) / 1e6
}
