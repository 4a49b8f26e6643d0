package spatialindex

import (
	"errors"
	"fmt"
	"math"

	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/geo"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/tidwall/rtree"
)

var (
	ErrIndexStale = errors.New("spatialindex: index generation does not match routing graph")
	ErrEmptyIndex = errors.New("spatialindex: index has no nodes")
)

const (
	tol = 0.0001
	// nearestCandidates jumlah kandidat awal dari rtree (euclid di derajat), cuma buat dapat radius r.
	nearestCandidates = 8
)

type nodeRect struct {
	location rtreego.Point // [lat, lon]
	nodeIDx  int32
}

func (s *nodeRect) Bounds() rtreego.Rect {
	return s.location.ToRect(tol)
}

// SpatialIndex point index (nearest node) & region index (edge bbox), dibangun sekali per graph.
type SpatialIndex struct {
	graph      *datastructure.RoutingGraph
	generation uint64
	points     *rtreego.Rtree
	regions    rtree.RTreeG[int32]
}

func NewSpatialIndex(g *datastructure.RoutingGraph) *SpatialIndex {
	si := &SpatialIndex{
		graph:      g,
		generation: g.Generation(),
		points:     rtreego.NewTree(2, 25, 50), // 2 dimension, 25 min entries dan 50 max entries
	}
	g.ForEachNode(func(idx int32, n datastructure.Node) {
		si.points.Insert(&nodeRect{location: rtreego.Point{n.Lat, n.Lon}, nodeIDx: idx})
	})
	g.ForEachEdge(func(idx int32, e *datastructure.Edge) {
		b := geo.BoundOf(e.Geometry)
		si.regions.Insert([2]float64{b.Min[0], b.Min[1]}, [2]float64{b.Max[0], b.Max[1]}, idx)
	})
	return si
}

func (si *SpatialIndex) Generation() uint64 {
	return si.generation
}

// CheckGeneration returns ErrIndexStale kalau index dibangun dari graph lain.
func (si *SpatialIndex) CheckGeneration(g *datastructure.RoutingGraph) error {
	if g.Generation() != si.generation {
		return fmt.Errorf("%w: index %d, graph %d", ErrIndexStale, si.generation, g.Generation())
	}
	return nil
}

// NearestNode returns the osm id of the node closest to (lat, lon) by haversine distance. Ties go
// to the lower node id.
//
// The rtree orders by euclidean distance in degrees, which stops matching haversine order away
// from the equator. Its nearest candidates only give an upper bound r. Every node within r meters
// lies inside the bounding box of the spherical cap of radius r, so that box is searched and
// re-ranked as well.
func (si *SpatialIndex) NearestNode(lat, lon float64) (int64, float64, error) {
	if si.points.Size() == 0 {
		return 0, 0, ErrEmptyIndex
	}

	bestID := int64(0)
	bestDist := -1.0
	rank := func(candidates []rtreego.Spatial) {
		for _, c := range candidates {
			if c == nil {
				continue
			}
			n := si.graph.GetNode(c.(*nodeRect).nodeIDx)
			d := geo.HaversineDistance(lat, lon, n.Lat, n.Lon)
			if bestDist < 0 || d < bestDist || (d == bestDist && n.ID < bestID) {
				bestID, bestDist = n.ID, d
			}
		}
	}

	rank(si.points.NearestNeighbors(nearestCandidates, rtreego.Point{lat, lon}))
	for _, bb := range capRects(lat, lon, bestDist) {
		rank(si.points.SearchIntersect(bb))
	}
	return bestID, bestDist, nil
}

// capRects bounding box [lat, lon] dari spherical cap radius r meter di sekitar (lat, lon).
// Dipecah dua kalau lewat antimeridian, full longitude kalau cap memuat kutub.
func capRects(lat, lon, r float64) []rtreego.Rect {
	dr := r / geo.EarthRadiusMeters
	dLat := dr*180/math.Pi + tol
	minLat, maxLat := lat-dLat, lat+dLat
	if maxLat >= 90 || minLat <= -90 {
		return []rtreego.Rect{newRect(math.Max(minLat, -90), -180, math.Min(maxLat, 90), 180)}
	}

	dLon := math.Asin(math.Sin(dr)/math.Cos(lat*math.Pi/180))*180/math.Pi + tol
	minLon, maxLon := lon-dLon, lon+dLon
	switch {
	case dLon >= 180:
		return []rtreego.Rect{newRect(minLat, -180, maxLat, 180)}
	case minLon < -180:
		return []rtreego.Rect{newRect(minLat, minLon+360, maxLat, 180), newRect(minLat, -180, maxLat, maxLon)}
	case maxLon > 180:
		return []rtreego.Rect{newRect(minLat, minLon, maxLat, 180), newRect(minLat, -180, maxLat, maxLon-360)}
	}
	return []rtreego.Rect{newRect(minLat, minLon, maxLat, maxLon)}
}

func newRect(minLat, minLon, maxLat, maxLon float64) rtreego.Rect {
	// error cuma untuk dimensi beda
	r, _ := rtreego.NewRectFromPoints(rtreego.Point{minLat, minLon}, rtreego.Point{maxLat, maxLon})
	return r
}

// QueryCandidates edge index yang bounding box-nya beririsan dengan bound (lon,lat). Hasilnya
// superset; caller wajib exact test.
func (si *SpatialIndex) QueryCandidates(bound orb.Bound) []int32 {
	result := make([]int32, 0)
	si.regions.Search(
		[2]float64{bound.Min[0], bound.Min[1]},
		[2]float64{bound.Max[0], bound.Max[1]},
		func(min, max [2]float64, edgeIDx int32) bool {
			result = append(result, edgeIDx)
			return true
		},
	)
	return result
}

func (si *SpatialIndex) Graph() *datastructure.RoutingGraph {
	return si.graph
}
