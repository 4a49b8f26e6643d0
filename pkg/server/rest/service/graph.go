package service

import (
	"lintang/floodnav/pkg/datastructure"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

type GraphStats struct {
	Generation    uint64         `json:"generation"`
	NumberOfNodes int            `json:"nodes"`
	NumberOfEdges int            `json:"edges"`
	TotalLengthKm float64        `json:"total_length_km"`
	OnewayEdges   int            `json:"oneway_edges"`
	RoadClasses   map[string]int `json:"road_classes"`
}

func (s *NavigationService) GraphStats() GraphStats {
	st := GraphStats{
		Generation:    s.graph.Generation(),
		NumberOfNodes: s.graph.NumberOfNodes(),
		NumberOfEdges: s.graph.NumberOfEdges(),
		RoadClasses:   map[string]int{},
	}
	s.graph.ForEachEdge(func(_ int32, e *datastructure.Edge) {
		st.TotalLengthKm += e.Length / 1000
		st.RoadClasses[e.RoadClass]++
		if e.Oneway {
			st.OnewayEdges++
		}
	})
	return st
}

// GraphGeoJSON edge graph sebagai FeatureCollection LineString. bound nil berarti semua edge.
func (s *NavigationService) GraphGeoJSON(bound *orb.Bound, limit int) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	add := func(idx int32) bool {
		if limit > 0 && len(fc.Features) >= limit {
			return false
		}
		e := s.graph.GetEdge(idx)
		line := make(orb.LineString, 0, len(e.Geometry))
		for _, c := range e.Geometry {
			line = append(line, orb.Point{c.Lon, c.Lat})
		}
		key := s.graph.EdgeKey(idx)
		f := geojson.NewFeature(line)
		f.Properties["from"] = key.From
		f.Properties["to"] = key.To
		f.Properties["way_id"] = key.WayID
		f.Properties["highway"] = e.RoadClass
		f.Properties["name"] = e.Name
		f.Properties["length"] = e.Length
		f.Properties["oneway"] = e.Oneway
		fc.Append(f)
		return true
	}

	if bound != nil {
		for _, idx := range s.index.QueryCandidates(*bound) {
			if !add(idx) {
				break
			}
		}
		return fc
	}
	for i := 0; i < s.graph.NumberOfEdges(); i++ {
		if !add(int32(i)) {
			break
		}
	}
	return fc
}
