package graphbuilder

import (
	"errors"
	"math"

	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/geo"
	"lintang/floodnav/pkg/weight"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

var ErrGraphEmpty = errors.New("graphbuilder: routing graph has no edges after filtering and reduction")

type GraphBuilder struct {
	log   *zap.Logger
	model *weight.Model
}

func NewGraphBuilder(log *zap.Logger, model *weight.Model) *GraphBuilder {
	return &GraphBuilder{log: log, model: model}
}

// rawGraph working arena selama build. index node/edge stabil sampai renumber di akhir.
type rawGraph struct {
	nodes []datastructure.Node
	edges []datastructure.Edge
	out   [][]int32
	in    [][]int32
}

func newRawGraph(nodes []datastructure.Node, edges []datastructure.Edge) *rawGraph {
	g := &rawGraph{
		nodes: nodes,
		edges: edges,
		out:   make([][]int32, len(nodes)),
		in:    make([][]int32, len(nodes)),
	}
	for i, e := range edges {
		g.out[e.From] = append(g.out[e.From], int32(i))
		g.in[e.To] = append(g.in[e.To], int32(i))
	}
	return g
}

// Build runs filter -> raw graph -> largest SCC -> degree-2 compression.
//
// Duplicate edges with the same (from, to, way id) keep the first occurrence in way order and
// drop the rest.
func (b *GraphBuilder) Build(rawNodes map[int64]datastructure.RawNode, rawWays []datastructure.RawWay) (*datastructure.RoutingGraph, error) {
	raw, dup := b.buildRawGraph(rawNodes, rawWays)
	b.log.Info("raw graph built",
		zap.Int("nodes", len(raw.nodes)),
		zap.Int("edges", len(raw.edges)),
		zap.Int("duplicateEdges", dup))
	if len(raw.edges) == 0 {
		return nil, ErrGraphEmpty
	}

	keep, numComponents := largestSCC(raw)
	reduced := raw.subgraph(keep)
	b.log.Info("largest strongly connected component",
		zap.Int("components", numComponents),
		zap.Int("nodes", len(reduced.nodes)),
		zap.Int("edges", len(reduced.edges)))
	if len(reduced.edges) == 0 {
		return nil, ErrGraphEmpty
	}

	nodes, edges := compress(reduced)
	b.log.Info("degree-2 chains compressed",
		zap.Int("nodes", len(nodes)),
		zap.Int("edges", len(edges)))
	if len(edges) == 0 {
		return nil, ErrGraphEmpty
	}

	return datastructure.NewRoutingGraph(nodes, edges), nil
}

func (b *GraphBuilder) buildRawGraph(rawNodes map[int64]datastructure.RawNode, rawWays []datastructure.RawWay) (*rawGraph, int) {
	nodes := []datastructure.Node{}
	edges := []datastructure.Edge{}
	nodeIDxMap := make(map[int64]int32)
	seen := make(map[datastructure.EdgeKey]struct{})
	duplicates := 0
	filtered := 0
	zeroLength := 0

	nodeIDx := func(n datastructure.RawNode) int32 {
		if idx, ok := nodeIDxMap[n.ID]; ok {
			return idx
		}
		idx := int32(len(nodes))
		nodes = append(nodes, datastructure.Node{ID: n.ID, Lat: n.Lat, Lon: n.Lon})
		nodeIDxMap[n.ID] = idx
		return idx
	}

	addEdge := func(from, to datastructure.RawNode, way datastructure.RawWay, speed, length float64) {
		key := datastructure.EdgeKey{From: from.ID, To: to.ID, WayID: way.ID}
		if _, ok := seen[key]; ok {
			duplicates++
			return
		}
		seen[key] = struct{}{}
		edges = append(edges, datastructure.Edge{
			From:             nodeIDx(from),
			To:               nodeIDx(to),
			WayID:            way.ID,
			Length:           length,
			RoadClass:        way.Highway,
			Name:             way.Name,
			BaseSpeed:        speed,
			ClassCoefficient: b.model.ClassCoefficient(way.Highway),
			Oneway:           way.Oneway != datastructure.OnewayNo,
			Geometry: []datastructure.Coordinate{
				datastructure.NewCoordinate(from.Lat, from.Lon),
				datastructure.NewCoordinate(to.Lat, to.Lon),
			},
		})
	}

	for _, way := range rawWays {
		if !datastructure.ValidRoadType[way.Highway] {
			filtered++
			continue
		}
		seq := make([]datastructure.RawNode, 0, len(way.NodeIDs))
		for _, id := range way.NodeIDs {
			n, ok := rawNodes[id]
			if !ok {
				continue
			}
			if len(seq) > 0 && seq[len(seq)-1].ID == id {
				continue
			}
			if len(seq) > 0 && seq[len(seq)-1].Lat == n.Lat && seq[len(seq)-1].Lon == n.Lon {
				// segment panjang 0 di-drop, way lanjut dari node sebelumnya
				zeroLength++
				continue
			}
			seq = append(seq, n)
		}
		if len(seq) < 2 {
			filtered++
			continue
		}

		speed := way.MaxSpeed
		if !(speed > 0) || math.IsInf(speed, 0) {
			speed = datastructure.RoadTypeMaxSpeed(way.Highway)
		}

		for i := 1; i < len(seq); i++ {
			a, c := seq[i-1], seq[i]
			length := geo.HaversineDistance(a.Lat, a.Lon, c.Lat, c.Lon)
			if !(length > 0) {
				zeroLength++
				continue
			}
			switch way.Oneway {
			case datastructure.OnewayForward:
				addEdge(a, c, way, speed, length)
			case datastructure.OnewayReverse:
				addEdge(c, a, way, speed, length)
			default:
				addEdge(a, c, way, speed, length)
				addEdge(c, a, way, speed, length)
			}
		}
	}

	b.log.Debug("ways filtered", zap.Int("filtered", filtered), zap.Int("zeroLengthSegments", zeroLength),
		zap.Int("total", len(rawWays)))
	return newRawGraph(nodes, edges), duplicates
}

// subgraph keeps nodes with keep[v] and edges with both endpoints kept, renumbering node indexes.
func (g *rawGraph) subgraph(keep []bool) *rawGraph {
	newIDx := make([]int32, len(g.nodes))
	nodes := make([]datastructure.Node, 0, len(g.nodes))
	for v, n := range g.nodes {
		newIDx[v] = -1
		if keep[v] {
			newIDx[v] = int32(len(nodes))
			nodes = append(nodes, n)
		}
	}
	edges := make([]datastructure.Edge, 0, len(g.edges))
	for _, e := range g.edges {
		if !keep[e.From] || !keep[e.To] {
			continue
		}
		e.From = newIDx[e.From]
		e.To = newIDx[e.To]
		edges = append(edges, e)
	}
	return newRawGraph(nodes, edges)
}

// finalize sort node berdasarkan osm id & edge berdasarkan (from id, to id, way id) supaya
// hasil build deterministik.
func finalize(nodes []datastructure.Node, edges []datastructure.Edge) ([]datastructure.Node, []datastructure.Edge) {
	order := make([]int32, len(nodes))
	for i := range order {
		order[i] = int32(i)
	}
	slices.SortFunc(order, func(a, b int32) int {
		return cmpInt64(nodes[a].ID, nodes[b].ID)
	})
	newIDx := make([]int32, len(nodes))
	sorted := make([]datastructure.Node, len(nodes))
	for i, old := range order {
		newIDx[old] = int32(i)
		sorted[i] = nodes[old]
	}
	for i := range edges {
		edges[i].From = newIDx[edges[i].From]
		edges[i].To = newIDx[edges[i].To]
	}
	slices.SortStableFunc(edges, func(a, b datastructure.Edge) int {
		if c := cmpInt64(sorted[a.From].ID, sorted[b.From].ID); c != 0 {
			return c
		}
		if c := cmpInt64(sorted[a.To].ID, sorted[b.To].ID); c != 0 {
			return c
		}
		return cmpInt64(a.WayID, b.WayID)
	})
	return sorted, edges
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
