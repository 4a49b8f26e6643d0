package datastructure

import (
	"math"
	"sync/atomic"

	"github.com/twpayne/go-polyline"
)

// Node. ID adalah osm node id, bukan index di arena.
type Node struct {
	ID  int64
	Lat float64
	Lon float64
}

type Edge struct {
	From             int32 // node index
	To               int32 // node index
	WayID            int64
	Length           float64 // meter
	RoadClass        string
	Name             string
	BaseSpeed        float64 // km/h
	ClassCoefficient float64
	Oneway           bool
	Geometry         []Coordinate
	// SegmentBreaks index vertex di Geometry tempat segment asli (sebelum compression) bertemu.
	SegmentBreaks []int
}

// TravelTime detik, pakai base speed atau max speed road class kalau base speed kosong.
func (e *Edge) TravelTime() float64 {
	speed := e.BaseSpeed
	if !(speed > 0) || math.IsInf(speed, 0) {
		speed = RoadTypeMaxSpeed(e.RoadClass)
	}
	return e.Length / 1000 / speed * 3600
}

// EdgeKey identitas publik sebuah edge.
type EdgeKey struct {
	From  int64
	To    int64
	WayID int64
}

// ArcKey directed (from,to) pakai osm node id. dipakai buat blocked set & penalty map.
type ArcKey struct {
	From int64
	To   int64
}

func NewArcKey(from, to int64) ArcKey {
	return ArcKey{From: from, To: to}
}

func (k ArcKey) Reverse() ArcKey {
	return ArcKey{From: k.To, To: k.From}
}

var graphGeneration atomic.Uint64

// RoutingGraph arena of nodes & edges addressed by int32 index. Immutable setelah NewRoutingGraph.
type RoutingGraph struct {
	nodes      []Node
	edges      []Edge
	outEdges   [][]int32
	inEdges    [][]int32
	nodeIDxMap map[int64]int32
	generation uint64
}

// NewRoutingGraph takes ownership of nodes and edges. Adjacency lists follow the order of edges.
func NewRoutingGraph(nodes []Node, edges []Edge) *RoutingGraph {
	g := &RoutingGraph{
		nodes:      nodes,
		edges:      edges,
		outEdges:   make([][]int32, len(nodes)),
		inEdges:    make([][]int32, len(nodes)),
		nodeIDxMap: make(map[int64]int32, len(nodes)),
		generation: graphGeneration.Add(1),
	}
	for i, n := range nodes {
		g.nodeIDxMap[n.ID] = int32(i)
	}
	for i, e := range edges {
		g.outEdges[e.From] = append(g.outEdges[e.From], int32(i))
		g.inEdges[e.To] = append(g.inEdges[e.To], int32(i))
	}
	return g
}

func (g *RoutingGraph) NumberOfNodes() int {
	return len(g.nodes)
}

func (g *RoutingGraph) NumberOfEdges() int {
	return len(g.edges)
}

func (g *RoutingGraph) GetNode(idx int32) Node {
	return g.nodes[idx]
}

// GetEdge returns a pointer into the arena. Callers must not modify it.
func (g *RoutingGraph) GetEdge(idx int32) *Edge {
	return &g.edges[idx]
}

func (g *RoutingGraph) OutEdges(nodeIDx int32) []int32 {
	return g.outEdges[nodeIDx]
}

func (g *RoutingGraph) InEdges(nodeIDx int32) []int32 {
	return g.inEdges[nodeIDx]
}

// NodeIDx lookup index dari osm node id.
func (g *RoutingGraph) NodeIDx(id int64) (int32, bool) {
	idx, ok := g.nodeIDxMap[id]
	return idx, ok
}

func (g *RoutingGraph) HasNode(id int64) bool {
	_, ok := g.nodeIDxMap[id]
	return ok
}

func (g *RoutingGraph) Generation() uint64 {
	return g.generation
}

func (g *RoutingGraph) EdgeKey(idx int32) EdgeKey {
	e := g.edges[idx]
	return EdgeKey{From: g.nodes[e.From].ID, To: g.nodes[e.To].ID, WayID: e.WayID}
}

func (g *RoutingGraph) ArcKey(idx int32) ArcKey {
	e := g.edges[idx]
	return ArcKey{From: g.nodes[e.From].ID, To: g.nodes[e.To].ID}
}

func (g *RoutingGraph) EdgeKeys() []EdgeKey {
	keys := make([]EdgeKey, len(g.edges))
	for i := range g.edges {
		keys[i] = g.EdgeKey(int32(i))
	}
	return keys
}

func (g *RoutingGraph) ForEachEdge(handle func(idx int32, e *Edge)) {
	for i := range g.edges {
		handle(int32(i), &g.edges[i])
	}
}

func (g *RoutingGraph) ForEachNode(handle func(idx int32, n Node)) {
	for i, n := range g.nodes {
		handle(int32(i), n)
	}
}

func RoadTypeMaxSpeed(roadType string) float64 {
	switch roadType {
	case "motorway":
		return 95
	case "trunk":
		return 85
	case "primary":
		return 75
	case "secondary":
		return 65
	case "tertiary":
		return 50
	case "unclassified":
		return 50
	case "residential":
		return 30
	case "service":
		return 20
	case "motorway_link":
		return 90
	case "trunk_link":
		return 80
	case "primary_link":
		return 70
	case "secondary_link":
		return 60
	case "tertiary_link":
		return 50
	case "living_street":
		return 20
	default:
		return 40
	}
}

// RenderPath encode coordinates jadi google polyline.
func RenderPath(path []Coordinate) string {
	coords := make([][]float64, 0, len(path))
	for _, p := range path {
		coords = append(coords, []float64{p.Lat, p.Lon})
	}
	return string(polyline.EncodeCoords(coords))
}
