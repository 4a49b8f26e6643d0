package routingalgorithm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/geo"
	"lintang/floodnav/pkg/util"
	"lintang/floodnav/pkg/weight"
)

var (
	ErrNodeNotFound = errors.New("routingalgorithm: node not found in routing graph")
	ErrNoRouteFound = errors.New("routingalgorithm: no route found")
)

// Query per-request input. Blocked & Penalties boleh nil.
type Query struct {
	From      int64
	To        int64
	Weather   datastructure.Weather
	Blocked   datastructure.BlockedEdgeSet
	Penalties datastructure.PenaltyMap
}

type RouteAlgorithm struct {
	graph *datastructure.RoutingGraph
	model *weight.Model
}

func NewRouteAlgorithm(graph *datastructure.RoutingGraph, model *weight.Model) *RouteAlgorithm {
	return &RouteAlgorithm{graph: graph, model: model}
}

func (rt *RouteAlgorithm) Graph() *datastructure.RoutingGraph {
	return rt.graph
}

func (rt *RouteAlgorithm) Model() *weight.Model {
	return rt.model
}

func (rt *RouteAlgorithm) resolveEndpoints(q Query) (int32, int32, error) {
	from, ok := rt.graph.NodeIDx(q.From)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %d", ErrNodeNotFound, q.From)
	}
	to, ok := rt.graph.NodeIDx(q.To)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %d", ErrNodeNotFound, q.To)
	}
	return from, to, nil
}

// AStar shortest path dari q.From ke q.To. h(n) = haversine(n, goal) × MinCoefficient, jadi tidak
// pernah overestimate cost (length >= haversine, semua koefisien & penalty >= MinCoefficient).
// Kalau f sama, node dengan osm id lebih kecil di-pop duluan. ctx dicek sekali per pop.
func (rt *RouteAlgorithm) AStar(ctx context.Context, q Query) (*datastructure.PathResult, error) {
	start := time.Now()
	from, to, err := rt.resolveEndpoints(q)
	if err != nil {
		return nil, err
	}
	if from == to {
		return rt.trivialPath(from, start), nil
	}

	goal := rt.graph.GetNode(to)
	minCoef := rt.model.MinCoefficient()
	heuristic := func(v int32) float64 {
		n := rt.graph.GetNode(v)
		return geo.HaversineDistance(n.Lat, n.Lon, goal.Lat, goal.Lon) * minCoef
	}

	heap := NewMinHeap[int32]()
	heap.Insert(PriorityQueueNode[int32]{Rank: heuristic(from), Tie: q.From, Item: from})

	costSoFar := map[int32]float64{from: 0}
	cameFrom := make(map[int32]int32) // node -> edge index
	closed := make(map[int32]struct{})
	visited := 0

	for heap.Size() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current, _ := heap.ExtractMin()
		v := current.Item
		if v == to {
			res := rt.reconstruct(from, to, cameFrom, q)
			res.Cost = costSoFar[to]
			res.Stats.NodesVisited = visited + 1
			res.Stats.SearchTime = time.Since(start)
			return res, nil
		}
		closed[v] = struct{}{}
		visited++

		vID := rt.graph.GetNode(v).ID
		for _, edgeIDx := range rt.graph.OutEdges(v) {
			edge := rt.graph.GetEdge(edgeIDx)
			w := edge.To
			if _, ok := closed[w]; ok {
				continue
			}
			wID := rt.graph.GetNode(w).ID
			key := datastructure.NewArcKey(vID, wID)
			if q.Blocked.Contains(key) {
				continue
			}

			newCost := costSoFar[v] + rt.model.Cost(edge, key, q.Weather, q.Penalties)
			if old, ok := costSoFar[w]; ok && newCost >= old {
				continue
			}
			costSoFar[w] = newCost
			cameFrom[w] = edgeIDx

			node := PriorityQueueNode[int32]{Rank: newCost + heuristic(w), Tie: wID, Item: w}
			if heap.Contains(w) {
				heap.DecreaseKey(node)
			} else {
				heap.Insert(node)
			}
		}
	}

	return nil, fmt.Errorf("%w: %d -> %d", ErrNoRouteFound, q.From, q.To)
}

func (rt *RouteAlgorithm) trivialPath(v int32, start time.Time) *datastructure.PathResult {
	n := rt.graph.GetNode(v)
	return &datastructure.PathResult{
		Nodes:       []int64{n.ID},
		Coordinates: []datastructure.Coordinate{datastructure.NewCoordinate(n.Lat, n.Lon)},
		Stats:       datastructure.RouteStats{NodesVisited: 1, SearchTime: time.Since(start)},
	}
}

// reconstruct ikuti parent edge dari target ke source, reverse, lalu sambung geometry tiap edge.
// Distance & duration dihitung dari panjang asli, bukan dari weighted cost.
func (rt *RouteAlgorithm) reconstruct(from, to int32, cameFrom map[int32]int32, q Query) *datastructure.PathResult {
	edgePath := []int32{}
	for v := to; v != from; {
		e := cameFrom[v]
		edgePath = append(edgePath, e)
		v = rt.graph.GetEdge(e).From
	}
	util.ReverseG(edgePath)

	res := &datastructure.PathResult{
		Nodes: []int64{rt.graph.GetNode(from).ID},
		Edges: edgePath,
	}
	for i, edgeIDx := range edgePath {
		e := rt.graph.GetEdge(edgeIDx)
		geom := e.Geometry
		if i > 0 && len(geom) > 0 {
			geom = geom[1:]
		}
		res.Coordinates = append(res.Coordinates, geom...)
		res.Nodes = append(res.Nodes, rt.graph.GetNode(e.To).ID)
		res.Distance += e.Length
		res.Duration += travelTime(e)
		if q.Penalties.Get(rt.graph.ArcKey(edgeIDx), 1.0) > 1.0 {
			res.Stats.PenalizedEdges++
		}
	}
	res.Stats.EdgeCount = len(edgePath)
	res.Stats.BlockedEdges = len(q.Blocked)
	return res
}

// travelTime detik, dari base speed km/h.
func travelTime(e *datastructure.Edge) float64 {
	return e.TravelTime()
}
