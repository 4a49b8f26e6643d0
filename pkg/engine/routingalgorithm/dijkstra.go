package routingalgorithm

import (
	"container/heap"
	"context"
	"fmt"
	"time"

	"lintang/floodnav/pkg/datastructure"
)

type dijkstraItem struct {
	node int32
	id   int64
	dist float64
}

// dijkstraPQ lazy-deletion heap, tie-break sama dengan A* (osm id lebih kecil duluan).
type dijkstraPQ []dijkstraItem

func (pq dijkstraPQ) Len() int { return len(pq) }
func (pq dijkstraPQ) Less(i, j int) bool {
	if pq[i].dist != pq[j].dist {
		return pq[i].dist < pq[j].dist
	}
	return pq[i].id < pq[j].id
}
func (pq dijkstraPQ) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }
func (pq *dijkstraPQ) Push(x any)   { *pq = append(*pq, x.(dijkstraItem)) }
func (pq *dijkstraPQ) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// Dijkstra baseline tanpa heuristic, pakai WeightModel yang sama dengan AStar.
func (rt *RouteAlgorithm) Dijkstra(ctx context.Context, q Query) (*datastructure.PathResult, error) {
	start := time.Now()
	from, to, err := rt.resolveEndpoints(q)
	if err != nil {
		return nil, err
	}
	if from == to {
		return rt.trivialPath(from, start), nil
	}

	dist := map[int32]float64{from: 0}
	cameFrom := make(map[int32]int32)
	settled := make(map[int32]struct{})
	pq := &dijkstraPQ{{node: from, id: q.From, dist: 0}}

	for pq.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cur := heap.Pop(pq).(dijkstraItem)
		if _, ok := settled[cur.node]; ok {
			continue
		}
		settled[cur.node] = struct{}{}
		if cur.node == to {
			res := rt.reconstruct(from, to, cameFrom, q)
			res.Cost = dist[to]
			res.Stats.NodesVisited = len(settled)
			res.Stats.SearchTime = time.Since(start)
			return res, nil
		}

		for _, edgeIDx := range rt.graph.OutEdges(cur.node) {
			edge := rt.graph.GetEdge(edgeIDx)
			if _, ok := settled[edge.To]; ok {
				continue
			}
			toID := rt.graph.GetNode(edge.To).ID
			key := datastructure.NewArcKey(cur.id, toID)
			if q.Blocked.Contains(key) {
				continue
			}
			nd := cur.dist + rt.model.Cost(edge, key, q.Weather, q.Penalties)
			if old, ok := dist[edge.To]; ok && nd >= old {
				continue
			}
			dist[edge.To] = nd
			cameFrom[edge.To] = edgeIDx
			heap.Push(pq, dijkstraItem{node: edge.To, id: toID, dist: nd})
		}
	}
	return nil, fmt.Errorf("%w: %d -> %d", ErrNoRouteFound, q.From, q.To)
}
