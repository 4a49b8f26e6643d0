package graphbuilder

import (
	"lintang/floodnav/pkg/datastructure"

	"golang.org/x/exp/slices"
)

func sameRoad(a, b *datastructure.Edge) bool {
	return a.RoadClass == b.RoadClass && a.Name == b.Name && a.Oneway == b.Oneway && a.BaseSpeed == b.BaseSpeed
}

// isInterior true kalau v ada di tengah chain tanpa percabangan: satu in & satu out (oneway), atau
// dua in & dua out ke dua tetangga yang sama (two-way), dengan atribut jalan yang identik.
func isInterior(g *rawGraph, v int32) bool {
	outs, ins := g.out[v], g.in[v]
	switch {
	case len(outs) == 1 && len(ins) == 1:
		eo, ei := &g.edges[outs[0]], &g.edges[ins[0]]
		return eo.To != v && eo.To != ei.From && sameRoad(eo, ei)

	case len(outs) == 2 && len(ins) == 2:
		a, b := g.edges[outs[0]].To, g.edges[outs[1]].To
		if a == b || a == v || b == v {
			return false
		}
		ia, ib := g.edges[ins[0]].From, g.edges[ins[1]].From
		if !((ia == a && ib == b) || (ia == b && ib == a)) {
			return false
		}
		first := &g.edges[outs[0]]
		return sameRoad(first, &g.edges[outs[1]]) && sameRoad(first, &g.edges[ins[0]]) && sameRoad(first, &g.edges[ins[1]])
	}
	return false
}

// continuation edge keluar dari v yang tidak balik ke prev.
func continuation(g *rawGraph, v, prev int32) int32 {
	for _, e := range g.out[v] {
		if g.edges[e].To != prev {
			return e
		}
	}
	return -1
}

// compress merges degree-2 chains into single edges. Work-list over anchor nodes (non-interior),
// visited in osm id order. Cycles without any anchor get their lowest-id node promoted to anchor.
func compress(g *rawGraph) ([]datastructure.Node, []datastructure.Edge) {
	n := len(g.nodes)
	interior := make([]bool, n)
	for v := int32(0); v < int32(n); v++ {
		interior[v] = isInterior(g, v)
	}

	order := make([]int32, n)
	for i := range order {
		order[i] = int32(i)
	}
	slices.SortFunc(order, func(a, b int32) int {
		return cmpInt64(g.nodes[a].ID, g.nodes[b].ID)
	})

	consumed := make([]bool, len(g.edges))
	merged := make([]datastructure.Edge, 0, len(g.edges))

	walk := func(start int32) {
		first := g.edges[start]
		consumed[start] = true
		e := first
		e.Geometry = append([]datastructure.Coordinate(nil), first.Geometry...)
		e.SegmentBreaks = nil

		prev, cur := first.From, first.To
		for interior[cur] {
			next := continuation(g, cur, prev)
			if next == -1 || consumed[next] {
				interior[cur] = false
				break
			}
			consumed[next] = true
			seg := &g.edges[next]
			e.SegmentBreaks = append(e.SegmentBreaks, len(e.Geometry)-1)
			e.Geometry = append(e.Geometry, seg.Geometry[1:]...)
			e.Length += seg.Length
			prev, cur = cur, seg.To
		}
		e.To = cur
		merged = append(merged, e)
	}

	for _, v := range order {
		if interior[v] {
			continue
		}
		for _, e := range g.out[v] {
			if !consumed[e] {
				walk(e)
			}
		}
	}

	for _, v := range order {
		if !interior[v] {
			continue
		}
		pending := false
		for _, e := range g.out[v] {
			if !consumed[e] {
				pending = true
				break
			}
		}
		if !pending {
			continue
		}
		interior[v] = false
		for _, e := range g.out[v] {
			if !consumed[e] {
				walk(e)
			}
		}
	}

	newIDx := make([]int32, n)
	nodes := make([]datastructure.Node, 0, n)
	for v := 0; v < n; v++ {
		newIDx[v] = -1
		if !interior[v] {
			newIDx[v] = int32(len(nodes))
			nodes = append(nodes, g.nodes[v])
		}
	}
	for i := range merged {
		merged[i].From = newIDx[merged[i].From]
		merged[i].To = newIDx[merged[i].To]
	}
	return finalize(nodes, merged)
}
