package graphbuilder

type tarjanFrame struct {
	v    int32
	next int
}

// stronglyConnectedComponents iterative Tarjan. return component id per node & jumlah component.
func stronglyConnectedComponents(g *rawGraph) ([]int32, int) {
	n := len(g.nodes)
	index := make([]int32, n)
	low := make([]int32, n)
	onStack := make([]bool, n)
	comp := make([]int32, n)
	for i := range index {
		index[i] = -1
		comp[i] = -1
	}

	var counter int32
	numComp := 0
	stack := []int32{}
	callStack := []tarjanFrame{}

	visit := func(v int32) {
		index[v] = counter
		low[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true
		callStack = append(callStack, tarjanFrame{v: v})
	}

	for s := int32(0); s < int32(n); s++ {
		if index[s] != -1 {
			continue
		}
		visit(s)
		for len(callStack) > 0 {
			top := len(callStack) - 1
			v := callStack[top].v
			if callStack[top].next < len(g.out[v]) {
				e := g.out[v][callStack[top].next]
				callStack[top].next++
				w := g.edges[e].To
				if index[w] == -1 {
					visit(w)
				} else if onStack[w] && index[w] < low[v] {
					low[v] = index[w]
				}
				continue
			}

			callStack = callStack[:top]
			if top > 0 {
				p := callStack[top-1].v
				if low[v] < low[p] {
					low[p] = low[v]
				}
			}
			if low[v] == index[v] {
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					comp[w] = int32(numComp)
					if w == v {
						break
					}
				}
				numComp++
			}
		}
	}
	return comp, numComp
}

// largestSCC mask node yang masuk component terbesar. Kalau ukurannya sama, pilih component
// dengan osm node id terkecil.
func largestSCC(g *rawGraph) ([]bool, int) {
	comp, numComp := stronglyConnectedComponents(g)
	size := make([]int, numComp)
	minID := make([]int64, numComp)
	hasMin := make([]bool, numComp)
	for v, c := range comp {
		size[c]++
		id := g.nodes[v].ID
		if !hasMin[c] || id < minID[c] {
			minID[c] = id
			hasMin[c] = true
		}
	}

	best := -1
	for c := 0; c < numComp; c++ {
		if best == -1 || size[c] > size[best] || (size[c] == size[best] && minID[c] < minID[best]) {
			best = c
		}
	}

	keep := make([]bool, len(comp))
	for v, c := range comp {
		keep[v] = int(c) == best
	}
	return keep, numComp
}
