package graphbuilder

import (
	"math"
	"testing"

	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/geo"
	"lintang/floodnav/pkg/weight"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const step = 0.001

func newBuilder() *GraphBuilder {
	return NewGraphBuilder(zap.NewNop(), weight.NewDefaultModel())
}

// lineNodes node 1..n di garis lurus sepanjang equator.
func lineNodes(n int) map[int64]datastructure.RawNode {
	nodes := make(map[int64]datastructure.RawNode, n)
	for i := 1; i <= n; i++ {
		nodes[int64(i)] = datastructure.RawNode{ID: int64(i), Lat: 0, Lon: float64(i) * step}
	}
	return nodes
}

func way(id int64, highway string, oneway datastructure.OnewayDirection, name string, nodes ...int64) datastructure.RawWay {
	return datastructure.RawWay{ID: id, NodeIDs: nodes, Highway: highway, Oneway: oneway, Name: name}
}

func reachableFrom(g *datastructure.RoutingGraph, src int32) []bool {
	seen := make([]bool, g.NumberOfNodes())
	seen[src] = true
	queue := []int32{src}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, e := range g.OutEdges(v) {
			to := g.GetEdge(e).To
			if !seen[to] {
				seen[to] = true
				queue = append(queue, to)
			}
		}
	}
	return seen
}

func assertStronglyConnected(t *testing.T, g *datastructure.RoutingGraph) {
	t.Helper()
	for v := int32(0); v < int32(g.NumberOfNodes()); v++ {
		for u, ok := range reachableFrom(g, v) {
			assert.True(t, ok, "node %d cannot reach node %d", g.GetNode(v).ID, g.GetNode(int32(u)).ID)
		}
	}
}

func TestBuildLinearChain(t *testing.T) {
	g, err := newBuilder().Build(lineNodes(5), []datastructure.RawWay{
		way(100, "residential", datastructure.OnewayNo, "Jalan Dr. Radjiman", 1, 2, 3, 4, 5),
	})
	require.NoError(t, err)

	t.Run("chain compressed into one edge per direction", func(t *testing.T) {
		assert.Equal(t, 2, g.NumberOfNodes())
		assert.Equal(t, 2, g.NumberOfEdges())
		assert.True(t, g.HasNode(1))
		assert.True(t, g.HasNode(5))
		assert.False(t, g.HasNode(3))
	})

	t.Run("merged edge keeps geometry and summed length", func(t *testing.T) {
		from, _ := g.NodeIDx(1)
		require.Len(t, g.OutEdges(from), 1)
		e := g.GetEdge(g.OutEdges(from)[0])
		assert.Len(t, e.Geometry, 5)
		assert.Equal(t, []int{1, 2, 3}, e.SegmentBreaks)
		assert.InDelta(t, geo.PolylineLength(e.Geometry), e.Length, 1e-6)
		assert.Equal(t, "residential", e.RoadClass)
		assert.Equal(t, int64(100), e.WayID)
		assert.Equal(t, 1.2, e.ClassCoefficient)

		to := g.GetNode(e.To)
		assert.Equal(t, int64(5), to.ID)
		assert.True(t, e.Geometry[0].Equal(datastructure.NewCoordinate(0, step), 1e-6))
		assert.True(t, e.Geometry[4].Equal(datastructure.NewCoordinate(to.Lat, to.Lon), 1e-6))
	})
}

func TestCompressionRoundTrip(t *testing.T) {
	nodes := lineNodes(6)
	g, err := newBuilder().Build(nodes, []datastructure.RawWay{
		way(1, "tertiary", datastructure.OnewayNo, "", 1, 2, 3, 4, 5, 6),
	})
	require.NoError(t, err)

	g.ForEachEdge(func(idx int32, e *datastructure.Edge) {
		bounds := append([]int{0}, e.SegmentBreaks...)
		bounds = append(bounds, len(e.Geometry)-1)
		for i := 1; i < len(bounds); i++ {
			segment := e.Geometry[bounds[i-1] : bounds[i]+1]
			require.Len(t, segment, 2)
			// tiap segment harus sama dengan pasangan node asli yang berurutan
			a, b := segment[0], segment[1]
			assert.InDelta(t, step, abs(b.Lon-a.Lon), 1e-9)
			assert.InDelta(t, 0, b.Lat-a.Lat, 1e-9)
		}
	})
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func TestCompressionStopsAtDiscontinuity(t *testing.T) {
	t.Run("name change", func(t *testing.T) {
		g, err := newBuilder().Build(lineNodes(3), []datastructure.RawWay{
			way(1, "residential", datastructure.OnewayNo, "Jalan A", 1, 2),
			way(2, "residential", datastructure.OnewayNo, "Jalan B", 2, 3),
		})
		require.NoError(t, err)
		assert.True(t, g.HasNode(2))
		assert.Equal(t, 4, g.NumberOfEdges())
	})

	t.Run("class change", func(t *testing.T) {
		g, err := newBuilder().Build(lineNodes(3), []datastructure.RawWay{
			way(1, "primary", datastructure.OnewayNo, "", 1, 2),
			way(2, "secondary", datastructure.OnewayNo, "", 2, 3),
		})
		require.NoError(t, err)
		assert.True(t, g.HasNode(2))
	})

	t.Run("same attributes across ways merge", func(t *testing.T) {
		g, err := newBuilder().Build(lineNodes(3), []datastructure.RawWay{
			way(1, "primary", datastructure.OnewayNo, "", 1, 2),
			way(2, "primary", datastructure.OnewayNo, "", 2, 3),
		})
		require.NoError(t, err)
		assert.False(t, g.HasNode(2))
		assert.Equal(t, 2, g.NumberOfEdges())
	})

	t.Run("junction kept", func(t *testing.T) {
		nodes := lineNodes(3)
		nodes[4] = datastructure.RawNode{ID: 4, Lat: step, Lon: 2 * step}
		g, err := newBuilder().Build(nodes, []datastructure.RawWay{
			way(1, "residential", datastructure.OnewayNo, "", 1, 2, 3),
			way(2, "residential", datastructure.OnewayNo, "", 2, 4),
		})
		require.NoError(t, err)
		assert.True(t, g.HasNode(2))
		assert.Equal(t, 4, g.NumberOfNodes())
		assert.Equal(t, 6, g.NumberOfEdges())
	})
}

func TestOnewayRing(t *testing.T) {
	// ring oneway 1->2->3->4->1 tanpa junction: node dengan id terkecil jadi anchor
	nodes := map[int64]datastructure.RawNode{
		1: {ID: 1, Lat: 0, Lon: 0},
		2: {ID: 2, Lat: 0, Lon: step},
		3: {ID: 3, Lat: step, Lon: step},
		4: {ID: 4, Lat: step, Lon: 0},
	}
	g, err := newBuilder().Build(nodes, []datastructure.RawWay{
		way(9, "tertiary", datastructure.OnewayForward, "", 1, 2, 3, 4, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, g.NumberOfNodes())
	assert.Equal(t, 1, g.NumberOfEdges())
	assert.Len(t, g.GetEdge(0).Geometry, 5)
}

func TestLargestSCC(t *testing.T) {
	nodes := lineNodes(7)
	ways := []datastructure.RawWay{
		way(1, "residential", datastructure.OnewayNo, "", 1, 2, 3),
		way(2, "residential", datastructure.OnewayNo, "", 3, 4),
		// 4 -> 5 oneway keluar, 5 jadi sink
		way(3, "residential", datastructure.OnewayForward, "", 4, 5),
		// komponen terpisah
		way(4, "residential", datastructure.OnewayNo, "", 6, 7),
	}
	g, err := newBuilder().Build(nodes, ways)
	require.NoError(t, err)

	assert.False(t, g.HasNode(5))
	assert.False(t, g.HasNode(6))
	assert.False(t, g.HasNode(7))
	assert.True(t, g.HasNode(1))
	assertStronglyConnected(t, g)
}

func TestLargestSCCTieBreak(t *testing.T) {
	nodes := lineNodes(4)
	g, err := newBuilder().Build(nodes, []datastructure.RawWay{
		way(2, "residential", datastructure.OnewayNo, "", 3, 4),
		way(1, "residential", datastructure.OnewayNo, "", 1, 2),
	})
	require.NoError(t, err)
	assert.True(t, g.HasNode(1))
	assert.False(t, g.HasNode(3))

	t.Run("negative node ids", func(t *testing.T) {
		// id negatif dipakai editor osm untuk node yang belum di-upload
		// min id component {-1, 5} adalah -1, lebih kecil dari min {2, 3}
		nodes := map[int64]datastructure.RawNode{
			-1: {ID: -1, Lat: 0, Lon: step},
			5:  {ID: 5, Lat: 0, Lon: 5 * step},
			2:  {ID: 2, Lat: step, Lon: 2 * step},
			3:  {ID: 3, Lat: step, Lon: 3 * step},
		}
		g, err := newBuilder().Build(nodes, []datastructure.RawWay{
			way(1, "residential", datastructure.OnewayNo, "", 2, 3),
			way(2, "residential", datastructure.OnewayNo, "", -1, 5),
		})
		require.NoError(t, err)
		assert.True(t, g.HasNode(-1))
		assert.True(t, g.HasNode(5))
		assert.False(t, g.HasNode(2))
		assert.False(t, g.HasNode(3))
	})
}

func TestMutualReachabilityOnGrid(t *testing.T) {
	// grid 5x5, baris genap oneway ke timur, baris ganjil oneway ke barat, kolom two-way
	const size = 5
	nodes := map[int64]datastructure.RawNode{}
	id := func(r, c int) int64 { return int64(r*size + c + 1) }
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			nodes[id(r, c)] = datastructure.RawNode{ID: id(r, c), Lat: float64(r) * step, Lon: float64(c) * step}
		}
	}
	ways := []datastructure.RawWay{}
	wayID := int64(1)
	for r := 0; r < size; r++ {
		seq := []int64{}
		for c := 0; c < size; c++ {
			seq = append(seq, id(r, c))
		}
		dir := datastructure.OnewayForward
		if r%2 == 1 {
			dir = datastructure.OnewayReverse
		}
		ways = append(ways, way(wayID, "secondary", dir, "", seq...))
		wayID++
	}
	for c := 0; c < size; c += 2 {
		seq := []int64{}
		for r := 0; r < size; r++ {
			seq = append(seq, id(r, c))
		}
		ways = append(ways, way(wayID, "tertiary", datastructure.OnewayNo, "", seq...))
		wayID++
	}
	// dead-end oneway keluar dari grid
	nodes[1000] = datastructure.RawNode{ID: 1000, Lat: -step, Lon: 0}
	ways = append(ways, way(wayID, "service", datastructure.OnewayForward, "", id(0, 0), 1000))

	g, err := newBuilder().Build(nodes, ways)
	require.NoError(t, err)
	assert.False(t, g.HasNode(1000))
	assertStronglyConnected(t, g)
}

func TestDuplicateEdgePolicy(t *testing.T) {
	b := newBuilder()
	nodes := lineNodes(3)
	first := way(1, "residential", datastructure.OnewayForward, "pertama", 1, 2, 3)
	// way yang sama muncul dua kali dengan nama berbeda: edge (1,2,1) dan (2,3,1) kedua dibuang
	second := way(1, "residential", datastructure.OnewayForward, "kedua", 1, 2, 3)
	// way lain di pasangan node yang sama bukan duplikat
	other := way(2, "residential", datastructure.OnewayForward, "lain", 1, 2)

	raw, dup := b.buildRawGraph(nodes, []datastructure.RawWay{first, second, other})
	assert.Equal(t, 2, dup)
	assert.Len(t, raw.edges, 3)
	for _, e := range raw.edges {
		if e.WayID == 1 {
			assert.Equal(t, "pertama", e.Name)
		}
	}
}

func TestFilter(t *testing.T) {
	nodes := lineNodes(3)

	t.Run("disallowed class dropped", func(t *testing.T) {
		_, err := newBuilder().Build(nodes, []datastructure.RawWay{
			way(1, "footway", datastructure.OnewayNo, "", 1, 2, 3),
		})
		assert.ErrorIs(t, err, ErrGraphEmpty)
	})

	t.Run("way with one known node dropped", func(t *testing.T) {
		_, err := newBuilder().Build(nodes, []datastructure.RawWay{
			way(1, "residential", datastructure.OnewayNo, "", 1, 99, 98),
		})
		assert.ErrorIs(t, err, ErrGraphEmpty)
	})

	t.Run("unknown nodes skipped inside way", func(t *testing.T) {
		g, err := newBuilder().Build(nodes, []datastructure.RawWay{
			way(1, "residential", datastructure.OnewayNo, "", 1, 99, 3),
		})
		require.NoError(t, err)
		assert.True(t, g.HasNode(1))
		assert.True(t, g.HasNode(3))
	})

	t.Run("coincident nodes do not make zero length edges", func(t *testing.T) {
		nodes := lineNodes(3)
		// node 4 beda id tapi koordinatnya sama dengan node 2
		nodes[4] = datastructure.RawNode{ID: 4, Lat: nodes[2].Lat, Lon: nodes[2].Lon}

		raw, _ := newBuilder().buildRawGraph(nodes, []datastructure.RawWay{
			way(1, "residential", datastructure.OnewayNo, "", 1, 2, 4, 3),
		})
		for _, e := range raw.edges {
			assert.Greater(t, e.Length, 0.0)
			assert.NotEqual(t, int64(4), raw.nodes[e.From].ID)
			assert.NotEqual(t, int64(4), raw.nodes[e.To].ID)
		}
		assert.Len(t, raw.edges, 4)

		g, err := newBuilder().Build(nodes, []datastructure.RawWay{
			way(1, "residential", datastructure.OnewayNo, "", 1, 2, 4, 3),
		})
		require.NoError(t, err)
		assert.True(t, g.HasNode(1))
		assert.True(t, g.HasNode(3))
		assertStronglyConnected(t, g)
	})

	t.Run("way of only coincident nodes dropped", func(t *testing.T) {
		nodes := map[int64]datastructure.RawNode{
			1: {ID: 1, Lat: -7.57, Lon: 110.82},
			2: {ID: 2, Lat: -7.57, Lon: 110.82},
		}
		_, err := newBuilder().Build(nodes, []datastructure.RawWay{
			way(1, "residential", datastructure.OnewayNo, "", 1, 2),
		})
		assert.ErrorIs(t, err, ErrGraphEmpty)
	})

	t.Run("oneway only graph has no scc edges", func(t *testing.T) {
		_, err := newBuilder().Build(nodes, []datastructure.RawWay{
			way(1, "residential", datastructure.OnewayForward, "", 1, 2, 3),
		})
		assert.ErrorIs(t, err, ErrGraphEmpty)
	})
}

func TestBuildDeterministic(t *testing.T) {
	nodes := lineNodes(6)
	nodes[7] = datastructure.RawNode{ID: 7, Lat: step, Lon: 3 * step}
	ways := []datastructure.RawWay{
		way(1, "primary", datastructure.OnewayNo, "", 1, 2, 3, 4, 5, 6),
		way(2, "residential", datastructure.OnewayNo, "", 3, 7, 5),
	}
	g1, err := newBuilder().Build(nodes, ways)
	require.NoError(t, err)
	g2, err := newBuilder().Build(nodes, ways)
	require.NoError(t, err)
	assert.Equal(t, g1.EdgeKeys(), g2.EdgeKeys())
	assert.NotEqual(t, g1.Generation(), g2.Generation())
}

func TestSpeedFallback(t *testing.T) {
	nodes := lineNodes(2)
	for _, speed := range []float64{0, -20, math.NaN(), math.Inf(1)} {
		w := way(1, "secondary", datastructure.OnewayNo, "", 1, 2)
		w.MaxSpeed = speed
		raw, _ := newBuilder().buildRawGraph(nodes, []datastructure.RawWay{w})
		require.Len(t, raw.edges, 2)
		for _, e := range raw.edges {
			assert.Equal(t, datastructure.RoadTypeMaxSpeed("secondary"), e.BaseSpeed, "maxspeed %v", speed)
		}
	}

	w := way(1, "secondary", datastructure.OnewayNo, "", 1, 2)
	w.MaxSpeed = 35
	raw, _ := newBuilder().buildRawGraph(nodes, []datastructure.RawWay{w})
	assert.Equal(t, 35.0, raw.edges[0].BaseSpeed)
}
