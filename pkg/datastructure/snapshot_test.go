package datastructure

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoNodes() []Node {
	return []Node{{ID: 1, Lat: -7.57, Lon: 110.82}, {ID: 2, Lat: -7.57, Lon: 110.821}}
}

func TestSnapshotValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		s := GraphSnapshot{Nodes: twoNodes(), Edges: []Edge{{From: 0, To: 1, Length: 111}, {From: 1, To: 0, Length: 111}}}
		require.NoError(t, s.Validate())
		g, err := s.ToGraph()
		require.NoError(t, err)
		assert.Equal(t, 2, g.NumberOfEdges())
	})

	t.Run("no edges", func(t *testing.T) {
		_, err := GraphSnapshot{Nodes: twoNodes()}.ToGraph()
		assert.ErrorIs(t, err, ErrSnapshotEmpty)
	})

	cases := []struct {
		name string
		snap GraphSnapshot
	}{
		{"negative endpoint", GraphSnapshot{Nodes: twoNodes(), Edges: []Edge{{From: -1, To: 1, Length: 10}}}},
		{"endpoint past node table", GraphSnapshot{Nodes: twoNodes(), Edges: []Edge{{From: 0, To: 2, Length: 10}}}},
		{"zero length", GraphSnapshot{Nodes: twoNodes(), Edges: []Edge{{From: 0, To: 1, Length: 0}}}},
		{"NaN length", GraphSnapshot{Nodes: twoNodes(), Edges: []Edge{{From: 0, To: 1, Length: math.NaN()}}}},
		{"infinite length", GraphSnapshot{Nodes: twoNodes(), Edges: []Edge{{From: 0, To: 1, Length: math.Inf(1)}}}},
		{"duplicate node id", GraphSnapshot{Nodes: []Node{{ID: 1}, {ID: 1}}, Edges: []Edge{{From: 0, To: 1, Length: 10}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g, err := tc.snap.ToGraph()
			assert.Nil(t, g)
			assert.ErrorIs(t, err, ErrSnapshotInvalid)
		})
	}
}
