package datastructure

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrSnapshotEmpty   = errors.New("datastructure: graph snapshot has no edges")
	ErrSnapshotInvalid = errors.New("datastructure: graph snapshot is inconsistent")
)

// GraphSnapshot serialized form of a RoutingGraph. Adjacency is rebuilt from the edge table on load.
type GraphSnapshot struct {
	Nodes []Node
	Edges []Edge
}

func (g *RoutingGraph) Snapshot() GraphSnapshot {
	return GraphSnapshot{
		Nodes: g.nodes,
		Edges: g.edges,
	}
}

// Validate cek edge table sebelum adjacency dibangun: endpoint harus index node yang valid,
// length positif & finite, dan node id unik.
func (s GraphSnapshot) Validate() error {
	if len(s.Edges) == 0 {
		return ErrSnapshotEmpty
	}
	ids := make(map[int64]struct{}, len(s.Nodes))
	for i, n := range s.Nodes {
		if _, ok := ids[n.ID]; ok {
			return fmt.Errorf("%w: node %d: duplicate id %d", ErrSnapshotInvalid, i, n.ID)
		}
		ids[n.ID] = struct{}{}
	}
	numNodes := int32(len(s.Nodes))
	for i, e := range s.Edges {
		if e.From < 0 || e.From >= numNodes || e.To < 0 || e.To >= numNodes {
			return fmt.Errorf("%w: edge %d: endpoint (%d,%d) outside %d nodes", ErrSnapshotInvalid, i, e.From, e.To, numNodes)
		}
		if !(e.Length > 0) || math.IsInf(e.Length, 0) {
			return fmt.Errorf("%w: edge %d: length %v", ErrSnapshotInvalid, i, e.Length)
		}
	}
	return nil
}

// ToGraph membuat RoutingGraph baru (generation baru) dari snapshot yang sudah divalidasi.
func (s GraphSnapshot) ToGraph() (*RoutingGraph, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return NewRoutingGraph(s.Nodes, s.Edges), nil
}
