package datastructure

import "time"

type RouteStats struct {
	EdgeCount        int           `json:"edge_count"`
	NodesVisited     int           `json:"nodes_visited"`
	ObstaclesOnRoute int           `json:"obstacles_on_route"`
	BlockedEdges     int           `json:"blocked_edges"`
	PenalizedEdges   int           `json:"penalized_edges"`
	SearchTime       time.Duration `json:"search_time_ns"`
}

type PathResult struct {
	Nodes       []int64
	Edges       []int32 // edge index, urut dari source ke target
	Coordinates []Coordinate
	Distance    float64 // meter
	Duration    float64 // detik
	Cost        float64 // weighted cost, cuma buat ranking
	Stats       RouteStats
}
