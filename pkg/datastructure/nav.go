package datastructure

import "math"

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{
		Lat: lat,
		Lon: lon,
	}
}

// Equal compares coordinates within tol degrees.
func (c Coordinate) Equal(o Coordinate, tol float64) bool {
	return math.Abs(c.Lat-o.Lat) <= tol && math.Abs(c.Lon-o.Lon) <= tol
}

type Weather string

const (
	WeatherNormal Weather = "normal"
	WeatherRain   Weather = "rain"
	WeatherFlood  Weather = "flood"
)

func (w Weather) Valid() bool {
	switch w {
	case WeatherNormal, WeatherRain, WeatherFlood:
		return true
	}
	return false
}

type ObstacleKind string

const (
	ObstacleBlock ObstacleKind = "block"
	ObstacleFlood ObstacleKind = "flood"
)

// BlockedEdgeSet & PenaltyMap request-scoped, tidak pernah ditulis ke graph.
type BlockedEdgeSet map[ArcKey]struct{}

func (b BlockedEdgeSet) Add(k ArcKey) {
	b[k] = struct{}{}
}

func (b BlockedEdgeSet) Contains(k ArcKey) bool {
	_, ok := b[k]
	return ok
}

type PenaltyMap map[ArcKey]float64

// Get returns the multiplier for k or def if absent.
func (p PenaltyMap) Get(k ArcKey, def float64) float64 {
	if v, ok := p[k]; ok {
		return v
	}
	return def
}

// SetMax keeps the largest multiplier seen for k.
func (p PenaltyMap) SetMax(k ArcKey, v float64) {
	if old, ok := p[k]; !ok || v > old {
		p[k] = v
	}
}
