package guidance

import (
	"math"

	"lintang/floodnav/pkg/datastructure"
)

/*
BearingTo. menghitung sudut bearing untuk edge (p1,p2), hasil -180..180.
https://www.movable-type.co.uk/scripts/latlong.html
*/
func BearingTo(p1Lat, p1Lon, p2Lat, p2Lon float64) float64 {
	dLon := (p2Lon - p1Lon) * math.Pi / 180.0

	lat1 := p1Lat * math.Pi / 180.0
	lat2 := p2Lat * math.Pi / 180.0

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) -
		math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return math.Atan2(y, x) * 180.0 / math.Pi
}

// normalizeBearing ke 0..360.
func normalizeBearing(b float64) float64 {
	return math.Mod(b+360, 360)
}

// firstSegment vertex pertama & kedua geometry edge. fallback ke node from/to kalau geometry kosong.
func firstSegment(g *datastructure.RoutingGraph, e *datastructure.Edge) (datastructure.Coordinate, datastructure.Coordinate) {
	if len(e.Geometry) >= 2 {
		return e.Geometry[0], e.Geometry[1]
	}
	return nodeCoord(g, e.From), nodeCoord(g, e.To)
}

// lastSegment dua vertex terakhir geometry edge.
func lastSegment(g *datastructure.RoutingGraph, e *datastructure.Edge) (datastructure.Coordinate, datastructure.Coordinate) {
	if n := len(e.Geometry); n >= 2 {
		return e.Geometry[n-2], e.Geometry[n-1]
	}
	return nodeCoord(g, e.From), nodeCoord(g, e.To)
}

func nodeCoord(g *datastructure.RoutingGraph, idx int32) datastructure.Coordinate {
	n := g.GetNode(idx)
	return datastructure.NewCoordinate(n.Lat, n.Lon)
}
