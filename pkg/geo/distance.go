package geo

import (
	"math"

	"lintang/floodnav/pkg/datastructure"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

const EarthRadiusMeters = orb.EarthRadius

// HaversineDistance great-circle distance dalam meter.
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	return orbgeo.DistanceHaversine(orb.Point{lon1, lat1}, orb.Point{lon2, lat2})
}

func CoordDistance(a, b datastructure.Coordinate) float64 {
	return HaversineDistance(a.Lat, a.Lon, b.Lat, b.Lon)
}

// PolylineLength sum of haversine segment lengths in meters.
func PolylineLength(coords []datastructure.Coordinate) float64 {
	total := 0.0
	for i := 1; i < len(coords); i++ {
		total += CoordDistance(coords[i-1], coords[i])
	}
	return total
}

// BoundOf bounding box (lon,lat) dari polyline.
func BoundOf(coords []datastructure.Coordinate) orb.Bound {
	ls := make(orb.LineString, len(coords))
	for i, c := range coords {
		ls[i] = orb.Point{c.Lon, c.Lat}
	}
	return ls.Bound()
}

// PadBound expands b by meters on every side.
func PadBound(b orb.Bound, meters float64) orb.Bound {
	return orbgeo.BoundPad(b, meters)
}

//	φ is latitude, λ is longitude
//
// https://www.movable-type.co.uk/scripts/latlong.html
func MidPoint(lat1, lon1 float64, lat2, lon2 float64) (float64, float64) {
	p1LatRad := degToRad(lat1)
	p2LatRad := degToRad(lat2)

	diffLon := degToRad(lon2 - lon1)

	bx := math.Cos(p2LatRad) * math.Cos(diffLon)
	by := math.Cos(p2LatRad) * math.Sin(diffLon)

	newLon := degToRad(lon1) + math.Atan2(by, math.Cos(p1LatRad)+bx)
	newLat := math.Atan2(math.Sin(p1LatRad)+math.Sin(p2LatRad), math.Sqrt((math.Cos(p1LatRad)+bx)*(math.Cos(p1LatRad)+bx)+by*by))

	return radToDeg(newLat), radToDeg(newLon)
}

func degToRad(d float64) float64 {
	return d * math.Pi / 180.0
}

func radToDeg(r float64) float64 {
	return 180.0 * r / math.Pi
}
