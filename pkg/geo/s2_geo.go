package geo

import (
	"errors"
	"fmt"

	"lintang/floodnav/pkg/datastructure"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

var (
	ErrTooFewVertices   = errors.New("geometry has too few vertices")
	ErrSelfIntersecting = errors.New("polygon ring is self-intersecting")
)

func S2Point(lat, lon float64) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon))
}

func CoordToS2(c datastructure.Coordinate) s2.Point {
	return S2Point(c.Lat, c.Lon)
}

func OrbToS2(p orb.Point) s2.Point {
	return S2Point(p[1], p[0])
}

func angleToMeters(a s1.Angle) float64 {
	return a.Radians() * EarthRadiusMeters
}

// SegmentsIntersect true kalau segment ab dan cd bersilangan atau berbagi vertex.
func SegmentsIntersect(a, b, c, d s2.Point) bool {
	if a == c || a == d || b == c || b == d {
		return true
	}
	return s2.CrossingSign(a, b, c, d) != s2.DoNotCross
}

// SegmentDistance minimum distance in meters between segments ab and cd.
func SegmentDistance(a, b, c, d s2.Point) float64 {
	if SegmentsIntersect(a, b, c, d) {
		return 0
	}
	min := s2.DistanceFromSegment(a, c, d)
	for _, dd := range []s1.Angle{
		s2.DistanceFromSegment(b, c, d),
		s2.DistanceFromSegment(c, a, b),
		s2.DistanceFromSegment(d, a, b),
	} {
		if dd < min {
			min = dd
		}
	}
	return angleToMeters(min)
}

// PolylineWithin true kalau jarak minimum dua polyline <= tolMeters.
func PolylineWithin(line, other []s2.Point, tolMeters float64) bool {
	for i := 1; i < len(line); i++ {
		for j := 1; j < len(other); j++ {
			if SegmentDistance(line[i-1], line[i], other[j-1], other[j]) <= tolMeters {
				return true
			}
		}
	}
	return false
}

// NewLoop builds a validated s2 loop from a ring in (lon,lat) order. A closing vertex equal to the
// first one is dropped; the loop is normalized so it covers at most half the sphere.
func NewLoop(ring orb.Ring) (*s2.Loop, error) {
	pts := make([]s2.Point, 0, len(ring))
	for i, p := range ring {
		if i == len(ring)-1 && len(ring) > 1 && p == ring[0] {
			break
		}
		sp := OrbToS2(p)
		if len(pts) > 0 && pts[len(pts)-1] == sp {
			continue
		}
		pts = append(pts, sp)
	}
	if len(pts) < 3 {
		return nil, fmt.Errorf("%w: ring needs 3 distinct vertices, got %d", ErrTooFewVertices, len(pts))
	}
	if ringSelfIntersects(pts) {
		return nil, ErrSelfIntersecting
	}
	loop := s2.LoopFromPoints(pts)
	if err := loop.Validate(); err != nil {
		return nil, err
	}
	loop.Normalize()
	return loop, nil
}

// ringSelfIntersects O(n^2) check antar edge yang tidak bertetangga.
func ringSelfIntersects(pts []s2.Point) bool {
	n := len(pts)
	for i := 0; i < n; i++ {
		a, b := pts[i], pts[(i+1)%n]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			c, d := pts[j], pts[(j+1)%n]
			if s2.CrossingSign(a, b, c, d) == s2.Cross {
				return true
			}
		}
	}
	return false
}

// LoopTouchesPolyline true kalau polyline masuk ke dalam loop, memotong boundary-nya,
// atau berjarak <= tolMeters dari boundary.
func LoopTouchesPolyline(loop *s2.Loop, line []s2.Point, tolMeters float64) bool {
	for _, p := range line {
		if loop.ContainsPoint(p) {
			return true
		}
	}
	boundary := make([]s2.Point, 0, loop.NumVertices()+1)
	boundary = append(boundary, loop.Vertices()...)
	boundary = append(boundary, loop.Vertex(0))
	return PolylineWithin(line, boundary, tolMeters)
}

func CoordsToS2(coords []datastructure.Coordinate) []s2.Point {
	pts := make([]s2.Point, len(coords))
	for i, c := range coords {
		pts[i] = CoordToS2(c)
	}
	return pts
}

func LineStringToS2(ls orb.LineString) []s2.Point {
	pts := make([]s2.Point, len(ls))
	for i, p := range ls {
		pts[i] = OrbToS2(p)
	}
	return pts
}

// PointPolylineDistance jarak minimum (meter) dari p ke polyline.
func PointPolylineDistance(p s2.Point, line []s2.Point) float64 {
	if len(line) == 1 {
		return angleToMeters(p.Distance(line[0]))
	}
	min := s1.InfAngle()
	for i := 1; i < len(line); i++ {
		if d := s2.DistanceFromSegment(p, line[i-1], line[i]); d < min {
			min = d
		}
	}
	return angleToMeters(min)
}
