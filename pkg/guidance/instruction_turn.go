package guidance

import (
	"math"

	"lintang/floodnav/pkg/datastructure"
)

/*
GetAlternativeTurns. get jumlah belokan alternatif yang bisa dilakukan dari baseNode sekarang & bukan currentEdge/prevEdge. Misalkan:

		 |
		 |
	 alternative
		 |
--prev-- B --currentEdge---
		 |
		 |
	alternative
		 |

ada 4 belokan yang bisa dilakukan dari baseNode B. belokan didapat dari out edges baseNode.
*/ // nolint: gofmt
func (ife *InstructionsFromEdges) GetAlternativeTurns(baseNode, adjNode, prevNode int32) (int, []*datastructure.Edge) {
	alternativeTurns := []*datastructure.Edge{}
	for _, edgeIDx := range ife.graph.OutEdges(baseNode) {
		edge := ife.graph.GetEdge(edgeIDx)
		if edge.To != prevNode && edge.To != adjNode {
			alternativeTurns = append(alternativeTurns, edge)
		}
	}

	return 1 + len(alternativeTurns), alternativeTurns
}

func isLeavingCurrentStreet(prevEdge, currentEdge *datastructure.Edge) bool {
	if isSameName(currentEdge.Name, prevEdge.Name) {
		return false
	}
	// nama beda & road class beda
	return prevEdge.RoadClass != currentEdge.RoadClass
}

/*
getOtherEdgeContinueDirection. get alternativeEdges lain dari baseNode yang arahnya continue. Misalkan

				---- currentEdge-----

--prevEdge-- baseNode

				----alternativeEdge-----

delta bearing antara currentEdge dan alternativeEdge mendekati 0°
*/ // nolint: gofmt
func (ife *InstructionsFromEdges) getOtherEdgeContinueDirection(prevOrientation float64, alternativeTurns []*datastructure.Edge) *datastructure.Edge {
	for _, edge := range alternativeTurns {
		a, b := firstSegment(ife.graph, edge)
		tmpSign := getTurnDirection(a.Lat, a.Lon, b.Lat, b.Lon, prevOrientation)
		if math.Abs(float64(tmpSign)) <= 1 {
			return edge
		}
	}
	return nil
}

func isMajorRoad(roadClass string) bool {
	return roadClass == "motorway" || roadClass == "trunk" || roadClass == "primary" || roadClass == "secondary" || roadClass == "tertiary"
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}

const (
	DEGREE_TO_RADIANS = 0.017453292519943295
)

func toRadians(degrees float64) float64 {
	return degrees * DEGREE_TO_RADIANS
}

func alignOrientation(baseOrientation, orientation float64) float64 {
	if baseOrientation >= 0 {
		if orientation < -math.Pi+baseOrientation {
			return orientation + 2*math.Pi
		}
		return orientation
	}
	if orientation > math.Pi+baseOrientation {
		return orientation - 2*math.Pi
	}
	return orientation
}

func isSameName(name1, name2 string) bool {
	if name1 == "" || name2 == "" {
		// seringkali di osm, nama street kosong "", better dianggap false
		return false
	}
	return name1 == name2
}

func calcOrientation(lat1, lon1, lat2, lon2 float64) float64 {
	return toRadians(BearingTo(lat1, lon1, lat2, lon2))
}

func calculateOrientationDelta(prevLatitude, prevLongitude, latitude, longitude, prevOrientation float64) float64 {
	orientation := calcOrientation(prevLatitude, prevLongitude, latitude, longitude)
	orientation = alignOrientation(prevOrientation, orientation)
	return orientation - prevOrientation
}

func getTurnDirection(prevLatitude, prevLongitude, latitude, longitude, prevOrientation float64) int {
	delta := calculateOrientationDelta(prevLatitude, prevLongitude, latitude, longitude, prevOrientation)
	deltaDegree := math.Abs(delta) * (180 / math.Pi)
	switch {
	case deltaDegree < 12:
		return CONTINUE_ON_STREET
	case deltaDegree < 40:
		if delta < 0 {
			return TURN_SLIGHT_LEFT
		}
		return TURN_SLIGHT_RIGHT
	case deltaDegree < 105:
		if delta < 0 {
			return TURN_LEFT
		}
		return TURN_RIGHT
	case delta < 0:
		return TURN_SHARP_LEFT
	default:
		return TURN_SHARP_RIGHT
	}
}
