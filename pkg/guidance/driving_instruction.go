package guidance

import (
	"errors"
	"math"

	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/util"
)

var ErrEmptyPath = errors.New("guidance: path is empty")

type InstructionsFromEdges struct {
	graph                 *datastructure.RoutingGraph
	Ways                  []*Instruction
	prevEdge              *datastructure.Edge
	prevOrientation       float64 // orientasi segment terakhir prevEdge
	doublePrevOrientation float64 // orientasi prevEdge waktu instruction sebelumnya dibuat
	prevInstruction       *Instruction
	doublePrevStreetName  string
}

func NewInstructionsFromEdges(g *datastructure.RoutingGraph) *InstructionsFromEdges {
	return &InstructionsFromEdges{
		graph: g,
		Ways:  make([]*Instruction, 0),
	}
}

type DrivingInstruction struct {
	Instruction string                   `json:"instruction"`
	Sign        int                      `json:"sign"`
	Point       datastructure.Coordinate `json:"point"`
	StreetName  string                   `json:"street_name"`
	ETA         float64                  `json:"eta"`
	Distance    float64                  `json:"distance"`
}

func NewDrivingInstruction(ins *Instruction) DrivingInstruction {
	return DrivingInstruction{
		Instruction: ins.GetTurnDescription(),
		Sign:        ins.Sign,
		Point:       ins.Point,
		StreetName:  ins.Name,
		ETA:         util.RoundFloat(ins.Time, 2),
		Distance:    util.RoundFloat(ins.Distance, 2),
	}
}

// GetDrivingInstructions turn-by-turn instructions dari edge index shortest path (urut source ke target).
func GetDrivingInstructions(g *datastructure.RoutingGraph, path []int32) ([]DrivingInstruction, error) {
	if len(path) == 0 {
		return []DrivingInstruction{}, ErrEmptyPath
	}

	ife := NewInstructionsFromEdges(g)
	for _, edgeIDx := range path {
		ife.AddInstructionFromEdge(edgeIDx)
	}
	ife.Finish()

	drivingInstructions := make([]DrivingInstruction, 0, len(ife.Ways))
	for _, ins := range ife.Ways {
		drivingInstructions = append(drivingInstructions, NewDrivingInstruction(ins))
	}
	return drivingInstructions, nil
}

func (ife *InstructionsFromEdges) AddInstructionFromEdge(edgeIDx int32) {
	edge := ife.graph.GetEdge(edgeIDx)
	start, next := firstSegment(ife.graph, edge)

	if ife.prevInstruction == nil {
		// start point dari shortest path
		ife.prevInstruction = NewInstruction(START, edge.Name, start)
		ife.prevInstruction.Heading = normalizeBearing(BearingTo(start.Lat, start.Lon, next.Lat, next.Lon))
		ife.Ways = append(ife.Ways, ife.prevInstruction)
	} else {
		sign := ife.GetTurnSign(edge)
		if sign != IGNORE {
			isUTurn, uTurnType := ife.CheckUTurn(sign, edge)
			if isUTurn {
				// instruction sebelumnya (belok kanan/kiri) diganti jadi U-turn
				ife.prevInstruction.Sign = uTurnType
				ife.prevInstruction.Name = edge.Name
			} else {
				ife.prevInstruction = NewInstruction(sign, edge.Name, start)
				ife.doublePrevOrientation = ife.prevOrientation
				ife.doublePrevStreetName = ife.prevEdge.Name
				ife.Ways = append(ife.Ways, ife.prevInstruction)
			}
		}
	}

	ife.prevInstruction.Distance += edge.Length
	ife.prevInstruction.Time += edge.TravelTime()

	a, b := lastSegment(ife.graph, edge)
	ife.prevOrientation = calcOrientation(a.Lat, a.Lon, b.Lat, b.Lon)
	ife.prevEdge = edge
}

/*
CheckUTurn. check jika current edge adalah U-turn. Misalkan:

A --doublePrevEdge-->B
				    |
					|
				PrevEdge
					|
					|
					|
D <--currentEdge---C

jika dari A->B belok kanan, dan dari B->C belok kanan, dan delta bearing antara A->B dan C->D mendekati 180 derajat, maka bisa dianggap U-turn
*/ // nolint: gofmt
func (ife *InstructionsFromEdges) CheckUTurn(sign int, edge *datastructure.Edge) (bool, int) {
	uTurnType := U_TURN_UNKNOWN
	if sign < 0 {
		uTurnType = U_TURN_LEFT
	} else if sign > 0 {
		uTurnType = U_TURN_RIGHT
	}

	if ife.doublePrevOrientation == 0 || (sign > 0) != (ife.prevInstruction.Sign > 0) {
		return false, uTurnType
	}
	if !isTurn(sign) || !isTurn(ife.prevInstruction.Sign) || !isSameName(ife.doublePrevStreetName, edge.Name) {
		return false, uTurnType
	}

	a, b := firstSegment(ife.graph, edge)
	currentOrientation := calcOrientation(a.Lat, a.Lon, b.Lat, b.Lon)
	diffAngle := math.Abs(ife.doublePrevOrientation-currentOrientation) * (180 / math.Pi)
	return diffAngle > 155 && diffAngle < 205, uTurnType
}

func isTurn(sign int) bool {
	s := abs(sign)
	return s == TURN_SLIGHT_RIGHT || s == TURN_RIGHT || s == TURN_SHARP_RIGHT
}

/*
Finish. tambah final instruction.
*/
func (ife *InstructionsFromEdges) Finish() {
	_, end := lastSegment(ife.graph, ife.prevEdge)
	ife.Ways = append(ife.Ways, NewInstruction(FINISH, ife.prevEdge.Name, end))
}

/*
GetTurnSign. Medapatkan turn sign dari setiap 2 edge bersebelahan pada shortest path berdasarkan selisih bearing. Misalkan:

prevNode----prevEdge----BaseNode
							|
							|
						currentEdge
							|
							|
						AdjNode

*/ // nolint: gofmt
func (ife *InstructionsFromEdges) GetTurnSign(edge *datastructure.Edge) int {
	prevEdge := ife.prevEdge
	if edge.From == prevEdge.To && edge.To == prevEdge.From {
		// balik arah di edge yang sama
		return U_TURN_UNKNOWN
	}

	start, next := firstSegment(ife.graph, edge)
	sign := getTurnDirection(start.Lat, start.Lon, next.Lat, next.Lon, ife.prevOrientation)

	alternativeTurnsCount, alternativeTurns := ife.GetAlternativeTurns(edge.From, edge.To, prevEdge.From)

	if alternativeTurnsCount == 1 {
		// gak ada persimpangan, cuma belokan jalan
		if math.Abs(float64(sign)) > 1 {
			return sign
		}
		return IGNORE
	}

	if math.Abs(float64(sign)) > 1 {
		if isSameName(edge.Name, prevEdge.Name) {
			return IGNORE
		}
		return sign
	}

	otherContinueEdge := ife.getOtherEdgeContinueDirection(ife.prevOrientation, alternativeTurns)
	prevCurrEdgeOrientationDiff := calculateOrientationDelta(start.Lat, start.Lon, next.Lat, next.Lon, ife.prevOrientation)

	if otherContinueEdge != nil && !isSameName(edge.Name, prevEdge.Name) {
		// terdapat edge lain dari baseNode yang arahnya sama continue
		if isMajorRoad(edge.RoadClass) && edge.RoadClass == prevEdge.RoadClass && otherContinueEdge.RoadClass != prevEdge.RoadClass {
			return IGNORE
		}

		if edge.RoadClass == "residential" || prevEdge.RoadClass == "residential" ||
			(edge.RoadClass == "unclassified" && prevEdge.RoadClass == "unclassified") {
			// skip roadclass residential untuk mengurangi instructions.
			return IGNORE
		}

		a, b := firstSegment(ife.graph, otherContinueEdge)
		prevOtherEdgeOrientation := calculateOrientationDelta(a.Lat, a.Lon, b.Lat, b.Lon, ife.prevOrientation)

		/*
			jika dari baseNode ada 2 jalan yang arahnya sama sama lurus/sedikit belok, tambah keep instruction ke currEdge. Misalkan:

					-----currentEdge---------
			baseNode
					-----otherContinueEdge---
		*/ // nolint: gofmt
		if prevCurrEdgeOrientationDiff > prevOtherEdgeOrientation {
			return KEEP_RIGHT
		}
		return KEEP_LEFT
	}

	if math.Abs(prevCurrEdgeOrientationDiff)*(180/math.Pi) > 34 || isLeavingCurrentStreet(prevEdge, edge) {
		return sign
	}

	return IGNORE
}
