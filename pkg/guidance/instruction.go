package guidance

import (
	"fmt"
	"strings"

	"lintang/floodnav/pkg/datastructure"
)

const (
	UNKNOWN            = -9999
	U_TURN_UNKNOWN     = -999
	U_TURN_LEFT        = -8
	KEEP_LEFT          = -7
	TURN_SHARP_LEFT    = -3
	TURN_LEFT          = -2
	TURN_SLIGHT_LEFT   = -1
	CONTINUE_ON_STREET = 0
	TURN_SLIGHT_RIGHT  = 1
	TURN_RIGHT         = 2
	TURN_SHARP_RIGHT   = 3
	FINISH             = 4
	IGNORE             = 9999999
	KEEP_RIGHT         = 7
	U_TURN_RIGHT       = 8
	START              = 101
)

type Instruction struct {
	Point    datastructure.Coordinate
	Sign     int
	Name     string
	Distance float64 // meter sampai instruction berikutnya
	Time     float64 // detik
	Heading  float64 // derajat 0..360, cuma diisi buat START
}

func NewInstruction(sign int, name string, p datastructure.Coordinate) *Instruction {
	return &Instruction{
		Sign:  sign,
		Name:  name,
		Point: p,
	}
}

func (instr *Instruction) GetTurnDescription() string {
	streetName := instr.Name

	switch instr.Sign {
	case CONTINUE_ON_STREET:
		if isEmpty(streetName) {
			return "Continue"
		}
		return fmt.Sprintf("Continue onto %s", streetName)
	case START:
		compassDir := azimuthToCompass(instr.Heading)
		if isEmpty(streetName) {
			return fmt.Sprintf("Head %s", compassDir)
		}
		return fmt.Sprintf("Head %s toward %s", compassDir, streetName)
	case FINISH:
		return "You have arrived at your destination"
	}

	dir := getDirectionDescription(instr.Sign)
	if dir == "" {
		return fmt.Sprintf("Unknown instruction %d", instr.Sign)
	}
	if isEmpty(streetName) {
		return dir
	}
	switch instr.Sign {
	case KEEP_LEFT, KEEP_RIGHT:
		return fmt.Sprintf("%s to continue on %s", dir, streetName)
	default:
		return fmt.Sprintf("%s onto %s", dir, streetName)
	}
}

func azimuthToCompass(azimuth float64) string {
	if azimuth < 22.5 {
		return "North"
	} else if azimuth < 67.5 {
		return "North East"
	} else if azimuth < 112.5 {
		return "East"
	} else if azimuth < 157.5 {
		return "South East"
	} else if azimuth < 202.5 {
		return "South"
	} else if azimuth < 247.5 {
		return "South West"
	} else if azimuth < 292.5 {
		return "West"
	} else if azimuth < 337.5 {
		return "North West"
	}
	return "North"
}

func getDirectionDescription(sign int) string {
	switch sign {
	case U_TURN_UNKNOWN:
		return "Make U-turn"
	case U_TURN_RIGHT:
		return "Make U-turn right"
	case U_TURN_LEFT:
		return "Make U-turn left"
	case KEEP_LEFT:
		return "Keep left"
	case TURN_SHARP_LEFT:
		return "Turn sharp left"
	case TURN_LEFT:
		return "Turn left"
	case TURN_SLIGHT_LEFT:
		return "Turn slight left"
	case TURN_SLIGHT_RIGHT:
		return "Turn slight right"
	case TURN_RIGHT:
		return "Turn right"
	case TURN_SHARP_RIGHT:
		return "Turn sharp right"
	case KEEP_RIGHT:
		return "Keep right"
	default:
		return ""
	}
}

func isEmpty(str string) bool {
	return strings.TrimSpace(str) == ""
}
