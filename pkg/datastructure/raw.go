package datastructure

type OnewayDirection int8

const (
	OnewayNo OnewayDirection = iota
	OnewayForward
	OnewayReverse
)

// RawNode osm node apa adanya dari map data.
type RawNode struct {
	ID   int64
	Lat  float64
	Lon  float64
	Tags map[string]string
}

type RawWay struct {
	ID       int64
	NodeIDs  []int64
	Highway  string
	Oneway   OnewayDirection
	Name     string
	MaxSpeed float64 // 0 kalau tidak ada tag maxspeed
}

// ValidRoadType highway class yang dipakai buat routing mobil.
var ValidRoadType = map[string]bool{
	"motorway":       true,
	"trunk":          true,
	"primary":        true,
	"secondary":      true,
	"tertiary":       true,
	"unclassified":   true,
	"residential":    true,
	"motorway_link":  true,
	"trunk_link":     true,
	"primary_link":   true,
	"secondary_link": true,
	"tertiary_link":  true,
	"living_street":  true,
	"service":        true,
}
