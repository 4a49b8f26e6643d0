package osmparser

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"

	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/util"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"go.uber.org/zap"
)

const mphToKmh = 1.609344

type OsmParser struct {
	log *zap.Logger
}

func NewOSMParser(log *zap.Logger) *OsmParser {
	return &OsmParser{log: log}
}

// OSMData hasil parsing. Places node bernama atau beralamat (dipakai geocoder), boleh juga ada di Nodes.
type OSMData struct {
	Nodes  map[int64]datastructure.RawNode
	Ways   []datastructure.RawWay
	Places []datastructure.RawNode
}

// Parse baca file .osm.pbf, return node yang direferensikan way jalan mobil & way-nya.
func (p *OsmParser) Parse(ctx context.Context, mapFile string) (*OSMData, error) {
	f, err := os.Open(mapFile)
	if err != nil {
		return nil, fmt.Errorf("open map file %s: %w", mapFile, err)
	}
	defer f.Close()
	return p.ParseReader(ctx, f)
}

// ParseReader scans r twice: ways first, then the nodes those ways reference plus named places.
func (p *OsmParser) ParseReader(ctx context.Context, r io.ReadSeeker) (*OSMData, error) {
	procs := runtime.GOMAXPROCS(0)

	scanner := osmpbf.New(ctx, r, procs)
	scanner.SkipNodes = true
	scanner.SkipRelations = true

	bar := util.NewProgressBar(-1, "[cyan][1/2][reset] memproses openstreetmap way...")
	ways := []datastructure.RawWay{}
	wayNodes := make(map[int64]struct{})
	skipped := 0
	for scanner.Scan() {
		way, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		rw, ok := WayFromOSM(way)
		if !ok {
			skipped++
			continue
		}
		ways = append(ways, rw)
		for _, id := range rw.NodeIDs {
			wayNodes[id] = struct{}{}
		}
		bar.Add(1)
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("scan osm ways: %w", err)
	}
	scanner.Close()
	fmt.Println("")

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	scanner = osmpbf.New(ctx, r, procs)
	defer scanner.Close()
	scanner.SkipWays = true
	scanner.SkipRelations = true

	bar = util.NewProgressBar(len(wayNodes), "[cyan][2/2][reset] memproses openstreetmap node...")
	nodes := make(map[int64]datastructure.RawNode, len(wayNodes))
	places := []datastructure.RawNode{}
	for scanner.Scan() {
		node, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		_, used := wayNodes[int64(node.ID)]
		place := isPlace(node.Tags)
		if !used && !place {
			continue
		}
		rn := NodeFromOSM(node)
		if used {
			nodes[rn.ID] = rn
			bar.Add(1)
		}
		if place {
			places = append(places, rn)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan osm nodes: %w", err)
	}
	fmt.Println("")

	p.log.Info("parsed openstreetmap data",
		zap.Int("ways", len(ways)),
		zap.Int("skippedWays", skipped),
		zap.Int("nodes", len(nodes)),
		zap.Int("missingNodes", len(wayNodes)-len(nodes)),
		zap.Int("places", len(places)))
	return &OSMData{Nodes: nodes, Ways: ways, Places: places}, nil
}

func isPlace(tags osm.Tags) bool {
	return tags.Find("name") != "" || tags.Find("addr:housenumber") != ""
}

func NodeFromOSM(node *osm.Node) datastructure.RawNode {
	var tags map[string]string
	if len(node.Tags) > 0 {
		tags = node.Tags.Map()
	}
	return datastructure.RawNode{
		ID:   int64(node.ID),
		Lat:  node.Lat,
		Lon:  node.Lon,
		Tags: tags,
	}
}

// WayFromOSM returns false for ways that cars cannot use.
func WayFromOSM(way *osm.Way) (datastructure.RawWay, bool) {
	highway := way.Tags.Find("highway")
	if !datastructure.ValidRoadType[highway] {
		return datastructure.RawWay{}, false
	}
	if way.Tags.Find("area") == "yes" {
		return datastructure.RawWay{}, false
	}
	access := way.Tags.Find("access")
	if access == "no" || access == "private" {
		return datastructure.RawWay{}, false
	}

	nodeIDs := make([]int64, 0, len(way.Nodes))
	for _, wn := range way.Nodes {
		nodeIDs = append(nodeIDs, int64(wn.ID))
	}

	return datastructure.RawWay{
		ID:       int64(way.ID),
		NodeIDs:  nodeIDs,
		Highway:  highway,
		Oneway:   parseOneway(way.Tags, highway),
		Name:     way.Tags.Find("name"),
		MaxSpeed: parseMaxSpeed(way.Tags.Find("maxspeed")),
	}, true
}

func parseOneway(tags osm.Tags, highway string) datastructure.OnewayDirection {
	v := strings.ToLower(strings.TrimSpace(tags.Find("oneway")))
	switch v {
	case "yes", "1", "true":
		return datastructure.OnewayForward
	case "-1", "reverse":
		return datastructure.OnewayReverse
	case "no", "false", "0":
		return datastructure.OnewayNo
	}
	// implied oneway
	if tags.Find("junction") == "roundabout" || highway == "motorway" {
		return datastructure.OnewayForward
	}
	return datastructure.OnewayNo
}

// parseMaxSpeed "50", "50 km/h", "30 mph". return 0 kalau gak bisa diparse atau bukan angka positif finite.
func parseMaxSpeed(v string) float64 {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	fields := strings.Fields(v)
	speed, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || !(speed > 0) || math.IsInf(speed, 0) {
		return 0
	}
	if len(fields) > 1 && fields[1] == "mph" {
		speed *= mphToKmh
	}
	return speed
}
