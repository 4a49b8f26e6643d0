package geocoder

import (
	"sort"
	"strings"
	"unicode"

	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/osmparser"
	"lintang/floodnav/pkg/spatialindex"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// ExactMatchThreshold score minimal supaya node hasil geocoding langsung dipakai tanpa snap ulang.
	ExactMatchThreshold = 80.0
	DefaultLimit        = 5
	// jarak maksimum place/house ke node graph
	maxSnapMeters = 100.0
)

const (
	TypeStreet = "street"
	TypePOI    = "poi"
	TypeHouse  = "house"
)

var typeRank = map[string]int{
	TypeStreet: 100,
	TypePOI:    80,
	TypeHouse:  50,
}

// Entry satu alamat yang bisa dicari. Lat/Lon lokasi fitur-nya, NodeID node graph terdekat.
type Entry struct {
	NodeID  int64   `json:"node_id"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Address string  `json:"address"`
	Type    string  `json:"type"`
}

type Result struct {
	Entry
	Score float64 `json:"score"`
}

// BuildEntries ambil nama jalan, POI, dan alamat rumah dari data osm lalu kaitkan ke node graph.
func BuildEntries(data *osmparser.OSMData, si *spatialindex.SpatialIndex) []Entry {
	g := si.Graph()
	entries := []Entry{}
	seen := map[string]struct{}{}

	for _, w := range data.Ways {
		name := strings.TrimSpace(w.Name)
		if name == "" {
			continue
		}
		key := normalize(name)
		if _, ok := seen[key]; ok {
			continue
		}

		var sumLat, sumLon float64
		count := 0
		nodeID := int64(-1)
		for _, id := range w.NodeIDs {
			n, ok := data.Nodes[id]
			if !ok {
				continue
			}
			sumLat += n.Lat
			sumLon += n.Lon
			count++
			if nodeID < 0 && g.HasNode(id) {
				nodeID = id
			}
		}
		if count == 0 {
			continue
		}
		lat, lon := sumLat/float64(count), sumLon/float64(count)
		if nodeID < 0 {
			// semua node way ini interior (sudah dikompres) atau di luar LSCC
			id, _, err := si.NearestNode(lat, lon)
			if err != nil {
				continue
			}
			nodeID = id
		}
		seen[key] = struct{}{}
		entries = append(entries, Entry{NodeID: nodeID, Lat: lat, Lon: lon, Address: name, Type: TypeStreet})
	}

	for _, n := range data.Places {
		name := strings.TrimSpace(n.Tags["name"])
		house := strings.TrimSpace(n.Tags["addr:housenumber"])
		if name == "" && house == "" {
			continue
		}
		nodeID, dist, err := si.NearestNode(n.Lat, n.Lon)
		if err != nil || dist > maxSnapMeters {
			continue
		}

		if name != "" {
			key := normalize(name)
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				entries = append(entries, Entry{NodeID: nodeID, Lat: n.Lat, Lon: n.Lon, Address: name, Type: TypePOI})
			}
		}
		if house != "" {
			street := strings.TrimSpace(n.Tags["addr:street"])
			if street == "" {
				street = nearestStreetName(g, nodeID)
			}
			addr := strings.TrimSpace(house + " " + street)
			key := normalize(addr)
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				entries = append(entries, Entry{NodeID: nodeID, Lat: n.Lat, Lon: n.Lon, Address: addr, Type: TypeHouse})
			}
		}
	}
	return entries
}

func nearestStreetName(g *datastructure.RoutingGraph, nodeID int64) string {
	idx, ok := g.NodeIDx(nodeID)
	if !ok {
		return ""
	}
	for _, e := range g.OutEdges(idx) {
		if name := g.GetEdge(e).Name; name != "" {
			return name
		}
	}
	return ""
}

// Geocoder in-memory index nama -> node. Read-only setelah dibuat.
type Geocoder struct {
	entries  []Entry
	norm     []string
	vocab    []string         // token terurut
	postings map[string][]int // token -> index entry
}

func NewGeocoder(log *zap.Logger, entries []Entry) *Geocoder {
	gc := &Geocoder{
		entries:  entries,
		norm:     make([]string, len(entries)),
		postings: map[string][]int{},
	}
	for i, e := range entries {
		gc.norm[i] = normalize(e.Address)
		for _, tok := range strings.Fields(gc.norm[i]) {
			if l := gc.postings[tok]; len(l) > 0 && l[len(l)-1] == i {
				continue
			}
			gc.postings[tok] = append(gc.postings[tok], i)
		}
	}
	for tok := range gc.postings {
		gc.vocab = append(gc.vocab, tok)
	}
	sort.Strings(gc.vocab)

	counts := map[string]int{}
	for _, e := range entries {
		counts[e.Type]++
	}
	log.Info("geocoder index ready",
		zap.Int("entries", len(entries)),
		zap.Int("streets", counts[TypeStreet]),
		zap.Int("pois", counts[TypePOI]),
		zap.Int("houses", counts[TypeHouse]))
	return gc
}

func (gc *Geocoder) Size() int {
	return len(gc.entries)
}

// candidates entry yang punya minimal satu token dengan prefix salah satu token query.
func (gc *Geocoder) candidates(tokens []string) map[int]struct{} {
	out := map[int]struct{}{}
	for _, q := range tokens {
		start := sort.SearchStrings(gc.vocab, q)
		for i := start; i < len(gc.vocab) && strings.HasPrefix(gc.vocab[i], q); i++ {
			for _, idx := range gc.postings[gc.vocab[i]] {
				out[idx] = struct{}{}
			}
		}
	}
	return out
}

// Search returns up to limit results with score in [0,100], best first.
func (gc *Geocoder) Search(query string, limit int) []Result {
	if limit <= 0 {
		limit = DefaultLimit
	}
	q := normalize(query)
	if len([]rune(q)) < 2 {
		return []Result{}
	}
	qTokens := strings.Fields(q)

	results := []Result{}
	for idx := range gc.candidates(qTokens) {
		score := scoreMatch(q, qTokens, gc.norm[idx])
		if score <= 0 {
			continue
		}
		results = append(results, Result{Entry: gc.entries[idx], Score: score})
	}

	slices.SortFunc(results, func(a, b Result) int {
		switch {
		case a.Score != b.Score:
			if a.Score > b.Score {
				return -1
			}
			return 1
		case typeRank[a.Type] != typeRank[b.Type]:
			return typeRank[b.Type] - typeRank[a.Type]
		case a.Address != b.Address:
			return strings.Compare(a.Address, b.Address)
		case a.NodeID < b.NodeID:
			return -1
		case a.NodeID > b.NodeID:
			return 1
		}
		return 0
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Best hasil teratas, false kalau tidak ada yang cocok.
func (gc *Geocoder) Best(query string) (Result, bool) {
	res := gc.Search(query, 1)
	if len(res) == 0 {
		return Result{}, false
	}
	return res[0], true
}

// scoreMatch 100 sama persis, 90 prefix, 80-89 semua token query cocok, <= 70 sebagian.
func scoreMatch(q string, qTokens []string, target string) float64 {
	if q == target {
		return 100
	}
	if strings.HasPrefix(target, q) {
		return 90
	}
	tTokens := strings.Fields(target)
	matched := 0
	for _, qt := range qTokens {
		for _, tt := range tTokens {
			if strings.HasPrefix(tt, qt) {
				matched++
				break
			}
		}
	}
	if matched == len(qTokens) {
		coverage := float64(len(q)) / float64(len(target))
		if coverage > 1 {
			coverage = 1
		}
		return 80 + 9*coverage
	}
	return 70 * float64(matched) / float64(len(qTokens))
}

// normalize lowercase, hapus diakritik, semua selain huruf/angka jadi spasi.
func normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.ToLower(out)
	out = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, out)
	return strings.Join(strings.Fields(out), " ")
}
