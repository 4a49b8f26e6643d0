package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"lintang/floodnav/pkg/concurrent"
	"lintang/floodnav/pkg/constraint"
	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/engine/routingalgorithm"
	"lintang/floodnav/pkg/geo"
	"lintang/floodnav/pkg/geocoder"
	"lintang/floodnav/pkg/guidance"
	"lintang/floodnav/pkg/kv"
	"lintang/floodnav/pkg/server"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

type RoutingAlgorithm interface {
	AStar(ctx context.Context, q routingalgorithm.Query) (*datastructure.PathResult, error)
	Dijkstra(ctx context.Context, q routingalgorithm.Query) (*datastructure.PathResult, error)
}

type SpatialIndex interface {
	NearestNode(lat, lon float64) (int64, float64, error)
	QueryCandidates(bound orb.Bound) []int32
	CheckGeneration(g *datastructure.RoutingGraph) error
}

type ConstraintResolver interface {
	ResolveBlocking(obstacles []constraint.Obstacle) (datastructure.BlockedEdgeSet, []constraint.ObstacleReport)
	ResolvePenalty(floods []constraint.Obstacle, weather datastructure.Weather) (datastructure.PenaltyMap,
		datastructure.BlockedEdgeSet, []constraint.ObstacleReport, error)
}

type Geocoder interface {
	Search(query string, limit int) []geocoder.Result
	Best(query string) (geocoder.Result, bool)
}

type FloodZoneStore interface {
	CreateFloodZone(z kv.FloodZone) (kv.FloodZone, error)
	GetFloodZone(id string) (kv.FloodZone, error)
	UpdateFloodZone(id string, patch kv.FloodZonePatch) (kv.FloodZone, error)
	DeleteFloodZone(id string) error
	ListFloodZones(includeInactive bool) ([]kv.FloodZone, error)
	FloodZonesNear(lat, lon, radiusKm float64) ([]kv.FloodZone, error)
}

const (
	AlgorithmAStar    = "astar"
	AlgorithmDijkstra = "dijkstra"

	defaultSnapCacheSize = 4096
	defaultFloodRadiusKm = 5.0
)

// Location tagged variant: tepat satu dari NodeID, (Lat, Lon), atau Address yang diisi.
type Location struct {
	NodeID  *int64
	Lat     *float64
	Lon     *float64
	Address string
}

func NodeLocation(id int64) Location {
	return Location{NodeID: &id}
}

func CoordLocation(lat, lon float64) Location {
	return Location{Lat: &lat, Lon: &lon}
}

func AddressLocation(address string) Location {
	return Location{Address: address}
}

// ResolvedLocation node graph hasil resolve satu Location.
type ResolvedLocation struct {
	NodeID   int64   `json:"node_id"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Source   string  `json:"source"` // node | coordinate | address
	SnapDist float64 `json:"snap_distance"`
	Address  string  `json:"address,omitempty"`
	Score    float64 `json:"match_score,omitempty"`
}

type RouteRequest struct {
	Origin              Location
	Destination         Location
	Weather             datastructure.Weather
	FloodAreas          []constraint.Obstacle
	BlockingGeometries  []constraint.Obstacle
	UseStoredFloodZones bool
	Algorithm           string
}

type RouteResult struct {
	Path        *datastructure.PathResult
	Origin      ResolvedLocation
	Destination ResolvedLocation
	Weather     datastructure.Weather
	Polyline    string
	Obstacles   []constraint.ObstacleReport
	StoredZones int
	// Instructions turn-by-turn, kosong kalau origin == destination setelah snap.
	Instructions []guidance.DrivingInstruction
}

type snapKey struct {
	lat, lon int64
}

type NavigationService struct {
	log         *zap.Logger
	graph       *datastructure.RoutingGraph
	index       SpatialIndex
	routing     RoutingAlgorithm
	resolver    ConstraintResolver
	geocoder    Geocoder
	zones       FloodZoneStore
	snapCache   *lru.Cache[snapKey, int64]
	workers     int
	floodRadius float64
}

type Option func(*NavigationService)

func WithGeocoder(g Geocoder) Option {
	return func(s *NavigationService) {
		s.geocoder = g
	}
}

func WithFloodZoneStore(z FloodZoneStore) Option {
	return func(s *NavigationService) {
		s.zones = z
	}
}

func WithBatchWorkers(n int) Option {
	return func(s *NavigationService) {
		s.workers = n
	}
}

// WithFloodSearchRadius radius (km) tambahan di sekitar origin & destination untuk mencari flood zone tersimpan.
func WithFloodSearchRadius(km float64) Option {
	return func(s *NavigationService) {
		s.floodRadius = km
	}
}

func WithSnapCacheSize(n int) Option {
	return func(s *NavigationService) {
		if n <= 0 {
			n = defaultSnapCacheSize
		}
		s.snapCache, _ = lru.New[snapKey, int64](n)
	}
}

func NewNavigationService(log *zap.Logger, graph *datastructure.RoutingGraph, index SpatialIndex, routing RoutingAlgorithm,
	resolver ConstraintResolver, opts ...Option) *NavigationService {
	cache, _ := lru.New[snapKey, int64](defaultSnapCacheSize)
	s := &NavigationService{
		log:         log,
		graph:       graph,
		index:       index,
		routing:     routing,
		resolver:    resolver,
		snapCache:   cache,
		workers:     4,
		floodRadius: defaultFloodRadiusKm,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *NavigationService) Graph() *datastructure.RoutingGraph {
	return s.graph
}

// Route resolve origin/destination & obstacle lalu jalankan A* (atau dijkstra).
func (s *NavigationService) Route(ctx context.Context, req RouteRequest) (*RouteResult, error) {
	if err := s.index.CheckGeneration(s.graph); err != nil {
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, "spatial index out of sync with routing graph")
	}
	if req.Weather == "" {
		req.Weather = datastructure.WeatherNormal
	}
	if !req.Weather.Valid() {
		return nil, server.WrapErrorf(nil, server.ErrBadParamInput, "unknown weather %q, use normal, rain or flood", req.Weather)
	}
	algorithm := strings.ToLower(req.Algorithm)
	if algorithm == "" {
		algorithm = AlgorithmAStar
	}
	if algorithm != AlgorithmAStar && algorithm != AlgorithmDijkstra {
		return nil, server.WrapErrorf(nil, server.ErrBadParamInput, "unknown algorithm %q", req.Algorithm)
	}

	origin, err := s.ResolveLocation(req.Origin)
	if err != nil {
		return nil, err
	}
	dest, err := s.ResolveLocation(req.Destination)
	if err != nil {
		return nil, err
	}
	if origin.NodeID == dest.NodeID {
		return nil, server.WrapErrorf(nil, server.ErrBadParamInput,
			"origin and destination resolve to the same road node %d", origin.NodeID)
	}

	floods := req.FloodAreas
	storedZones := 0
	if req.UseStoredFloodZones && s.zones != nil {
		stored, err := s.storedFloodObstacles(origin, dest)
		if err != nil {
			return nil, server.WrapErrorf(err, server.ErrInternalServerError, "load stored flood zones")
		}
		storedZones = len(stored)
		floods = append(append([]constraint.Obstacle{}, floods...), stored...)
	}

	blocked, blockReports := s.resolver.ResolveBlocking(req.BlockingGeometries)
	penalties, floodBlocked, floodReports, err := s.resolver.ResolvePenalty(floods, req.Weather)
	if err != nil {
		return nil, server.WrapErrorf(err, server.ErrBadParamInput, "resolve flood areas")
	}
	for k := range floodBlocked {
		blocked.Add(k)
	}

	q := routingalgorithm.Query{
		From:      origin.NodeID,
		To:        dest.NodeID,
		Weather:   req.Weather,
		Blocked:   blocked,
		Penalties: penalties,
	}
	var res *datastructure.PathResult
	if algorithm == AlgorithmDijkstra {
		res, err = s.routing.Dijkstra(ctx, q)
	} else {
		res, err = s.routing.AStar(ctx, q)
	}
	if err != nil {
		return nil, s.routeError(err, origin, dest)
	}

	reports := append(blockReports, floodReports...)
	res.Stats.ObstaclesOnRoute = s.obstaclesOnRoute(res, reports)

	s.log.Debug("route found",
		zap.Int64("from", origin.NodeID),
		zap.Int64("to", dest.NodeID),
		zap.String("weather", string(req.Weather)),
		zap.Int("edges", res.Stats.EdgeCount),
		zap.Int("visited", res.Stats.NodesVisited),
		zap.Duration("searchTime", res.Stats.SearchTime))

	instructions, err := guidance.GetDrivingInstructions(s.graph, res.Edges)
	if err != nil && !errors.Is(err, guidance.ErrEmptyPath) {
		return nil, server.WrapErrorf(err, server.ErrInternalServerError, server.MessageInternalServerError)
	}

	return &RouteResult{
		Path:         res,
		Origin:       origin,
		Destination:  dest,
		Weather:      req.Weather,
		Polyline:     datastructure.RenderPath(res.Coordinates),
		Obstacles:    reports,
		StoredZones:  storedZones,
		Instructions: instructions,
	}, nil
}

func (s *NavigationService) routeError(err error, origin, dest ResolvedLocation) error {
	switch {
	case errors.Is(err, routingalgorithm.ErrNoRouteFound):
		return server.WrapErrorf(err, server.ErrNotFound,
			"no route from node %d to node %d with the given obstacles", origin.NodeID, dest.NodeID)
	case errors.Is(err, routingalgorithm.ErrNodeNotFound):
		return server.WrapErrorf(err, server.ErrBadParamInput, "node is not part of the routing graph")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return server.WrapErrorf(err, server.ErrUnprocessable, "route search cancelled")
	}
	return server.WrapErrorf(err, server.ErrInternalServerError, server.MessageInternalServerError)
}

// obstaclesOnRoute jumlah obstacle yang menyentuh minimal satu edge di rute.
func (s *NavigationService) obstaclesOnRoute(res *datastructure.PathResult, reports []constraint.ObstacleReport) int {
	onRoute := make(map[datastructure.ArcKey]struct{}, len(res.Edges))
	for _, e := range res.Edges {
		onRoute[s.graph.ArcKey(e)] = struct{}{}
	}
	count := 0
	for _, rep := range reports {
		for _, k := range rep.Arcs {
			if _, ok := onRoute[k]; ok {
				count++
				break
			}
		}
	}
	return count
}

// ResolveLocation ubah Location jadi node graph.
func (s *NavigationService) ResolveLocation(loc Location) (ResolvedLocation, error) {
	set := 0
	if loc.NodeID != nil {
		set++
	}
	if loc.Lat != nil || loc.Lon != nil {
		set++
	}
	if strings.TrimSpace(loc.Address) != "" {
		set++
	}
	if set != 1 {
		return ResolvedLocation{}, server.WrapErrorf(nil, server.ErrBadParamInput,
			"location must have exactly one of node_id, lat/lon or address")
	}

	switch {
	case loc.NodeID != nil:
		idx, ok := s.graph.NodeIDx(*loc.NodeID)
		if !ok {
			return ResolvedLocation{}, server.WrapErrorf(routingalgorithm.ErrNodeNotFound, server.ErrBadParamInput,
				"node %d is not part of the routing graph", *loc.NodeID)
		}
		n := s.graph.GetNode(idx)
		return ResolvedLocation{NodeID: n.ID, Lat: n.Lat, Lon: n.Lon, Source: "node"}, nil

	case loc.Lat != nil || loc.Lon != nil:
		if loc.Lat == nil || loc.Lon == nil {
			return ResolvedLocation{}, server.WrapErrorf(nil, server.ErrBadParamInput, "both lat and lon are required")
		}
		rl, err := s.snap(*loc.Lat, *loc.Lon)
		if err != nil {
			return ResolvedLocation{}, err
		}
		rl.Source = "coordinate"
		return rl, nil
	}

	if s.geocoder == nil {
		return ResolvedLocation{}, server.WrapErrorf(nil, server.ErrBadParamInput, "address lookup is not available")
	}
	match, ok := s.geocoder.Best(loc.Address)
	if !ok {
		return ResolvedLocation{}, server.WrapErrorf(nil, server.ErrNotFound, "address %q not found", loc.Address)
	}
	var rl ResolvedLocation
	if match.Score >= geocoder.ExactMatchThreshold && s.graph.HasNode(match.NodeID) {
		idx, _ := s.graph.NodeIDx(match.NodeID)
		n := s.graph.GetNode(idx)
		rl = ResolvedLocation{NodeID: n.ID, Lat: n.Lat, Lon: n.Lon,
			SnapDist: geo.HaversineDistance(match.Lat, match.Lon, n.Lat, n.Lon)}
	} else {
		var err error
		rl, err = s.snap(match.Lat, match.Lon)
		if err != nil {
			return ResolvedLocation{}, err
		}
	}
	rl.Source = "address"
	rl.Address = match.Address
	rl.Score = match.Score
	return rl, nil
}

func (s *NavigationService) snap(lat, lon float64) (ResolvedLocation, error) {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ResolvedLocation{}, server.WrapErrorf(nil, server.ErrBadParamInput, "coordinate (%v, %v) out of range", lat, lon)
	}
	key := snapKey{lat: int64(math.Round(lat * 1e6)), lon: int64(math.Round(lon * 1e6))}
	id, ok := s.snapCache.Get(key)
	if !ok {
		nearest, _, err := s.index.NearestNode(lat, lon)
		if err != nil {
			return ResolvedLocation{}, server.WrapErrorf(err, server.ErrNotFound,
				"sorry!! the location you entered is not covered on my map :(")
		}
		id = nearest
		s.snapCache.Add(key, id)
	}
	idx, _ := s.graph.NodeIDx(id)
	n := s.graph.GetNode(idx)
	return ResolvedLocation{NodeID: n.ID, Lat: n.Lat, Lon: n.Lon, SnapDist: geo.HaversineDistance(lat, lon, n.Lat, n.Lon)}, nil
}

// storedFloodObstacles active zones di sekitar garis origin-destination.
func (s *NavigationService) storedFloodObstacles(origin, dest ResolvedLocation) ([]constraint.Obstacle, error) {
	midLat, midLon := geo.MidPoint(origin.Lat, origin.Lon, dest.Lat, dest.Lon)
	radiusKm := geo.HaversineDistance(origin.Lat, origin.Lon, dest.Lat, dest.Lon)/2000 + s.floodRadius
	zones, err := s.zones.FloodZonesNear(midLat, midLon, radiusKm)
	if err != nil {
		return nil, err
	}
	obstacles := make([]constraint.Obstacle, 0, len(zones))
	for _, z := range zones {
		ob, err := ZoneObstacle(z)
		if err != nil {
			s.log.Warn("skipping stored flood zone", zap.String("id", z.ID), zap.Error(err))
			continue
		}
		obstacles = append(obstacles, ob)
	}
	return obstacles, nil
}

// ZoneObstacle flood zone tersimpan jadi obstacle flood.
func ZoneObstacle(z kv.FloodZone) (constraint.Obstacle, error) {
	g, err := z.Geom()
	if err != nil {
		return constraint.Obstacle{}, err
	}
	return constraint.Obstacle{
		Kind:     datastructure.ObstacleFlood,
		Geometry: g,
		Severity: z.Severity,
		Radius:   z.Radius,
		Name:     z.Name,
	}, nil
}

type BatchItem struct {
	Result *RouteResult
	Err    error
}

// BatchRoute jalankan beberapa Route secara paralel lewat worker pool. Urutan hasil sama dengan input.
func (s *NavigationService) BatchRoute(ctx context.Context, reqs []RouteRequest) []BatchItem {
	return concurrent.Run(s.workers, reqs, func(req RouteRequest) BatchItem {
		if err := ctx.Err(); err != nil {
			return BatchItem{Err: server.WrapErrorf(err, server.ErrUnprocessable, "batch cancelled")}
		}
		res, err := s.Route(ctx, req)
		return BatchItem{Result: res, Err: err}
	})
}

// NearestNode node graph terdekat dari koordinat.
func (s *NavigationService) NearestNode(lat, lon float64) (ResolvedLocation, error) {
	rl, err := s.snap(lat, lon)
	if err != nil {
		return ResolvedLocation{}, err
	}
	rl.Source = "coordinate"
	return rl, nil
}

func (s *NavigationService) Geocode(query string, limit int) ([]geocoder.Result, error) {
	if s.geocoder == nil {
		return nil, server.WrapErrorf(nil, server.ErrBadParamInput, "address lookup is not available")
	}
	if len(strings.TrimSpace(query)) < 2 {
		return nil, server.WrapErrorf(nil, server.ErrBadParamInput, "query must be at least 2 characters")
	}
	return s.geocoder.Search(query, limit), nil
}
