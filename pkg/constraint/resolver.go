package constraint

import (
	"errors"
	"fmt"
	"math"

	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/geo"
	"lintang/floodnav/pkg/spatialindex"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

var (
	ErrInvalidGeometry = errors.New("constraint: invalid obstacle geometry")
	ErrInvalidWeather  = errors.New("constraint: unknown weather condition")
)

const (
	DefaultToleranceMeters = 2.0
	DefaultSeverity        = 5.0
	// severity >= BlockSeverity berarti jalan tidak bisa dilewati sama sekali.
	BlockSeverity = 100.0
)

type Obstacle struct {
	Kind     datastructure.ObstacleKind
	Geometry orb.Geometry
	Severity float64
	// Radius meter, hanya untuk obstacle berbentuk titik (flood zone tipe circle).
	Radius float64
	Name   string
}

// ObstacleReport hasil resolve satu obstacle.
type ObstacleReport struct {
	Index    int
	Name     string
	Kind     datastructure.ObstacleKind
	Blocking bool
	Arcs     []datastructure.ArcKey
	Err      error
}

type Option func(*Resolver)

func WithTolerance(meters float64) Option {
	return func(r *Resolver) {
		r.tolerance = meters
	}
}

// WithFloodScale multiplies flood multipliers under the given weather.
func WithFloodScale(w datastructure.Weather, scale float64) Option {
	return func(r *Resolver) {
		r.floodScale[w] = scale
	}
}

type Resolver struct {
	log        *zap.Logger
	index      *spatialindex.SpatialIndex
	graph      *datastructure.RoutingGraph
	tolerance  float64
	floodScale map[datastructure.Weather]float64
}

func NewResolver(log *zap.Logger, index *spatialindex.SpatialIndex, opts ...Option) *Resolver {
	r := &Resolver{
		log:       log,
		index:     index,
		graph:     index.Graph(),
		tolerance: DefaultToleranceMeters,
		floodScale: map[datastructure.Weather]float64{
			datastructure.WeatherNormal: 1.0,
			datastructure.WeatherRain:   1.0,
			datastructure.WeatherFlood:  1.0,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveBlocking adds both directions of every edge an obstacle touches. Invalid obstacles are
// skipped; their report carries an error wrapping ErrInvalidGeometry.
func (r *Resolver) ResolveBlocking(obstacles []Obstacle) (datastructure.BlockedEdgeSet, []ObstacleReport) {
	blocked := make(datastructure.BlockedEdgeSet)
	reports := make([]ObstacleReport, len(obstacles))
	for i, ob := range obstacles {
		rep := ObstacleReport{Index: i, Name: ob.Name, Kind: datastructure.ObstacleBlock, Blocking: true}
		arcs, err := r.hits(ob)
		if err != nil {
			rep.Err = fmt.Errorf("obstacle %d: %w", i, err)
			r.log.Warn("skipping blocking obstacle", zap.Int("index", i), zap.String("name", ob.Name), zap.Error(err))
			reports[i] = rep
			continue
		}
		for _, k := range arcs {
			blocked.Add(k)
		}
		rep.Arcs = arcs
		reports[i] = rep
	}
	return blocked, reports
}

// ResolvePenalty maps every edge touched by a flood area to max(1, severity). Overlapping floods
// keep the maximum multiplier. Floods with severity >= BlockSeverity block the edge instead.
func (r *Resolver) ResolvePenalty(floods []Obstacle, weather datastructure.Weather) (datastructure.PenaltyMap,
	datastructure.BlockedEdgeSet, []ObstacleReport, error) {
	scale, ok := r.floodScale[weather]
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: %q", ErrInvalidWeather, weather)
	}

	penalties := make(datastructure.PenaltyMap)
	blocked := make(datastructure.BlockedEdgeSet)
	reports := make([]ObstacleReport, len(floods))
	for i, ob := range floods {
		rep := ObstacleReport{Index: i, Name: ob.Name, Kind: datastructure.ObstacleFlood}
		severity := ob.Severity
		if severity == 0 {
			severity = DefaultSeverity
		}
		if math.IsNaN(severity) || severity < 0 {
			rep.Err = fmt.Errorf("flood %d: %w: severity %v", i, ErrInvalidGeometry, ob.Severity)
			r.log.Warn("skipping flood area", zap.Int("index", i), zap.Error(rep.Err))
			reports[i] = rep
			continue
		}

		arcs, err := r.hits(ob)
		if err != nil {
			rep.Err = fmt.Errorf("flood %d: %w", i, err)
			r.log.Warn("skipping flood area", zap.Int("index", i), zap.String("name", ob.Name), zap.Error(err))
			reports[i] = rep
			continue
		}

		rep.Arcs = arcs
		if severity >= BlockSeverity {
			rep.Blocking = true
			for _, k := range arcs {
				blocked.Add(k)
			}
		} else {
			multiplier := math.Max(1.0, severity*scale)
			for _, k := range arcs {
				penalties.SetMax(k, multiplier)
			}
		}
		reports[i] = rep
	}
	return penalties, blocked, reports, nil
}

// shape geometry obstacle yang sudah divalidasi dan dikonversi ke s2.
type shape struct {
	lines   [][]s2.Point
	loops   []*s2.Loop
	holes   [][]*s2.Loop // holes[i] milik loops[i]
	points  []s2.Point
	padding float64
	bound   orb.Bound
}

func (r *Resolver) hits(ob Obstacle) ([]datastructure.ArcKey, error) {
	sh, err := r.toShape(ob)
	if err != nil {
		return nil, err
	}

	candidates := r.index.QueryCandidates(geo.PadBound(sh.bound, sh.padding))
	seen := make(map[datastructure.ArcKey]struct{})
	arcs := []datastructure.ArcKey{}
	for _, edgeIDx := range candidates {
		e := r.graph.GetEdge(edgeIDx)
		if !sh.touches(geo.CoordsToS2(e.Geometry), r.tolerance) {
			continue
		}
		k := r.graph.ArcKey(edgeIDx)
		for _, key := range []datastructure.ArcKey{k, k.Reverse()} {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			arcs = append(arcs, key)
		}
	}
	return arcs, nil
}

func (r *Resolver) toShape(ob Obstacle) (*shape, error) {
	if ob.Geometry == nil {
		return nil, fmt.Errorf("%w: missing geometry", ErrInvalidGeometry)
	}
	sh := &shape{padding: r.tolerance, bound: ob.Geometry.Bound()}
	if !validBound(sh.bound) {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrInvalidGeometry)
	}

	addLine := func(ls orb.LineString) error {
		distinct := 0
		for i, p := range ls {
			if i == 0 || p != ls[i-1] {
				distinct++
			}
		}
		if distinct < 2 {
			return fmt.Errorf("%w: %v", ErrInvalidGeometry, geo.ErrTooFewVertices)
		}
		sh.lines = append(sh.lines, geo.LineStringToS2(ls))
		return nil
	}
	addPolygon := func(p orb.Polygon) error {
		if len(p) == 0 {
			return fmt.Errorf("%w: empty polygon", ErrInvalidGeometry)
		}
		outer, err := geo.NewLoop(p[0])
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
		}
		holes := []*s2.Loop{}
		for _, ring := range p[1:] {
			hole, err := geo.NewLoop(ring)
			if err != nil {
				return fmt.Errorf("%w: hole: %v", ErrInvalidGeometry, err)
			}
			holes = append(holes, hole)
		}
		sh.loops = append(sh.loops, outer)
		sh.holes = append(sh.holes, holes)
		return nil
	}

	switch g := ob.Geometry.(type) {
	case orb.Point:
		if ob.Radius < 0 {
			return nil, fmt.Errorf("%w: negative radius", ErrInvalidGeometry)
		}
		sh.points = append(sh.points, geo.OrbToS2(g))
		sh.padding += ob.Radius
	case orb.LineString:
		if err := addLine(g); err != nil {
			return nil, err
		}
	case orb.MultiLineString:
		for _, ls := range g {
			if err := addLine(ls); err != nil {
				return nil, err
			}
		}
	case orb.Ring:
		if err := addPolygon(orb.Polygon{g}); err != nil {
			return nil, err
		}
	case orb.Polygon:
		if err := addPolygon(g); err != nil {
			return nil, err
		}
	case orb.MultiPolygon:
		for _, p := range g {
			if err := addPolygon(p); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("%w: unsupported geometry %s", ErrInvalidGeometry, ob.Geometry.GeoJSONType())
	}
	return sh, nil
}

func validBound(b orb.Bound) bool {
	for _, v := range []float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.Min[1] >= -90 && b.Max[1] <= 90 && b.Min[0] >= -180 && b.Max[0] <= 180
}

// touches exact test antara polyline edge dan obstacle, dengan toleransi meter.
func (sh *shape) touches(edge []s2.Point, tol float64) bool {
	for _, line := range sh.lines {
		if geo.PolylineWithin(edge, line, tol) {
			return true
		}
	}
	for i, loop := range sh.loops {
		if !geo.LoopTouchesPolyline(loop, edge, tol) {
			continue
		}
		if !insideHole(sh.holes[i], edge, tol) {
			return true
		}
	}
	for _, p := range sh.points {
		if geo.PointPolylineDistance(p, edge) <= sh.padding {
			return true
		}
	}
	return false
}

// insideHole true kalau seluruh edge ada di dalam salah satu hole dan jauh dari boundary-nya.
func insideHole(holes []*s2.Loop, edge []s2.Point, tol float64) bool {
	for _, hole := range holes {
		all := true
		for _, p := range edge {
			if !hole.ContainsPoint(p) {
				all = false
				break
			}
		}
		if !all {
			continue
		}
		boundary := append(append([]s2.Point{}, hole.Vertices()...), hole.Vertex(0))
		if !geo.PolylineWithin(edge, boundary, tol) {
			return true
		}
	}
	return false
}
