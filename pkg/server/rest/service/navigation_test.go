package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"lintang/floodnav/pkg/constraint"
	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/engine/routingalgorithm"
	"lintang/floodnav/pkg/geo"
	"lintang/floodnav/pkg/geocoder"
	"lintang/floodnav/pkg/guidance"
	"lintang/floodnav/pkg/kv"
	"lintang/floodnav/pkg/server"
	"lintang/floodnav/pkg/spatialindex"
	"lintang/floodnav/pkg/weight"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// gridGraph dua jalan sejajar di Solo:
//
//	4 --- 5 --- 6   Jalan Mawar (residential)
//	|           |
//	1 --- 2 --- 3   Jalan Slamet Riyadi (primary)
func gridGraph() *datastructure.RoutingGraph {
	nodes := []datastructure.Node{
		{ID: 1, Lat: -7.570, Lon: 110.820},
		{ID: 2, Lat: -7.570, Lon: 110.821},
		{ID: 3, Lat: -7.570, Lon: 110.822},
		{ID: 4, Lat: -7.569, Lon: 110.820},
		{ID: 5, Lat: -7.569, Lon: 110.821},
		{ID: 6, Lat: -7.569, Lon: 110.822},
	}
	model := weight.NewDefaultModel()
	edges := []datastructure.Edge{}
	add := func(a, b int32, class, name string) {
		na, nb := nodes[a], nodes[b]
		for _, dir := range [][2]int32{{a, b}, {b, a}} {
			from, to := nodes[dir[0]], nodes[dir[1]]
			edges = append(edges, datastructure.Edge{
				From:             dir[0],
				To:               dir[1],
				WayID:            int64(100 + a),
				Length:           geo.HaversineDistance(na.Lat, na.Lon, nb.Lat, nb.Lon),
				RoadClass:        class,
				Name:             name,
				BaseSpeed:        datastructure.RoadTypeMaxSpeed(class),
				ClassCoefficient: model.ClassCoefficient(class),
				Geometry: []datastructure.Coordinate{
					datastructure.NewCoordinate(from.Lat, from.Lon),
					datastructure.NewCoordinate(to.Lat, to.Lon),
				},
			})
		}
	}
	add(0, 1, "primary", "Jalan Slamet Riyadi")
	add(1, 2, "primary", "Jalan Slamet Riyadi")
	add(3, 4, "residential", "Jalan Mawar")
	add(4, 5, "residential", "Jalan Mawar")
	add(0, 3, "residential", "")
	add(2, 5, "residential", "")
	return datastructure.NewRoutingGraph(nodes, edges)
}

type fixture struct {
	svc   *NavigationService
	zones *kv.KVDB
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	g := gridGraph()
	si := spatialindex.NewSpatialIndex(g)
	db, err := kv.Open("", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gc := geocoder.NewGeocoder(zap.NewNop(), []geocoder.Entry{
		{NodeID: 3, Lat: -7.570, Lon: 110.822, Address: "Jalan Slamet Riyadi", Type: geocoder.TypeStreet},
		{NodeID: 5, Lat: -7.5691, Lon: 110.8211, Address: "Pasar Mawar", Type: geocoder.TypePOI},
	})

	svc := NewNavigationService(zap.NewNop(), g, si,
		routingalgorithm.NewRouteAlgorithm(g, weight.NewDefaultModel()),
		constraint.NewResolver(zap.NewNop(), si),
		WithGeocoder(gc), WithFloodZoneStore(db), WithBatchWorkers(2), WithSnapCacheSize(16))
	return fixture{svc: svc, zones: db}
}

func errCode(t *testing.T, err error) error {
	t.Helper()
	var se *server.Error
	require.True(t, errors.As(err, &se), "expected *server.Error, got %v", err)
	return se.Code()
}

func box(minLon, minLat, maxLon, maxLat float64) orb.Polygon {
	return orb.Polygon{{{minLon, minLat}, {maxLon, minLat}, {maxLon, maxLat}, {minLon, maxLat}, {minLon, minLat}}}
}

func TestRoute(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("node ids", func(t *testing.T) {
		res, err := f.svc.Route(ctx, RouteRequest{Origin: NodeLocation(1), Destination: NodeLocation(3)})
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3}, res.Path.Nodes)
		assert.Equal(t, datastructure.WeatherNormal, res.Weather)
		assert.Equal(t, "node", res.Origin.Source)
		assert.NotEmpty(t, res.Polyline)
		assert.Equal(t, datastructure.RenderPath(res.Path.Coordinates), res.Polyline)
		require.Len(t, res.Instructions, 2)
		assert.Equal(t, guidance.START, res.Instructions[0].Sign)
		assert.Equal(t, "Jalan Slamet Riyadi", res.Instructions[0].StreetName)
		assert.Equal(t, guidance.FINISH, res.Instructions[1].Sign)
	})

	t.Run("coordinates snap to the nearest node", func(t *testing.T) {
		res, err := f.svc.Route(ctx, RouteRequest{
			Origin:      CoordLocation(-7.5701, 110.8201),
			Destination: CoordLocation(-7.5689, 110.8221),
			Algorithm:   "Dijkstra",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.Origin.NodeID)
		assert.Equal(t, int64(6), res.Destination.NodeID)
		assert.Equal(t, "coordinate", res.Origin.Source)
		assert.Greater(t, res.Origin.SnapDist, 0.0)
	})

	t.Run("address", func(t *testing.T) {
		res, err := f.svc.Route(ctx, RouteRequest{Origin: NodeLocation(4), Destination: AddressLocation("jalan slamet riyadi")})
		require.NoError(t, err)
		assert.Equal(t, int64(3), res.Destination.NodeID)
		assert.Equal(t, "address", res.Destination.Source)
		assert.Equal(t, 100.0, res.Destination.Score)
	})

	t.Run("blocking geometry reroutes", func(t *testing.T) {
		cut := orb.LineString{{110.8205, -7.5705}, {110.8205, -7.5698}}
		res, err := f.svc.Route(ctx, RouteRequest{
			Origin:             NodeLocation(1),
			Destination:        NodeLocation(3),
			BlockingGeometries: []constraint.Obstacle{{Kind: datastructure.ObstacleBlock, Geometry: cut, Name: "galian"}},
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 4, 5, 6, 3}, res.Path.Nodes)
		require.Len(t, res.Obstacles, 1)
		assert.True(t, res.Obstacles[0].Blocking)
		assert.Len(t, res.Obstacles[0].Arcs, 2)
		assert.Equal(t, 2, res.Path.Stats.BlockedEdges)
		assert.Equal(t, 0, res.Path.Stats.ObstaclesOnRoute)
	})

	t.Run("flood penalty is reported on route", func(t *testing.T) {
		res, err := f.svc.Route(ctx, RouteRequest{
			Origin:      NodeLocation(4),
			Destination: NodeLocation(6),
			Weather:     datastructure.WeatherRain,
			FloodAreas: []constraint.Obstacle{{Kind: datastructure.ObstacleFlood, Severity: 1.5,
				Geometry: box(110.8203, -7.5692, 110.8207, -7.5688)}},
		})
		require.NoError(t, err)
		assert.Equal(t, []int64{4, 5, 6}, res.Path.Nodes)
		assert.Equal(t, 1, res.Path.Stats.ObstaclesOnRoute)
		assert.Equal(t, 1, res.Path.Stats.PenalizedEdges)
	})

	t.Run("everything around the origin blocked", func(t *testing.T) {
		_, err := f.svc.Route(ctx, RouteRequest{
			Origin:      NodeLocation(1),
			Destination: NodeLocation(3),
			BlockingGeometries: []constraint.Obstacle{{Kind: datastructure.ObstacleBlock,
				Geometry: box(110.8197, -7.5703, 110.8203, -7.5697)}},
		})
		require.Error(t, err)
		assert.Equal(t, server.ErrNotFound, errCode(t, err))
		assert.ErrorIs(t, err, routingalgorithm.ErrNoRouteFound)
	})

	t.Run("bad requests", func(t *testing.T) {
		cases := map[string]RouteRequest{
			"same node":       {Origin: NodeLocation(2), Destination: CoordLocation(-7.570, 110.821)},
			"unknown node":    {Origin: NodeLocation(99), Destination: NodeLocation(3)},
			"unknown weather": {Origin: NodeLocation(1), Destination: NodeLocation(3), Weather: "snow"},
			"two variants":    {Origin: Location{NodeID: NodeLocation(1).NodeID, Address: "pasar"}, Destination: NodeLocation(3)},
			"empty location":  {Origin: Location{}, Destination: NodeLocation(3)},
			"lat only":        {Origin: Location{Lat: CoordLocation(1, 1).Lat}, Destination: NodeLocation(3)},
			"out of range":    {Origin: CoordLocation(-97, 110.82), Destination: NodeLocation(3)},
			"algorithm":       {Origin: NodeLocation(1), Destination: NodeLocation(3), Algorithm: "bfs"},
		}
		for name, req := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := f.svc.Route(ctx, req)
				require.Error(t, err)
				assert.Equal(t, server.ErrBadParamInput, errCode(t, err))
			})
		}
	})

	t.Run("invalid flood area is reported, not fatal", func(t *testing.T) {
		res, err := f.svc.Route(ctx, RouteRequest{
			Origin:      NodeLocation(1),
			Destination: NodeLocation(3),
			FloodAreas:  []constraint.Obstacle{{Kind: datastructure.ObstacleFlood, Severity: -1, Geometry: box(110.8203, -7.5702, 110.8207, -7.5698)}},
		})
		require.NoError(t, err)
		require.Len(t, res.Obstacles, 1)
		assert.ErrorIs(t, res.Obstacles[0].Err, constraint.ErrInvalidGeometry)
		assert.Equal(t, []int64{1, 2, 3}, res.Path.Nodes)
	})

	t.Run("unknown address", func(t *testing.T) {
		_, err := f.svc.Route(ctx, RouteRequest{Origin: AddressLocation("zzzz"), Destination: NodeLocation(3)})
		assert.Equal(t, server.ErrNotFound, errCode(t, err))
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := f.svc.Route(cctx, RouteRequest{Origin: NodeLocation(1), Destination: NodeLocation(3)})
		assert.Equal(t, server.ErrUnprocessable, errCode(t, err))
	})
}

func TestRouteWithStoredFloodZones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	geom, err := geojson.NewGeometry(box(110.8213, -7.5702, 110.8217, -7.5698)).MarshalJSON()
	require.NoError(t, err)
	_, err = f.zones.CreateFloodZone(kv.FloodZone{Name: "Genangan Gladak", Type: kv.ZonePolygon, Geometry: geom,
		Severity: 150, Active: true})
	require.NoError(t, err)

	t.Run("ignored unless requested", func(t *testing.T) {
		res, err := f.svc.Route(ctx, RouteRequest{Origin: NodeLocation(1), Destination: NodeLocation(3)})
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 3}, res.Path.Nodes)
		assert.Zero(t, res.StoredZones)
	})

	t.Run("severe zone blocks the road", func(t *testing.T) {
		res, err := f.svc.Route(ctx, RouteRequest{Origin: NodeLocation(1), Destination: NodeLocation(3), UseStoredFloodZones: true})
		require.NoError(t, err)
		assert.Equal(t, 1, res.StoredZones)
		assert.Equal(t, []int64{1, 4, 5, 6, 3}, res.Path.Nodes)
		require.Len(t, res.Obstacles, 1)
		assert.Equal(t, "Genangan Gladak", res.Obstacles[0].Name)
		assert.True(t, res.Obstacles[0].Blocking)
	})
}

func TestBatchRoute(t *testing.T) {
	f := newFixture(t)
	items := f.svc.BatchRoute(context.Background(), []RouteRequest{
		{Origin: NodeLocation(1), Destination: NodeLocation(3)},
		{Origin: NodeLocation(1), Destination: NodeLocation(1)},
		{Origin: NodeLocation(4), Destination: NodeLocation(6)},
	})
	require.Len(t, items, 3)
	require.NoError(t, items[0].Err)
	assert.Equal(t, []int64{1, 2, 3}, items[0].Result.Path.Nodes)
	assert.Equal(t, server.ErrBadParamInput, errCode(t, items[1].Err))
	require.NoError(t, items[2].Err)
	assert.Equal(t, []int64{4, 5, 6}, items[2].Result.Path.Nodes)
}

func TestNearestNodeAndGeocode(t *testing.T) {
	f := newFixture(t)

	loc, err := f.svc.NearestNode(-7.5691, 110.8209)
	require.NoError(t, err)
	assert.Equal(t, int64(5), loc.NodeID)
	// kedua kali lewat snap cache
	again, err := f.svc.NearestNode(-7.5691, 110.8209)
	require.NoError(t, err)
	assert.Equal(t, loc, again)

	_, err = f.svc.NearestNode(10, 500)
	assert.Equal(t, server.ErrBadParamInput, errCode(t, err))

	res, err := f.svc.Geocode("pasar", 5)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, int64(5), res[0].NodeID)

	_, err = f.svc.Geocode("p", 5)
	assert.Equal(t, server.ErrBadParamInput, errCode(t, err))
}

func TestStaleIndex(t *testing.T) {
	g := gridGraph()
	other := spatialindex.NewSpatialIndex(gridGraph())
	svc := NewNavigationService(zap.NewNop(), g, other,
		routingalgorithm.NewRouteAlgorithm(g, weight.NewDefaultModel()),
		constraint.NewResolver(zap.NewNop(), other))

	_, err := svc.Route(context.Background(), RouteRequest{Origin: NodeLocation(1), Destination: NodeLocation(3)})
	require.Error(t, err)
	assert.Equal(t, server.ErrInternalServerError, errCode(t, err))
	assert.ErrorIs(t, err, spatialindex.ErrIndexStale)
}

func TestGraphStatsAndGeoJSON(t *testing.T) {
	f := newFixture(t)

	st := f.svc.GraphStats()
	assert.Equal(t, 6, st.NumberOfNodes)
	assert.Equal(t, 12, st.NumberOfEdges)
	assert.Equal(t, map[string]int{"primary": 4, "residential": 8}, st.RoadClasses)
	assert.Zero(t, st.OnewayEdges)
	assert.Equal(t, f.svc.Graph().Generation(), st.Generation)
	assert.InDelta(t, 12*0.11, st.TotalLengthKm, 0.05)

	all := f.svc.GraphGeoJSON(nil, 0)
	assert.Len(t, all.Features, 12)
	assert.Len(t, f.svc.GraphGeoJSON(nil, 5).Features, 5)

	bound := orb.Bound{Min: orb.Point{110.8195, -7.5703}, Max: orb.Point{110.8205, -7.5697}}
	near := f.svc.GraphGeoJSON(&bound, 0)
	require.NotEmpty(t, near.Features)
	for _, feat := range near.Features {
		assert.Equal(t, "LineString", feat.Geometry.GeoJSONType())
	}
}

func TestFloodZoneService(t *testing.T) {
	f := newFixture(t)
	zs := NewFloodZoneService(f.zones)

	point, err := geojson.NewGeometry(orb.Point{110.82, -7.57}).MarshalJSON()
	require.NoError(t, err)
	z, err := zs.Create(kv.FloodZone{Name: "Bengawan", Type: kv.ZoneCircle, Geometry: point, Radius: 1000, Active: true})
	require.NoError(t, err)
	assert.InDelta(t, math.Pi, ZoneAreaKm2(z), 1e-9)

	t.Run("not found", func(t *testing.T) {
		_, err := zs.Get("nope")
		assert.Equal(t, server.ErrNotFound, errCode(t, err))
		assert.Equal(t, server.ErrNotFound, errCode(t, zs.Delete("nope")))
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := zs.Create(kv.FloodZone{Name: "x", Type: kv.ZoneCircle, Geometry: point})
		assert.Equal(t, server.ErrBadParamInput, errCode(t, err))
	})

	t.Run("polygon area", func(t *testing.T) {
		geom, err := geojson.NewGeometry(box(110.82, -7.57, 110.83, -7.56)).MarshalJSON()
		require.NoError(t, err)
		pz, err := zs.Create(kv.FloodZone{Name: "Kotak", Type: kv.ZonePolygon, Geometry: geom, Active: false})
		require.NoError(t, err)
		// ~1.1 km x 1.1 km
		assert.InDelta(t, 1.22, ZoneAreaKm2(pz), 0.05)

		active, err := zs.List(false)
		require.NoError(t, err)
		assert.Len(t, active, 1)
		all, err := zs.List(true)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}
