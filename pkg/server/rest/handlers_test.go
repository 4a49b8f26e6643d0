package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"lintang/floodnav/pkg/constraint"
	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/geocoder"
	"lintang/floodnav/pkg/kv"
	"lintang/floodnav/pkg/server"
	"lintang/floodnav/pkg/server/rest/service"

	"github.com/go-chi/chi/v5"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubNavigation struct {
	lastReq service.RouteRequest
	routeFn func(req service.RouteRequest) (*service.RouteResult, error)
}

func (s *stubNavigation) Route(ctx context.Context, req service.RouteRequest) (*service.RouteResult, error) {
	s.lastReq = req
	return s.routeFn(req)
}

func (s *stubNavigation) BatchRoute(ctx context.Context, reqs []service.RouteRequest) []service.BatchItem {
	out := make([]service.BatchItem, len(reqs))
	for i, r := range reqs {
		res, err := s.routeFn(r)
		out[i] = service.BatchItem{Result: res, Err: err}
	}
	return out
}

func (s *stubNavigation) NearestNode(lat, lon float64) (service.ResolvedLocation, error) {
	return service.ResolvedLocation{NodeID: 7, Lat: lat, Lon: lon, Source: "coordinate"}, nil
}

func (s *stubNavigation) Geocode(query string, limit int) ([]geocoder.Result, error) {
	if len(query) < 2 {
		return nil, server.WrapErrorf(nil, server.ErrBadParamInput, "query must be at least 2 characters")
	}
	return []geocoder.Result{{Entry: geocoder.Entry{NodeID: 7, Address: "Jalan Slamet Riyadi", Type: geocoder.TypeStreet}, Score: 100}}, nil
}

func (s *stubNavigation) GraphStats() service.GraphStats {
	return service.GraphStats{NumberOfNodes: 2, NumberOfEdges: 2, RoadClasses: map[string]int{"primary": 2}}
}

func (s *stubNavigation) GraphGeoJSON(bound *orb.Bound, limit int) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if bound == nil {
		fc.Append(geojson.NewFeature(orb.LineString{{110.82, -7.57}, {110.821, -7.57}}))
	}
	return fc
}

func okRoute(req service.RouteRequest) (*service.RouteResult, error) {
	if req.Origin.NodeID != nil && *req.Origin.NodeID == 404 {
		return nil, server.WrapErrorf(nil, server.ErrNotFound, "no route")
	}
	return &service.RouteResult{
		Path: &datastructure.PathResult{
			Nodes:       []int64{1, 2},
			Coordinates: []datastructure.Coordinate{{Lat: -7.57, Lon: 110.82}, {Lat: -7.57, Lon: 110.821}},
			Distance:    110.3456,
			Duration:    120,
		},
		Weather:  req.Weather,
		Polyline: "abc",
		Obstacles: []constraint.ObstacleReport{
			{Index: 0, Name: "galian", Kind: datastructure.ObstacleBlock, Blocking: true,
				Arcs: []datastructure.ArcKey{{From: 1, To: 2}, {From: 2, To: 1}}},
		},
	}, nil
}

func newTestRouter(t *testing.T, nav NavigationService) (*chi.Mux, *NavigationHandler) {
	t.Helper()
	r := chi.NewRouter()
	m := NewMetrics(prometheus.NewRegistry())
	r.Use(PromeHttpMiddleware(m))
	h := NavigatorRouter(r, nav, m)

	db, err := kv.Open("", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	FloodZoneRouter(r, service.NewFloodZoneService(db), m)
	return r, h
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	out := map[string]interface{}{}
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
	}
	return rec, out
}

func TestRouteHandler(t *testing.T) {
	stub := &stubNavigation{routeFn: okRoute}
	r, _ := newTestRouter(t, stub)

	t.Run("ok with geojson obstacles", func(t *testing.T) {
		body := `{
			"origin": {"node_id": 1},
			"destination": {"lat": -7.57, "lon": 110.821},
			"weather": "flood",
			"flood_areas": {"type": "FeatureCollection", "features": [
				{"type": "Feature", "properties": {"severity": 3, "name": "Genangan"},
				 "geometry": {"type": "Point", "coordinates": [110.8205, -7.57]}}
			]},
			"blocking_geometries": {"type": "FeatureCollection", "features": [
				{"type": "Feature", "properties": {},
				 "geometry": {"type": "LineString", "coordinates": [[110.8205, -7.571], [110.8205, -7.569]]}}
			]}
		}`
		rec, out := do(t, r, http.MethodPost, "/api/navigations/route", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, true, out["success"])
		assert.Equal(t, "astar", out["algorithm"])
		assert.Equal(t, 110.35, out["distance"])
		assert.Equal(t, 2.0, out["duration_minutes"])
		obstacles := out["obstacles"].([]interface{})
		require.Len(t, obstacles, 1)
		assert.Equal(t, 2.0, obstacles[0].(map[string]interface{})["edges_affected"])

		require.Len(t, stub.lastReq.FloodAreas, 1)
		assert.Equal(t, 3.0, stub.lastReq.FloodAreas[0].Severity)
		assert.Equal(t, "Genangan", stub.lastReq.FloodAreas[0].Name)
		assert.Equal(t, orb.Point{110.8205, -7.57}, stub.lastReq.FloodAreas[0].Geometry)
		require.Len(t, stub.lastReq.BlockingGeometries, 1)
		assert.Equal(t, datastructure.ObstacleBlock, stub.lastReq.BlockingGeometries[0].Kind)
		assert.Equal(t, datastructure.WeatherFlood, stub.lastReq.Weather)
		assert.Equal(t, int64(1), *stub.lastReq.Origin.NodeID)
		assert.Equal(t, -7.57, *stub.lastReq.Destination.Lat)
	})

	t.Run("validation", func(t *testing.T) {
		rec, out := do(t, r, http.MethodPost, "/api/navigations/route",
			`{"origin": {"node_id": 1}, "destination": {"lat": 95, "lon": 110}, "weather": "snow"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Len(t, out["validation"], 2)
		assert.Equal(t, false, out["success"])
	})

	t.Run("missing destination", func(t *testing.T) {
		rec, _ := do(t, r, http.MethodPost, "/api/navigations/route", `{"origin": {"node_id": 1}}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no route", func(t *testing.T) {
		rec, out := do(t, r, http.MethodPost, "/api/navigations/route",
			`{"origin": {"node_id": 404}, "destination": {"node_id": 2}}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, false, out["success"])
	})

	t.Run("batch", func(t *testing.T) {
		rec, out := do(t, r, http.MethodPost, "/api/navigations/batch-route", `{"routes": [
			{"origin": {"node_id": 1}, "destination": {"node_id": 2}},
			{"origin": {"node_id": 404}, "destination": {"node_id": 2}}
		]}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, 1.0, out["found"])
		results := out["results"].([]interface{})
		require.Len(t, results, 2)
		assert.NotNil(t, results[0].(map[string]interface{})["route"])
		assert.NotNil(t, results[1].(map[string]interface{})["error"])

		rec, _ = do(t, r, http.MethodPost, "/api/navigations/batch-route", `{"routes": []}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestReadiness(t *testing.T) {
	r, h := newTestRouter(t, nil)

	rec, out := do(t, r, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Service unavailable.", out["status"])
	rec, _ = do(t, r, http.MethodPost, "/api/navigations/route", `{"origin": {"node_id": 1}, "destination": {"node_id": 2}}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// flood zone tetap bisa dipakai sebelum graph siap
	rec, _ = do(t, r, http.MethodGet, "/api/flood-zones", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	h.SetService(&stubNavigation{routeFn: okRoute})
	rec, _ = do(t, r, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestQueryHandlers(t *testing.T) {
	r, _ := newTestRouter(t, &stubNavigation{routeFn: okRoute})

	t.Run("nearest", func(t *testing.T) {
		rec, out := do(t, r, http.MethodGet, "/api/navigations/nearest?lat=-7.57&lon=110.82", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 7.0, out["node_id"])

		rec, _ = do(t, r, http.MethodGet, "/api/navigations/nearest?lat=abc&lon=110.82", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		rec, _ = do(t, r, http.MethodGet, "/api/navigations/nearest?lat=-91&lon=110.82", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("geocoding", func(t *testing.T) {
		rec, out := do(t, r, http.MethodGet, "/api/geocoding/search?q=slamet&limit=3", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, out["results"], 1)

		rec, _ = do(t, r, http.MethodGet, "/api/geocoding/search?q=s", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		rec, _ = do(t, r, http.MethodGet, "/api/geocoding/search?q=slamet&limit=0", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("graph", func(t *testing.T) {
		rec, out := do(t, r, http.MethodGet, "/api/graph/stats", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 2.0, out["nodes"])

		rec, out = do(t, r, http.MethodGet, "/api/graph/geojson", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "FeatureCollection", out["type"])
		assert.Len(t, out["features"], 1)

		rec, out = do(t, r, http.MethodGet, "/api/graph/geojson?bbox=110.8,-7.6,110.9,-7.5", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, out["features"])

		rec, _ = do(t, r, http.MethodGet, "/api/graph/geojson?bbox=110.9,-7.6,110.8,-7.5", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestFloodZoneHandlers(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec, created := do(t, r, http.MethodPost, "/api/flood-zones", map[string]interface{}{
		"name":     "Genangan Pasar Kliwon",
		"type":     "circle",
		"geometry": map[string]interface{}{"type": "Point", "coordinates": []float64{110.83, -7.58}},
		"radius":   250,
		"severity": 7,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := created["id"].(string)
	assert.NotEmpty(t, id)
	assert.Equal(t, true, created["active"])
	assert.Greater(t, created["area_km2"].(float64), 0.19)

	t.Run("invalid zone", func(t *testing.T) {
		rec, _ := do(t, r, http.MethodPost, "/api/flood-zones", map[string]interface{}{
			"name":     "tanpa radius",
			"type":     "circle",
			"geometry": map[string]interface{}{"type": "Point", "coordinates": []float64{110.83, -7.58}},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec, out := do(t, r, http.MethodPost, "/api/flood-zones", map[string]interface{}{"name": "x", "type": "hexagon", "geometry": 1})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NotEmpty(t, out["validation"])
	})

	t.Run("update and active list", func(t *testing.T) {
		rec, out := do(t, r, http.MethodPut, "/api/flood-zones/"+id, map[string]interface{}{"active": false, "severity": 2})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, 2.0, out["severity"])
		assert.Equal(t, "Genangan Pasar Kliwon", out["name"])

		_, active := do(t, r, http.MethodGet, "/api/flood-zones/active", nil)
		assert.Equal(t, 0.0, active["count"])
		_, all := do(t, r, http.MethodGet, "/api/flood-zones", nil)
		assert.Equal(t, 1.0, all["count"])
		_, all = do(t, r, http.MethodGet, "/api/flood-zones?include_inactive=false", nil)
		assert.Equal(t, 0.0, all["count"])

		rec, _ = do(t, r, http.MethodPut, "/api/flood-zones/nope", map[string]interface{}{"active": true})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("get and delete", func(t *testing.T) {
		rec, out := do(t, r, http.MethodGet, "/api/flood-zones/"+id, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Point", out["geometry"].(map[string]interface{})["type"])

		rec, _ = do(t, r, http.MethodDelete, "/api/flood-zones/"+id, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		rec, _ = do(t, r, http.MethodDelete, "/api/flood-zones/"+id, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGetStatusCode(t *testing.T) {
	cases := []struct {
		code error
		want int
	}{
		{server.ErrNotFound, http.StatusNotFound},
		{server.ErrBadParamInput, http.StatusBadRequest},
		{server.ErrConflict, http.StatusConflict},
		{server.ErrUnprocessable, http.StatusUnprocessableEntity},
		{server.ErrServiceUnavailable, http.StatusServiceUnavailable},
		{server.ErrInternalServerError, http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, getStatusCode(server.WrapErrorf(nil, c.code, "x")))
	}
	assert.Equal(t, http.StatusInternalServerError, getStatusCode(assert.AnError))
	assert.Equal(t, http.StatusOK, getStatusCode(nil))

	// pesan internal tidak bocor ke client
	resp := ErrChi(server.WrapErrorf(assert.AnError, server.ErrInternalServerError, "pebble exploded")).(*ErrResponse)
	assert.Equal(t, server.MessageInternalServerError, resp.ErrorText)
}
