package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"lintang/floodnav/pkg/constraint"
	"lintang/floodnav/pkg/datastructure"
	"lintang/floodnav/pkg/geocoder"
	"lintang/floodnav/pkg/guidance"
	"lintang/floodnav/pkg/server"
	"lintang/floodnav/pkg/server/rest/service"
	"lintang/floodnav/pkg/util"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

type NavigationService interface {
	Route(ctx context.Context, req service.RouteRequest) (*service.RouteResult, error)
	BatchRoute(ctx context.Context, reqs []service.RouteRequest) []service.BatchItem
	NearestNode(lat, lon float64) (service.ResolvedLocation, error)
	Geocode(query string, limit int) ([]geocoder.Result, error)
	GraphStats() service.GraphStats
	GraphGeoJSON(bound *orb.Bound, limit int) *geojson.FeatureCollection
}

type navigationSvcHolder struct {
	NavigationService
}

// NavigationHandler. svc nil sampai routing graph selesai dibangun, selama itu semua endpoint balas 503.
type NavigationHandler struct {
	svc          atomic.Pointer[navigationSvcHolder]
	promeMetrics *metrics
}

func NavigatorRouter(r *chi.Mux, svc NavigationService, m *metrics) *NavigationHandler {
	handler := &NavigationHandler{promeMetrics: m}
	if svc != nil {
		handler.SetService(svc)
	}

	r.Group(func(r chi.Router) {
		r.Route("/api/navigations", func(r chi.Router) {
			r.Post("/route", handler.route)
			r.Post("/batch-route", handler.batchRoute)
			r.Get("/nearest", handler.nearestNode)
		})
		r.Get("/api/geocoding/search", handler.geocode)
		r.Route("/api/graph", func(r chi.Router) {
			r.Get("/stats", handler.graphStats)
			r.Get("/geojson", handler.graphGeoJSON)
		})
		r.Get("/api/health", handler.health)
	})
	return handler
}

// SetService dipanggil setelah graph siap.
func (h *NavigationHandler) SetService(svc NavigationService) {
	h.svc.Store(&navigationSvcHolder{svc})
}

func (h *NavigationHandler) service(w http.ResponseWriter, r *http.Request) (NavigationService, bool) {
	holder := h.svc.Load()
	if holder == nil {
		render.Render(w, r, ErrChi(server.WrapErrorf(nil, server.ErrServiceUnavailable,
			"routing graph is still being built, try again later")))
		return nil, false
	}
	return holder.NavigationService, true
}

// LocationRequest model info
//
//	@Description	origin/destination, isi tepat satu dari node_id, lat+lon, atau address
type LocationRequest struct {
	NodeID  *int64   `json:"node_id,omitempty"`
	Lat     *float64 `json:"lat,omitempty" validate:"omitempty,gte=-90,lte=90"`
	Lon     *float64 `json:"lon,omitempty" validate:"omitempty,gte=-180,lte=180"`
	Address string   `json:"address,omitempty" validate:"omitempty,min=2,max=200"`
}

func (l *LocationRequest) toLocation() service.Location {
	return service.Location{NodeID: l.NodeID, Lat: l.Lat, Lon: l.Lon, Address: l.Address}
}

// RouteRequest model info
//
//	@Description	request body untuk route query dengan cuaca, genangan banjir, dan jalan yang ditutup
type RouteRequest struct {
	Origin              *LocationRequest           `json:"origin" validate:"required"`
	Destination         *LocationRequest           `json:"destination" validate:"required"`
	Weather             string                     `json:"weather" validate:"omitempty,oneof=normal rain flood"`
	FloodAreas          *geojson.FeatureCollection `json:"flood_areas,omitempty" validate:"-" swaggertype:"object"`
	BlockingGeometries  *geojson.FeatureCollection `json:"blocking_geometries,omitempty" validate:"-" swaggertype:"object"`
	UseStoredFloodZones bool                       `json:"use_stored_flood_zones"`
	Algorithm           string                     `json:"algorithm" validate:"omitempty,oneof=astar dijkstra"`
}

func (s *RouteRequest) Bind(r *http.Request) error {
	if s.Origin == nil || s.Destination == nil {
		return errors.New("origin and destination are required")
	}
	return nil
}

func (s *RouteRequest) toServiceRequest() service.RouteRequest {
	return service.RouteRequest{
		Origin:              s.Origin.toLocation(),
		Destination:         s.Destination.toLocation(),
		Weather:             datastructure.Weather(strings.ToLower(s.Weather)),
		FloodAreas:          featureObstacles(s.FloodAreas, datastructure.ObstacleFlood),
		BlockingGeometries:  featureObstacles(s.BlockingGeometries, datastructure.ObstacleBlock),
		UseStoredFloodZones: s.UseStoredFloodZones,
		Algorithm:           s.Algorithm,
	}
}

// featureObstacles properties yang dibaca: severity, radius (meter, untuk Point), name.
func featureObstacles(fc *geojson.FeatureCollection, kind datastructure.ObstacleKind) []constraint.Obstacle {
	if fc == nil {
		return nil
	}
	obstacles := make([]constraint.Obstacle, 0, len(fc.Features))
	for i, f := range fc.Features {
		ob := constraint.Obstacle{Kind: kind, Name: fmt.Sprintf("%s #%d", kind, i)}
		if f == nil {
			obstacles = append(obstacles, ob)
			continue
		}
		ob.Geometry = f.Geometry
		ob.Severity = f.Properties.MustFloat64("severity", 0)
		ob.Radius = f.Properties.MustFloat64("radius", 0)
		if name := f.Properties.MustString("name", ""); name != "" {
			ob.Name = name
		}
		obstacles = append(obstacles, ob)
	}
	return obstacles
}

type ObstacleRes struct {
	Index         int    `json:"index"`
	Name          string `json:"name"`
	Kind          string `json:"kind"`
	Blocking      bool   `json:"blocking"`
	EdgesAffected int    `json:"edges_affected"`
	Error         string `json:"error,omitempty"`
}

// RouteResponse model info
//
//	@Description	response body route query
type RouteResponse struct {
	Success          bool                          `json:"success"`
	Algorithm        string                        `json:"algorithm"`
	Weather          string                        `json:"weather"`
	Origin           service.ResolvedLocation      `json:"origin"`
	Destination      service.ResolvedLocation      `json:"destination"`
	Nodes            []int64                       `json:"nodes"`
	Coordinates      []datastructure.Coordinate    `json:"coordinates"`
	Polyline         string                        `json:"polyline"`
	Distance         float64                       `json:"distance"`         // meter
	Duration         float64                       `json:"duration"`         // detik
	DurationMinutes  float64                       `json:"duration_minutes"` // menit
	Obstacles        []ObstacleRes                 `json:"obstacles"`
	StoredFloodZones int                           `json:"stored_flood_zones"`
	Stats            datastructure.RouteStats      `json:"stats"`
	Instructions     []guidance.DrivingInstruction `json:"instructions"`
}

func NewRouteResponse(res *service.RouteResult, algorithm string) *RouteResponse {
	if algorithm == "" {
		algorithm = service.AlgorithmAStar
	}
	obstacles := make([]ObstacleRes, 0, len(res.Obstacles))
	for _, o := range res.Obstacles {
		rep := ObstacleRes{Index: o.Index, Name: o.Name, Kind: string(o.Kind), Blocking: o.Blocking, EdgesAffected: len(o.Arcs)}
		if o.Err != nil {
			rep.Error = o.Err.Error()
		}
		obstacles = append(obstacles, rep)
	}
	return &RouteResponse{
		Success:          true,
		Algorithm:        strings.ToLower(algorithm),
		Weather:          string(res.Weather),
		Origin:           res.Origin,
		Destination:      res.Destination,
		Nodes:            res.Path.Nodes,
		Coordinates:      res.Path.Coordinates,
		Polyline:         res.Polyline,
		Distance:         util.RoundFloat(res.Path.Distance, 2),
		Duration:         util.RoundFloat(res.Path.Duration, 2),
		DurationMinutes:  util.RoundFloat(res.Path.Duration/60, 2),
		Obstacles:        obstacles,
		StoredFloodZones: res.StoredZones,
		Stats:            res.Path.Stats,
		Instructions:     res.Instructions,
	}
}

// route
//
//	@Summary		route query antara 2 lokasi dengan memperhitungkan banjir dan jalan yang ditutup.
//	@Description	origin/destination bisa berupa node id, koordinat, atau alamat. flood_areas & blocking_geometries berupa GeoJSON FeatureCollection.
//	@Tags			navigations
//	@Param			body	body	RouteRequest	true	"request body route query"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/navigations/route [post]
//	@Success		200	{object}	RouteResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		404	{object}	ErrResponse
//	@Failure		500	{object}	ErrResponse
//	@Failure		503	{object}	ErrResponse
func (h *NavigationHandler) route(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}
	data := &RouteRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !validateRequest(w, r, data) {
		return
	}

	res, err := svc.Route(r.Context(), data.toServiceRequest())
	h.observeRoute(data.Algorithm, res, err)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, NewRouteResponse(res, data.Algorithm))
}

func (h *NavigationHandler) observeRoute(algorithm string, res *service.RouteResult, err error) {
	if algorithm == "" {
		algorithm = service.AlgorithmAStar
	}
	algorithm = strings.ToLower(algorithm)
	switch {
	case err == nil:
		h.promeMetrics.RouteQueryCount.WithLabelValues(algorithm, "found").Inc()
		h.promeMetrics.BlockedEdges.Observe(float64(res.Path.Stats.BlockedEdges))
	case getStatusCode(err) == http.StatusNotFound:
		h.promeMetrics.RouteQueryCount.WithLabelValues(algorithm, "not_found").Inc()
	default:
		h.promeMetrics.RouteQueryCount.WithLabelValues(algorithm, "error").Inc()
	}
}

// BatchRouteRequest model info
//
//	@Description	beberapa route query sekaligus
type BatchRouteRequest struct {
	Routes []*RouteRequest `json:"routes" validate:"required,min=1,max=100,dive,required"`
}

func (s *BatchRouteRequest) Bind(r *http.Request) error {
	for i, rr := range s.Routes {
		if rr == nil {
			return fmt.Errorf("route %d is empty", i)
		}
		if err := rr.Bind(r); err != nil {
			return fmt.Errorf("route %d: %w", i, err)
		}
	}
	return nil
}

type BatchRouteItem struct {
	Index int            `json:"index"`
	Route *RouteResponse `json:"route,omitempty"`
	Error *ErrResponse   `json:"error,omitempty"`
}

type BatchRouteResponse struct {
	Results []BatchRouteItem `json:"results"`
	Found   int              `json:"found"`
}

// batchRoute
//
//	@Summary		beberapa route query dijalankan paralel.
//	@Description	hasil urut sesuai urutan request, tiap item berisi route atau error.
//	@Tags			navigations
//	@Param			body	body	BatchRouteRequest	true	"request body batch route query"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/navigations/batch-route [post]
//	@Success		200	{object}	BatchRouteResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		503	{object}	ErrResponse
func (h *NavigationHandler) batchRoute(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}
	data := &BatchRouteRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !validateRequest(w, r, data) {
		return
	}

	reqs := make([]service.RouteRequest, len(data.Routes))
	for i, rr := range data.Routes {
		reqs[i] = rr.toServiceRequest()
	}
	items := svc.BatchRoute(r.Context(), reqs)

	resp := &BatchRouteResponse{Results: make([]BatchRouteItem, len(items))}
	for i, it := range items {
		h.observeRoute(data.Routes[i].Algorithm, it.Result, it.Err)
		if it.Err != nil {
			resp.Results[i] = BatchRouteItem{Index: i, Error: ErrChi(it.Err).(*ErrResponse)}
			continue
		}
		resp.Found++
		resp.Results[i] = BatchRouteItem{Index: i, Route: NewRouteResponse(it.Result, data.Routes[i].Algorithm)}
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

type NearestNodeRequest struct {
	Lat float64 `validate:"gte=-90,lte=90"`
	Lon float64 `validate:"gte=-180,lte=180"`
}

// nearestNode
//
//	@Summary		node jalan terdekat dari koordinat.
//	@Tags			navigations
//	@Param			lat	query	number	true	"latitude"
//	@Param			lon	query	number	true	"longitude"
//	@Produce		application/json
//	@Router			/navigations/nearest [get]
//	@Success		200	{object}	service.ResolvedLocation
//	@Failure		400	{object}	ErrResponse
//	@Failure		404	{object}	ErrResponse
func (h *NavigationHandler) nearestNode(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}
	lat, errLat := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err := errors.Join(errLat, errLon); err != nil {
		render.Render(w, r, ErrInvalidRequest(fmt.Errorf("lat and lon must be numbers: %w", err)))
		return
	}
	if !validateRequest(w, r, &NearestNodeRequest{Lat: lat, Lon: lon}) {
		return
	}

	loc, err := svc.NearestNode(lat, lon)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, loc)
}

type GeocodeResponse struct {
	Query   string            `json:"query"`
	Results []geocoder.Result `json:"results"`
}

// geocode
//
//	@Summary		cari alamat/jalan/POI di peta.
//	@Tags			geocoding
//	@Param			q		query	string	true	"nama jalan atau tempat"
//	@Param			limit	query	int		false	"jumlah hasil maksimum"
//	@Produce		application/json
//	@Router			/geocoding/search [get]
//	@Success		200	{object}	GeocodeResponse
//	@Failure		400	{object}	ErrResponse
func (h *NavigationHandler) geocode(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}
	q := r.URL.Query().Get("q")
	limit := geocoder.DefaultLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 1 || n > 50 {
			render.Render(w, r, ErrInvalidRequest(errors.New("limit must be between 1 and 50")))
			return
		}
		limit = n
	}

	res, err := svc.Geocode(q, limit)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, &GeocodeResponse{Query: q, Results: res})
}

// graphStats
//
//	@Summary		statistik routing graph.
//	@Tags			graph
//	@Produce		application/json
//	@Router			/graph/stats [get]
//	@Success		200	{object}	service.GraphStats
func (h *NavigationHandler) graphStats(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, svc.GraphStats())
}

// graphGeoJSON
//
//	@Summary		edge routing graph sebagai GeoJSON FeatureCollection.
//	@Tags			graph
//	@Param			bbox	query	string	false	"minLon,minLat,maxLon,maxLat"
//	@Param			limit	query	int		false	"jumlah feature maksimum"
//	@Produce		application/json
//	@Router			/graph/geojson [get]
//	@Success		200	{object}	object
//	@Failure		400	{object}	ErrResponse
func (h *NavigationHandler) graphGeoJSON(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}
	var bound *orb.Bound
	if bbox := r.URL.Query().Get("bbox"); bbox != "" {
		b, err := parseBBox(bbox)
		if err != nil {
			render.Render(w, r, ErrInvalidRequest(err))
			return
		}
		bound = &b
	}
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			render.Render(w, r, ErrInvalidRequest(errors.New("limit must be a non-negative integer")))
			return
		}
		limit = n
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, svc.GraphGeoJSON(bound, limit))
}

func parseBBox(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, errors.New("bbox must be minLon,minLat,maxLon,maxLat")
	}
	v := make([]float64, 4)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("bbox value %q: %w", p, err)
		}
		v[i] = f
	}
	if v[0] > v[2] || v[1] > v[3] || v[1] < -90 || v[3] > 90 || v[0] < -180 || v[2] > 180 {
		return orb.Bound{}, errors.New("bbox out of range")
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}

func (h *NavigationHandler) health(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.service(w, r); !ok {
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]string{"status": "ready"})
}

func validateRequest(w http.ResponseWriter, r *http.Request, data interface{}) bool {
	validate := validator.New()
	if err := validate.Struct(data); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		render.Render(w, r, ErrValidation(err, vv))
		return false
	}
	return true
}

// ErrResponse model info
//
//	@Description	model untuk error response
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	Success       bool     `json:"success"`
	StatusText    string   `json:"status"`          // user-level status message
	AppCode       int64    `json:"code,omitempty"`  // application-specific error code
	ErrorText     string   `json:"error,omitempty"` // application-level error message, for debugging
	ErrValidation []string `json:"validation,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrValidation(err error, errV []error) render.Renderer {
	vv := []string{}
	for _, v := range errV {
		vv = append(vv, v.Error())
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
		ErrValidation:  vv,
	}
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func ErrChi(err error) render.Renderer {
	statusText := ""
	code := getStatusCode(err)
	switch code {
	case http.StatusNotFound:
		statusText = "Resource not found."
	case http.StatusInternalServerError:
		statusText = "Internal server error."
	case http.StatusConflict:
		statusText = "Resource conflict."
	case http.StatusBadRequest:
		statusText = "Bad request."
	case http.StatusUnprocessableEntity:
		statusText = "Request could not be processed."
	case http.StatusServiceUnavailable:
		statusText = "Service unavailable."
	default:
		statusText = "Error."
	}

	errText := err.Error()
	if code == http.StatusInternalServerError {
		errText = server.MessageInternalServerError
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: code,
		StatusText:     statusText,
		ErrorText:      errText,
	}
}

func getStatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var ierr *server.Error
	if !errors.As(err, &ierr) {
		return http.StatusInternalServerError
	} else {
		switch ierr.Code() {
		case server.ErrInternalServerError:
			return http.StatusInternalServerError
		case server.ErrNotFound:
			return http.StatusNotFound
		case server.ErrConflict:
			return http.StatusConflict
		case server.ErrBadParamInput:
			return http.StatusBadRequest
		case server.ErrUnprocessable:
			return http.StatusUnprocessableEntity
		case server.ErrServiceUnavailable:
			return http.StatusServiceUnavailable
		default:
			return http.StatusInternalServerError
		}
	}
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return []error{err}
	}
	for _, e := range validatorErrs {
		translatedErr := errors.New(e.Translate(trans))
		errs = append(errs, translatedErr)
	}
	return errs
}
