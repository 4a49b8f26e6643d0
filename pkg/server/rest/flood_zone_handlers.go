package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"lintang/floodnav/pkg/kv"
	"lintang/floodnav/pkg/server/rest/service"
	"lintang/floodnav/pkg/util"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type FloodZoneService interface {
	Create(z kv.FloodZone) (kv.FloodZone, error)
	Get(id string) (kv.FloodZone, error)
	Update(id string, patch kv.FloodZonePatch) (kv.FloodZone, error)
	Delete(id string) error
	List(includeInactive bool) ([]kv.FloodZone, error)
}

type FloodZoneHandler struct {
	svc          FloodZoneService
	promeMetrics *metrics
}

func FloodZoneRouter(r *chi.Mux, svc FloodZoneService, m *metrics) {
	handler := &FloodZoneHandler{svc, m}

	r.Group(func(r chi.Router) {
		r.Route("/api/flood-zones", func(r chi.Router) {
			r.Get("/", handler.list)
			r.Post("/", handler.create)
			r.Get("/active", handler.active)
			r.Get("/{id}", handler.get)
			r.Put("/{id}", handler.update)
			r.Delete("/{id}", handler.delete)
		})
	})
}

// FloodZoneRequest model info
//
//	@Description	request body untuk membuat flood zone. geometry berupa GeoJSON geometry (Polygon, MultiPolygon, atau Point untuk circle)
type FloodZoneRequest struct {
	Name     string          `json:"name" validate:"required,max=200"`
	Type     string          `json:"type" validate:"required,oneof=polygon circle multipolygon"`
	Geometry json.RawMessage `json:"geometry" validate:"required" swaggertype:"object"`
	Radius   float64         `json:"radius" validate:"gte=0"`
	Severity float64         `json:"severity" validate:"gte=0"`
	Active   *bool           `json:"active"`
}

func (s *FloodZoneRequest) Bind(r *http.Request) error {
	if len(s.Geometry) == 0 {
		return errors.New("geometry is required")
	}
	return nil
}

// FloodZoneUpdateRequest model info
//
//	@Description	field yang tidak diisi tidak diubah
type FloodZoneUpdateRequest struct {
	Name     *string         `json:"name" validate:"omitempty,min=1,max=200"`
	Type     *string         `json:"type" validate:"omitempty,oneof=polygon circle multipolygon"`
	Geometry json.RawMessage `json:"geometry,omitempty" swaggertype:"object"`
	Radius   *float64        `json:"radius" validate:"omitempty,gte=0"`
	Severity *float64        `json:"severity" validate:"omitempty,gte=0"`
	Active   *bool           `json:"active"`
}

func (s *FloodZoneUpdateRequest) Bind(r *http.Request) error {
	return nil
}

// FloodZoneResponse model info
//
//	@Description	flood zone tersimpan
type FloodZoneResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Geometry  json.RawMessage `json:"geometry" swaggertype:"object"`
	Radius    float64         `json:"radius,omitempty"`
	Severity  float64         `json:"severity"`
	Active    bool            `json:"active"`
	AreaKm2   float64         `json:"area_km2"`
	UpdatedAt int64           `json:"updated_at"`
}

func NewFloodZoneResponse(z kv.FloodZone) *FloodZoneResponse {
	return &FloodZoneResponse{
		ID:        z.ID,
		Name:      z.Name,
		Type:      z.Type,
		Geometry:  json.RawMessage(z.Geometry),
		Radius:    z.Radius,
		Severity:  z.Severity,
		Active:    z.Active,
		AreaKm2:   util.RoundFloat(service.ZoneAreaKm2(z), 4),
		UpdatedAt: z.UpdatedAt,
	}
}

type FloodZoneListResponse struct {
	Zones []*FloodZoneResponse `json:"zones"`
	Count int                  `json:"count"`
}

func NewFloodZoneListResponse(zones []kv.FloodZone) *FloodZoneListResponse {
	res := &FloodZoneListResponse{Zones: make([]*FloodZoneResponse, 0, len(zones)), Count: len(zones)}
	for _, z := range zones {
		res.Zones = append(res.Zones, NewFloodZoneResponse(z))
	}
	return res
}

// create
//
//	@Summary		simpan flood zone baru.
//	@Tags			flood-zones
//	@Param			body	body	FloodZoneRequest	true	"flood zone"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/flood-zones [post]
//	@Success		201	{object}	FloodZoneResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		500	{object}	ErrResponse
func (h *FloodZoneHandler) create(w http.ResponseWriter, r *http.Request) {
	data := &FloodZoneRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !validateRequest(w, r, data) {
		return
	}

	active := true
	if data.Active != nil {
		active = *data.Active
	}
	z, err := h.svc.Create(kv.FloodZone{
		Name:     data.Name,
		Type:     data.Type,
		Geometry: data.Geometry,
		Radius:   data.Radius,
		Severity: data.Severity,
		Active:   active,
	})
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	h.promeMetrics.FloodZoneOps.WithLabelValues("create").Inc()

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, NewFloodZoneResponse(z))
}

// list
//
//	@Summary		semua flood zone tersimpan.
//	@Tags			flood-zones
//	@Param			include_inactive	query	bool	false	"ikutkan zone yang tidak aktif (default true)"
//	@Produce		application/json
//	@Router			/flood-zones [get]
//	@Success		200	{object}	FloodZoneListResponse
//	@Failure		500	{object}	ErrResponse
func (h *FloodZoneHandler) list(w http.ResponseWriter, r *http.Request) {
	includeInactive := true
	if v := r.URL.Query().Get("include_inactive"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			render.Render(w, r, ErrInvalidRequest(errors.New("include_inactive must be a boolean")))
			return
		}
		includeInactive = b
	}
	h.renderList(w, r, includeInactive)
}

// active
//
//	@Summary		flood zone yang sedang aktif.
//	@Tags			flood-zones
//	@Produce		application/json
//	@Router			/flood-zones/active [get]
//	@Success		200	{object}	FloodZoneListResponse
//	@Failure		500	{object}	ErrResponse
func (h *FloodZoneHandler) active(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, false)
}

func (h *FloodZoneHandler) renderList(w http.ResponseWriter, r *http.Request, includeInactive bool) {
	zones, err := h.svc.List(includeInactive)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, NewFloodZoneListResponse(zones))
}

// get
//
//	@Summary		satu flood zone.
//	@Tags			flood-zones
//	@Param			id	path	string	true	"flood zone id"
//	@Produce		application/json
//	@Router			/flood-zones/{id} [get]
//	@Success		200	{object}	FloodZoneResponse
//	@Failure		404	{object}	ErrResponse
func (h *FloodZoneHandler) get(w http.ResponseWriter, r *http.Request) {
	z, err := h.svc.Get(chi.URLParam(r, "id"))
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, NewFloodZoneResponse(z))
}

// update
//
//	@Summary		ubah flood zone.
//	@Tags			flood-zones
//	@Param			id		path	string					true	"flood zone id"
//	@Param			body	body	FloodZoneUpdateRequest	true	"field yang diubah"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/flood-zones/{id} [put]
//	@Success		200	{object}	FloodZoneResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		404	{object}	ErrResponse
func (h *FloodZoneHandler) update(w http.ResponseWriter, r *http.Request) {
	data := &FloodZoneUpdateRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !validateRequest(w, r, data) {
		return
	}

	z, err := h.svc.Update(chi.URLParam(r, "id"), kv.FloodZonePatch{
		Name:     data.Name,
		Type:     data.Type,
		Geometry: data.Geometry,
		Radius:   data.Radius,
		Severity: data.Severity,
		Active:   data.Active,
	})
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	h.promeMetrics.FloodZoneOps.WithLabelValues("update").Inc()

	render.Status(r, http.StatusOK)
	render.JSON(w, r, NewFloodZoneResponse(z))
}

// delete
//
//	@Summary		hapus flood zone.
//	@Tags			flood-zones
//	@Param			id	path	string	true	"flood zone id"
//	@Router			/flood-zones/{id} [delete]
//	@Success		204
//	@Failure		404	{object}	ErrResponse
func (h *FloodZoneHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(chi.URLParam(r, "id")); err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	h.promeMetrics.FloodZoneOps.WithLabelValues("delete").Inc()
	render.NoContent(w, r)
}
