package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"dashboard_backend/internal/dashboard/domain"
	"dashboard_backend/internal/dashboard/repository"
	"dashboard_backend/internal/dashboard/service"
	"dashboard_backend/internal/dashboard/transport"
	"dashboard_backend/internal/offices"
	"dashboard_backend/platform/httpkit"
	"dashboard_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Dashboards serves cached and fresh payloads.
type Dashboards interface {
	Get(ctx context.Context, req service.Request) (domain.DashboardPayload, error)
	Refresh(ctx context.Context, req service.Request) (domain.DashboardPayload, error)
}

// Exporter archives a payload and presigns it.
type Exporter interface {
	Export(ctx context.Context, payload domain.DashboardPayload) (service.ExportResult, error)
}

// OfficeLister lists the office registry.
type OfficeLister interface {
	List() []offices.Office
}

// Store persists preferences and the snapshot index.
type Store interface {
	ListPreferences(ctx context.Context, userID uuid.UUID) ([]repository.Preference, error)
	GetPreference(ctx context.Context, userID uuid.UUID, key string) (repository.Preference, error)
	UpsertPreference(ctx context.Context, userID uuid.UUID, key string, value json.RawMessage) (repository.Preference, error)
	DeletePreference(ctx context.Context, userID uuid.UUID, key string) error
	ListSnapshots(ctx context.Context, office string, limit int) ([]repository.Snapshot, error)
}

// Handler handles HTTP requests for the dashboard.
type Handler struct {
	dashboards Dashboards
	exporter   Exporter
	offices    OfficeLister
	store      Store
	val        *validator.Validator
}

// New creates a dashboard handler.
func New(dashboards Dashboards, exporter Exporter, officeLister OfficeLister, store Store, val *validator.Validator) *Handler {
	registerValidations(val)
	return &Handler{dashboards: dashboards, exporter: exporter, offices: officeLister, store: store, val: val}
}

// RegisterRoutes registers the dashboard routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/dashboard", h.Get)
	rg.GET("/dashboard/kpis.csv", h.ExportKPIsCSV)
	rg.POST("/dashboard/refresh", h.Refresh)
	rg.POST("/dashboard/export", h.Export)
	rg.GET("/dashboard/snapshots", h.ListSnapshots)
	rg.GET("/offices", h.ListOffices)

	rg.GET("/preferences", h.ListPreferences)
	rg.GET("/preferences/:key", h.GetPreference)
	rg.PUT("/preferences/:key", h.PutPreference)
	rg.DELETE("/preferences/:key", h.DeletePreference)
}

// Get handles GET /api/v1/dashboard
func (h *Handler) Get(c *gin.Context) {
	var q transport.DashboardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	payload, err := h.dashboards.Get(c.Request.Context(), toRequest(q.Office, q.Period))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, payload)
}

// Refresh handles POST /api/v1/dashboard/refresh
func (h *Handler) Refresh(c *gin.Context) {
	req, ok := h.bindDashboardRequest(c)
	if !ok {
		return
	}

	payload, err := h.dashboards.Refresh(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, payload)
}

// Export handles POST /api/v1/dashboard/export
func (h *Handler) Export(c *gin.Context) {
	req, ok := h.bindDashboardRequest(c)
	if !ok {
		return
	}

	payload, err := h.dashboards.Get(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	result, err := h.exporter.Export(c.Request.Context(), payload)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// ListSnapshots handles GET /api/v1/dashboard/snapshots
func (h *Handler) ListSnapshots(c *gin.Context) {
	var q transport.SnapshotListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(q); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	items, err := h.store.ListSnapshots(c.Request.Context(), q.Office, q.Limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.SnapshotListResponse{Items: items})
}

// ListOffices handles GET /api/v1/offices
func (h *Handler) ListOffices(c *gin.Context) {
	list := h.offices.List()
	resp := transport.OfficeListResponse{
		Offices: make([]transport.OfficeResponse, 0, len(list)),
		AllID:   offices.AllOfficesID,
		Periods: make([]string, 0, len(domain.Periods)),
	}
	for _, o := range list {
		resp.Offices = append(resp.Offices, transport.OfficeResponse{ID: o.ID, Name: o.Name, Timezone: o.Timezone})
	}
	for _, p := range domain.Periods {
		resp.Periods = append(resp.Periods, string(p))
	}
	httpkit.OK(c, resp)
}

// ListPreferences handles GET /api/v1/preferences
func (h *Handler) ListPreferences(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	items, err := h.store.ListPreferences(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.PreferenceListResponse{Items: items})
}

// GetPreference handles GET /api/v1/preferences/:key
func (h *Handler) GetPreference(c *gin.Context) {
	identity, key, ok := h.bindPreferenceKey(c)
	if !ok {
		return
	}

	pref, err := h.store.GetPreference(c.Request.Context(), identity.UserID(), key)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, pref)
}

// PutPreference handles PUT /api/v1/preferences/:key
func (h *Handler) PutPreference(c *gin.Context) {
	identity, key, ok := h.bindPreferenceKey(c)
	if !ok {
		return
	}

	var req transport.UpsertPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	pref, err := h.store.UpsertPreference(c.Request.Context(), identity.UserID(), key, req.Value)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, pref)
}

// DeletePreference handles DELETE /api/v1/preferences/:key
func (h *Handler) DeletePreference(c *gin.Context) {
	identity, key, ok := h.bindPreferenceKey(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.store.DeletePreference(c.Request.Context(), identity.UserID(), key)) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) bindDashboardRequest(c *gin.Context) (service.Request, bool) {
	var req transport.DashboardRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return service.Request{}, false
		}
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return service.Request{}, false
	}
	return toRequest(req.Office, req.Period), true
}

func (h *Handler) bindPreferenceKey(c *gin.Context) (httpkit.Identity, string, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return nil, "", false
	}

	var param transport.PreferenceKeyParam
	if err := c.ShouldBindUri(&param); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return nil, "", false
	}
	if err := h.val.Struct(param); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return nil, "", false
	}
	return identity, param.Key, true
}

// toRequest assumes the period was validated by the caller.
func toRequest(office, period string) service.Request {
	p, _ := domain.ParsePeriod(period)
	return service.Request{Office: office, Period: p}
}
