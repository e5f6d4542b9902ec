package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dashboard_backend/internal/dashboard/domain"
	"dashboard_backend/internal/dashboard/repository"
	"dashboard_backend/internal/dashboard/service"
	"dashboard_backend/internal/offices"
	"dashboard_backend/platform/apperr"
	"dashboard_backend/platform/httpkit"
	"dashboard_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeDashboards struct {
	gets      []service.Request
	refreshes []service.Request
	err       error
}

func (f *fakeDashboards) payload(req service.Request) domain.DashboardPayload {
	p := domain.DashboardPayload{Meta: domain.Meta{Office: req.Office, Period: req.Period, Source: domain.SourceLive}}
	p.Normalize()
	return p
}

func (f *fakeDashboards) Get(_ context.Context, req service.Request) (domain.DashboardPayload, error) {
	f.gets = append(f.gets, req)
	if f.err != nil {
		return domain.DashboardPayload{}, f.err
	}
	return f.payload(req), nil
}

func (f *fakeDashboards) Refresh(_ context.Context, req service.Request) (domain.DashboardPayload, error) {
	f.refreshes = append(f.refreshes, req)
	return f.payload(req), nil
}

type fakeExporter struct {
	err error
}

func (f *fakeExporter) Export(_ context.Context, p domain.DashboardPayload) (service.ExportResult, error) {
	if f.err != nil {
		return service.ExportResult{}, f.err
	}
	return service.ExportResult{ObjectKey: p.Meta.Office + "/x.json", URL: "https://files/x.json", Source: p.Meta.Source}, nil
}

type fakeStore struct {
	prefs map[string]json.RawMessage
	limit int
}

func (s *fakeStore) ListPreferences(context.Context, uuid.UUID) ([]repository.Preference, error) {
	out := []repository.Preference{}
	for k, v := range s.prefs {
		out = append(out, repository.Preference{Key: k, Value: v})
	}
	return out, nil
}

func (s *fakeStore) GetPreference(_ context.Context, _ uuid.UUID, key string) (repository.Preference, error) {
	v, ok := s.prefs[key]
	if !ok {
		return repository.Preference{}, apperr.NotFound("preference not found")
	}
	return repository.Preference{Key: key, Value: v}, nil
}

func (s *fakeStore) UpsertPreference(_ context.Context, _ uuid.UUID, key string, value json.RawMessage) (repository.Preference, error) {
	s.prefs[key] = value
	return repository.Preference{Key: key, Value: value, UpdatedAt: time.Now()}, nil
}

func (s *fakeStore) DeletePreference(_ context.Context, _ uuid.UUID, key string) error {
	if _, ok := s.prefs[key]; !ok {
		return apperr.NotFound("preference not found")
	}
	delete(s.prefs, key)
	return nil
}

func (s *fakeStore) ListSnapshots(_ context.Context, office string, limit int) ([]repository.Snapshot, error) {
	s.limit = limit
	return []repository.Snapshot{{Office: office, ObjectKey: "k"}}, nil
}

type fixture struct {
	engine     *gin.Engine
	dashboards *fakeDashboards
	exporter   *fakeExporter
	store      *fakeStore
}

func newFixture(t *testing.T, authenticated bool) *fixture {
	t.Helper()
	reg, err := offices.Parse([]byte("offices:\n  - id: hq\n    name: Head Office\n  - id: north\n"))
	if err != nil {
		t.Fatalf("parse registry: %v", err)
	}

	f := &fixture{
		dashboards: &fakeDashboards{},
		exporter:   &fakeExporter{},
		store:      &fakeStore{prefs: map[string]json.RawMessage{}},
	}
	h := New(f.dashboards, f.exporter, reg, f.store, validator.New())

	f.engine = gin.New()
	group := f.engine.Group("/api/v1")
	if authenticated {
		group.Use(func(c *gin.Context) {
			c.Set(httpkit.ContextUserIDKey, uuid.MustParse("11111111-1111-1111-1111-111111111111"))
			c.Next()
		})
	}
	h.RegisterRoutes(group)
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func TestGetDashboard(t *testing.T) {
	f := newFixture(t, true)

	rec := f.do(http.MethodGet, "/api/v1/dashboard?office=hq&period=last-quarter", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(f.dashboards.gets) != 1 || f.dashboards.gets[0].Period != domain.PeriodLastQuarter || f.dashboards.gets[0].Office != "hq" {
		t.Fatalf("unexpected request %+v", f.dashboards.gets)
	}

	var body domain.DashboardPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.KPIs) != len(domain.KPIKeys) || body.Meta.Source != domain.SourceLive {
		t.Fatalf("unexpected body %+v", body.Meta)
	}
}

func TestGetDashboardDefaultsPeriod(t *testing.T) {
	f := newFixture(t, true)

	if rec := f.do(http.MethodGet, "/api/v1/dashboard", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if f.dashboards.gets[0].Period != domain.PeriodCurrentMonth {
		t.Fatalf("expected default period, got %q", f.dashboards.gets[0].Period)
	}
}

func TestGetDashboardRejectsUnknownPeriod(t *testing.T) {
	f := newFixture(t, true)

	rec := f.do(http.MethodGet, "/api/v1/dashboard?period=next-week", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(f.dashboards.gets) != 0 {
		t.Fatalf("expected no aggregation for invalid period")
	}
}

func TestGetDashboardMapsNotFound(t *testing.T) {
	f := newFixture(t, true)
	f.dashboards.err = apperr.NotFound("office not found")

	if rec := f.do(http.MethodGet, "/api/v1/dashboard?office=mars", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestRefreshAcceptsEmptyBody(t *testing.T) {
	f := newFixture(t, true)

	if rec := f.do(http.MethodPost, "/api/v1/dashboard/refresh", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := f.do(http.MethodPost, "/api/v1/dashboard/refresh", `{"office":"north","period":"last-year"}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(f.dashboards.refreshes) != 2 || f.dashboards.refreshes[1].Period != domain.PeriodLastYear {
		t.Fatalf("unexpected refreshes %+v", f.dashboards.refreshes)
	}
}

func TestExport(t *testing.T) {
	f := newFixture(t, true)

	rec := f.do(http.MethodPost, "/api/v1/dashboard/export", `{"office":"hq"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var res service.ExportResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil || res.ObjectKey != "hq/x.json" {
		t.Fatalf("unexpected result %+v %v", res, err)
	}

	f.exporter.err = apperr.Unavailable("snapshot storage is not configured")
	if rec := f.do(http.MethodPost, "/api/v1/dashboard/export", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestExportKPIsCSV(t *testing.T) {
	f := newFixture(t, true)

	rec := f.do(http.MethodGet, "/api/v1/dashboard/kpis.csv?office=hq&period=last-month", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected text/csv, got %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != len(domain.KPIKeys)+2 {
		t.Fatalf("expected %d lines, got %d", len(domain.KPIKeys)+2, len(lines))
	}
	if !strings.HasPrefix(lines[0], "Parameters:Office=hq;Period=last-month;Source=live") {
		t.Fatalf("unexpected parameter line %q", lines[0])
	}
	if lines[1] != "kpi,value,changePercent" || lines[2] != "totalContacts,0,0" {
		t.Fatalf("unexpected rows %q %q", lines[1], lines[2])
	}
}

func TestListOffices(t *testing.T) {
	f := newFixture(t, true)

	rec := f.do(http.MethodGet, "/api/v1/offices", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Offices []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"offices"`
		AllID   string   `json:"allId"`
		Periods []string `json:"periods"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Offices) != 2 || body.Offices[0].ID != "hq" || body.AllID != "all" || len(body.Periods) != 5 {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestSnapshotsValidateLimit(t *testing.T) {
	f := newFixture(t, true)

	if rec := f.do(http.MethodGet, "/api/v1/dashboard/snapshots?limit=500", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/api/v1/dashboard/snapshots?office=hq&limit=5", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if f.store.limit != 5 {
		t.Fatalf("expected limit 5, got %d", f.store.limit)
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	f := newFixture(t, true)

	if rec := f.do(http.MethodPut, "/api/v1/preferences/default-office", `{"value":"hq"}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec := f.do(http.MethodGet, "/api/v1/preferences/default-office", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"value":"hq"`) {
		t.Fatalf("unexpected get %d %s", rec.Code, rec.Body.String())
	}
	if rec := f.do(http.MethodGet, "/api/v1/preferences", ""); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "default-office") {
		t.Fatalf("unexpected list %d %s", rec.Code, rec.Body.String())
	}
	if rec := f.do(http.MethodDelete, "/api/v1/preferences/default-office", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/api/v1/preferences/default-office", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestPreferencesRequireValue(t *testing.T) {
	f := newFixture(t, true)

	if rec := f.do(http.MethodPut, "/api/v1/preferences/theme", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPreferencesRequireIdentity(t *testing.T) {
	f := newFixture(t, false)

	if rec := f.do(http.MethodGet, "/api/v1/preferences", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
