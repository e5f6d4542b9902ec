// Package dashboard provides the dashboard domain module.
package dashboard

import (
	"context"

	"dashboard_backend/internal/dashboard/handler"
	"dashboard_backend/internal/dashboard/repository"
	"dashboard_backend/internal/dashboard/service"
	"dashboard_backend/internal/events"
	apphttp "dashboard_backend/internal/http"
	"dashboard_backend/internal/offices"
	"dashboard_backend/platform/config"
	"dashboard_backend/platform/logger"
	"dashboard_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Config combines the config interfaces the module needs.
type Config interface {
	config.DashboardConfig
	config.CacheConfig
	GetMinioBucketDashboardExports() string
}

// Module represents the dashboard domain module
type Module struct {
	handler  *handler.Handler
	repo     *repository.Repository
	timer    *service.TimerRetrier
	Service  *service.Service
	Cache    *service.Cache
	Exporter *service.Exporter
}

// NewModule creates the dashboard module with all dependencies wired. rdb
// and store may be nil; caching and exports are then disabled.
func NewModule(pool *pgxpool.Pool, source service.Source, registry *offices.Registry, rdb *redis.Client, store service.ObjectStore, eventBus events.Bus, cfg Config, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(source, registry, eventBus, cfg, log)
	if rdb != nil {
		svc.SetAlertGate(service.NewRedisAlertGate(rdb))
	}

	cache := service.NewCache(svc, rdb, cfg.GetDashboardCacheTTL(), log)
	timer := service.NewTimerRetrier(func(ctx context.Context, req service.Request) {
		if _, err := cache.Refresh(ctx, req); err != nil {
			log.Error("dashboard retry failed", "office", req.Office, "period", req.Period, "error", err)
		}
	}, log)
	svc.SetRetrier(timer)

	exporter := service.NewExporter(store, cfg.GetMinioBucketDashboardExports(), eventBus)

	return &Module{
		handler:  handler.New(cache, exporter, registry, repo, val),
		repo:     repo,
		timer:    timer,
		Service:  svc,
		Cache:    cache,
		Exporter: exporter,
	}
}

// Repository exposes the preference and snapshot store.
func (m *Module) Repository() *repository.Repository { return m.repo }

// SetRetrier replaces the in-process retry timer, typically with the asynq
// client when Redis is configured.
func (m *Module) SetRetrier(r service.Retrier) {
	if r == nil {
		return
	}
	m.timer.Stop()
	m.Service.SetRetrier(r)
}

// RegisterHandlers subscribes the module to domain events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.DashboardSnapshotArchived{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.DashboardSnapshotArchived)
		if !ok {
			return nil
		}
		return m.repo.RecordSnapshot(ctx, repository.Snapshot{
			Office:    e.Office,
			Period:    e.Period,
			ObjectKey: e.ObjectKey,
			Source:    e.Source,
			CreatedAt: e.OccurredAt(),
		})
	}))
}

// Close stops pending in-process retries.
func (m *Module) Close() {
	m.timer.Stop()
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "dashboard"
}

// RegisterRoutes registers the module's routes under /api/v1
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
