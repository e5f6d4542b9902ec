package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dashboard_backend/internal/bootstrap"
	"dashboard_backend/internal/crm/client"
	"dashboard_backend/internal/dashboard"
	"dashboard_backend/internal/dashboard/service"
	"dashboard_backend/internal/email"
	"dashboard_backend/internal/events"
	apphttp "dashboard_backend/internal/http"
	"dashboard_backend/internal/http/router"
	"dashboard_backend/internal/notification"
	"dashboard_backend/internal/scheduler"
	"dashboard_backend/platform/config"
	"dashboard_backend/platform/db"
	"dashboard_backend/platform/logger"
	"dashboard_backend/platform/validator"
)

const (
	redisAttempts   = 3
	shutdownTimeout = 10 * time.Second
)

// healthFunc adapts a function to apphttp.HealthChecker.
type healthFunc func(ctx context.Context) error

func (f healthFunc) Ping(ctx context.Context) error { return f(ctx) }

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	pool, err := bootstrap.OpenDatabase(ctx, cfg, log, true)
	if err != nil {
		bootstrap.Fatal(log, "failed to open database", err)
	}
	defer pool.Close()

	registry, err := bootstrap.LoadOffices(cfg, log)
	if err != nil {
		bootstrap.Fatal(log, "failed to load office registry", err)
	}

	health := map[string]apphttp.HealthChecker{"database": db.NewPoolAdapter(pool)}

	// Redis is optional here: without it the cache is bypassed and retries
	// run on in-process timers.
	rdb, err := bootstrap.OpenRedis(ctx, cfg, log, redisAttempts)
	switch {
	case err != nil:
		log.Error("failed to connect to redis; continuing without cache", "error", err)
		rdb = nil
	case rdb == nil:
		log.Warn("REDIS_URL not configured; dashboard cache and queued retries disabled")
	default:
		defer func() { _ = rdb.Close() }()
		health["redis"] = healthFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	minioSvc, err := bootstrap.OpenStorage(ctx, cfg, log)
	if err != nil {
		bootstrap.Fatal(log, "failed to initialize storage", err)
	}
	// A nil interface, not a typed nil, disables exports.
	var store service.ObjectStore
	if minioSvc != nil {
		store = minioSvc
		health["storage"] = healthFunc(func(ctx context.Context) error {
			return minioSvc.Ping(ctx, cfg.GetMinioBucketDashboardExports())
		})
	} else {
		log.Warn("MinIO not configured; dashboard exports disabled")
	}

	eventBus := events.NewInMemoryBus(log)

	// ========================================================================
	// Domain Modules
	// ========================================================================

	dashboardModule := dashboard.NewModule(pool, client.New(cfg, log), registry, rdb, store, eventBus, cfg, validator.New(), log)
	defer dashboardModule.Close()
	dashboardModule.RegisterHandlers(eventBus)

	if rdb != nil {
		schedulerClient, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize scheduler client; using in-process retries", "error", err)
		} else {
			defer func() { _ = schedulerClient.Close() }()
			dashboardModule.SetRetrier(schedulerClient)
		}
	}

	notificationModule := notification.New(email.NewSender(cfg), log)
	defer notificationModule.Close()
	if rdb != nil {
		notificationModule.SetGate(service.NewRedisAlertGate(rdb))
	} else {
		notificationModule.SetGate(service.NewMemoryAlertGate())
	}
	notificationModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: router.New(&apphttp.App{
			Config:  cfg,
			Logger:  log,
			Health:  health,
			Modules: []apphttp.Module{dashboardModule, notificationModule},
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		// Streams never end on their own; close them before draining.
		notificationModule.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			bootstrap.Fatal(log, "server error", err)
		}
	}
}
