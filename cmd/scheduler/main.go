package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"dashboard_backend/internal/bootstrap"
	"dashboard_backend/internal/crm/client"
	"dashboard_backend/internal/dashboard"
	"dashboard_backend/internal/dashboard/service"
	"dashboard_backend/internal/email"
	"dashboard_backend/internal/events"
	"dashboard_backend/internal/notification"
	"dashboard_backend/internal/scheduler"
	"dashboard_backend/platform/config"
	"dashboard_backend/platform/logger"
	"dashboard_backend/platform/validator"
)

const redisAttempts = 5

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The API binary owns migrations.
	pool, err := bootstrap.OpenDatabase(ctx, cfg, log, false)
	if err != nil {
		bootstrap.Fatal(log, "failed to open database", err)
	}
	defer pool.Close()

	rdb, err := bootstrap.OpenRedis(ctx, cfg, log, redisAttempts)
	if err == nil && rdb == nil {
		err = errors.New("REDIS_URL is required")
	}
	if err != nil {
		bootstrap.Fatal(log, "failed to connect to redis", err)
	}
	defer func() { _ = rdb.Close() }()

	registry, err := bootstrap.LoadOffices(cfg, log)
	if err != nil {
		bootstrap.Fatal(log, "failed to load office registry", err)
	}

	minioSvc, err := bootstrap.OpenStorage(ctx, cfg, log)
	if err != nil {
		bootstrap.Fatal(log, "failed to initialize storage", err)
	}
	var store service.ObjectStore
	if minioSvc != nil {
		store = minioSvc
	} else {
		log.Warn("MinIO not configured; scheduled snapshots disabled")
	}

	eventBus := events.NewInMemoryBus(log)

	notificationModule := notification.New(email.NewSender(cfg), log)
	notificationModule.SetGate(service.NewRedisAlertGate(rdb))
	notificationModule.RegisterHandlers(eventBus)

	dashboardModule := dashboard.NewModule(pool, client.New(cfg, log), registry, rdb, store, eventBus, cfg, validator.New(), log)
	defer dashboardModule.Close()
	dashboardModule.RegisterHandlers(eventBus)

	schedulerClient, err := scheduler.NewClient(cfg)
	if err != nil {
		bootstrap.Fatal(log, "failed to initialize scheduler client", err)
	}
	defer func() { _ = schedulerClient.Close() }()
	dashboardModule.SetRetrier(schedulerClient)

	if minioSvc != nil {
		dispatcher := scheduler.NewSnapshotDispatcher(schedulerClient, registry.IDs(), cfg.GetSnapshotInterval(), log)
		go dispatcher.Run(ctx)

		cleanup := scheduler.NewSnapshotCleanup(dashboardModule.Repository(), minioSvc, cfg.GetMinioBucketDashboardExports(), log,
			cfg.GetSnapshotCleanupInterval(), cfg.GetSnapshotRetention())
		go cleanup.Run(ctx)
	}

	worker, err := scheduler.NewWorker(cfg, dashboardModule.Cache, dashboardModule.Exporter, log)
	if err != nil {
		bootstrap.Fatal(log, "failed to initialize scheduler worker", err)
	}
	worker.Run(ctx)
}
