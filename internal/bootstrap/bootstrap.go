package bootstrap

import (
	"context"
	"fmt"
	"time"

	"dashboard_backend/internal/adapters/storage"
	"dashboard_backend/internal/offices"
	"dashboard_backend/migrations"
	"dashboard_backend/platform/config"
	"dashboard_backend/platform/db"
	"dashboard_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	dbAttempts      = 5
	dbBaseDelay     = 2 * time.Second
	bucketAttempts  = 5
	bucketBaseDelay = 2 * time.Second
)

// StorageConfig is what OpenStorage reads.
type StorageConfig interface {
	storage.Config
	GetMinioBucketDashboardExports() string
}

// OpenDatabase connects to Postgres and, when migrate is set, applies the
// embedded migrations.
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger, migrate bool) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	err := Retry(ctx, log, "database connection", dbAttempts, dbBaseDelay, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("database connection established")

	if !migrate {
		return pool, nil
	}
	err = Retry(ctx, log, "database migrations", dbAttempts, dbBaseDelay, func() error {
		return db.RunMigrations(ctx, pool, migrations.FS, log)
	})
	if err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// OpenRedis connects to REDIS_URL. An empty URL returns (nil, nil).
func OpenRedis(ctx context.Context, cfg db.RedisConfig, log *logger.Logger, attempts int) (*redis.Client, error) {
	if cfg.GetRedisURL() == "" {
		return nil, nil
	}

	var rdb *redis.Client
	err := Retry(ctx, log, "redis connection", attempts, time.Second, func() error {
		c, err := db.NewRedisClient(ctx, cfg)
		if err != nil {
			return err
		}
		rdb = c
		return nil
	})
	return rdb, err
}

// OpenStorage creates the MinIO client and makes sure the export bucket
// exists. It returns (nil, nil) when MinIO is not configured.
func OpenStorage(ctx context.Context, cfg StorageConfig, log *logger.Logger) (*storage.MinIOService, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, nil
	}

	svc, err := storage.NewMinIOService(cfg)
	if err != nil {
		return nil, err
	}
	bucket := cfg.GetMinioBucketDashboardExports()
	err = Retry(ctx, log, "ensure dashboard exports bucket", bucketAttempts, bucketBaseDelay, func() error {
		return svc.EnsureBucketExists(ctx, bucket)
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// LoadOffices reads the office registry file.
func LoadOffices(cfg config.OfficeConfig, log *logger.Logger) (*offices.Registry, error) {
	registry, err := offices.Load(cfg.GetOfficesFile())
	if err != nil {
		return nil, fmt.Errorf("load office registry %s: %w", cfg.GetOfficesFile(), err)
	}
	log.Info("office registry loaded", "offices", len(registry.List()))
	return registry, nil
}

// Fatal logs err and panics. Both binaries treat a failed bootstrap step as
// unrecoverable.
func Fatal(log *logger.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	panic(msg + ": " + err.Error())
}
