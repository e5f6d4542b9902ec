// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// CRMConfig provides settings for the upstream CRM API.
type CRMConfig interface {
	GetCRMBaseURL() string
	GetCRMAPIKey() string
	GetCRMTimeout() time.Duration
	GetCRMPageSize() int
	GetCRMPhoneRegion() string
}

// DashboardConfig provides settings for the aggregation engine.
type DashboardConfig interface {
	GetCurrentYearAnchor() int
	GetFallbackRetryDelay() time.Duration
	GetAlertDedupeTTL() time.Duration
}

// CacheConfig provides settings for the payload cache.
type CacheConfig interface {
	GetRedisURL() string
	GetDashboardCacheTTL() time.Duration
}

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetSnapshotInterval() time.Duration
	GetSnapshotRetention() time.Duration
	GetSnapshotCleanupInterval() time.Duration
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinioBucketDashboardExports() string
	GetExportURLTTL() time.Duration
	IsMinIOEnabled() bool
}

// SMTPConfig provides settings for outgoing alert e-mail.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetDashboardURL() string
	IsEmailEnabled() bool
}

// OfficeConfig provides the location of the office registry.
type OfficeConfig interface {
	GetOfficesFile() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                         string
	HTTPAddr                    string
	DatabaseURL                 string
	JWTAccessSecret             string
	CORSAllowAll                bool
	CORSOrigins                 []string
	CORSAllowCreds              bool
	CRMBaseURL                  string
	CRMAPIKey                   string
	CRMTimeout                  time.Duration
	CRMPageSize                 int
	CRMPhoneRegion              string
	CurrentYearAnchor           int
	FallbackRetryDelay          time.Duration
	AlertDedupeTTL              time.Duration
	DashboardCacheTTL           time.Duration
	RedisURL                    string
	RedisTLSInsecure            bool
	AsynqQueueName              string
	AsynqConcurrency            int
	SnapshotInterval            time.Duration
	SnapshotRetention           time.Duration
	SnapshotCleanupInterval     time.Duration
	MinIOEndpoint               string
	MinIOAccessKey              string
	MinIOSecretKey              string
	MinIOUseSSL                 bool
	MinioBucketDashboardExports string
	ExportURLTTL                time.Duration
	SMTPHost                    string
	SMTPPort                    int
	SMTPUsername                string
	SMTPPassword                string
	EmailFromName               string
	EmailFromAddress            string
	DashboardURL                string
	OfficesFile                 string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// CRMConfig implementation
func (c *Config) GetCRMBaseURL() string        { return c.CRMBaseURL }
func (c *Config) GetCRMAPIKey() string         { return c.CRMAPIKey }
func (c *Config) GetCRMTimeout() time.Duration { return c.CRMTimeout }
func (c *Config) GetCRMPageSize() int          { return c.CRMPageSize }
func (c *Config) GetCRMPhoneRegion() string    { return c.CRMPhoneRegion }

// DashboardConfig implementation
func (c *Config) GetCurrentYearAnchor() int            { return c.CurrentYearAnchor }
func (c *Config) GetFallbackRetryDelay() time.Duration { return c.FallbackRetryDelay }
func (c *Config) GetAlertDedupeTTL() time.Duration     { return c.AlertDedupeTTL }
func (c *Config) GetDashboardCacheTTL() time.Duration  { return c.DashboardCacheTTL }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string                       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool                 { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string                 { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int                  { return c.AsynqConcurrency }
func (c *Config) GetSnapshotInterval() time.Duration        { return c.SnapshotInterval }
func (c *Config) GetSnapshotRetention() time.Duration       { return c.SnapshotRetention }
func (c *Config) GetSnapshotCleanupInterval() time.Duration { return c.SnapshotCleanupInterval }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string               { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string              { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string              { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool                   { return c.MinIOUseSSL }
func (c *Config) GetMinioBucketDashboardExports() string { return c.MinioBucketDashboardExports }
func (c *Config) GetExportURLTTL() time.Duration         { return c.ExportURLTTL }
func (c *Config) IsMinIOEnabled() bool {
	return c.MinIOEndpoint != "" && c.MinIOAccessKey != "" && c.MinIOSecretKey != ""
}

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetDashboardURL() string     { return c.DashboardURL }
func (c *Config) IsEmailEnabled() bool        { return c.SMTPHost != "" && c.EmailFromAddress != "" }

// OfficeConfig implementation
func (c *Config) GetOfficesFile() string { return c.OfficesFile }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                         getEnv("APP_ENV", "development"),
		HTTPAddr:                    getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:                 getEnv("DATABASE_URL", ""),
		JWTAccessSecret:             getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:                corsAllowAll,
		CORSOrigins:                 corsOrigins,
		CORSAllowCreds:              strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		CRMBaseURL:                  strings.TrimRight(getEnv("CRM_BASE_URL", ""), "/"),
		CRMAPIKey:                   getEnv("CRM_API_KEY", ""),
		CRMTimeout:                  mustDuration(getEnv("CRM_TIMEOUT", "15s")),
		CRMPageSize:                 mustInt(getEnv("CRM_PAGE_SIZE", "500")),
		CRMPhoneRegion:              getEnv("CRM_PHONE_REGION", "US"),
		CurrentYearAnchor:           mustInt(getEnv("DASHBOARD_CURRENT_YEAR_ANCHOR", "2025")),
		FallbackRetryDelay:          mustDuration(getEnv("DASHBOARD_FALLBACK_RETRY_DELAY", "3s")),
		AlertDedupeTTL:              mustDuration(getEnv("DASHBOARD_ALERT_DEDUPE_TTL", "6h")),
		DashboardCacheTTL:           mustDuration(getEnv("DASHBOARD_CACHE_TTL", "5m")),
		RedisURL:                    getEnv("REDIS_URL", ""),
		RedisTLSInsecure:            strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:              getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:            mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		SnapshotInterval:            mustDuration(getEnv("DASHBOARD_SNAPSHOT_INTERVAL", "24h")),
		SnapshotRetention:           mustDuration(getEnv("DASHBOARD_SNAPSHOT_RETENTION", "2160h")),
		SnapshotCleanupInterval:     mustDuration(getEnv("DASHBOARD_SNAPSHOT_CLEANUP_INTERVAL", "1h")),
		MinIOEndpoint:               getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:              getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:              getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:                 strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketDashboardExports: getEnv("MINIO_BUCKET_DASHBOARD_EXPORTS", "dashboard-exports"),
		ExportURLTTL:                mustDuration(getEnv("DASHBOARD_EXPORT_URL_TTL", "1h")),
		SMTPHost:                    getEnv("SMTP_HOST", ""),
		SMTPPort:                    mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:                getEnv("SMTP_USERNAME", ""),
		SMTPPassword:                getEnv("SMTP_PASSWORD", ""),
		EmailFromName:               getEnv("EMAIL_FROM_NAME", "Dashboard"),
		EmailFromAddress:            getEnv("EMAIL_FROM_ADDRESS", ""),
		DashboardURL:                getEnv("DASHBOARD_PUBLIC_URL", ""),
		OfficesFile:                 getEnv("OFFICES_FILE", "offices.yaml"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CRMBaseURL == "" {
		return nil, fmt.Errorf("CRM_BASE_URL is required")
	}
	if cfg.CRMTimeout <= 0 {
		return nil, fmt.Errorf("CRM_TIMEOUT must be a positive duration")
	}
	if cfg.CRMPageSize <= 0 {
		return nil, fmt.Errorf("CRM_PAGE_SIZE must be positive")
	}
	if cfg.CurrentYearAnchor < 2000 {
		return nil, fmt.Errorf("DASHBOARD_CURRENT_YEAR_ANCHOR must be a calendar year")
	}
	if cfg.FallbackRetryDelay <= 0 {
		return nil, fmt.Errorf("DASHBOARD_FALLBACK_RETRY_DELAY must be a positive duration")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
