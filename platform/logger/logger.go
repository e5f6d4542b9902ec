// Package logger wraps log/slog with the request-scoped fields and event
// helpers used across the service.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

type contextKey string

const (
	// RequestIDKey carries the X-Request-ID on a request context.
	RequestIDKey contextKey = "request_id"
	// UserIDKey carries the authenticated user on a request context.
	UserIDKey contextKey = "user_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New logs text at debug level in development and JSON at info level
// elsewhere. LOG_LEVEL overrides the level.
func New(env string) *Logger {
	dev := strings.EqualFold(env, "development")
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if dev {
		opts.Level = slog.LevelDebug
	}
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(raw)); err == nil {
			opts.Level = level
		}
	}

	var handler slog.Handler
	if dev {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// WithContext returns a logger carrying the request and user ids found on
// ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	var attrs []any
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		attrs = append(attrs, slog.String("request_id", requestID))
	}
	if userID, ok := ctx.Value(UserIDKey).(string); ok && userID != "" {
		attrs = append(attrs, slog.String("user_id", userID))
	}
	if len(attrs) == 0 {
		return l
	}
	return &Logger{Logger: l.With(attrs...)}
}

// HTTPRequest logs a completed request.
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// HTTPError logs a request that ended in a 5xx with a recorded error.
func (l *Logger) HTTPError(method, path string, status int, err error, clientIP string) {
	l.Error("http_error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
		slog.String("client_ip", clientIP),
	)
}

// SourceFetchFailed logs a CRM collection that could not be fetched.
func (l *Logger) SourceFetchFailed(ctx context.Context, source, office string, err error) {
	l.WithContext(ctx).Warn("source_fetch_failed",
		slog.String("source", source),
		slog.String("office", office),
		slog.String("error", err.Error()),
	)
}

// AggregationOutcome logs which branch produced a dashboard payload. Degraded
// and mock outcomes are logged at warn level.
func (l *Logger) AggregationOutcome(ctx context.Context, office, period, source string, failedSources []string, elapsedMs float64) {
	level := slog.LevelInfo
	if source != "summary" && source != "live" {
		level = slog.LevelWarn
	}
	l.WithContext(ctx).Log(ctx, level, "aggregation_outcome",
		slog.String("office", office),
		slog.String("period", period),
		slog.String("source", source),
		slog.Any("failed_sources", failedSources),
		slog.Float64("elapsed_ms", elapsedMs),
	)
}

// RateLimitExceeded logs a request rejected by the IP limiter.
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
