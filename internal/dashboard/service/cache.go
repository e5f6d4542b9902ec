package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"dashboard_backend/internal/dashboard/domain"
	"dashboard_backend/internal/offices"
	"dashboard_backend/platform/logger"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	cacheKeyPrefix       = "dashboard:v1:"
	defaultCacheTTL      = 5 * time.Minute
	defaultFlightTimeout = 2 * time.Minute
)

// Aggregator produces one payload and its outcome.
type Aggregator interface {
	Aggregate(ctx context.Context, req Request) (domain.DashboardPayload, Outcome, error)
}

// Cache coalesces identical concurrent requests and keeps summary and live
// payloads in Redis for a short TTL. Degraded and mock payloads are never
// stored so the next request tries the CRM again.
type Cache struct {
	agg           Aggregator
	rdb           *redis.Client
	ttl           time.Duration
	flightTimeout time.Duration
	log           *logger.Logger
	group         singleflight.Group
}

// NewCache wraps agg. A nil rdb disables storage but keeps coalescing.
func NewCache(agg Aggregator, rdb *redis.Client, ttl time.Duration, log *logger.Logger) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{agg: agg, rdb: rdb, ttl: ttl, flightTimeout: defaultFlightTimeout, log: log}
}

// Get returns a cached payload or builds one.
func (c *Cache) Get(ctx context.Context, req Request) (domain.DashboardPayload, error) {
	key := cacheKey(req)
	if payload, ok := c.read(ctx, key); ok {
		return payload, nil
	}
	return c.build(ctx, key, req)
}

// Refresh rebuilds the payload, bypassing any cached copy.
func (c *Cache) Refresh(ctx context.Context, req Request) (domain.DashboardPayload, error) {
	return c.build(ctx, cacheKey(req), req)
}

// build runs at most one aggregation per key. The shared run is detached
// from any single caller and bounded by flightTimeout instead; each caller
// waits only as long as its own context allows.
func (c *Cache) build(ctx context.Context, key string, req Request) (domain.DashboardPayload, error) {
	// Retries share the key with user requests but must not join them, or the
	// retry flag would be lost.
	flightKey := key
	if req.DisableRetry {
		flightKey += ":retry"
	}

	ch := c.group.DoChan(flightKey, func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.flightTimeout)
		defer cancel()

		payload, outcome, err := c.agg.Aggregate(flightCtx, req)
		if err != nil {
			return nil, err
		}
		if outcome.Source == domain.SourceSummary || outcome.Source == domain.SourceLive {
			c.write(flightCtx, key, payload)
		}
		return payload, nil
	})

	select {
	case <-ctx.Done():
		return domain.DashboardPayload{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.DashboardPayload{}, res.Err
		}
		return res.Val.(domain.DashboardPayload), nil
	}
}

func (c *Cache) read(ctx context.Context, key string) (domain.DashboardPayload, bool) {
	if c.rdb == nil {
		return domain.DashboardPayload{}, false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("dashboard cache read failed", "key", key, "error", err)
		}
		return domain.DashboardPayload{}, false
	}
	var payload domain.DashboardPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.log.Warn("dashboard cache entry corrupt", "key", key, "error", err)
		return domain.DashboardPayload{}, false
	}
	payload.Normalize()
	return payload, true
}

func (c *Cache) write(ctx context.Context, key string, payload domain.DashboardPayload) {
	if c.rdb == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		c.log.Warn("dashboard cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("dashboard cache write failed", "key", key, "error", err)
	}
}

func cacheKey(req Request) string {
	office := strings.ToLower(strings.TrimSpace(req.Office))
	if office == "" {
		office = offices.AllOfficesID
	}
	period := req.Period
	if period == "" {
		period = domain.DefaultPeriod
	}
	return cacheKeyPrefix + office + ":" + string(period)
}
