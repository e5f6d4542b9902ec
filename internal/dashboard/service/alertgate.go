package service

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// AlertGate decides whether a critical alert is new within its dedupe window.
type AlertGate interface {
	Allow(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// RedisAlertGate dedupes across processes with SET NX.
type RedisAlertGate struct {
	rdb *redis.Client
}

// NewRedisAlertGate wraps an existing client.
func NewRedisAlertGate(rdb *redis.Client) *RedisAlertGate {
	return &RedisAlertGate{rdb: rdb}
}

// Allow claims key for ttl. It returns false when the key is already held.
func (g *RedisAlertGate) Allow(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return g.rdb.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

// MemoryAlertGate dedupes within one process.
type MemoryAlertGate struct {
	mu   sync.Mutex
	seen map[string]time.Time
	now  func() time.Time
}

// NewMemoryAlertGate returns an empty gate.
func NewMemoryAlertGate() *MemoryAlertGate {
	return &MemoryAlertGate{seen: make(map[string]time.Time), now: time.Now}
}

// Allow claims key for ttl.
func (g *MemoryAlertGate) Allow(_ context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for k, expires := range g.seen {
		if !now.Before(expires) {
			delete(g.seen, k)
		}
	}
	if _, held := g.seen[key]; held {
		return false, nil
	}
	g.seen[key] = now.Add(ttl)
	return true, nil
}
