package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"dashboard_backend/platform/logger"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), logger.New("test"), "flaky", 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryKeepsLastError(t *testing.T) {
	boom := errors.New("boom")
	err := Retry(context.Background(), logger.New("test"), "broken", 2, time.Millisecond, func() error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Retry(ctx, logger.New("test"), "cancelled", 5, time.Millisecond, func() error {
		calls++
		return nil
	})
	if !errors.Is(err, context.Canceled) || calls != 0 {
		t.Fatalf("expected cancellation before any call, got %v after %d calls", err, calls)
	}
}

func TestRetryRejectsZeroAttempts(t *testing.T) {
	if err := Retry(context.Background(), logger.New("test"), "none", 0, time.Millisecond, func() error { return nil }); err == nil {
		t.Fatalf("expected error for zero attempts")
	}
}

type disabledStorage struct{}

func (disabledStorage) GetMinIOEndpoint() string               { return "" }
func (disabledStorage) GetMinIOAccessKey() string              { return "" }
func (disabledStorage) GetMinIOSecretKey() string              { return "" }
func (disabledStorage) GetMinIOUseSSL() bool                   { return false }
func (disabledStorage) GetExportURLTTL() time.Duration         { return 0 }
func (disabledStorage) IsMinIOEnabled() bool                   { return false }
func (disabledStorage) GetMinioBucketDashboardExports() string { return "" }

type noRedis struct{}

func (noRedis) GetRedisURL() string       { return "" }
func (noRedis) GetRedisTLSInsecure() bool { return false }

func TestOptionalDependenciesAreSkippedWhenUnconfigured(t *testing.T) {
	svc, err := OpenStorage(context.Background(), disabledStorage{}, logger.New("test"))
	if svc != nil || err != nil {
		t.Fatalf("expected nil storage, got %v %v", svc, err)
	}
	rdb, err := OpenRedis(context.Background(), noRedis{}, logger.New("test"), 3)
	if rdb != nil || err != nil {
		t.Fatalf("expected nil redis, got %v %v", rdb, err)
	}
}
