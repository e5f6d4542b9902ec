package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"dashboard_backend/internal/dashboard/domain"
	"dashboard_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type countingAggregator struct {
	calls  int32
	source domain.Source
	gate   chan struct{}
}

func (a *countingAggregator) Aggregate(ctx context.Context, req Request) (domain.DashboardPayload, Outcome, error) {
	atomic.AddInt32(&a.calls, 1)
	if a.gate != nil {
		<-a.gate
	}
	payload := domain.DashboardPayload{Meta: domain.Meta{Office: req.Office, Period: req.Period, Source: a.source}}
	payload.Normalize()
	return payload, Outcome{Source: a.source}, nil
}

func newTestCache(t *testing.T, agg Aggregator) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewCache(agg, rdb, time.Minute, logger.New("development")), mr
}

func TestCacheStoresLivePayloads(t *testing.T) {
	agg := &countingAggregator{source: domain.SourceLive}
	cache, mr := newTestCache(t, agg)
	req := Request{Office: "HQ", Period: domain.PeriodLastMonth}

	for i := 0; i < 3; i++ {
		payload, err := cache.Get(context.Background(), req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if payload.Meta.Source != domain.SourceLive {
			t.Fatalf("unexpected source %s", payload.Meta.Source)
		}
	}
	if got := atomic.LoadInt32(&agg.calls); got != 1 {
		t.Fatalf("expected 1 aggregation, got %d", got)
	}
	if !mr.Exists("dashboard:v1:hq:last-month") {
		t.Fatalf("expected cache key to be written")
	}
	if ttl := mr.TTL("dashboard:v1:hq:last-month"); ttl != time.Minute {
		t.Fatalf("expected 1m ttl, got %s", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := cache.Get(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&agg.calls); got != 2 {
		t.Fatalf("expected re-aggregation after expiry, got %d", got)
	}
}

func TestCacheSkipsMockAndDegradedPayloads(t *testing.T) {
	for _, source := range []domain.Source{domain.SourceMock, domain.SourceDegraded} {
		agg := &countingAggregator{source: source}
		cache, mr := newTestCache(t, agg)

		for i := 0; i < 2; i++ {
			if _, err := cache.Get(context.Background(), Request{Office: "hq"}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if got := atomic.LoadInt32(&agg.calls); got != 2 {
			t.Fatalf("%s: expected every request to aggregate, got %d", source, got)
		}
		if len(mr.Keys()) != 0 {
			t.Fatalf("%s: expected nothing cached, got %v", source, mr.Keys())
		}
	}
}

func TestCacheRefreshBypassesStoredCopy(t *testing.T) {
	agg := &countingAggregator{source: domain.SourceSummary}
	cache, _ := newTestCache(t, agg)
	req := Request{Office: "hq", Period: domain.PeriodCurrentMonth}

	if _, err := cache.Get(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cache.Refresh(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&agg.calls); got != 2 {
		t.Fatalf("expected refresh to aggregate again, got %d", got)
	}

	if _, err := cache.Get(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&agg.calls); got != 2 {
		t.Fatalf("expected refreshed copy to be served, got %d aggregations", got)
	}
}

func TestCacheCoalescesConcurrentRequests(t *testing.T) {
	agg := &countingAggregator{source: domain.SourceLive, gate: make(chan struct{})}
	cache, _ := newTestCache(t, agg)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Get(context.Background(), Request{Office: "hq"}); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	for atomic.LoadInt32(&agg.calls) == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(agg.gate)
	wg.Wait()

	if got := atomic.LoadInt32(&agg.calls); got != 1 {
		t.Fatalf("expected concurrent requests to share one aggregation, got %d", got)
	}
}

// blockingAggregator waits for release or for its context to end.
type blockingAggregator struct {
	calls   int32
	release chan struct{}
}

func (a *blockingAggregator) Aggregate(ctx context.Context, req Request) (domain.DashboardPayload, Outcome, error) {
	atomic.AddInt32(&a.calls, 1)
	select {
	case <-ctx.Done():
		return domain.DashboardPayload{}, Outcome{}, ctx.Err()
	case <-a.release:
	}
	payload := domain.DashboardPayload{Meta: domain.Meta{Office: req.Office, Source: domain.SourceLive}}
	payload.Normalize()
	return payload, Outcome{Source: domain.SourceLive}, nil
}

func TestCacheCallerCancellationDoesNotFailSharedRun(t *testing.T) {
	agg := &blockingAggregator{release: make(chan struct{})}
	cache, mr := newTestCache(t, agg)
	req := Request{Office: "hq"}

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := cache.Get(leaderCtx, req)
		leaderErr <- err
	}()
	for atomic.LoadInt32(&agg.calls) == 0 {
		time.Sleep(time.Millisecond)
	}

	followerErr := make(chan error, 1)
	go func() {
		_, err := cache.Get(context.Background(), req)
		followerErr <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancelLeader()
	select {
	case err := <-leaderErr:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected leader to see its own cancellation, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("leader did not return after cancellation")
	}

	close(agg.release)
	select {
	case err := <-followerErr:
		if err != nil {
			t.Fatalf("expected follower to get the shared payload, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("follower did not return")
	}
	if got := atomic.LoadInt32(&agg.calls); got != 1 {
		t.Fatalf("expected one shared aggregation, got %d", got)
	}
	if !mr.Exists("dashboard:v1:hq:current-month") {
		t.Fatalf("expected the shared result to be cached")
	}
}

func TestCacheWithoutRedisStillAggregates(t *testing.T) {
	agg := &countingAggregator{source: domain.SourceLive}
	cache := NewCache(agg, nil, 0, logger.New("development"))

	if _, err := cache.Get(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cache.Get(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&agg.calls); got != 2 {
		t.Fatalf("expected 2 aggregations without redis, got %d", got)
	}
}

func TestCacheKeyDefaults(t *testing.T) {
	if got := cacheKey(Request{}); got != "dashboard:v1:all:current-month" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestTimerRetrierRunsOnceWithRetryDisabled(t *testing.T) {
	var mu sync.Mutex
	var runs []Request
	done := make(chan struct{}, 4)

	retrier := NewTimerRetrier(func(_ context.Context, req Request) {
		mu.Lock()
		runs = append(runs, req)
		mu.Unlock()
		done <- struct{}{}
	}, logger.New("development"))
	defer retrier.Stop()

	for i := 0; i < 3; i++ {
		if err := retrier.ScheduleRefresh(context.Background(), "hq", domain.PeriodLastYear, 10*time.Millisecond); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("retry did not run")
	}
	time.Sleep(30 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(runs) != 1 {
		t.Fatalf("expected pending retries to coalesce, got %d runs", len(runs))
	}
	if !runs[0].DisableRetry || runs[0].Office != "hq" || runs[0].Period != domain.PeriodLastYear {
		t.Fatalf("unexpected retry request %+v", runs[0])
	}
}

func TestTimerRetrierStopCancelsPending(t *testing.T) {
	ran := make(chan struct{}, 1)
	retrier := NewTimerRetrier(func(context.Context, Request) { ran <- struct{}{} }, logger.New("development"))

	_ = retrier.ScheduleRefresh(context.Background(), "hq", domain.PeriodCurrentMonth, 20*time.Millisecond)
	retrier.Stop()

	select {
	case <-ran:
		t.Fatalf("expected stopped retrier not to run")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestRedisAlertGate(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	gate := NewRedisAlertGate(rdb)

	first, err := gate.Allow(context.Background(), "dashboard:alert:hq:overload", time.Hour)
	if err != nil || !first {
		t.Fatalf("expected first claim to succeed, got %v %v", first, err)
	}
	second, _ := gate.Allow(context.Background(), "dashboard:alert:hq:overload", time.Hour)
	if second {
		t.Fatalf("expected duplicate claim to be rejected")
	}

	mr.FastForward(2 * time.Hour)
	third, _ := gate.Allow(context.Background(), "dashboard:alert:hq:overload", time.Hour)
	if !third {
		t.Fatalf("expected claim after expiry to succeed")
	}
}

func TestMemoryAlertGateExpires(t *testing.T) {
	gate := NewMemoryAlertGate()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	gate.now = func() time.Time { return now }

	if ok, _ := gate.Allow(context.Background(), "k", time.Hour); !ok {
		t.Fatalf("expected first claim to succeed")
	}
	if ok, _ := gate.Allow(context.Background(), "k", time.Hour); ok {
		t.Fatalf("expected duplicate claim to be rejected")
	}
	now = now.Add(time.Hour)
	if ok, _ := gate.Allow(context.Background(), "k", time.Hour); !ok {
		t.Fatalf("expected claim after expiry to succeed")
	}
}
