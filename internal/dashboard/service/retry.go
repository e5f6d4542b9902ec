package service

import (
	"context"
	"sync"
	"time"

	"dashboard_backend/internal/dashboard/domain"
	"dashboard_backend/platform/logger"
)

// Retrier schedules one delayed re-run of a dashboard after a total failure.
// The re-run must execute with DisableRetry set.
type Retrier interface {
	ScheduleRefresh(ctx context.Context, office string, period domain.Period, delay time.Duration) error
}

// TimerRetrier is the in-process Retrier used when no Redis is configured.
// Pending retries for the same office and period are coalesced.
type TimerRetrier struct {
	run func(ctx context.Context, req Request)
	log *logger.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	stopped bool
}

// NewTimerRetrier returns a retrier that calls run after the delay.
func NewTimerRetrier(run func(ctx context.Context, req Request), log *logger.Logger) *TimerRetrier {
	return &TimerRetrier{run: run, log: log, pending: make(map[string]*time.Timer)}
}

// ScheduleRefresh arms a timer unless one is already pending for the pair.
func (t *TimerRetrier) ScheduleRefresh(_ context.Context, office string, period domain.Period, delay time.Duration) error {
	key := office + "|" + string(period)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return nil
	}
	if _, ok := t.pending[key]; ok {
		return nil
	}

	t.pending[key] = time.AfterFunc(delay, func() {
		t.mu.Lock()
		delete(t.pending, key)
		t.mu.Unlock()

		defer func() {
			if r := recover(); r != nil {
				t.log.Error("dashboard retry panicked", "office", office, "period", period, "panic", r)
			}
		}()
		t.run(context.Background(), Request{Office: office, Period: period, DisableRetry: true})
	})
	return nil
}

// Stop cancels every pending retry.
func (t *TimerRetrier) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	for key, timer := range t.pending {
		timer.Stop()
		delete(t.pending, key)
	}
}
