package scheduler

import (
	"context"
	"time"

	"dashboard_backend/internal/dashboard/domain"
	"dashboard_backend/platform/logger"
)

const defaultSnapshotInterval = 24 * time.Hour

// SnapshotEnqueuer enqueues one snapshot task.
type SnapshotEnqueuer interface {
	EnqueueSnapshot(ctx context.Context, office string, period domain.Period, bucket string) error
}

// SnapshotDispatcher periodically enqueues a snapshot of every office.
type SnapshotDispatcher struct {
	enqueuer SnapshotEnqueuer
	offices  []string
	period   domain.Period
	interval time.Duration
	now      func() time.Time
	log      *logger.Logger
}

func NewSnapshotDispatcher(enqueuer SnapshotEnqueuer, officeIDs []string, interval time.Duration, log *logger.Logger) *SnapshotDispatcher {
	if interval <= 0 {
		interval = defaultSnapshotInterval
	}
	return &SnapshotDispatcher{
		enqueuer: enqueuer,
		offices:  officeIDs,
		period:   domain.DefaultPeriod,
		interval: interval,
		now:      time.Now,
		log:      log,
	}
}

func (d *SnapshotDispatcher) Run(ctx context.Context) {
	if d == nil || d.enqueuer == nil {
		return
	}

	d.dispatch(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.dispatch(ctx)
		}
	}
}

// dispatch enqueues one task per office, keyed by the current interval
// bucket so restarts within the same bucket do not duplicate work.
func (d *SnapshotDispatcher) dispatch(ctx context.Context) {
	bucket := d.now().UTC().Truncate(d.interval).Format("20060102T1504")
	for _, office := range d.offices {
		if err := d.enqueuer.EnqueueSnapshot(ctx, office, d.period, bucket); err != nil {
			d.log.Warn("snapshot enqueue failed", "office", office, "error", err)
		}
	}
}
