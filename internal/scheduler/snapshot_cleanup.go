package scheduler

import (
	"context"
	"time"

	"dashboard_backend/internal/dashboard/repository"
	"dashboard_backend/platform/logger"
)

const (
	defaultSnapshotCleanupInterval = time.Hour
	defaultSnapshotRetention       = 90 * 24 * time.Hour
)

// SnapshotIndex deletes expired snapshot rows.
type SnapshotIndex interface {
	DeleteSnapshotsBefore(ctx context.Context, cutoff time.Time) ([]repository.Snapshot, error)
}

// ObjectDeleter removes archived objects in batches and reports the keys it
// could not remove.
type ObjectDeleter interface {
	RemoveObjects(ctx context.Context, bucket string, keys []string) ([]string, error)
}

// SnapshotCleanup periodically removes snapshots older than the retention
// window from both the index and the object store.
type SnapshotCleanup struct {
	index     SnapshotIndex
	objects   ObjectDeleter
	bucket    string
	log       *logger.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

func NewSnapshotCleanup(index SnapshotIndex, objects ObjectDeleter, bucket string, log *logger.Logger, interval, retention time.Duration) *SnapshotCleanup {
	if interval <= 0 {
		interval = defaultSnapshotCleanupInterval
	}
	if retention <= 0 {
		retention = defaultSnapshotRetention
	}

	return &SnapshotCleanup{
		index:     index,
		objects:   objects,
		bucket:    bucket,
		log:       log,
		interval:  interval,
		retention: retention,
		now:       time.Now,
	}
}

func (c *SnapshotCleanup) Run(ctx context.Context) {
	if c == nil || c.index == nil || c.objects == nil {
		return
	}

	c.cleanup(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *SnapshotCleanup) cleanup(ctx context.Context) {
	expired, err := c.index.DeleteSnapshotsBefore(ctx, c.now().Add(-c.retention))
	if err != nil {
		c.log.Warn("snapshot cleanup failed", "error", err)
		return
	}

	if len(expired) == 0 {
		return
	}

	keys := make([]string, 0, len(expired))
	for _, s := range expired {
		keys = append(keys, s.ObjectKey)
	}
	failed, err := c.objects.RemoveObjects(ctx, c.bucket, keys)
	if err != nil {
		// The index rows are gone; orphans are left for bucket lifecycle rules.
		c.log.Warn("snapshot object delete failed", "failed", failed, "error", err)
	}
	c.log.Info("snapshot cleanup deleted expired snapshots", "indexed", len(expired), "objects", len(keys)-len(failed))
}
