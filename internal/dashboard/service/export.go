package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"dashboard_backend/internal/adapters/storage"
	"dashboard_backend/internal/dashboard/domain"
	"dashboard_backend/internal/events"
	"dashboard_backend/platform/apperr"
)

const (
	snapshotContentType = "application/json"

	opArchive = "dashboard.exporter.archive"
	opExport  = "dashboard.exporter.export"
)

// ObjectStore is the part of the storage adapter the exporter needs.
type ObjectStore interface {
	Put(ctx context.Context, bucket string, obj storage.Object, reader io.Reader, size int64) (string, error)
	PresignGet(ctx context.Context, bucket, key string) (*storage.PresignedURL, error)
}

// ExportResult points at an archived snapshot.
type ExportResult struct {
	ObjectKey string        `json:"objectKey"`
	URL       string        `json:"url"`
	ExpiresAt time.Time     `json:"expiresAt"`
	Source    domain.Source `json:"source"`
}

// Exporter archives payloads as JSON objects.
type Exporter struct {
	store    ObjectStore
	bucket   string
	eventBus events.Bus
}

// NewExporter creates an exporter. A nil store makes every export fail with
// an unavailable error.
func NewExporter(store ObjectStore, bucket string, eventBus events.Bus) *Exporter {
	return &Exporter{store: store, bucket: bucket, eventBus: eventBus}
}

// Enabled reports whether an object store is configured.
func (e *Exporter) Enabled() bool {
	return e != nil && e.store != nil
}

// Archive writes payload under {office}/{period}/ and returns its key.
func (e *Exporter) Archive(ctx context.Context, payload domain.DashboardPayload) (string, error) {
	if !e.Enabled() {
		return "", apperr.Unavailable("snapshot storage is not configured").WithOp(opArchive)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	obj := storage.Object{
		Folder:      fmt.Sprintf("%s/%s", payload.Meta.Office, payload.Meta.Period),
		Name:        fmt.Sprintf("dashboard-%s.json", payload.Meta.GeneratedAt.UTC().Format("20060102T150405Z")),
		ContentType: snapshotContentType,
		Metadata: map[string]string{
			"office": payload.Meta.Office,
			"period": string(payload.Meta.Period),
			"source": string(payload.Meta.Source),
		},
	}
	key, err := e.store.Put(ctx, e.bucket, obj, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnavailable, "snapshot upload failed", err).WithOp(opArchive)
	}

	if e.eventBus != nil {
		e.eventBus.Publish(ctx, events.DashboardSnapshotArchived{
			BaseEvent: events.NewBaseEvent(),
			Office:    payload.Meta.Office,
			Period:    string(payload.Meta.Period),
			ObjectKey: key,
			Source:    string(payload.Meta.Source),
		})
	}
	return key, nil
}

// Export archives payload and returns a presigned download link.
func (e *Exporter) Export(ctx context.Context, payload domain.DashboardPayload) (ExportResult, error) {
	key, err := e.Archive(ctx, payload)
	if err != nil {
		return ExportResult{}, err
	}

	link, err := e.store.PresignGet(ctx, e.bucket, key)
	if err != nil {
		return ExportResult{}, apperr.Wrap(apperr.KindUnavailable, "snapshot link failed", err).WithOp(opExport)
	}
	return ExportResult{
		ObjectKey: key,
		URL:       link.URL,
		ExpiresAt: link.ExpiresAt,
		Source:    payload.Meta.Source,
	}, nil
}
