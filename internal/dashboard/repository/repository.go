// Package repository persists per-user dashboard preferences and the index
// of archived dashboard snapshots.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dashboard_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opListPreferences  = "dashboard.repository.list_preferences"
	opGetPreference    = "dashboard.repository.get_preference"
	opUpsertPreference = "dashboard.repository.upsert_preference"
	opDeletePreference = "dashboard.repository.delete_preference"
	opRecordSnapshot   = "dashboard.repository.record_snapshot"
	opListSnapshots    = "dashboard.repository.list_snapshots"
	opDeleteSnapshots  = "dashboard.repository.delete_snapshots"

	errRepoNotConfigured = "dashboard repository not configured"
	errPreferenceMissing = "preference not found"

	defaultSnapshotLimit = 20
	maxSnapshotLimit     = 100
)

// Preference is one opaque user setting.
type Preference struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Snapshot indexes one archived payload.
type Snapshot struct {
	ID        uuid.UUID `json:"id"`
	Office    string    `json:"office"`
	Period    string    `json:"period"`
	ObjectKey string    `json:"objectKey"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}

// Repository is the pgx-backed store.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a repository on pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListPreferences returns every preference of userID ordered by key.
func (r *Repository) ListPreferences(ctx context.Context, userID uuid.UUID) ([]Preference, error) {
	if r == nil || r.pool == nil {
		return nil, apperr.Internal(errRepoNotConfigured).WithOp(opListPreferences)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT key, value, updated_at
		FROM dashboard_preferences
		WHERE user_id = $1
		ORDER BY key`, userID)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	defer rows.Close()

	items := make([]Preference, 0)
	for rows.Next() {
		var p Preference
		if err := rows.Scan(&p.Key, &p.Value, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan preference: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate preferences: %w", err)
	}
	return items, nil
}

// GetPreference returns one preference or a not-found error.
func (r *Repository) GetPreference(ctx context.Context, userID uuid.UUID, key string) (Preference, error) {
	if r == nil || r.pool == nil {
		return Preference{}, apperr.Internal(errRepoNotConfigured).WithOp(opGetPreference)
	}

	var p Preference
	err := r.pool.QueryRow(ctx, `
		SELECT key, value, updated_at
		FROM dashboard_preferences
		WHERE user_id = $1 AND key = $2`, userID, key).Scan(&p.Key, &p.Value, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Preference{}, apperr.NotFound(errPreferenceMissing).WithOp(opGetPreference)
	}
	if err != nil {
		return Preference{}, fmt.Errorf("get preference: %w", err)
	}
	return p, nil
}

// UpsertPreference stores value under key, replacing any previous value.
func (r *Repository) UpsertPreference(ctx context.Context, userID uuid.UUID, key string, value json.RawMessage) (Preference, error) {
	if r == nil || r.pool == nil {
		return Preference{}, apperr.Internal(errRepoNotConfigured).WithOp(opUpsertPreference)
	}

	var p Preference
	err := r.pool.QueryRow(ctx, `
		INSERT INTO dashboard_preferences (user_id, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id, key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()
		RETURNING key, value, updated_at`, userID, key, value).Scan(&p.Key, &p.Value, &p.UpdatedAt)
	if err != nil {
		return Preference{}, fmt.Errorf("upsert preference: %w", err)
	}
	return p, nil
}

// DeletePreference removes key. A missing key is a not-found error.
func (r *Repository) DeletePreference(ctx context.Context, userID uuid.UUID, key string) error {
	if r == nil || r.pool == nil {
		return apperr.Internal(errRepoNotConfigured).WithOp(opDeletePreference)
	}

	tag, err := r.pool.Exec(ctx, `
		DELETE FROM dashboard_preferences
		WHERE user_id = $1 AND key = $2`, userID, key)
	if err != nil {
		return fmt.Errorf("delete preference: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(errPreferenceMissing).WithOp(opDeletePreference)
	}
	return nil
}

// RecordSnapshot indexes an archived payload. Recording the same object key
// twice is a no-op.
func (r *Repository) RecordSnapshot(ctx context.Context, s Snapshot) error {
	if r == nil || r.pool == nil {
		return apperr.Internal(errRepoNotConfigured).WithOp(opRecordSnapshot)
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO dashboard_snapshots (id, office, period, object_key, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (object_key) DO NOTHING`,
		s.ID, s.Office, s.Period, s.ObjectKey, s.Source, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("record snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns the newest snapshots of office, or of every office
// when office is empty.
func (r *Repository) ListSnapshots(ctx context.Context, office string, limit int) ([]Snapshot, error) {
	if r == nil || r.pool == nil {
		return nil, apperr.Internal(errRepoNotConfigured).WithOp(opListSnapshots)
	}
	limit = ClampSnapshotLimit(limit)

	rows, err := r.pool.Query(ctx, `
		SELECT id, office, period, object_key, source, created_at
		FROM dashboard_snapshots
		WHERE ($1 = '' OR office = $1)
		ORDER BY created_at DESC
		LIMIT $2`, office, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	items, err := pgx.CollectRows(rows, scanSnapshot)
	if err != nil {
		return nil, fmt.Errorf("scan snapshots: %w", err)
	}
	return items, nil
}

// DeleteSnapshotsBefore removes index rows created before cutoff and returns
// them so the caller can delete the archived objects.
func (r *Repository) DeleteSnapshotsBefore(ctx context.Context, cutoff time.Time) ([]Snapshot, error) {
	if r == nil || r.pool == nil {
		return nil, apperr.Internal(errRepoNotConfigured).WithOp(opDeleteSnapshots)
	}

	rows, err := r.pool.Query(ctx, `
		DELETE FROM dashboard_snapshots
		WHERE created_at < $1
		RETURNING id, office, period, object_key, source, created_at`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("delete snapshots: %w", err)
	}

	items, err := pgx.CollectRows(rows, scanSnapshot)
	if err != nil {
		return nil, fmt.Errorf("scan deleted snapshots: %w", err)
	}
	return items, nil
}

func scanSnapshot(row pgx.CollectableRow) (Snapshot, error) {
	var s Snapshot
	err := row.Scan(&s.ID, &s.Office, &s.Period, &s.ObjectKey, &s.Source, &s.CreatedAt)
	return s, err
}

// ClampSnapshotLimit bounds a caller supplied page size.
func ClampSnapshotLimit(limit int) int {
	if limit <= 0 {
		return defaultSnapshotLimit
	}
	if limit > maxSnapshotLimit {
		return maxSnapshotLimit
	}
	return limit
}
