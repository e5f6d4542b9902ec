package repository

import (
	"context"
	"testing"

	"dashboard_backend/platform/apperr"

	"github.com/google/uuid"
)

func TestClampSnapshotLimit(t *testing.T) {
	cases := map[int]int{-3: 20, 0: 20, 1: 1, 50: 50, 100: 100, 101: 100}
	for in, want := range cases {
		if got := ClampSnapshotLimit(in); got != want {
			t.Fatalf("ClampSnapshotLimit(%d): expected %d, got %d", in, want, got)
		}
	}
}

func TestUnconfiguredRepositoryReturnsInternal(t *testing.T) {
	r := New(nil)

	if _, err := r.ListPreferences(context.Background(), uuid.New()); !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if err := r.RecordSnapshot(context.Background(), Snapshot{ObjectKey: "k"}); !apperr.Is(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
