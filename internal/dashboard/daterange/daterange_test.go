package daterange

import (
	"testing"
	"time"

	"dashboard_backend/internal/dashboard/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveCurrentMonth(t *testing.T) {
	now := time.Date(2026, time.October, 17, 14, 30, 0, 0, time.UTC)
	r, err := Resolve(domain.PeriodCurrentMonth, now, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Start.Equal(date(2026, time.October, 1)) || !r.End.Equal(now) {
		t.Fatalf("unexpected range %v - %v", r.Start, r.End)
	}
}

func TestResolveCurrentYearUsesAnchor(t *testing.T) {
	now := time.Date(2026, time.October, 17, 0, 0, 0, 0, time.UTC)
	r, err := Resolve(domain.PeriodCurrentYear, now, 2025)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Start.Equal(date(2025, time.January, 1)) {
		t.Fatalf("expected anchor start 2025-01-01, got %v", r.Start)
	}

	r, _ = Resolve(domain.PeriodCurrentYear, now, 0)
	if r.Start.Year() != DefaultCurrentYearAnchor {
		t.Fatalf("expected default anchor, got %d", r.Start.Year())
	}

	r, _ = Resolve(domain.PeriodCurrentYear, now, 2030)
	if r.Start.After(r.End) {
		t.Fatalf("future anchor produced inverted range %v - %v", r.Start, r.End)
	}
}

func TestResolveLastMonthRollsOverYear(t *testing.T) {
	now := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
	r, err := Resolve(domain.PeriodLastMonth, now, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Start.Equal(date(2025, time.December, 1)) {
		t.Fatalf("expected 2025-12-01, got %v", r.Start)
	}
	if !r.End.Equal(date(2026, time.January, 1).Add(-time.Nanosecond)) {
		t.Fatalf("expected end of December, got %v", r.End)
	}
}

func TestResolveLastQuarter(t *testing.T) {
	tests := []struct {
		now       time.Time
		wantStart time.Time
		wantEnd   time.Time
		wantLabel string
	}{
		{date(2026, time.October, 17), date(2026, time.July, 1), date(2026, time.October, 1), "Q3 2026"},
		{date(2026, time.February, 3), date(2025, time.October, 1), date(2026, time.January, 1), "Q4 2025"},
		{date(2026, time.June, 30), date(2026, time.January, 1), date(2026, time.April, 1), "Q1 2026"},
	}

	for _, tc := range tests {
		r, err := Resolve(domain.PeriodLastQuarter, tc.now, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !r.Start.Equal(tc.wantStart) {
			t.Errorf("now=%v: expected start %v, got %v", tc.now, tc.wantStart, r.Start)
		}
		if !r.End.Equal(tc.wantEnd.Add(-time.Nanosecond)) {
			t.Errorf("now=%v: expected end before %v, got %v", tc.now, tc.wantEnd, r.End)
		}
		if r.End.After(tc.now) {
			t.Errorf("now=%v: range ends in the future: %v", tc.now, r.End)
		}
		if r.Label != tc.wantLabel {
			t.Errorf("now=%v: expected label %q, got %q", tc.now, tc.wantLabel, r.Label)
		}
	}
}

func TestResolveLastQuarterNeverInFuture(t *testing.T) {
	start := date(2024, time.January, 1)
	for day := 0; day < 800; day += 3 {
		now := start.AddDate(0, 0, day)
		r, err := Resolve(domain.PeriodLastQuarter, now, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.End.After(now) || r.Start.After(r.End) {
			t.Fatalf("now=%v: bad range %v - %v", now, r.Start, r.End)
		}
	}
}

func TestResolveLastYear(t *testing.T) {
	now := date(2026, time.October, 17)
	r, err := Resolve(domain.PeriodLastYear, now, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r.Start.Equal(date(2025, time.January, 1)) {
		t.Fatalf("unexpected start %v", r.Start)
	}
	if r.End.Year() != 2025 || r.End.Month() != time.December || r.End.Day() != 31 {
		t.Fatalf("unexpected end %v", r.End)
	}
}

func TestResolveUnknownPeriod(t *testing.T) {
	if _, err := Resolve(domain.Period("fortnight"), time.Now(), 0); err == nil {
		t.Fatal("expected error for unknown period")
	}
}

func TestFilterIsInclusive(t *testing.T) {
	r := domain.DateRange{Start: date(2026, time.March, 1), End: date(2026, time.March, 31)}
	jobs := []domain.Job{
		{ID: "before", CreatedAt: date(2026, time.February, 28)},
		{ID: "start", CreatedAt: r.Start},
		{ID: "mid", CreatedAt: date(2026, time.March, 15)},
		{ID: "end", CreatedAt: r.End},
		{ID: "after", CreatedAt: date(2026, time.April, 1)},
	}

	got := FilterRecords(domain.Records{Jobs: jobs}, r).Jobs
	if len(got) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(got))
	}
	if got[0].ID != "start" || got[2].ID != "end" {
		t.Fatalf("unexpected filter result %+v", got)
	}
}

func TestPrevious(t *testing.T) {
	r := domain.DateRange{Start: date(2026, time.March, 1), End: date(2026, time.March, 31)}
	prev := Previous(r)
	if !prev.End.Before(r.Start) {
		t.Fatalf("previous window overlaps current: %v", prev.End)
	}
	if prev.End.Sub(prev.Start) != r.End.Sub(r.Start) {
		t.Fatalf("previous window length differs")
	}
}
