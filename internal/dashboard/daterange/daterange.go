// Package daterange resolves named periods into concrete windows and filters
// record collections into them.
package daterange

import (
	"fmt"
	"time"

	"dashboard_backend/internal/dashboard/domain"
)

// DefaultCurrentYearAnchor is the calendar year that "current-year" starts in.
// It is a configured constant, not derived from the clock.
const DefaultCurrentYearAnchor = 2025

// Resolve computes the window of period relative to now, in now's location.
func Resolve(period domain.Period, now time.Time, currentYearAnchor int) (domain.DateRange, error) {
	loc := now.Location()
	year, month, _ := now.Date()

	switch period {
	case domain.PeriodCurrentMonth:
		start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
		return domain.DateRange{Start: start, End: now, Label: start.Format("January 2006")}, nil

	case domain.PeriodCurrentYear:
		if currentYearAnchor <= 0 {
			currentYearAnchor = DefaultCurrentYearAnchor
		}
		start := time.Date(currentYearAnchor, time.January, 1, 0, 0, 0, 0, loc)
		if start.After(now) {
			start = now
		}
		return domain.DateRange{Start: start, End: now, Label: fmt.Sprintf("%d to date", currentYearAnchor)}, nil

	case domain.PeriodLastMonth:
		prevYear, prevMonth := year, month-1
		if prevMonth < time.January {
			prevMonth = time.December
			prevYear--
		}
		start := time.Date(prevYear, prevMonth, 1, 0, 0, 0, 0, loc)
		end := time.Date(year, month, 1, 0, 0, 0, 0, loc).Add(-time.Nanosecond)
		return domain.DateRange{Start: start, End: end, Label: start.Format("January 2006")}, nil

	case domain.PeriodLastQuarter:
		quarterStart := quarterStartMonth(month)
		startMonth := int(quarterStart) - 3
		startYear := year
		if startMonth < 1 {
			startMonth += 12
			startYear--
		}
		start := time.Date(startYear, time.Month(startMonth), 1, 0, 0, 0, 0, loc)
		end := time.Date(year, quarterStart, 1, 0, 0, 0, 0, loc).Add(-time.Nanosecond)
		label := fmt.Sprintf("Q%d %d", (startMonth-1)/3+1, startYear)
		return domain.DateRange{Start: start, End: end, Label: label}, nil

	case domain.PeriodLastYear:
		start := time.Date(year-1, time.January, 1, 0, 0, 0, 0, loc)
		end := time.Date(year, time.January, 1, 0, 0, 0, 0, loc).Add(-time.Nanosecond)
		return domain.DateRange{Start: start, End: end, Label: fmt.Sprintf("%d", year-1)}, nil
	}

	return domain.DateRange{}, fmt.Errorf("unknown period %q", period)
}

// Previous returns the equal-length window that ends just before r starts.
func Previous(r domain.DateRange) domain.DateRange {
	length := r.End.Sub(r.Start)
	end := r.Start.Add(-time.Nanosecond)
	return domain.DateRange{Start: end.Add(-length), End: end, Label: "previous " + r.Label}
}

// Filter keeps the records whose creation instant lies inside r.
func Filter[T any](records []T, r domain.DateRange, createdAt func(T) time.Time) []T {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		if r.Contains(createdAt(rec)) {
			out = append(out, rec)
		}
	}
	return out
}

// FilterRecords scopes every collection of recs to r.
func FilterRecords(recs domain.Records, r domain.DateRange) domain.Records {
	return domain.Records{
		Contacts:    Filter(recs.Contacts, r, func(c domain.Contact) time.Time { return c.CreatedAt }),
		Jobs:        Filter(recs.Jobs, r, func(j domain.Job) time.Time { return j.CreatedAt }),
		Tasks:       Filter(recs.Tasks, r, func(t domain.Task) time.Time { return t.CreatedAt }),
		Estimates:   Filter(recs.Estimates, r, func(e domain.Estimate) time.Time { return e.CreatedAt }),
		Activities:  Filter(recs.Activities, r, func(a domain.Activity) time.Time { return a.CreatedAt }),
		Attachments: Filter(recs.Attachments, r, func(a domain.Attachment) time.Time { return a.CreatedAt }),
	}
}

func quarterStartMonth(m time.Month) time.Month {
	return time.Month((int(m)-1)/3*3 + 1)
}
