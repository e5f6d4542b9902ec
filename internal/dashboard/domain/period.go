package domain

import (
	"fmt"
	"strings"
	"time"
)

// Period is a named, resolvable calendar window.
type Period string

const (
	PeriodCurrentMonth Period = "current-month"
	PeriodCurrentYear  Period = "current-year"
	PeriodLastMonth    Period = "last-month"
	PeriodLastQuarter  Period = "last-quarter"
	PeriodLastYear     Period = "last-year"
)

// DefaultPeriod is used when the caller does not name one.
const DefaultPeriod = PeriodCurrentMonth

// Periods lists every supported period in display order.
var Periods = []Period{
	PeriodCurrentMonth,
	PeriodCurrentYear,
	PeriodLastMonth,
	PeriodLastQuarter,
	PeriodLastYear,
}

// ParsePeriod validates a raw period string. Empty input yields DefaultPeriod.
func ParsePeriod(raw string) (Period, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return DefaultPeriod, nil
	}
	for _, p := range Periods {
		if string(p) == value {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown period %q", raw)
}

// IsYearScoped reports whether the period spans a calendar year.
func (p Period) IsYearScoped() bool {
	return p == PeriodCurrentYear || p == PeriodLastYear
}

// IsMonthScoped reports whether the period spans a single month.
func (p Period) IsMonthScoped() bool {
	return p == PeriodCurrentMonth || p == PeriodLastMonth
}

// DateRange is a concrete, inclusive [Start, End] window.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

// Contains reports whether t falls inside the range, both ends inclusive.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}
