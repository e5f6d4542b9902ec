// Package analytics turns classified CRM records into KPIs, chart series,
// alerts and insights. Everything here is a pure function of its inputs; the
// only source of variation is the injected random.Source.
package analytics

import (
	"math"
	"time"

	"dashboard_backend/internal/dashboard/domain"
	"dashboard_backend/internal/dashboard/random"
)

const (
	// DefaultJobValue is the revenue assumed for a job without an estimate.
	DefaultJobValue = 15000.0
	// contactsPerJob is the proxy ratio used for the contacts trend series.
	contactsPerJob = 1.2
)

// TrendWindow returns the number of month buckets shown for period.
func TrendWindow(period domain.Period) int {
	switch {
	case period.IsYearScoped():
		return 12
	case period == domain.PeriodLastQuarter:
		return 3
	case period.IsMonthScoped():
		return 4
	default:
		return 6
	}
}

// JobValue is the last estimate of a job, or DefaultJobValue when absent.
func JobValue(job domain.Job) float64 {
	if job.LastEstimate != nil && *job.LastEstimate > 0 {
		return *job.LastEstimate
	}
	return DefaultJobValue
}

// BuildTrends buckets jobs by short month name into the most recent
// TrendWindow(period) months ending at now's month. Buckets without jobs get
// a smoothed synthetic value and are flagged as such.
func BuildTrends(jobs []domain.Job, period domain.Period, now time.Time, rnd random.Source) []domain.Trend {
	counts := make(map[string]int)
	revenue := make(map[string]float64)
	for _, job := range jobs {
		key := job.CreatedAt.In(now.Location()).Format("Jan")
		counts[key]++
		revenue[key] += JobValue(job)
	}

	size := TrendWindow(period)
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	trends := make([]domain.Trend, 0, size)

	for i := 0; i < size; i++ {
		month := firstOfMonth.AddDate(0, i-(size-1), 0).Format("Jan")
		point := domain.Trend{Month: month}

		if n := counts[month]; n > 0 {
			point.Jobs = n
			point.Contacts = proxyContacts(n)
			point.Revenue = math.Round(revenue[month])
		} else {
			point.Jobs = 4 + 2*i + rnd.IntBetween(0, 2)
			point.Contacts = proxyContacts(point.Jobs)
			point.Revenue = math.Round(float64(point.Jobs)*DefaultJobValue + rnd.FloatBetween(0, 5000))
			point.Synthetic = true
		}

		point.Satisfaction = round1(rnd.FloatBetween(4.2, 4.8))
		point.Efficiency = round1(rnd.FloatBetween(78, 95))
		trends = append(trends, point)
	}

	return trends
}

func proxyContacts(jobs int) int {
	return int(math.Round(float64(jobs) * contactsPerJob))
}
