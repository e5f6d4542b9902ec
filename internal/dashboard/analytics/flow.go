package analytics

import (
	"fmt"
	"math"

	"dashboard_backend/internal/dashboard/domain"
	"dashboard_backend/internal/dashboard/random"
)

// FlowLabels returns the bucket labels of the revenue flow for period.
func FlowLabels(period domain.Period, r domain.DateRange) []string {
	switch period {
	case domain.PeriodLastYear:
		return []string{"Q1", "Q2", "Q3", "Q4"}
	case domain.PeriodLastQuarter:
		labels := make([]string, 0, 3)
		for i := 0; i < 3; i++ {
			labels = append(labels, r.Start.AddDate(0, i, 0).Format("Jan"))
		}
		return labels
	default:
		labels := make([]string, 0, 4)
		for i := 1; i <= 4; i++ {
			labels = append(labels, fmt.Sprintf("Week %d", i))
		}
		return labels
	}
}

// SynthesizeFlow projects an illustrative income/expense/profit series that
// scales with the number of completed jobs. It is not bookkeeping.
func SynthesizeFlow(completedJobs []domain.Job, period domain.Period, r domain.DateRange, rnd random.Source) []domain.FlowPoint {
	n := float64(max(1, len(completedJobs)))
	labels := FlowLabels(period, r)
	points := make([]domain.FlowPoint, 0, len(labels))

	for i, label := range labels {
		step := float64(i)
		income := math.Round(n*12000*(1+0.1*step) + rnd.FloatBetween(0, 5000))
		expenses := math.Round(n*7000*(1+0.05*step) + rnd.FloatBetween(0, 3000))
		points = append(points, domain.FlowPoint{
			Period:   label,
			Income:   income,
			Expenses: expenses,
			Profit:   income - expenses,
			ROI:      round1(rnd.FloatBetween(25, 45)),
		})
	}

	return points
}
