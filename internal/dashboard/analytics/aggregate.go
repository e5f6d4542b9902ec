package analytics

import (
	"time"

	"dashboard_backend/internal/dashboard/daterange"
	"dashboard_backend/internal/dashboard/domain"
	"dashboard_backend/internal/dashboard/random"
	"dashboard_backend/internal/dashboard/taxonomy"
)

// Options scope one aggregation run.
type Options struct {
	Office string
	Period domain.Period
	Range  domain.DateRange
	Now    time.Time
	Random random.Source
}

// Aggregate builds a complete payload from unfiltered records. Records are
// scoped to opts.Range; the equal-length window before it feeds changePercent.
func Aggregate(all domain.Records, opts Options) domain.DashboardPayload {
	rnd := opts.Random
	if rnd == nil {
		rnd = random.New()
	}

	current := daterange.FilterRecords(all, opts.Range)
	previous := daterange.FilterRecords(all, daterange.Previous(opts.Range))
	m := Measure(current)

	payload := domain.DashboardPayload{
		KPIs:           BuildKPIs(m, Measure(previous)),
		Charts:         BuildCharts(current, opts.Period, opts.Range, opts.Now, rnd),
		RecentActivity: BuildRecentActivity(current, RecentActivityLimit),
		Alerts:         GenerateAlerts(m.TotalContacts, m.ActiveJobs, m.PendingTasks, m.CompletedJobs, opts.Now),
		Insights:       GenerateInsights(m.CompletionRate(), m.ConversionRate(), m.TaskRate(), m.EngagementRate()),
		Meta: domain.Meta{
			Office:      opts.Office,
			Period:      opts.Period,
			Range:       opts.Range,
			Source:      domain.SourceLive,
			GeneratedAt: opts.Now,
		},
	}
	payload.Normalize()
	return payload
}

// BuildCharts runs the four chart analyzers over already-scoped records.
func BuildCharts(recs domain.Records, period domain.Period, r domain.DateRange, now time.Time, rnd random.Source) domain.Charts {
	return domain.Charts{
		Trends:             BuildTrends(recs.Jobs, period, now, rnd),
		StatusDistribution: DistributeByStatus(recs.Jobs),
		TeamPerformance:    AnalyzeTeam(recs.Tasks, rnd),
		RevenueFlow:        SynthesizeFlow(taxonomy.CompletedJobs(recs.Jobs), period, r, rnd),
	}
}
