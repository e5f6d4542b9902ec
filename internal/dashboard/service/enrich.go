package service

import (
	"time"

	"dashboard_backend/internal/crm/normalize"
	"dashboard_backend/internal/dashboard/analytics"
	"dashboard_backend/internal/dashboard/domain"
)

// enrich lays the CRM summary over a locally aggregated payload. Summary KPIs
// and non-empty summary chart series win; everything else comes from local.
// Alerts and insights are recomputed from the merged KPIs so they agree with
// the numbers on screen.
func enrich(summary normalize.Summary, local domain.DashboardPayload, now time.Time) domain.DashboardPayload {
	out := local
	out.KPIs = make(map[string]domain.KPI, len(domain.KPIKeys))
	for key, kpi := range local.KPIs {
		out.KPIs[key] = kpi
	}
	for key, kpi := range summary.KPIs {
		out.KPIs[key] = kpi
	}

	if len(summary.Charts.Trends) > 0 {
		out.Charts.Trends = summary.Charts.Trends
	}
	if len(summary.Charts.StatusDistribution) > 0 {
		out.Charts.StatusDistribution = summary.Charts.StatusDistribution
	}
	if len(summary.Charts.TeamPerformance) > 0 {
		out.Charts.TeamPerformance = summary.Charts.TeamPerformance
	}
	if len(summary.Charts.RevenueFlow) > 0 {
		out.Charts.RevenueFlow = summary.Charts.RevenueFlow
	}

	value := func(key string) float64 { return out.KPIs[key].Value }
	out.Alerts = analytics.GenerateAlerts(
		int(value(domain.KPITotalContacts)),
		int(value(domain.KPIActiveJobs)),
		int(value(domain.KPIPendingTasks)),
		int(value(domain.KPICompletedJobs)),
		now,
	)
	out.Insights = analytics.GenerateInsights(
		value(domain.KPIProjectCompletionRate),
		value(domain.KPIConversionRate),
		value(domain.KPITeamProductivity),
		value(domain.KPIEngagementRate),
	)
	out.Meta.Source = domain.SourceSummary
	out.Normalize()
	return out
}

// degrade turns a partial local aggregation into the degraded payload: every
// KPI is zeroed except the productivity baseline, while charts and the
// activity feed keep what the available collections produced.
func degrade(local domain.DashboardPayload, now time.Time) domain.DashboardPayload {
	out := local
	out.KPIs = analytics.DegradedKPIs()
	out.Alerts = analytics.GenerateAlerts(0, 0, 0, 0, now)
	out.Insights = analytics.GenerateInsights(0, 0, analytics.ProductivityBaseline, 0)
	out.Meta.Source = domain.SourceDegraded
	out.Meta.Notice = degradedNotice
	out.Normalize()
	return out
}

const degradedNotice = "Some CRM data could not be loaded. Figures are incomplete."
