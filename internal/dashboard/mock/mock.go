// Package mock produces the illustrative payload served when no CRM data could
// be fetched at all. Its numbers are fixed bases scaled per period and are
// never mixed with measured values.
package mock

import (
	"math"
	"time"

	"dashboard_backend/internal/dashboard/analytics"
	"dashboard_backend/internal/dashboard/domain"
	"dashboard_backend/internal/dashboard/random"
	"dashboard_backend/internal/dashboard/taxonomy"
)

// Notice is attached to every mock payload.
const Notice = "Live CRM data is unavailable. Figures shown are illustrative."

type base struct {
	contacts     float64
	jobs         float64
	active       float64
	completed    float64
	pending      float64
	estimates    float64
	attachments  float64
	revenue      float64
	completion   float64
	conversion   float64
	productivity float64
	engagement   float64
}

var bases = base{
	contacts:     1247,
	jobs:         156,
	active:       42,
	completed:    89,
	pending:      23,
	estimates:    64,
	attachments:  318,
	revenue:      1335000,
	completion:   57.1,
	conversion:   34.6,
	productivity: 82.4,
	engagement:   68.9,
}

var mockTeam = []struct {
	name      string
	tasks     float64
	completed float64
}{
	{"Sarah Johnson", 48, 42},
	{"Mike Chen", 41, 35},
	{"Emily Davis", 37, 30},
	{"Carlos Rivera", 33, 26},
	{"Priya Patel", 28, 21},
	{"General Team", 19, 12},
}

var mockStatuses = []struct {
	name  string
	share float64
}{
	{"Completed", 0.57},
	{"In Progress", 0.27},
	{"Pending Customer Approval", 0.1},
	{"Cancelled", 0.06},
}

// Multiplier scales the fixed bases for period.
func Multiplier(period domain.Period) float64 {
	switch period {
	case domain.PeriodCurrentMonth:
		return 0.85
	case domain.PeriodLastMonth:
		return 0.88
	case domain.PeriodLastQuarter:
		return 0.92
	case domain.PeriodLastYear:
		return 0.95
	default:
		return 1.0
	}
}

// Generate builds a complete illustrative payload. Alerts are derived by
// running the mock numbers through the regular alert rules.
func Generate(office string, period domain.Period, r domain.DateRange, now time.Time, rnd random.Source) domain.DashboardPayload {
	if rnd == nil {
		rnd = random.New()
	}
	m := Multiplier(period)
	scale := func(v float64) float64 { return math.Round(v * m) }
	pct := func(v float64) float64 { return math.Min(math.Round(v*m*10)/10, 100) }

	contacts := scale(bases.contacts)
	active := scale(bases.active)
	completed := scale(bases.completed)
	pending := scale(bases.pending)
	revenue := scale(bases.revenue)
	avg := math.Round(revenue / math.Max(completed, 1))

	values := map[string]float64{
		domain.KPITotalContacts:         contacts,
		domain.KPITotalJobs:             scale(bases.jobs),
		domain.KPIActiveJobs:            active,
		domain.KPICompletedJobs:         completed,
		domain.KPIPendingTasks:          pending,
		domain.KPIProjectCompletionRate: pct(bases.completion),
		domain.KPIConversionRate:        pct(bases.conversion),
		domain.KPITeamProductivity:      pct(bases.productivity),
		domain.KPIEngagementRate:        pct(bases.engagement),
		domain.KPITotalRevenue:          revenue,
		domain.KPIAverageJobValue:       avg,
		domain.KPICustomerLifetimeValue: math.Round(avg * 2.5),
		domain.KPIRevenuePerEmployee:    math.Round(revenue / analytics.AssumedEmployees),
		domain.KPIRetentionRate:         analytics.BaselineRetention,
		domain.KPITotalEstimates:        scale(bases.estimates),
		domain.KPITotalAttachments:      scale(bases.attachments),
	}
	kpis := make(map[string]domain.KPI, len(values))
	for key, v := range values {
		kpis[key] = domain.KPI{Value: v, ChangePercent: round1(rnd.FloatBetween(-5, 15))}
	}

	payload := domain.DashboardPayload{
		KPIs: kpis,
		Charts: domain.Charts{
			Trends:             analytics.BuildTrends(nil, period, now, rnd),
			StatusDistribution: statusSlices(scale(bases.jobs)),
			TeamPerformance:    team(m, rnd),
			RevenueFlow:        flow(period, r, int(completed), rnd),
		},
		RecentActivity: []domain.ActivityItem{},
		Alerts:         analytics.GenerateAlerts(int(contacts), int(active), int(pending), int(completed), now),
		Insights: analytics.GenerateInsights(
			values[domain.KPIProjectCompletionRate],
			values[domain.KPIConversionRate],
			values[domain.KPITeamProductivity],
			values[domain.KPIEngagementRate],
		),
		Meta: domain.Meta{
			Office:       office,
			Period:       period,
			Range:        r,
			Source:       domain.SourceMock,
			Illustrative: true,
			Notice:       Notice,
			GeneratedAt:  now,
		},
	}
	payload.Normalize()
	return payload
}

func statusSlices(jobs float64) []domain.StatusSlice {
	out := make([]domain.StatusSlice, 0, len(mockStatuses))
	for _, s := range mockStatuses {
		n := int(math.Round(jobs * s.share))
		out = append(out, domain.StatusSlice{
			Name:    s.name,
			Value:   n,
			Color:   taxonomy.Classify(s.name).Color,
			Revenue: float64(n) * analytics.DefaultJobValue,
		})
	}
	return out
}

func team(m float64, rnd random.Source) []domain.TeamMember {
	out := make([]domain.TeamMember, 0, len(mockTeam))
	for _, member := range mockTeam {
		tasks := int(math.Round(member.tasks * m))
		completed := int(math.Round(member.completed * m))
		out = append(out, domain.TeamMember{
			Member:       member.name,
			Tasks:        tasks,
			Completed:    completed,
			Efficiency:   int(math.Round(float64(completed) / float64(max(tasks, 1)) * 100)),
			Revenue:      float64(completed * 3500),
			Satisfaction: round1(rnd.FloatBetween(4.0, 5.0)),
		})
	}
	return out
}

func flow(period domain.Period, r domain.DateRange, completed int, rnd random.Source) []domain.FlowPoint {
	labels := analytics.FlowLabels(period, r)
	n := float64(max(1, completed)) / float64(len(labels))
	out := make([]domain.FlowPoint, 0, len(labels))
	for i, label := range labels {
		income := math.Round(n * 12000 * (1 + 0.1*float64(i)))
		expenses := math.Round(n * 7000 * (1 + 0.05*float64(i)))
		out = append(out, domain.FlowPoint{
			Period:   label,
			Income:   income,
			Expenses: expenses,
			Profit:   income - expenses,
			ROI:      round1(rnd.FloatBetween(25, 45)),
		})
	}
	return out
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

