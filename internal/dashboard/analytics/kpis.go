package analytics

import (
	"math"

	"dashboard_backend/internal/dashboard/domain"
	"dashboard_backend/internal/dashboard/taxonomy"
)

const (
	// ProductivityBaseline is reported when jobs exist but no task data does,
	// and as the only non-zero KPI of a degraded payload.
	ProductivityBaseline = 75.0
	// AssumedEmployees is the illustrative head count behind revenue per employee.
	AssumedEmployees = 5
	// lifetimeJobsPerCustomer is the illustrative repeat factor behind CLV.
	lifetimeJobsPerCustomer = 2.5
	// BaselineRetention is the illustrative retention rate.
	BaselineRetention = 87.5
)

// Metrics are the raw measurements of one window.
type Metrics struct {
	TotalContacts  int
	Customers      int
	TotalJobs      int
	ActiveJobs     int
	CompletedJobs  int
	TotalTasks     int
	CompletedTasks int
	PendingTasks   int
	Estimates      int
	Activities     int
	Attachments    int
	Revenue        float64
}

// Measure classifies recs once and tallies every measurement.
func Measure(recs domain.Records) Metrics {
	counts := taxonomy.Count(recs.Jobs, recs.Tasks)
	m := Metrics{
		TotalContacts:  len(recs.Contacts),
		TotalJobs:      counts.TotalJobs,
		ActiveJobs:     counts.ActiveJobs,
		CompletedJobs:  counts.CompletedJobs,
		TotalTasks:     counts.TotalTasks,
		CompletedTasks: counts.CompletedTasks,
		PendingTasks:   counts.PendingTasks,
		Estimates:      len(recs.Estimates),
		Activities:     len(recs.Activities),
		Attachments:    len(recs.Attachments),
	}
	for _, c := range recs.Contacts {
		if c.IsCustomer {
			m.Customers++
		}
	}
	for _, job := range taxonomy.CompletedJobs(recs.Jobs) {
		m.Revenue += JobValue(job)
	}
	return m
}

// Rate is part/whole as a 0-100 percentage, safe for an empty whole.
func Rate(part, whole int) float64 {
	r := float64(part) / float64(max(whole, 1)) * 100
	return round1(math.Min(math.Max(r, 0), 100))
}

// CompletionRate is the share of jobs completed.
func (m Metrics) CompletionRate() float64 { return Rate(m.CompletedJobs, m.TotalJobs) }

// ConversionRate is the share of contacts that are customers.
func (m Metrics) ConversionRate() float64 { return Rate(m.Customers, m.TotalContacts) }

// EngagementRate is activities per contact, capped at 100.
func (m Metrics) EngagementRate() float64 { return Rate(m.Activities, m.TotalContacts) }

// TaskRate is the share of tasks completed. Without tasks it falls back to
// ProductivityBaseline when jobs exist.
func (m Metrics) TaskRate() float64 {
	if m.TotalTasks == 0 {
		if m.TotalJobs > 0 {
			return ProductivityBaseline
		}
		return 0
	}
	return Rate(m.CompletedTasks, m.TotalTasks)
}

// AverageJobValue is realized revenue per completed job.
func (m Metrics) AverageJobValue() float64 {
	return math.Round(m.Revenue / float64(max(m.CompletedJobs, 1)))
}

// values maps every KPI key onto its measured value.
func (m Metrics) values() map[string]float64 {
	retention := 0.0
	if m.TotalContacts > 0 {
		retention = BaselineRetention
	}
	avg := m.AverageJobValue()
	return map[string]float64{
		domain.KPITotalContacts:         float64(m.TotalContacts),
		domain.KPITotalJobs:             float64(m.TotalJobs),
		domain.KPIActiveJobs:            float64(m.ActiveJobs),
		domain.KPICompletedJobs:         float64(m.CompletedJobs),
		domain.KPIPendingTasks:          float64(m.PendingTasks),
		domain.KPIProjectCompletionRate: m.CompletionRate(),
		domain.KPIConversionRate:        m.ConversionRate(),
		domain.KPITeamProductivity:      m.TaskRate(),
		domain.KPIEngagementRate:        m.EngagementRate(),
		domain.KPITotalRevenue:          math.Round(m.Revenue),
		domain.KPIAverageJobValue:       avg,
		domain.KPICustomerLifetimeValue: math.Round(avg * lifetimeJobsPerCustomer),
		domain.KPIRevenuePerEmployee:    math.Round(m.Revenue / AssumedEmployees),
		domain.KPIRetentionRate:         retention,
		domain.KPITotalEstimates:        float64(m.Estimates),
		domain.KPITotalAttachments:      float64(m.Attachments),
	}
}

// BuildKPIs compares the current window against the previous one.
func BuildKPIs(current, previous Metrics) map[string]domain.KPI {
	cur := current.values()
	prev := previous.values()
	kpis := make(map[string]domain.KPI, len(cur))
	for key, value := range cur {
		kpis[key] = domain.KPI{Value: value, ChangePercent: ChangePercent(value, prev[key])}
	}
	return kpis
}

// ChangePercent is the relative change from previous to current. A move away
// from zero reports 100, no movement reports 0.
func ChangePercent(current, previous float64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return round1((current - previous) / previous * 100)
}

// DegradedKPIs zeroes every KPI except team productivity.
func DegradedKPIs() map[string]domain.KPI {
	kpis := make(map[string]domain.KPI, len(domain.KPIKeys))
	for _, key := range domain.KPIKeys {
		kpis[key] = domain.KPI{}
	}
	kpis[domain.KPITeamProductivity] = domain.KPI{Value: ProductivityBaseline}
	return kpis
}
