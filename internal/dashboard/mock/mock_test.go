package mock

import (
	"testing"
	"time"

	"dashboard_backend/internal/dashboard/analytics"
	"dashboard_backend/internal/dashboard/daterange"
	"dashboard_backend/internal/dashboard/domain"
	"dashboard_backend/internal/dashboard/random"
)

var now = time.Date(2025, time.September, 10, 9, 0, 0, 0, time.UTC)

func TestGenerateShape(t *testing.T) {
	for _, period := range domain.Periods {
		r, err := daterange.Resolve(period, now, 2025)
		if err != nil {
			t.Fatalf("resolve %s: %v", period, err)
		}
		p := Generate("north", period, r, now, random.NewSeeded(5))

		if p.Meta.Source != domain.SourceMock || !p.Meta.Illustrative {
			t.Fatalf("%s: expected illustrative mock meta, got %+v", period, p.Meta)
		}
		if p.Meta.Notice == "" {
			t.Fatalf("%s: expected a notice", period)
		}
		for _, key := range domain.KPIKeys {
			kpi, ok := p.KPIs[key]
			if !ok {
				t.Fatalf("%s: missing kpi %s", period, key)
			}
			if kpi.Value < 0 {
				t.Fatalf("%s: negative kpi %s", period, key)
			}
		}
		if len(p.Charts.Trends) != analytics.TrendWindow(period) {
			t.Fatalf("%s: expected %d trends, got %d", period, analytics.TrendWindow(period), len(p.Charts.Trends))
		}
		if len(p.Charts.TeamPerformance) > 6 || len(p.Charts.StatusDistribution) == 0 || len(p.Charts.RevenueFlow) == 0 {
			t.Fatalf("%s: unexpected chart sizes", period)
		}
		if p.RecentActivity == nil {
			t.Fatalf("%s: expected empty, non-nil activity feed", period)
		}
	}
}

func TestMultipliersScaleBases(t *testing.T) {
	r, _ := daterange.Resolve(domain.PeriodCurrentYear, now, 2025)
	full := Generate("", domain.PeriodCurrentYear, r, now, random.NewSeeded(1))
	if got := full.KPIs[domain.KPITotalContacts].Value; got != 1247 {
		t.Fatalf("expected unscaled contacts 1247, got %v", got)
	}

	r, _ = daterange.Resolve(domain.PeriodCurrentMonth, now, 2025)
	month := Generate("", domain.PeriodCurrentMonth, r, now, random.NewSeeded(1))
	if got := month.KPIs[domain.KPITotalContacts].Value; got != 1060 {
		t.Fatalf("expected 1247*0.85 rounded to 1060, got %v", got)
	}

	cases := map[domain.Period]float64{
		domain.PeriodCurrentMonth: 0.85,
		domain.PeriodLastMonth:    0.88,
		domain.PeriodLastQuarter:  0.92,
		domain.PeriodLastYear:     0.95,
		domain.PeriodCurrentYear:  1.0,
	}
	for period, want := range cases {
		if got := Multiplier(period); got != want {
			t.Fatalf("%s: expected %v, got %v", period, want, got)
		}
	}
}

func TestMockRoundTripsThroughAlerts(t *testing.T) {
	r, _ := daterange.Resolve(domain.PeriodCurrentYear, now, 2025)
	p := Generate("", domain.PeriodCurrentYear, r, now, random.NewSeeded(1))

	alerts := analytics.GenerateAlerts(
		int(p.KPIs[domain.KPITotalContacts].Value),
		int(p.KPIs[domain.KPIActiveJobs].Value),
		int(p.KPIs[domain.KPIPendingTasks].Value),
		int(p.KPIs[domain.KPICompletedJobs].Value),
		now,
	)
	if len(alerts) != len(p.Alerts) {
		t.Fatalf("expected %d alerts, got %d", len(p.Alerts), len(alerts))
	}

	want := []string{domain.AlertIDHighDemand, domain.AlertIDMilestone, domain.AlertIDContacts}
	for i, id := range want {
		if alerts[i].ID != id {
			t.Fatalf("expected alert %d to be %s, got %s", i, id, alerts[i].ID)
		}
	}
	if analytics.HasCritical(alerts) {
		t.Fatalf("mock numbers must not raise a critical alert")
	}
}
