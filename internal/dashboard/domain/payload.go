package domain

import "time"

// KPI keys present in every payload regardless of source.
const (
	KPITotalContacts         = "totalContacts"
	KPITotalJobs             = "totalJobs"
	KPIActiveJobs            = "activeJobs"
	KPICompletedJobs         = "completedJobs"
	KPIPendingTasks          = "pendingTasks"
	KPIProjectCompletionRate = "projectCompletionRate"
	KPIConversionRate        = "conversionRate"
	KPITeamProductivity      = "teamProductivity"
	KPIEngagementRate        = "engagementRate"
	KPITotalRevenue          = "totalRevenue"
	KPIAverageJobValue       = "averageJobValue"
	KPICustomerLifetimeValue = "customerLifetimeValue"
	KPIRevenuePerEmployee    = "revenuePerEmployee"
	KPIRetentionRate         = "retentionRate"
	KPITotalEstimates        = "totalEstimates"
	KPITotalAttachments      = "totalAttachments"
)

// IsRateKPI reports whether key is a percentage bounded to [0, 100].
func IsRateKPI(key string) bool {
	switch key {
	case KPIProjectCompletionRate, KPIConversionRate, KPITeamProductivity, KPIEngagementRate, KPIRetentionRate:
		return true
	}
	return false
}

// KPIKeys lists every KPI key in a stable order.
var KPIKeys = []string{
	KPITotalContacts,
	KPITotalJobs,
	KPIActiveJobs,
	KPICompletedJobs,
	KPIPendingTasks,
	KPIProjectCompletionRate,
	KPIConversionRate,
	KPITeamProductivity,
	KPIEngagementRate,
	KPITotalRevenue,
	KPIAverageJobValue,
	KPICustomerLifetimeValue,
	KPIRevenuePerEmployee,
	KPIRetentionRate,
	KPITotalEstimates,
	KPITotalAttachments,
}

// Source tells the caller where the numbers of a payload came from.
type Source string

const (
	SourceSummary  Source = "summary"
	SourceLive     Source = "live"
	SourceDegraded Source = "degraded"
	SourceMock     Source = "mock"
)

// KPI is a headline metric with a period-over-period change.
type KPI struct {
	Value         float64 `json:"value"`
	ChangePercent float64 `json:"changePercent"`
}

// Trend is one month bucket of the multi-series trend chart.
type Trend struct {
	Month        string  `json:"month"`
	Contacts     int     `json:"contacts"`
	Jobs         int     `json:"jobs"`
	Revenue      float64 `json:"revenue"`
	Satisfaction float64 `json:"satisfaction"`
	Efficiency   float64 `json:"efficiency"`
	Synthetic    bool    `json:"synthetic"`
}

// StatusSlice is one slice of the job status pie.
type StatusSlice struct {
	Name    string  `json:"name"`
	Value   int     `json:"value"`
	Color   string  `json:"color"`
	Revenue float64 `json:"revenue"`
}

// TeamMember is a per-assignee performance rollup.
type TeamMember struct {
	Member       string  `json:"member"`
	Tasks        int     `json:"tasks"`
	Completed    int     `json:"completed"`
	Efficiency   int     `json:"efficiency"`
	Revenue      float64 `json:"revenue"`
	Satisfaction float64 `json:"satisfaction"`
}

// FlowPoint is one bucket of the illustrative revenue flow.
type FlowPoint struct {
	Period   string  `json:"period"`
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Profit   float64 `json:"profit"`
	ROI      float64 `json:"roi"`
}

// Charts bundles every chart series. Series are never nil.
type Charts struct {
	Trends             []Trend       `json:"trends"`
	StatusDistribution []StatusSlice `json:"statusDistribution"`
	TeamPerformance    []TeamMember  `json:"teamPerformance"`
	RevenueFlow        []FlowPoint   `json:"revenueFlow"`
}

// EmptyCharts returns a Charts value whose series are empty, not nil.
func EmptyCharts() Charts {
	return Charts{
		Trends:             []Trend{},
		StatusDistribution: []StatusSlice{},
		TeamPerformance:    []TeamMember{},
		RevenueFlow:        []FlowPoint{},
	}
}

// ActivityItem is one entry of the recent-activity feed.
type ActivityItem struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	User        string    `json:"user,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// AlertType is the severity of an alert.
type AlertType string

const (
	AlertCritical AlertType = "critical"
	AlertWarning  AlertType = "warning"
	AlertSuccess  AlertType = "success"
	AlertInfo     AlertType = "info"
)

// Alert identifiers, one per rule.
const (
	AlertIDOverload   = "overload"
	AlertIDHighDemand = "high-demand"
	AlertIDMilestone  = "milestone"
	AlertIDContacts   = "contacts"
)

// Alert is a rule-based, human readable signal.
type Alert struct {
	ID        string    `json:"id"`
	Type      AlertType `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Action    string    `json:"action,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Insight is a narrative recommendation.
type Insight struct {
	ID          string  `json:"id"`
	Category    string  `json:"category"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Impact      string  `json:"impact"`
	Confidence  float64 `json:"confidence"`
	Action      string  `json:"action"`
}

// Meta describes how a payload was produced.
type Meta struct {
	Office        string    `json:"office"`
	Period        Period    `json:"period"`
	Range         DateRange `json:"range"`
	Source        Source    `json:"source"`
	Illustrative  bool      `json:"illustrative"`
	FailedSources []string  `json:"failedSources"`
	Notice        string    `json:"notice,omitempty"`
	GeneratedAt   time.Time `json:"generatedAt"`
}

// DashboardPayload is the aggregate root returned to the presentation layer.
type DashboardPayload struct {
	KPIs           map[string]KPI `json:"kpis"`
	Charts         Charts         `json:"charts"`
	RecentActivity []ActivityItem `json:"recentActivity"`
	Alerts         []Alert        `json:"alerts"`
	Insights       []Insight      `json:"insights"`
	Meta           Meta           `json:"meta"`
}

// Normalize replaces nil slices and maps with empty ones so the JSON shape is stable.
func (p *DashboardPayload) Normalize() {
	if p.KPIs == nil {
		p.KPIs = make(map[string]KPI, len(KPIKeys))
	}
	for _, key := range KPIKeys {
		if _, ok := p.KPIs[key]; !ok {
			p.KPIs[key] = KPI{}
		}
	}
	if p.Charts.Trends == nil {
		p.Charts.Trends = []Trend{}
	}
	if p.Charts.StatusDistribution == nil {
		p.Charts.StatusDistribution = []StatusSlice{}
	}
	if p.Charts.TeamPerformance == nil {
		p.Charts.TeamPerformance = []TeamMember{}
	}
	if p.Charts.RevenueFlow == nil {
		p.Charts.RevenueFlow = []FlowPoint{}
	}
	if p.RecentActivity == nil {
		p.RecentActivity = []ActivityItem{}
	}
	if p.Alerts == nil {
		p.Alerts = []Alert{}
	}
	if p.Insights == nil {
		p.Insights = []Insight{}
	}
	if p.Meta.FailedSources == nil {
		p.Meta.FailedSources = []string{}
	}
}
