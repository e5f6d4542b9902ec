// Package normalize converts CRM wire DTOs into domain records. Every alias
// and format quirk of the CRM is resolved here, once, so the analytics code
// only ever sees canonical fields.
package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"dashboard_backend/internal/crm/transport"
	"dashboard_backend/internal/dashboard/domain"
	"dashboard_backend/platform/phone"
	"dashboard_backend/platform/sanitize"
)

// Normalizer carries the settings of the ingestion boundary.
type Normalizer struct {
	phoneRegion string
}

// New returns a normalizer that reads national phone numbers as region.
func New(phoneRegion string) *Normalizer {
	return &Normalizer{phoneRegion: phoneRegion}
}

// Contact converts a raw contact.
func (n *Normalizer) Contact(c transport.Contact) domain.Contact {
	return domain.Contact{
		ID:          c.JNID,
		FirstName:   sanitize.Text(c.FirstName),
		LastName:    sanitize.Text(c.LastName),
		DisplayName: sanitize.Text(c.DisplayName),
		Email:       strings.ToLower(strings.TrimSpace(c.Email)),
		Phone:       phone.NormalizeE164In(firstNonEmpty(c.MobilePhone, c.HomePhone, c.WorkPhone), n.phoneRegion),
		IsCustomer:  isCustomer(c),
		CreatedAt:   Time(c.DateCreated),
	}
}

// Job converts a raw job. A missing is_active flag counts as active so the
// label alone decides.
func (n *Normalizer) Job(j transport.Job) domain.Job {
	job := domain.Job{
		ID:           j.JNID,
		Name:         sanitize.Text(firstNonEmpty(j.Name, j.Number)),
		StatusCode:   int(j.Status),
		StatusLabel:  sanitize.Text(j.StatusName),
		IsActive:     j.IsActive == nil || *j.IsActive,
		IsClosed:     j.IsClosed,
		IsArchived:   j.IsArchived,
		CreatedAt:    Time(j.DateCreated),
		SalesRepName: sanitize.Text(j.SalesRepName),
		CustomerID:   j.Customer,
	}
	if job.CustomerID == "" && j.Primary != nil {
		job.CustomerID = j.Primary.ID
	}
	if j.LastEstimate != nil && *j.LastEstimate > 0 {
		v := float64(*j.LastEstimate)
		job.LastEstimate = &v
	}
	return job
}

// Task converts a raw task, folding the legacy completion aliases into
// IsCompleted.
func (n *Normalizer) Task(t transport.Task) domain.Task {
	owners := make([]string, 0, len(t.Owners))
	for _, o := range t.Owners {
		if ref := firstNonEmpty(o.Name, o.ID); ref != "" {
			owners = append(owners, ref)
		}
	}
	return domain.Task{
		ID:            t.JNID,
		Title:         sanitize.Text(t.Title),
		CreatedByName: sanitize.Text(t.CreatedByName),
		AssignedTo:    sanitize.Text(t.AssignedTo),
		Owners:        owners,
		SalesRepName:  sanitize.Text(t.SalesRepName),
		IsCompleted:   taskCompleted(t),
		IsActive:      t.IsActive == nil || *t.IsActive,
		IsArchived:    t.IsArchived,
		CreatedAt:     Time(t.DateCreated),
	}
}

// Estimate converts a raw estimate.
func (n *Normalizer) Estimate(e transport.Estimate) domain.Estimate {
	return domain.Estimate{ID: e.JNID, CreatedAt: Time(e.DateCreated)}
}

// Activity converts a raw activity.
func (n *Normalizer) Activity(a transport.Activity) domain.Activity {
	act := domain.Activity{ID: a.JNID, CreatedAt: Time(a.DateCreated)}
	if a.Primary != nil {
		act.ContactID = a.Primary.ID
	}
	return act
}

// Attachment converts a raw attachment.
func (n *Normalizer) Attachment(a transport.Attachment) domain.Attachment {
	return domain.Attachment{ID: a.JNID, CreatedAt: Time(a.DateCreated)}
}

// Summary is the domain view of the CRM's pre-aggregated dashboard.
type Summary struct {
	KPIs   map[string]domain.KPI
	Charts domain.Charts
}

// DecodeSummary converts the summary document. Unknown KPI keys are kept;
// the caller fills missing ones. Values are clamped to be non-negative, and
// rates additionally to at most 100.
func DecodeSummary(s transport.Summary) (Summary, error) {
	out := Summary{KPIs: make(map[string]domain.KPI, len(s.KPIs))}
	for key, kpi := range s.KPIs {
		out.KPIs[key] = domain.KPI{Value: clampKPI(key, float64(kpi.Value)), ChangePercent: float64(kpi.ChangePercent)}
	}
	if len(s.Charts) > 0 && string(s.Charts) != "null" {
		if err := json.Unmarshal(s.Charts, &out.Charts); err != nil {
			return Summary{}, fmt.Errorf("decode summary charts: %w", err)
		}
	}
	return out, nil
}

func clampKPI(key string, v float64) float64 {
	if v < 0 {
		return 0
	}
	if domain.IsRateKPI(key) && v > 100 {
		return 100
	}
	return v
}

// Time converts CRM epoch seconds to a UTC instant. Zero stays the zero time.
func Time(e transport.Epoch) time.Time {
	if e <= 0 {
		return time.Time{}
	}
	return time.Unix(int64(e), 0).UTC()
}

// Map applies fn to every element.
func Map[S, D any](in []S, fn func(S) D) []D {
	out := make([]D, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}

func isCustomer(c transport.Contact) bool {
	if c.IsCustomer != nil {
		return *c.IsCustomer
	}
	return strings.EqualFold(strings.TrimSpace(c.RecordTypeName), "customer")
}

func taskCompleted(t transport.Task) bool {
	if t.IsCompleted != nil && *t.IsCompleted {
		return true
	}
	if t.Completed != nil && *t.Completed {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(t.Status)) {
	case "completed", "complete":
		return true
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
