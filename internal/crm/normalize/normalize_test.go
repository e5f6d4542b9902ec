package normalize

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"dashboard_backend/internal/crm/transport"
)

func decode[T any](t *testing.T, raw string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

func TestTaskCompletionAliases(t *testing.T) {
	n := New("US")
	cases := []struct {
		raw  string
		want bool
	}{
		{`{"jnid":"1","is_completed":true}`, true},
		{`{"jnid":"2","completed":true}`, true},
		{`{"jnid":"3","status":"Completed"}`, true},
		{`{"jnid":"4","status":"complete"}`, true},
		{`{"jnid":"5","is_completed":false,"status":"open"}`, false},
		{`{"jnid":"6"}`, false},
	}
	for _, tc := range cases {
		task := n.Task(decode[transport.Task](t, tc.raw))
		if task.IsCompleted != tc.want {
			t.Fatalf("%s: expected completed=%v, got %v", tc.raw, tc.want, task.IsCompleted)
		}
	}
}

func TestJobNormalization(t *testing.T) {
	n := New("US")
	job := n.Job(decode[transport.Job](t, `{
		"jnid": "j1",
		"number": "1001",
		"status": "4",
		"status_name": " Paid & Closed ",
		"date_created": 1718452800,
		"last_estimate": "12500.50",
		"primary": {"id": "c9"}
	}`))

	if job.Name != "1001" {
		t.Fatalf("expected number as name fallback, got %q", job.Name)
	}
	if job.StatusCode != 4 || job.StatusLabel != "Paid & Closed" {
		t.Fatalf("unexpected status %d %q", job.StatusCode, job.StatusLabel)
	}
	if !job.IsActive {
		t.Fatalf("expected missing is_active to default to true")
	}
	if job.CustomerID != "c9" {
		t.Fatalf("expected customer from primary, got %q", job.CustomerID)
	}
	if job.LastEstimate == nil || *job.LastEstimate != 12500.5 {
		t.Fatalf("expected quoted estimate to parse, got %v", job.LastEstimate)
	}
	if !job.CreatedAt.Equal(time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected created at %s", job.CreatedAt)
	}

	empty := n.Job(decode[transport.Job](t, `{"jnid":"j2","last_estimate":null,"is_active":false}`))
	if empty.LastEstimate != nil || empty.IsActive {
		t.Fatalf("expected no estimate and inactive job, got %+v", empty)
	}
}

func TestContactNormalization(t *testing.T) {
	n := New("US")
	c := n.Contact(decode[transport.Contact](t, `{
		"jnid": "c1",
		"first_name": " Ada ",
		"email": "ADA@Example.com",
		"home_phone": "(650) 253-0000",
		"record_type_name": "Customer",
		"date_created": "1718452800"
	}`))

	if c.FirstName != "Ada" || c.Email != "ada@example.com" {
		t.Fatalf("unexpected name/email %q %q", c.FirstName, c.Email)
	}
	if c.Phone != "+16502530000" {
		t.Fatalf("expected E.164 phone, got %q", c.Phone)
	}
	if !c.IsCustomer {
		t.Fatalf("expected record type to mark a customer")
	}
	if c.CreatedAt.IsZero() {
		t.Fatalf("expected string epoch to parse")
	}

	explicit := n.Contact(decode[transport.Contact](t, `{"jnid":"c2","record_type_name":"Customer","is_customer":false}`))
	if explicit.IsCustomer {
		t.Fatalf("expected explicit flag to win over record type")
	}
}

func TestTaskOwnersAndActivityContact(t *testing.T) {
	n := New("US")
	task := n.Task(decode[transport.Task](t, `{"jnid":"t1","owners":[{"id":"u1"},{"id":"","name":""},{"id":"u2","name":"Bo"}]}`))
	if len(task.Owners) != 2 || task.Owners[0] != "u1" || task.Owners[1] != "Bo" {
		t.Fatalf("unexpected owners %v", task.Owners)
	}

	act := n.Activity(decode[transport.Activity](t, `{"jnid":"a1","primary":{"id":"c7"},"date_created":0}`))
	if act.ContactID != "c7" || !act.CreatedAt.IsZero() {
		t.Fatalf("unexpected activity %+v", act)
	}
}

func TestDecodeSummary(t *testing.T) {
	s := decode[transport.Summary](t, `{
		"kpis": {"totalJobs": {"value": 12, "changePercent": "5.5"}},
		"charts": {"trends": [{"month": "Jan", "jobs": 3}], "statusDistribution": []}
	}`)
	out, err := DecodeSummary(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.KPIs["totalJobs"].Value != 12 || out.KPIs["totalJobs"].ChangePercent != 5.5 {
		t.Fatalf("unexpected kpi %+v", out.KPIs["totalJobs"])
	}
	if len(out.Charts.Trends) != 1 || out.Charts.Trends[0].Jobs != 3 {
		t.Fatalf("unexpected trends %+v", out.Charts.Trends)
	}

	bad := transport.Summary{Charts: json.RawMessage(`{"trends": "nope"}`)}
	if _, err := DecodeSummary(bad); err == nil {
		t.Fatalf("expected malformed charts to fail")
	}
}

func TestDecodeSummaryClampsKPIValues(t *testing.T) {
	s := decode[transport.Summary](t, `{"kpis": {
		"activeJobs": {"value": -7, "changePercent": -12.5},
		"conversionRate": {"value": "140"},
		"totalRevenue": {"value": 250000}
	}}`)
	out, err := DecodeSummary(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.KPIs["activeJobs"]; got.Value != 0 || got.ChangePercent != -12.5 {
		t.Fatalf("expected negative value clamped to 0 and change kept, got %+v", got)
	}
	if got := out.KPIs["conversionRate"].Value; got != 100 {
		t.Fatalf("expected rate capped at 100, got %v", got)
	}
	if got := out.KPIs["totalRevenue"].Value; got != 250000 {
		t.Fatalf("expected non-rate value untouched, got %v", got)
	}
	if _, err := json.Marshal(out.KPIs); err != nil {
		t.Fatalf("expected kpis to encode, got %v", err)
	}
}

func TestNonFiniteNumbersAreRejected(t *testing.T) {
	for _, raw := range []string{`{"value":"NaN"}`, `{"value":"Inf"}`, `{"value":"-Infinity"}`} {
		var kpi transport.SummaryKPI
		err := json.Unmarshal([]byte(raw), &kpi)
		if !errors.Is(err, transport.ErrNonFiniteNumber) {
			t.Fatalf("%s: expected non-finite error, got %v", raw, err)
		}
	}

	var job transport.Job
	if err := json.Unmarshal([]byte(`{"jnid":"1","last_estimate":"Infinity"}`), &job); !errors.Is(err, transport.ErrNonFiniteNumber) {
		t.Fatalf("expected infinite estimate rejected, got %v", err)
	}

	var ok transport.SummaryKPI
	if err := json.Unmarshal([]byte(`{"value":"12.5"}`), &ok); err != nil || math.Abs(float64(ok.Value)-12.5) > 1e-9 {
		t.Fatalf("expected quoted number accepted, got %v %v", ok.Value, err)
	}
}

func TestFreeTextIsStrippedOfMarkup(t *testing.T) {
	n := New("US")
	task := n.Task(decode[transport.Task](t, `{"jnid":"1","title":"<b>Call</b> back","sales_rep_name":" <script>x</script>Ann "}`))
	if task.Title != "Call back" {
		t.Fatalf("expected stripped title, got %q", task.Title)
	}
	if task.SalesRepName != "xAnn" {
		t.Fatalf("unexpected sales rep %q", task.SalesRepName)
	}
}
