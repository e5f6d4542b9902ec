package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	tmplCriticalAlert = "critical_alert.html"
	tmplDegraded      = "degraded.html"
)

var emailTemplates = map[string]*template.Template{
	tmplCriticalAlert: mustParse(tmplCriticalAlert),
	tmplDegraded:      mustParse(tmplDegraded),
}

func mustParse(name string) *template.Template {
	return template.Must(template.New("base.html").ParseFS(templateFS, "templates/base.html", "templates/"+name))
}

// message is one rendered e-mail.
type message struct {
	Subject string
	HTML    string
	Text    string
}

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type criticalAlertEmailData struct {
	baseEmailData
	OfficeName string
	Period     string
	Message    string
	Action     string
	RaisedAt   string
}

type degradedEmailData struct {
	baseEmailData
	OfficeName    string
	Period        string
	FailedSources []string
}

func renderCriticalAlert(alert CriticalAlert, dashboardURL string) (message, error) {
	data := criticalAlertEmailData{
		baseEmailData: baseEmailData{
			Title:    alert.Title,
			Heading:  alert.Title,
			CTALabel: "Open dashboard",
			CTAURL:   dashboardLink(dashboardURL, alert.Office, alert.Period),
		},
		OfficeName: alert.OfficeName,
		Period:     periodLabel(alert.Period),
		Message:    alert.Message,
		Action:     alert.Action,
		RaisedAt:   alert.RaisedAt.UTC().Format(time.RFC1123),
	}
	html, err := renderEmailTemplate(tmplCriticalAlert, data)
	if err != nil {
		return message{}, err
	}

	var text strings.Builder
	fmt.Fprintf(&text, "%s (%s)\n\n%s\n", data.OfficeName, data.Period, data.Message)
	if data.Action != "" {
		fmt.Fprintf(&text, "\nSuggested action: %s\n", data.Action)
	}
	fmt.Fprintf(&text, "\nRaised at %s\n", data.RaisedAt)
	if data.CTAURL != "" {
		fmt.Fprintf(&text, "\n%s\n", data.CTAURL)
	}

	return message{
		Subject: fmt.Sprintf(subjectCriticalAlertFmt, alert.OfficeName, alert.Title),
		HTML:    html,
		Text:    text.String(),
	}, nil
}

func renderDegraded(notice DegradedNotice, dashboardURL string) (message, error) {
	data := degradedEmailData{
		baseEmailData: baseEmailData{
			Title:    "Dashboard on partial data",
			Heading:  "Dashboard on partial data",
			CTALabel: "Open dashboard",
			CTAURL:   dashboardLink(dashboardURL, notice.Office, notice.Period),
		},
		OfficeName:    notice.OfficeName,
		Period:        periodLabel(notice.Period),
		FailedSources: notice.FailedSources,
	}
	html, err := renderEmailTemplate(tmplDegraded, data)
	if err != nil {
		return message{}, err
	}

	var text strings.Builder
	fmt.Fprintf(&text, "%s (%s)\n\nSome CRM sources could not be reached: %s\n", data.OfficeName, data.Period, strings.Join(data.FailedSources, ", "))
	if data.CTAURL != "" {
		fmt.Fprintf(&text, "\n%s\n", data.CTAURL)
	}

	return message{
		Subject: fmt.Sprintf(subjectDegradedFmt, notice.OfficeName),
		HTML:    html,
		Text:    text.String(),
	}, nil
}

func renderEmailTemplate(name string, data any) (string, error) {
	tmpl, ok := emailTemplates[name]
	if !ok {
		return "", fmt.Errorf("unknown email template %s", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

// dashboardLink returns base with office and period query parameters, or ""
// when base is empty or invalid.
func dashboardLink(base, office, period string) string {
	if base == "" {
		return ""
	}
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	q := u.Query()
	if office != "" {
		q.Set("office", office)
	}
	if period != "" {
		q.Set("period", period)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// periodLabel turns "last-quarter" into "Last quarter".
func periodLabel(period string) string {
	label := strings.ReplaceAll(period, "-", " ")
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}
