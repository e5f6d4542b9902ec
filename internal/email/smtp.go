package email

import (
	"context"
	"fmt"
	"net"
	"time"

	"dashboard_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

const smtpTimeout = 15 * time.Second

// CriticalAlert is the content of one critical alert e-mail.
type CriticalAlert struct {
	Office     string
	OfficeName string
	Period     string
	Title      string
	Message    string
	Action     string
	RaisedAt   time.Time
}

// DegradedNotice is the content of a partial-data e-mail.
type DegradedNotice struct {
	Office        string
	OfficeName    string
	Period        string
	FailedSources []string
}

// Sender delivers dashboard notifications.
type Sender interface {
	SendCriticalAlertEmail(ctx context.Context, toEmail string, alert CriticalAlert) error
	SendDegradedEmail(ctx context.Context, toEmail string, notice DegradedNotice) error
}

// NoopSender drops every message. Used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendCriticalAlertEmail(context.Context, string, CriticalAlert) error { return nil }
func (NoopSender) SendDegradedEmail(context.Context, string, DegradedNotice) error     { return nil }

// NewSender returns an SMTP sender, or a no-op sender when SMTP is not
// configured.
func NewSender(cfg config.SMTPConfig) Sender {
	if !cfg.IsEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(SMTPSettings{
		Host:         cfg.GetSMTPHost(),
		Port:         cfg.GetSMTPPort(),
		Username:     cfg.GetSMTPUsername(),
		Password:     cfg.GetSMTPPassword(),
		FromAddress:  cfg.GetEmailFromAddress(),
		FromName:     cfg.GetEmailFromName(),
		DashboardURL: cfg.GetDashboardURL(),
	})
}

// SMTPSettings configures SMTPSender. DashboardURL, when set, adds a link
// to the affected office and period.
type SMTPSettings struct {
	Host         string
	Port         int
	Username     string
	Password     string
	FromAddress  string
	FromName     string
	DashboardURL string
}

// SMTPSender sends multipart (plain text and HTML) mail via go-mail.
type SMTPSender struct {
	settings SMTPSettings
}

// NewSMTPSender creates a sender. It does not dial until the first send.
func NewSMTPSender(settings SMTPSettings) *SMTPSender {
	return &SMTPSender{settings: settings}
}

func (s *SMTPSender) SendCriticalAlertEmail(ctx context.Context, toEmail string, alert CriticalAlert) error {
	m, err := renderCriticalAlert(alert, s.settings.DashboardURL)
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, m)
}

func (s *SMTPSender) SendDegradedEmail(ctx context.Context, toEmail string, notice DegradedNotice) error {
	m, err := renderDegraded(notice, s.settings.DashboardURL)
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, m)
}

func (s *SMTPSender) buildMessage(toEmail string, m message) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.settings.FromName, s.settings.FromAddress); err != nil {
		return nil, fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return nil, fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, m.Text)
	msg.AddAlternativeString(gomail.TypeTextHTML, m.HTML)
	return msg, nil
}

func (s *SMTPSender) send(ctx context.Context, toEmail string, m message) error {
	msg, err := s.buildMessage(toEmail, m)
	if err != nil {
		return err
	}

	opts := []gomail.Option{
		gomail.WithPort(s.settings.Port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(smtpTimeout),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	}
	if s.settings.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.settings.Username),
			gomail.WithPassword(s.settings.Password),
		)
	}

	client, err := gomail.NewClient(s.settings.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
