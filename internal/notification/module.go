// Package notification provides event handlers for sending notifications
// in response to dashboard events: alert e-mails to office recipients and a
// live SSE stream for connected users.
// Domain modules only publish events and never talk to mail servers.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dashboard_backend/internal/email"
	"dashboard_backend/internal/events"
	apphttp "dashboard_backend/internal/http"
	"dashboard_backend/internal/notification/sse"
	"dashboard_backend/platform/logger"
)

const defaultDegradedNoticeTTL = time.Hour

// Gate rate limits repeated notifications for the same key.
type Gate interface {
	Allow(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Module handles dashboard events.
type Module struct {
	sender      email.Sender
	sse         *sse.Service
	gate        Gate
	degradedTTL time.Duration
	log         *logger.Logger
}

// New creates the notification module. sender may be email.NoopSender.
func New(sender email.Sender, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{
		sender:      sender,
		sse:         sse.New(log),
		degradedTTL: defaultDegradedNoticeTTL,
		log:         log,
	}
}

// SetGate enables rate limiting of partial-data e-mails. Without a gate they
// are not sent at all.
func (m *Module) SetGate(g Gate) { m.gate = g }

// SSE exposes the stream service.
func (m *Module) SSE() *sse.Service { return m.sse }

// Name returns the module name for logging
func (m *Module) Name() string { return "notification" }

// RegisterRoutes mounts the live event stream.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/dashboard/stream", m.sse.Handler())
}

// RegisterHandlers subscribes the module to dashboard events.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.CriticalAlertRaised{}.EventName(), m)
	bus.Subscribe(events.DashboardDegraded{}.EventName(), m)
	bus.Subscribe(events.DashboardFallbackUsed{}.EventName(), m)
	bus.Subscribe(events.DashboardSnapshotArchived{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Close disconnects stream clients.
func (m *Module) Close() { m.sse.Close() }

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.CriticalAlertRaised:
		return m.handleCriticalAlert(ctx, e)
	case events.DashboardDegraded:
		return m.handleDegraded(ctx, e)
	case events.DashboardFallbackUsed:
		m.sse.Broadcast(sse.Event{
			ID:      e.EventID(),
			Type:    sse.EventFallbackUsed,
			Office:  e.Office,
			Period:  e.Period,
			Message: "CRM unavailable, showing illustrative data",
			Data:    map[string]any{"failedSources": e.FailedSources, "retryQueued": e.RetryQueued},
		})
		return nil
	case events.DashboardSnapshotArchived:
		m.sse.Broadcast(sse.Event{
			ID:     e.EventID(),
			Type:   sse.EventSnapshotArchived,
			Office: e.Office,
			Period: e.Period,
			Data:   map[string]any{"objectKey": e.ObjectKey, "source": e.Source},
		})
		return nil
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleCriticalAlert(ctx context.Context, e events.CriticalAlertRaised) error {
	m.sse.Broadcast(sse.Event{
		ID:      e.EventID(),
		Type:    sse.EventCriticalAlert,
		Office:  e.Office,
		Period:  e.Period,
		Message: e.Message,
		Data:    map[string]any{"alertId": e.AlertID, "title": e.Title, "action": e.Action},
	})

	alert := email.CriticalAlert{
		Office:     e.Office,
		OfficeName: e.OfficeName,
		Period:     e.Period,
		Title:      e.Title,
		Message:    e.Message,
		Action:     e.Action,
		RaisedAt:   e.RaisedAt,
	}
	var errs []error
	for _, to := range e.AlertRecipients {
		if err := m.sender.SendCriticalAlertEmail(ctx, to, alert); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", to, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		m.log.Error("critical alert email failed", "office", e.Office, "alert", e.AlertID, "error", err)
		return err
	}
	if len(e.AlertRecipients) > 0 {
		m.log.Info("critical alert emailed", "office", e.Office, "alert", e.AlertID, "recipients", len(e.AlertRecipients))
	}
	return nil
}

func (m *Module) handleDegraded(ctx context.Context, e events.DashboardDegraded) error {
	m.sse.Broadcast(sse.Event{
		ID:      e.EventID(),
		Type:    sse.EventDegraded,
		Office:  e.Office,
		Period:  e.Period,
		Message: "Some CRM sources are unavailable",
		Data:    map[string]any{"failedSources": e.FailedSources},
	})

	if m.gate == nil || len(e.AlertRecipients) == 0 {
		return nil
	}
	allowed, err := m.gate.Allow(ctx, "dashboard:notify:degraded:"+e.Office, m.degradedTTL)
	if err != nil {
		m.log.Warn("degraded notice gate failed", "office", e.Office, "error", err)
		return nil
	}
	if !allowed {
		return nil
	}

	notice := email.DegradedNotice{Office: e.Office, OfficeName: e.OfficeName, Period: e.Period, FailedSources: e.FailedSources}
	var errs []error
	for _, to := range e.AlertRecipients {
		if err := m.sender.SendDegradedEmail(ctx, to, notice); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", to, err))
		}
	}
	return errors.Join(errs...)
}

var _ apphttp.Module = (*Module)(nil)
