// Package service orchestrates one dashboard request: it fans out to the CRM,
// picks the outcome branch, and falls back to illustrative data when nothing
// could be fetched.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dashboard_backend/internal/crm/client"
	"dashboard_backend/internal/dashboard/analytics"
	"dashboard_backend/internal/dashboard/daterange"
	"dashboard_backend/internal/dashboard/domain"
	"dashboard_backend/internal/dashboard/mock"
	"dashboard_backend/internal/dashboard/random"
	"dashboard_backend/internal/events"
	"dashboard_backend/internal/offices"
	"dashboard_backend/platform/apperr"
	"dashboard_backend/platform/config"
	"dashboard_backend/platform/logger"
)

const (
	defaultRetryDelay     = 3 * time.Second
	defaultAlertDedupeTTL = 6 * time.Hour
	alertKeyPrefix        = "dashboard:alert:"
)

// OfficeResolver maps an office ID to its registry entry.
type OfficeResolver interface {
	Resolve(id string) (offices.Office, error)
}

// Request names one dashboard. DisableRetry is set by the delayed retry
// itself so a failing retry never schedules another.
type Request struct {
	Office       string
	Period       domain.Period
	DisableRetry bool
}

// Outcome records how a payload was produced. Err is nil for summary and live
// payloads, joins the per-source failures for degraded ones, and wraps
// ErrTotalFailure for mock ones.
type Outcome struct {
	Source        domain.Source
	FailedSources []string
	RetryQueued   bool
	Err           error
}

// Service is the aggregation orchestrator. It holds no per-request state.
type Service struct {
	source    Source
	offices   OfficeResolver
	eventBus  events.Bus
	cfg       config.DashboardConfig
	log       *logger.Logger
	retrier   Retrier
	alertGate AlertGate
	now       func() time.Time
	newRandom func() random.Source
}

// New creates the orchestrator.
func New(source Source, officeResolver OfficeResolver, eventBus events.Bus, cfg config.DashboardConfig, log *logger.Logger) *Service {
	return &Service{
		source:    source,
		offices:   officeResolver,
		eventBus:  eventBus,
		cfg:       cfg,
		log:       log,
		alertGate: NewMemoryAlertGate(),
		now:       time.Now,
		newRandom: func() random.Source { return random.New() },
	}
}

// SetRetrier sets the scheduler used for the delayed retry after a total failure.
func (s *Service) SetRetrier(r Retrier) {
	s.retrier = r
}

// SetAlertGate replaces the in-process critical alert dedupe.
func (s *Service) SetAlertGate(g AlertGate) {
	if g != nil {
		s.alertGate = g
	}
}

// SetClock overrides the wall clock.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// SetRandom overrides the random source factory.
func (s *Service) SetRandom(fn func() random.Source) {
	s.newRandom = fn
}

// GetDashboard builds the dashboard for office and period. Only invalid input
// is returned as an error; CRM failures degrade the payload instead.
func (s *Service) GetDashboard(ctx context.Context, office string, period domain.Period) (domain.DashboardPayload, error) {
	payload, _, err := s.Aggregate(ctx, Request{Office: office, Period: period})
	return payload, err
}

// Aggregate builds one payload and reports its outcome.
func (s *Service) Aggregate(ctx context.Context, req Request) (domain.DashboardPayload, Outcome, error) {
	office, err := s.offices.Resolve(req.Office)
	if err != nil {
		if errors.Is(err, offices.ErrUnknownOffice) {
			return domain.DashboardPayload{}, Outcome{}, apperr.NotFound("office not found").WithOp("dashboard.Aggregate")
		}
		return domain.DashboardPayload{}, Outcome{}, err
	}

	period := req.Period
	if period == "" {
		period = domain.DefaultPeriod
	}
	now := s.now().In(office.Location())
	r, err := daterange.Resolve(period, now, s.cfg.GetCurrentYearAnchor())
	if err != nil {
		return domain.DashboardPayload{}, Outcome{}, apperr.Validation(err.Error()).WithOp("dashboard.Aggregate")
	}

	started := time.Now()
	res := s.fetch(ctx, office.ID, client.Query{LocationID: office.LocationID})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.DashboardPayload{}, Outcome{}, ctxErr
	}

	opts := analytics.Options{Office: office.ID, Period: period, Range: r, Now: now, Random: s.newRandom()}
	payload, outcome := s.assemble(res, opts)

	switch outcome.Source {
	case domain.SourceMock:
		outcome.RetryQueued = s.scheduleRetry(ctx, office.ID, period, req.DisableRetry)
		s.eventBus.Publish(ctx, events.DashboardFallbackUsed{
			BaseEvent:     events.NewBaseEvent(),
			Office:        office.ID,
			Period:        string(period),
			FailedSources: outcome.FailedSources,
			RetryQueued:   outcome.RetryQueued,
		})
	case domain.SourceDegraded:
		s.eventBus.Publish(ctx, events.DashboardDegraded{
			BaseEvent:       events.NewBaseEvent(),
			Office:          office.ID,
			OfficeName:      office.Name,
			Period:          string(period),
			FailedSources:   outcome.FailedSources,
			AlertRecipients: office.AlertRecipients,
		})
	default:
		s.raiseCriticalAlerts(ctx, office, period, payload.Alerts)
	}

	payload.Meta.FailedSources = outcome.FailedSources
	s.log.AggregationOutcome(ctx, office.ID, string(period), string(outcome.Source), outcome.FailedSources, float64(time.Since(started).Milliseconds()))
	return payload, outcome, nil
}

// assemble picks the outcome branch. A panic anywhere in analytics falls back
// to the illustrative payload.
func (s *Service) assemble(res *fetchResult, opts analytics.Options) (payload domain.DashboardPayload, outcome Outcome) {
	outcome.FailedSources = res.failedSources()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("dashboard analytics panicked", "office", opts.Office, "period", opts.Period, "panic", r)
			payload = s.fallback(opts)
			outcome.Source = domain.SourceMock
			outcome.Err = fmt.Errorf("%w: analytics panic: %v", ErrTotalFailure, r)
		}
	}()

	switch {
	case res.summary != nil:
		local := analytics.Aggregate(res.records, opts)
		payload = enrich(*res.summary, local, opts.Now)
		outcome.Source = domain.SourceSummary
		outcome.Err = errors.Join(res.errs...)

	case res.fetched == detailSources || (res.summaryUnsupported() && res.fetched > 0):
		payload = analytics.Aggregate(res.records, opts)
		outcome.Source = domain.SourceLive
		outcome.Err = errors.Join(res.errs...)

	case res.fetched > 0:
		payload = degrade(analytics.Aggregate(res.records, opts), opts.Now)
		outcome.Source = domain.SourceDegraded
		outcome.Err = errors.Join(res.errs...)

	default:
		payload = s.fallback(opts)
		outcome.Source = domain.SourceMock
		outcome.Err = fmt.Errorf("%w: %w", ErrTotalFailure, errors.Join(res.errs...))
		s.log.Error("dashboard total failure", "office", opts.Office, "period", opts.Period, "error", outcome.Err)
	}
	return payload, outcome
}

func (s *Service) fallback(opts analytics.Options) domain.DashboardPayload {
	return mock.Generate(opts.Office, opts.Period, opts.Range, opts.Now, opts.Random)
}

func (s *Service) scheduleRetry(ctx context.Context, office string, period domain.Period, disabled bool) bool {
	if disabled || s.retrier == nil {
		return false
	}
	delay := s.cfg.GetFallbackRetryDelay()
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	if err := s.retrier.ScheduleRefresh(context.WithoutCancel(ctx), office, period, delay); err != nil {
		s.log.Error("failed to schedule dashboard retry", "office", office, "period", period, "error", err)
		return false
	}
	return true
}

// raiseCriticalAlerts publishes each critical alert once per office within
// the dedupe window.
func (s *Service) raiseCriticalAlerts(ctx context.Context, office offices.Office, period domain.Period, alerts []domain.Alert) {
	ttl := s.cfg.GetAlertDedupeTTL()
	if ttl <= 0 {
		ttl = defaultAlertDedupeTTL
	}

	for _, alert := range alerts {
		if alert.Type != domain.AlertCritical {
			continue
		}
		fresh, err := s.alertGate.Allow(ctx, alertKeyPrefix+office.ID+":"+alert.ID, ttl)
		if err != nil {
			s.log.Warn("critical alert dedupe failed", "office", office.ID, "alert", alert.ID, "error", err)
			continue
		}
		if !fresh {
			continue
		}
		s.eventBus.Publish(ctx, events.CriticalAlertRaised{
			BaseEvent:       events.NewBaseEvent(),
			Office:          office.ID,
			OfficeName:      office.Name,
			Period:          string(period),
			AlertID:         alert.ID,
			Title:           alert.Title,
			Message:         alert.Message,
			Action:          alert.Action,
			RaisedAt:        alert.Timestamp,
			AlertRecipients: office.AlertRecipients,
		})
	}
}
