package scheduler

import (
	"context"
	"fmt"
	"time"

	"dashboard_backend/internal/dashboard/domain"
	"dashboard_backend/internal/dashboard/service"
	"dashboard_backend/platform/config"
	"dashboard_backend/platform/logger"

	"github.com/hibiken/asynq"
)

const (
	defaultConcurrency    = 10
	workerShutdownTimeout = 10 * time.Second
	retryBaseDelay        = 30 * time.Second
	retryMaxDelay         = 5 * time.Minute
)

// Refresher rebuilds and caches a dashboard.
type Refresher interface {
	Refresh(ctx context.Context, req service.Request) (domain.DashboardPayload, error)
}

// Archiver stores a payload snapshot.
type Archiver interface {
	Enabled() bool
	Archive(ctx context.Context, payload domain.DashboardPayload) (string, error)
}

// Worker processes refresh and snapshot tasks.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	refresher Refresher
	archiver  Archiver
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, refresher Refresher, archiver Archiver, log *logger.Logger) (*Worker, error) {
	if cfg.GetRedisURL() == "" {
		return nil, errRedisNotConfigured
	}
	opt, err := redisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}

	w := &Worker{
		mux:       asynq.NewServeMux(),
		refresher: refresher,
		archiver:  archiver,
		log:       log,
	}
	w.server = asynq.NewServer(opt, asynq.Config{
		Concurrency:     concurrency,
		Queues:          map[string]int{queueName(cfg): 1},
		RetryDelayFunc:  retryDelay,
		ErrorHandler:    asynq.ErrorHandlerFunc(w.reportFailure),
		Logger:          asynqLogger{log},
		ShutdownTimeout: workerShutdownTimeout,
	})

	w.mux.Use(w.logTask)
	w.mux.HandleFunc(TaskDashboardRefresh, w.handleRefresh)
	w.mux.HandleFunc(TaskDashboardSnapshot, w.handleSnapshot)
	return w, nil
}

// Run blocks until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// retryDelay grows linearly from 30s and caps at 5m. Only snapshot tasks
// retry; refresh tasks are enqueued with MaxRetry(0).
func retryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	d := time.Duration(n+1) * retryBaseDelay
	if d > retryMaxDelay {
		return retryMaxDelay
	}
	return d
}

func (w *Worker) logTask(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
		started := time.Now()
		err := next.ProcessTask(ctx, task)
		w.log.Debug("task processed", "type", task.Type(), "elapsed", time.Since(started).String(), "failed", err != nil)
		return err
	})
}

func (w *Worker) reportFailure(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	level := w.log.Warn
	if retried >= maxRetry {
		level = w.log.Error
	}
	level("task failed", "type", task.Type(), "retry", retried, "maxRetry", maxRetry, "error", err)
}

// handleRefresh is the single delayed re-run after a total failure. It runs
// with retries disabled, so a result that is still mock ends the attempt.
func (w *Worker) handleRefresh(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseDashboardPayload(task)
	if err != nil {
		return err
	}

	result, err := w.refresher.Refresh(ctx, service.Request{Office: payload.Office, Period: payload.Period, DisableRetry: true})
	if err != nil {
		return err
	}
	if result.Meta.Source == domain.SourceMock {
		w.log.Warn("dashboard retry still on fallback data", "office", payload.Office, "period", payload.Period)
	}
	return nil
}

// handleSnapshot archives a fresh payload. Mock payloads are never archived.
func (w *Worker) handleSnapshot(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseDashboardPayload(task)
	if err != nil {
		return err
	}
	if w.archiver == nil || !w.archiver.Enabled() {
		w.log.Warn("snapshot skipped, storage not configured", "office", payload.Office, "period", payload.Period)
		return nil
	}

	result, err := w.refresher.Refresh(ctx, service.Request{Office: payload.Office, Period: payload.Period, DisableRetry: true})
	if err != nil {
		return err
	}
	if result.Meta.Source == domain.SourceMock {
		w.log.Warn("snapshot skipped, only fallback data available", "office", payload.Office, "period", payload.Period)
		return nil
	}

	key, err := w.archiver.Archive(ctx, result)
	if err != nil {
		return err
	}
	w.log.Info("dashboard snapshot archived", "office", payload.Office, "period", payload.Period, "source", result.Meta.Source, "objectKey", key)
	return nil
}

// asynqLogger routes asynq's internal logging through the service logger.
type asynqLogger struct{ log *logger.Logger }

func (l asynqLogger) Debug(args ...interface{}) { l.log.Debug(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.log.Info(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.log.Warn(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.log.Error(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.log.Error(fmt.Sprint(args...)) }
