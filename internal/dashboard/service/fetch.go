package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"dashboard_backend/internal/crm/client"
	"dashboard_backend/internal/crm/normalize"
	"dashboard_backend/internal/dashboard/domain"

	"golang.org/x/sync/errgroup"
)

// Source names used in logs, events and meta.failedSources.
const (
	SourceNameSummary     = "summary"
	SourceNameContacts    = "contacts"
	SourceNameJobs        = "jobs"
	SourceNameTasks       = "tasks"
	SourceNameEstimates   = "estimates"
	SourceNameActivities  = "activities"
	SourceNameAttachments = "attachments"
)

const detailSources = 6

// Source is the CRM collaborator the orchestrator reads from.
type Source interface {
	FetchDashboardSummary(ctx context.Context, q client.Query) (normalize.Summary, error)
	FetchAllContacts(ctx context.Context, q client.Query) ([]domain.Contact, error)
	FetchAllJobs(ctx context.Context, q client.Query) ([]domain.Job, error)
	FetchAllTasks(ctx context.Context, q client.Query) ([]domain.Task, error)
	FetchAllEstimates(ctx context.Context, q client.Query) ([]domain.Estimate, error)
	FetchAllActivities(ctx context.Context, q client.Query) ([]domain.Activity, error)
	FetchAllAttachments(ctx context.Context, q client.Query) ([]domain.Attachment, error)
}

type fetchResult struct {
	records    domain.Records
	summary    *normalize.Summary
	summaryErr error

	mu      sync.Mutex
	failed  []string
	errs    []error
	fetched int
}

func (f *fetchResult) fail(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed = append(f.failed, name)
	f.errs = append(f.errs, err)
}

func (f *fetchResult) succeed() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched++
}

func (f *fetchResult) summaryUnsupported() bool {
	return errors.Is(f.summaryErr, client.ErrSummaryNotSupported)
}

// failedSources returns the failed branch names in a stable order.
func (f *fetchResult) failedSources() []string {
	out := append([]string{}, f.failed...)
	sort.Strings(out)
	return out
}

// fetch runs the summary and the six collection fetches concurrently. A
// failing branch is logged and leaves its collection empty; it never cancels
// its siblings.
func (s *Service) fetch(ctx context.Context, officeID string, q client.Query) *fetchResult {
	res := &fetchResult{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		summary, err := guard(func() (normalize.Summary, error) { return s.source.FetchDashboardSummary(gctx, q) })
		switch {
		case err == nil:
			res.summary = &summary
		case errors.Is(err, client.ErrSummaryNotSupported):
			res.summaryErr = err
		default:
			res.summaryErr = fmt.Errorf("%w: %w", ErrSummaryUnavailable, err)
			s.log.SourceFetchFailed(gctx, SourceNameSummary, officeID, err)
			res.fail(SourceNameSummary, res.summaryErr)
		}
		return nil
	})

	g.Go(func() error {
		res.records.Contacts = collect(gctx, s, res, officeID, SourceNameContacts, func() ([]domain.Contact, error) { return s.source.FetchAllContacts(gctx, q) })
		return nil
	})
	g.Go(func() error {
		res.records.Jobs = collect(gctx, s, res, officeID, SourceNameJobs, func() ([]domain.Job, error) { return s.source.FetchAllJobs(gctx, q) })
		return nil
	})
	g.Go(func() error {
		res.records.Tasks = collect(gctx, s, res, officeID, SourceNameTasks, func() ([]domain.Task, error) { return s.source.FetchAllTasks(gctx, q) })
		return nil
	})
	g.Go(func() error {
		res.records.Estimates = collect(gctx, s, res, officeID, SourceNameEstimates, func() ([]domain.Estimate, error) { return s.source.FetchAllEstimates(gctx, q) })
		return nil
	})
	g.Go(func() error {
		res.records.Activities = collect(gctx, s, res, officeID, SourceNameActivities, func() ([]domain.Activity, error) { return s.source.FetchAllActivities(gctx, q) })
		return nil
	})
	g.Go(func() error {
		res.records.Attachments = collect(gctx, s, res, officeID, SourceNameAttachments, func() ([]domain.Attachment, error) { return s.source.FetchAllAttachments(gctx, q) })
		return nil
	})

	_ = g.Wait()
	return res
}

func collect[T any](ctx context.Context, s *Service, res *fetchResult, officeID, name string, fn func() ([]T, error)) []T {
	items, err := guard(fn)
	if err != nil {
		s.log.SourceFetchFailed(ctx, name, officeID, err)
		res.fail(name, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, name, err))
		return []T{}
	}
	res.succeed()
	if items == nil {
		return []T{}
	}
	return items
}

// guard turns a panicking fetch into an error.
func guard[T any](fn func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
