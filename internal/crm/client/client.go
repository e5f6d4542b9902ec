// Package client provides the HTTP client for the upstream CRM API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"dashboard_backend/internal/crm/normalize"
	"dashboard_backend/internal/crm/transport"
	"dashboard_backend/internal/dashboard/domain"
	"dashboard_backend/platform/config"
	"dashboard_backend/platform/logger"
)

const (
	pathContacts    = "/contacts"
	pathJobs        = "/jobs"
	pathTasks       = "/tasks"
	pathEstimates   = "/estimates"
	pathActivities  = "/activities"
	pathAttachments = "/files"
	pathSummary     = "/dashboard/summary"

	defaultPageSize = 500
	// maxPages bounds FetchAll against a CRM that never returns a short page.
	maxPages = 200
)

// ErrSummaryNotSupported marks a CRM without a summary endpoint. It is not a
// failure: callers aggregate locally instead.
var ErrSummaryNotSupported = errors.New("crm: dashboard summary not supported")

// StatusError is returned for any non-2xx CRM response.
type StatusError struct {
	Path   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("crm: %s returned status %d", e.Path, e.Status)
}

// Query scopes a fetch to one CRM location. An empty LocationID fetches
// every location.
type Query struct {
	LocationID string
}

// Client is the HTTP client for the CRM API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	pageSize   int
	norm       *normalize.Normalizer
	log        *logger.Logger
}

// New creates a CRM client. The request timeout is owned by the client.
func New(cfg config.CRMConfig, log *logger.Logger) *Client {
	pageSize := cfg.GetCRMPageSize()
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.GetCRMTimeout()},
		baseURL:    cfg.GetCRMBaseURL(),
		apiKey:     cfg.GetCRMAPIKey(),
		pageSize:   pageSize,
		norm:       normalize.New(cfg.GetCRMPhoneRegion()),
		log:        log,
	}
}

// FetchContacts returns one page of contacts.
func (c *Client) FetchContacts(ctx context.Context, q Query, page, pageSize int) ([]domain.Contact, error) {
	return fetchPage(ctx, c, pathContacts, q, page, pageSize, c.norm.Contact)
}

// FetchJobs returns one page of jobs.
func (c *Client) FetchJobs(ctx context.Context, q Query, page, pageSize int) ([]domain.Job, error) {
	return fetchPage(ctx, c, pathJobs, q, page, pageSize, c.norm.Job)
}

// FetchTasks returns one page of tasks.
func (c *Client) FetchTasks(ctx context.Context, q Query, page, pageSize int) ([]domain.Task, error) {
	return fetchPage(ctx, c, pathTasks, q, page, pageSize, c.norm.Task)
}

// FetchEstimates returns one page of estimates.
func (c *Client) FetchEstimates(ctx context.Context, q Query, page, pageSize int) ([]domain.Estimate, error) {
	return fetchPage(ctx, c, pathEstimates, q, page, pageSize, c.norm.Estimate)
}

// FetchActivities returns one page of activities.
func (c *Client) FetchActivities(ctx context.Context, q Query, page, pageSize int) ([]domain.Activity, error) {
	return fetchPage(ctx, c, pathActivities, q, page, pageSize, c.norm.Activity)
}

// FetchAttachments returns one page of attachments.
func (c *Client) FetchAttachments(ctx context.Context, q Query, page, pageSize int) ([]domain.Attachment, error) {
	return fetchPage(ctx, c, pathAttachments, q, page, pageSize, c.norm.Attachment)
}

// FetchAllContacts pages through every contact.
func (c *Client) FetchAllContacts(ctx context.Context, q Query) ([]domain.Contact, error) {
	return fetchAll(ctx, c, q, c.FetchContacts)
}

// FetchAllJobs pages through every job.
func (c *Client) FetchAllJobs(ctx context.Context, q Query) ([]domain.Job, error) {
	return fetchAll(ctx, c, q, c.FetchJobs)
}

// FetchAllTasks pages through every task.
func (c *Client) FetchAllTasks(ctx context.Context, q Query) ([]domain.Task, error) {
	return fetchAll(ctx, c, q, c.FetchTasks)
}

// FetchAllEstimates pages through every estimate.
func (c *Client) FetchAllEstimates(ctx context.Context, q Query) ([]domain.Estimate, error) {
	return fetchAll(ctx, c, q, c.FetchEstimates)
}

// FetchAllActivities pages through every activity.
func (c *Client) FetchAllActivities(ctx context.Context, q Query) ([]domain.Activity, error) {
	return fetchAll(ctx, c, q, c.FetchActivities)
}

// FetchAllAttachments pages through every attachment.
func (c *Client) FetchAllAttachments(ctx context.Context, q Query) ([]domain.Attachment, error) {
	return fetchAll(ctx, c, q, c.FetchAttachments)
}

// FetchDashboardSummary returns the CRM's pre-aggregated dashboard. A 404 or
// 501 yields ErrSummaryNotSupported.
func (c *Client) FetchDashboardSummary(ctx context.Context, q Query) (normalize.Summary, error) {
	var raw transport.Summary
	err := c.get(ctx, pathSummary, q.values(), &raw)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && (statusErr.Status == http.StatusNotFound || statusErr.Status == http.StatusNotImplemented) {
		return normalize.Summary{}, ErrSummaryNotSupported
	}
	if err != nil {
		return normalize.Summary{}, err
	}
	return normalize.DecodeSummary(raw)
}

// Ping checks that the CRM answers with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	values := url.Values{}
	values.Set("size", "1")
	var raw transport.ListResponse[json.RawMessage]
	return c.get(ctx, pathContacts, values, &raw)
}

func fetchPage[T, D any](ctx context.Context, c *Client, path string, q Query, page, pageSize int, convert func(T) D) ([]D, error) {
	if pageSize <= 0 {
		pageSize = c.pageSize
	}
	if page < 0 {
		page = 0
	}

	values := q.values()
	values.Set("size", strconv.Itoa(pageSize))
	values.Set("from", strconv.Itoa(page*pageSize))

	var envelope transport.ListResponse[T]
	if err := c.get(ctx, path, values, &envelope); err != nil {
		return nil, err
	}
	return normalize.Map(envelope.Results, convert), nil
}

func fetchAll[D any](ctx context.Context, c *Client, q Query, page func(context.Context, Query, int, int) ([]D, error)) ([]D, error) {
	var all []D
	for p := 0; p < maxPages; p++ {
		batch, err := page(ctx, q, p, c.pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < c.pageSize {
			return all, nil
		}
	}
	c.log.Warn("crm paging stopped at page limit", "pages", maxPages, "records", len(all))
	return all, nil
}

func (c *Client) get(ctx context.Context, path string, values url.Values, out any) error {
	reqURL := c.baseURL + path
	if encoded := values.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("crm request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		if resp.StatusCode != http.StatusNotFound && resp.StatusCode != http.StatusNotImplemented {
			c.log.Error("crm upstream error", "status", resp.StatusCode, "path", path)
		}
		return &StatusError{Path: path, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (q Query) values() url.Values {
	values := url.Values{}
	if q.LocationID != "" {
		values.Set("location", q.LocationID)
	}
	return values
}
