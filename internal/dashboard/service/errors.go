package service

import "errors"

var (
	// ErrSourceUnavailable wraps the failure of one CRM collection fetch.
	ErrSourceUnavailable = errors.New("dashboard source unavailable")
	// ErrSummaryUnavailable marks a summary endpoint that exists but failed.
	ErrSummaryUnavailable = errors.New("dashboard summary unavailable")
	// ErrTotalFailure means no CRM source could be fetched and the payload is
	// illustrative.
	ErrTotalFailure = errors.New("dashboard total failure")
)
