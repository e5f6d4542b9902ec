// Package bootstrap opens the infrastructure both binaries depend on:
// Postgres, Redis, object storage and the office registry. Each opener
// retries with quadratic backoff so containers may start in any order.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dashboard_backend/platform/logger"
)

// Retry calls fn up to attempts times, sleeping attempt² × baseDelay between
// failures. It stops early when ctx is done.
func Retry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", lastErr)

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt*attempt) * baseDelay):
		}
	}
	return errors.Join(fmt.Errorf("%s failed after %d attempts", name, attempts), lastErr)
}
