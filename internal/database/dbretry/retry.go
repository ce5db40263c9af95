package dbretry

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Invocation rows are written after the handler returned, so the schedule stays short
// enough not to hold up shutdown.
var (
	maxElapsedTime  = 10 * time.Second
	initialInterval = 200 * time.Millisecond
	maxInterval     = 2 * time.Second
	maxRetries      = uint64(3)
)

// IsRetryableError reports whether a failed query may succeed when run again.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// The caller gave up; another attempt would be cut short the same way.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// pgdriver reports server errors by value.
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		if pgErr.IntegrityViolation() || pgErr.StatementTimeout() {
			return false
		}
		return retryableSQLState(pgErr.Field('C'))
	}

	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// retryableSQLState classifies a SQLSTATE code. Connection exceptions (08), transaction
// rollbacks such as serialization failures and deadlocks (40), insufficient resources (53)
// and operator intervention (57) are transient. So is a lock that could not be taken.
func retryableSQLState(code string) bool {
	if code == "55P03" {
		return true
	}
	if len(code) != 5 {
		return false
	}
	switch code[:2] {
	case "08", "40", "53", "57":
		return true
	default:
		return false
	}
}

// newBackOff returns the retry schedule shared by every operation.
func newBackOff(ctx context.Context) backoff.BackOffContext {
	return backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithMaxElapsedTime(maxElapsedTime),
		backoff.WithInitialInterval(initialInterval),
		backoff.WithMaxInterval(maxInterval),
	), maxRetries), ctx)
}

// Operation runs a query, retrying transient failures.
// Errors that are not retryable are returned after the first attempt.
func Operation[T any](ctx context.Context, operation func(context.Context) (T, error)) (T, error) {
	var (
		result    T
		permanent bool
	)

	// backoff.Retry unwraps permanent errors, so err is the query error itself.
	err := backoff.Retry(func() error {
		var err error
		result, err = operation(ctx)
		if err != nil && !IsRetryableError(err) {
			permanent = true
			return backoff.Permanent(err)
		}
		return err
	}, newBackOff(ctx))

	switch {
	case err == nil:
		return result, nil
	case permanent:
		return result, err
	default:
		return result, fmt.Errorf("database operation failed after retries: %w", err)
	}
}

// NoResult wraps an operation that does not return a result.
func NoResult(ctx context.Context, operation func(context.Context) error) error {
	_, err := Operation(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, operation(ctx)
	})
	return err
}

// Transaction runs fn in a transaction, retrying the whole transaction on transient failures.
func Transaction(ctx context.Context, db *bun.DB, fn func(context.Context, bun.Tx) error) error {
	return NoResult(ctx, func(ctx context.Context) error {
		return db.RunInTx(ctx, nil, fn)
	})
}
