package xsync

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/garrettladley/inbox/internal/session"
	"github.com/garrettladley/inbox/internal/xslog"
)

const (
	defaultRetryInitial     = 200 * time.Millisecond
	defaultRetryMaxAttempts = 3
	retryFactor             = 2
)

// RetryPolicy bounds the retries of reconciliation fetches. Mark operations
// are never retried.
type RetryPolicy struct {
	Initial     time.Duration
	MaxAttempts int
}

func defaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Initial:     defaultRetryInitial,
		MaxAttempts: defaultRetryMaxAttempts,
	}
}

// retryable reports whether another attempt could succeed. Errors that know
// better (HTTP status based) are asked; cancellations and missing
// credentials are final.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, session.ErrNoCredentials) {
		return false
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return true
}

func (p RetryPolicy) do(ctx context.Context, logger *slog.Logger, fn func(context.Context) error) error {
	attempts := max(p.MaxAttempts, 1)
	backoff := p.Initial

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil || attempt >= attempts || !retryable(err) {
			return err
		}

		logger.DebugContext(ctx, "retrying after transient failure",
			xslog.Attempt(attempt),
			xslog.Backoff(backoff),
			xslog.Error(err),
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
		backoff *= retryFactor
	}
}
