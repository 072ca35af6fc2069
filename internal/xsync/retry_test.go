package xsync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/garrettladley/inbox/internal/client/inbox"
	"github.com/garrettladley/inbox/internal/session"
	"github.com/garrettladley/inbox/internal/xslog"
)

func TestRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "plain error", err: errUnavailable, want: true},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "deadline", err: fmt.Errorf("fetch: %w", context.DeadlineExceeded), want: false},
		{name: "no credentials", err: session.ErrNoCredentials, want: false},
		{name: "server error", err: &inbox.APIError{StatusCode: http.StatusBadGateway}, want: true},
		{name: "rate limited", err: &inbox.APIError{StatusCode: http.StatusTooManyRequests}, want: true},
		{name: "unauthorized", err: fmt.Errorf("count: %w", &inbox.APIError{StatusCode: http.StatusUnauthorized}), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := retryable(tt.err); got != tt.want {
				t.Errorf("retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRetryPolicyDo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		maxAttempts  int
		failures     int
		err          error
		wantAttempts int
		wantErr      bool
	}{
		{name: "succeeds first try", maxAttempts: 3, wantAttempts: 1},
		{name: "succeeds after transient failures", maxAttempts: 3, failures: 2, err: errUnavailable, wantAttempts: 3},
		{name: "gives up after max attempts", maxAttempts: 3, failures: 5, err: errUnavailable, wantAttempts: 3, wantErr: true},
		{name: "does not retry client errors", maxAttempts: 3, failures: 5, err: &inbox.APIError{StatusCode: http.StatusBadRequest}, wantAttempts: 1, wantErr: true},
		{name: "zero attempts runs once", maxAttempts: 0, failures: 1, err: errUnavailable, wantAttempts: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := RetryPolicy{Initial: time.Millisecond, MaxAttempts: tt.maxAttempts}
			attempts := 0
			err := p.do(t.Context(), xslog.Discard(), func(context.Context) error {
				attempts++
				if attempts <= tt.failures {
					return tt.err
				}
				return nil
			})

			if (err != nil) != tt.wantErr {
				t.Errorf("do() error = %v, wantErr %v", err, tt.wantErr)
			}
			if attempts != tt.wantAttempts {
				t.Errorf("attempts = %d, want %d", attempts, tt.wantAttempts)
			}
		})
	}
}

func TestRetryPolicyStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	p := RetryPolicy{Initial: time.Hour, MaxAttempts: 5}

	attempts := 0
	err := p.do(ctx, xslog.Discard(), func(context.Context) error {
		attempts++
		cancel()
		return errUnavailable
	})

	if !errors.Is(err, errUnavailable) {
		t.Errorf("do() error = %v, want %v", err, errUnavailable)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}
