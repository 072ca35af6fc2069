package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	go_json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/garrettladley/inbox/internal/xhttp"
)

func TestWriteError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   errorResponse
	}{
		{
			name:       "app error",
			err:        NotFound("not_found", "no such service"),
			wantStatus: http.StatusNotFound,
			wantBody:   errorResponse{Error: "not_found", Message: "no such service"},
		},
		{
			name:       "wrapped app error",
			err:        errors.Join(errors.New("context"), BadRequest("invalid_request", "bad")),
			wantStatus: http.StatusBadRequest,
			wantBody:   errorResponse{Error: "invalid_request", Message: "bad"},
		},
		{
			name:       "validation error",
			err:        Validation(map[string]string{"serviceId": "required"}),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody: errorResponse{
				Error:   "validation_failed",
				Message: "request validation failed",
				Fields:  map[string]string{"serviceId": "required"},
			},
		},
		{
			name:       "plain error becomes internal",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   errorResponse{Error: "internal_error", Message: "an unexpected error occurred"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			WriteError(t.Context(), rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get(xhttp.ContentType); got != xhttp.MIMEApplicationJSON {
				t.Errorf("Content-Type = %q, want %q", got, xhttp.MIMEApplicationJSON)
			}

			var got errorResponse
			if err := go_json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if diff := cmp.Diff(tt.wantBody, got); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteErrorRateLimit(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	err := fmt.Errorf("checking limit: %w", TooManyRequests("rate_limited", "slow down", 3*time.Second, "ip_rate_limit"))
	WriteError(t.Context(), rec, err)

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if got := rec.Header().Get(xhttp.RetryAfter); got != "3" {
		t.Errorf("Retry-After = %q, want %q", got, "3")
	}
	if got := rec.Header().Get(xhttp.XRateLimitReason); got != "ip_rate_limit" {
		t.Errorf("reason header = %q, want %q", got, "ip_rate_limit")
	}
}

func TestAsRateLimitError(t *testing.T) {
	t.Parallel()

	rlErr := TooManyRequests("rate_limited", "slow down", time.Second, "ip_rate_limit")
	if got := AsRateLimitError(fmt.Errorf("wrapped: %w", rlErr)); got != rlErr {
		t.Errorf("AsRateLimitError(wrapped) = %v, want %v", got, rlErr)
	}
	if got := AsRateLimitError(BadRequest("invalid_request", "bad")); got != nil {
		t.Errorf("AsRateLimitError(app error) = %v, want nil", got)
	}
}
