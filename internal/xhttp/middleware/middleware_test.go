package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/garrettladley/inbox/internal/xcontext"
	"github.com/garrettladley/inbox/internal/xhttp"
)

func TestChainOrder(t *testing.T) {
	t.Parallel()

	var got []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = append(got, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		got = append(got, "handler")
	}), mark("first"), mark("second"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/", nil))

	if diff := cmp.Diff([]string{"first", "second", "handler"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	const incoming = "5f0c6a2e-8f9b-4a8e-9a53-3f1b2b7c9d10"

	tests := []struct {
		name   string
		opts   []RequestIDOption
		header string
		want   string
	}{
		{
			name: "generated",
			opts: []RequestIDOption{WithIDFunc(func() string { return "generated" })},
			want: "generated",
		},
		{
			name:   "incoming ignored by default",
			opts:   []RequestIDOption{WithIDFunc(func() string { return "generated" })},
			header: incoming,
			want:   "generated",
		},
		{
			name:   "incoming trusted",
			opts:   []RequestIDOption{WithIDFunc(func() string { return "generated" }), TrustRequestIDHeader()},
			header: incoming,
			want:   incoming,
		},
		{
			name:   "malformed incoming replaced",
			opts:   []RequestIDOption{WithIDFunc(func() string { return "generated" }), TrustRequestIDHeader()},
			header: "not-a-uuid",
			want:   "generated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var fromCtx string
			h := RequestID(tt.opts...)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				fromCtx, _ = xcontext.GetRequestID(r.Context())
			}))

			req := httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(xhttp.XRequestID, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if fromCtx != tt.want {
				t.Errorf("context request id = %q, want %q", fromCtx, tt.want)
			}
			if got := rec.Header().Get(xhttp.XRequestID); got != tt.want {
				t.Errorf("%s header = %q, want %q", xhttp.XRequestID, got, tt.want)
			}
		})
	}
}

func TestLoggingKeepsFlusherReachable(t *testing.T) {
	t.Parallel()

	var flushErr error
	h := Logging(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		flushErr = http.NewResponseController(w).Flush()
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/", nil))

	if flushErr != nil {
		t.Errorf("Flush() error = %v", flushErr)
	}
	if !rec.Flushed {
		t.Error("recorder was not flushed")
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
}

func TestClientSessionID(t *testing.T) {
	t.Parallel()

	var got string
	var ok bool
	h := ClientSessionID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got, ok = xcontext.GetSessionID(r.Context())
	}))

	req := httptest.NewRequestWithContext(t.Context(), http.MethodGet, "/", nil)
	req.Header.Set(xhttp.XSessionID, "session-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !ok || got != "session-1" {
		t.Errorf("GetSessionID() = (%q, %v), want (session-1, true)", got, ok)
	}
}
