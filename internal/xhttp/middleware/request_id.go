package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/garrettladley/inbox/internal/xcontext"
	"github.com/garrettladley/inbox/internal/xhttp"
)

type requestIDConfig struct {
	idFunc      func() string
	trustHeader bool
}

type RequestIDOption func(*requestIDConfig)

// WithIDFunc replaces uuid generation, mainly for tests.
func WithIDFunc(fn func() string) RequestIDOption {
	return func(c *requestIDConfig) {
		c.idFunc = fn
	}
}

// TrustRequestIDHeader reuses an incoming X-Request-Id when it parses as a UUID,
// so a request can be followed through a proxy.
func TrustRequestIDHeader() RequestIDOption {
	return func(c *requestIDConfig) {
		c.trustHeader = true
	}
}

func RequestID(opts ...RequestIDOption) func(http.Handler) http.Handler {
	cfg := requestIDConfig{idFunc: uuid.NewString}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if cfg.trustHeader {
				if incoming := r.Header.Get(xhttp.XRequestID); incoming != "" {
					if err := uuid.Validate(incoming); err == nil {
						id = incoming
					}
				}
			}
			if id == "" {
				id = cfg.idFunc()
			}

			ctx := xcontext.SetRequestID(r.Context(), id)
			xhttp.SetHeaderRequestID(w, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
