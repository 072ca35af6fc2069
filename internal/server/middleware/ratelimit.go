package middleware

import (
	"net/http"

	"github.com/garrettladley/inbox/internal/apperr"
	"github.com/garrettladley/inbox/internal/storage"
	"github.com/garrettladley/inbox/internal/xhttp"
	"github.com/garrettladley/inbox/internal/xslog"
)

const reasonIPRateLimit = "ip_rate_limit"

// RateLimit applies IP-based rate limiting.
func RateLimit(backend storage.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := xslog.FromContext(ctx)
			ip := xhttp.GetRequestIP(r)

			result, err := backend.Allow(ctx, ip)
			if err != nil {
				logger.ErrorContext(ctx, "rate limit check failed",
					xslog.ErrorGroup(err),
					xslog.IP(ip),
				)
				apperr.WriteError(ctx, w, apperr.ServiceUnavailable("unavailable", "rate limit check failed"))
				return
			}

			if !result.Allowed {
				apperr.WriteError(ctx, w, apperr.TooManyRequests("rate_limited", "rate limit exceeded", result.RetryAfter, reasonIPRateLimit))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
