package middleware

import (
	"net/http"

	"github.com/garrettladley/inbox/internal/xcontext"
)

// ShutdownContext marks requests that arrive after the server's base context
// was cancelled, so handlers can refuse long-lived work.
func ShutdownContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Context().Err() != nil {
			r = r.WithContext(xcontext.SetShutdownInProgress(r.Context(), true))
		}
		next.ServeHTTP(w, r)
	})
}
