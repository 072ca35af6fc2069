package middleware

import (
	"net/http"

	"github.com/garrettladley/inbox/internal/xcontext"
	"github.com/garrettladley/inbox/internal/xhttp"
	"github.com/garrettladley/inbox/internal/xslog"
)

// ClientSessionID records the caller's session header so every log line of a
// client run can be correlated. Must run AFTER Logger.
func ClientSessionID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := xhttp.GetRequestHeaderSessionID(r)
		if sessionID == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := xcontext.SetSessionID(r.Context(), sessionID)
		ctx = xslog.WithAttrs(ctx, xslog.SessionID(sessionID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
