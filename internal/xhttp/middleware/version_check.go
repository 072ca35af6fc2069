package middleware

import (
	"net/http"

	"github.com/garrettladley/inbox/internal/version"
	"github.com/garrettladley/inbox/internal/xhttp"
	"github.com/garrettladley/inbox/internal/xslog"
)

const errorCodeIncompatibleVersion = "incompatible_version"

type versionErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	MinVersion string `json:"min_version"`
}

// VersionCheck rejects clients whose major version the server no longer speaks.
// Requests without a version header are let through.
func VersionCheck(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientVersion := r.Header.Get(version.Header)
		if clientVersion == "" {
			next.ServeHTTP(w, r)
			return
		}

		if verr := version.CheckCompatibility(clientVersion); verr != nil {
			xslog.FromContext(r.Context()).WarnContext(
				r.Context(),
				"client version incompatible",
				xslog.ClientVersion(verr.ClientVersion),
				xslog.ServerVersion(verr.ServerVersion),
				xslog.MinVersion(verr.MinVersion),
				xslog.RequestPath(r),
			)

			xhttp.WriteJSON(w, http.StatusUpgradeRequired, versionErrorResponse{
				Error:      errorCodeIncompatibleVersion,
				Message:    verr.Error(),
				MinVersion: verr.MinVersion,
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
