package apperr

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/garrettladley/inbox/internal/xhttp"
	"github.com/garrettladley/inbox/internal/xslog"
)

type errorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// WriteError logs err against the request logger and writes it as JSON.
// Errors that are not *Error or *RateLimitError become a 500.
func WriteError(ctx context.Context, w http.ResponseWriter, err error) {
	if rlErr := AsRateLimitError(err); rlErr != nil {
		logError(ctx, rlErr.StatusCode, rlErr.Code, rlErr.Cause)
		writeRateLimitError(w, rlErr)
		return
	}

	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = Internal("internal_error", "an unexpected error occurred", err)
	}
	logError(ctx, appErr.StatusCode, appErr.Code, appErr.Cause)

	xhttp.WriteJSON(w, appErr.StatusCode, errorResponse{
		Error:   appErr.Code,
		Message: appErr.Message,
		Fields:  appErr.Fields,
	})
}

func writeRateLimitError(w http.ResponseWriter, err *RateLimitError) {
	xhttp.SetHeaderRetryAfter(w, err.RetryAfter)
	if err.Reason != "" {
		w.Header().Set(xhttp.XRateLimitReason, err.Reason)
	}
	xhttp.WriteJSON(w, http.StatusTooManyRequests, errorResponse{
		Error:   err.Code,
		Message: err.Message,
	})
}

func logError(ctx context.Context, status int, code string, cause error) {
	logger := xslog.FromContext(ctx)
	attrs := []any{
		xslog.HTTPStatus(status),
		slog.String("code", code),
	}
	if cause != nil {
		attrs = append(attrs, xslog.Error(cause))
	}

	switch status / 100 {
	case 5:
		logger.ErrorContext(ctx, "server error", attrs...)
	case 4:
		logger.WarnContext(ctx, "client error", attrs...)
	default:
		logger.InfoContext(ctx, "error response", attrs...)
	}
}
