package middleware

import (
	"errors"
	"net/http"

	"github.com/garrettladley/inbox/internal/apperr"
	"github.com/garrettladley/inbox/internal/service/user"
	"github.com/garrettladley/inbox/internal/xcontext"
	"github.com/garrettladley/inbox/internal/xhttp"
	"github.com/garrettladley/inbox/internal/xslog"
)

// BearerAuth resolves the bearer token to a user and sets the user ID in context.
func BearerAuth(userService user.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := xslog.FromContext(ctx)

			token, err := xhttp.GetRequestBearer(r)
			if err != nil {
				logger.WarnContext(ctx, "bearer token rejected",
					xslog.RequestPath(r),
					xslog.ErrorGroup(err))
				if errors.Is(err, xhttp.ErrMissingBearer) {
					apperr.WriteError(ctx, w, apperr.Unauthorized("unauthorized", "missing Authorization header"))
				} else {
					apperr.WriteError(ctx, w, apperr.Unauthorized("unauthorized", "malformed Authorization header"))
				}
				return
			}

			userID, err := userService.ValidateToken(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "token validation failed",
					xslog.RequestPath(r),
					xslog.ErrorGroup(err))

				switch {
				case errors.Is(err, user.ErrTokenNotFound):
					apperr.WriteError(ctx, w, apperr.Unauthorized("unauthorized", "invalid token"))
				case errors.Is(err, user.ErrTokenRevoked):
					apperr.WriteError(ctx, w, apperr.Unauthorized("unauthorized", "token has been revoked"))
				default:
					apperr.WriteError(ctx, w, apperr.Internal("internal_error", "token validation failed", err))
				}
				return
			}

			ctx = xcontext.SetUserID(ctx, userID)
			ctx = xslog.WithAttrs(ctx, xslog.UserID(userID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
