package xcontext

import (
	"context"
	"errors"
)

type (
	requestIDKey          struct{}
	sessionIDKey          struct{}
	userIDKey             struct{}
	shutdownInProgressKey struct{}
)

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func GetRequestID(ctx context.Context) (string, bool) {
	return lookupString(ctx, requestIDKey{})
}

func SetSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, sessionID)
}

func GetSessionID(ctx context.Context) (string, bool) {
	return lookupString(ctx, sessionIDKey{})
}

// SetUserID stores the authenticated marketplace user for the request.
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// GetUserID returns the authenticated user. An empty id is reported as absent.
func GetUserID(ctx context.Context) (string, bool) {
	return lookupString(ctx, userIDKey{})
}

// SetShutdownInProgress marks the context as being in a shutdown state so
// long-lived handlers can tell a server restart apart from a client disconnect.
func SetShutdownInProgress(ctx context.Context, inProgress bool) context.Context {
	return context.WithValue(ctx, shutdownInProgressKey{}, inProgress)
}

// ErrServerShutdown is the cancellation cause of the server's base context.
var ErrServerShutdown = errors.New("server shutting down")

// IsShutdownInProgress reports whether the context was marked, or was
// cancelled because the server's base context was cancelled with ErrServerShutdown.
func IsShutdownInProgress(ctx context.Context) bool {
	if inProgress, ok := ctx.Value(shutdownInProgressKey{}).(bool); ok && inProgress {
		return true
	}
	return errors.Is(context.Cause(ctx), ErrServerShutdown)
}

func lookupString(ctx context.Context, key any) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}
