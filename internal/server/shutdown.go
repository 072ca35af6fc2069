package server

import (
	"context"
	"time"

	"github.com/garrettladley/inbox/internal/xcontext"
)

// ShutdownCoordinator gives long-lived event streams a chance to say goodbye
// before the HTTP server stops accepting work.
type ShutdownCoordinator struct {
	baseCtx     context.Context
	cancel      context.CancelCauseFunc
	gracePeriod time.Duration
}

func NewShutdownCoordinator(gracePeriod time.Duration) *ShutdownCoordinator {
	ctx, cancel := context.WithCancelCause(context.Background())
	return &ShutdownCoordinator{
		baseCtx:     ctx,
		cancel:      cancel,
		gracePeriod: gracePeriod,
	}
}

// BaseContext is the parent of every request context. It is cancelled when
// shutdown starts so streams can send a final shutdown event.
func (sc *ShutdownCoordinator) BaseContext() context.Context {
	return sc.baseCtx
}

// InitiateShutdown cancels the base context and blocks for the grace period
// or until ctx is done, whichever comes first.
func (sc *ShutdownCoordinator) InitiateShutdown(ctx context.Context) {
	sc.cancel(xcontext.ErrServerShutdown)

	timer := time.NewTimer(sc.gracePeriod)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
