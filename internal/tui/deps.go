package tui

import (
	"context"
	"log/slog"

	"github.com/garrettladley/inbox/internal/session"
	"github.com/garrettladley/inbox/internal/xsync"
)

type Deps struct {
	Ctx        context.Context
	Logger     *slog.Logger
	Session    session.Session
	Controller *xsync.Controller
	// Updates is a subscription to Controller, owned by the caller.
	Updates <-chan xsync.Summary
}
