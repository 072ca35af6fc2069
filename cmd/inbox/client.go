package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/garrettladley/inbox/internal/client/inbox"
	"github.com/garrettladley/inbox/internal/client/sse"
	"github.com/garrettladley/inbox/internal/config"
	"github.com/garrettladley/inbox/internal/session"
	"github.com/garrettladley/inbox/internal/xsync"
)

var errMissingCredentials = errors.New("INBOX_USER_ID and INBOX_TOKEN must be set")

type clientDeps struct {
	cfg     config.Config
	session session.Session
	api     *inbox.Client
	logger  *slog.Logger
}

func newClientDeps(logger *slog.Logger) (clientDeps, error) {
	cfg, err := config.Read()
	if err != nil {
		return clientDeps{}, fmt.Errorf("failed to read config: %w", err)
	}
	if cfg.UserID == "" || cfg.Token == "" {
		return clientDeps{}, errMissingCredentials
	}

	return clientDeps{
		cfg:     cfg,
		session: session.New(cfg.UserID, cfg.Token),
		api: inbox.New(cfg.ServerURL,
			inbox.WithLogger(logger),
			inbox.WithTimeout(cfg.Timeout),
		),
		logger: logger,
	}, nil
}

// controller returns a controller without a push channel, for commands that
// run a single operation. Attach does no fetching; each command fetches what
// it prints.
func (d clientDeps) controller() *xsync.Controller {
	return xsync.NewController(d.api, nil, d.logger,
		xsync.WithNamespace(d.cfg.Namespace),
		xsync.WithoutInitialReconcile(),
	)
}

// liveController returns a controller that also subscribes to the event
// channel.
func (d clientDeps) liveController() *xsync.Controller {
	channel := xsync.NewSSEChannel(sse.NewClient(d.cfg.ServerURL, sse.WithLogger(d.logger)))
	return xsync.NewController(d.api, channel, d.logger, xsync.WithNamespace(d.cfg.Namespace))
}

// withController attaches a pull-only controller for the duration of fn.
func withController(ctx context.Context, logger *slog.Logger, fn func(d clientDeps, c *xsync.Controller) error) error {
	d, err := newClientDeps(logger)
	if err != nil {
		return err
	}

	c := d.controller()
	if err := c.Attach(ctx, d.session); err != nil {
		return err
	}
	defer c.Detach()

	return fn(d, c)
}
