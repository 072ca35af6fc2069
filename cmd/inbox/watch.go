package main

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/garrettladley/inbox/internal/paths"
	"github.com/garrettladley/inbox/internal/tui"
	"github.com/garrettladley/inbox/internal/xslog"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Open the live notification inbox",
		Long:  "Opens the full-screen terminal UI. The unread badge and list follow the server in real time.",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	logFile, err := paths.OpenLog()
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()

	logger := xslog.NewLoggerFromEnv(logFile)

	d, err := newClientDeps(logger)
	if err != nil {
		return err
	}

	controller := d.liveController()
	updates, unsubscribe := controller.Subscribe()
	defer func() {
		controller.Detach()
		unsubscribe()
	}()

	model := tui.New(tui.Deps{
		Ctx:        cmd.Context(),
		Logger:     logger,
		Session:    d.session,
		Controller: controller,
		Updates:    updates,
	})

	p := tea.NewProgram(&model)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
