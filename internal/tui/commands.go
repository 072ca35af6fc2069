package tui

import (
	"context"

	tea "charm.land/bubbletea/v2"

	"github.com/garrettladley/inbox/internal/session"
	"github.com/garrettladley/inbox/internal/xsync"
)

func attachCmd(ctx context.Context, c *xsync.Controller, sess session.Session) tea.Cmd {
	return func() tea.Msg {
		return AttachResultMsg{Err: c.Attach(ctx, sess)}
	}
}

// listenCmd waits for the next summary. It must be re-issued after every
// SummaryMsg to keep listening.
func listenCmd(updates <-chan xsync.Summary) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return UpdatesClosedMsg{}
		}
		return SummaryMsg{Summary: s}
	}
}

func markReadCmd(ctx context.Context, c *xsync.Controller, serviceID string) tea.Cmd {
	return func() tea.Msg {
		return ActionResultMsg{
			Action: actionMarkRead,
			Target: serviceID,
			Err:    c.MarkAsRead(ctx, serviceID),
		}
	}
}

func markAllReadCmd(ctx context.Context, c *xsync.Controller) tea.Cmd {
	return func() tea.Msg {
		return ActionResultMsg{Action: actionMarkAllRead, Err: c.MarkAllAsRead(ctx)}
	}
}

func refreshCmd(ctx context.Context, c *xsync.Controller) tea.Cmd {
	return func() tea.Msg {
		return ActionResultMsg{Action: actionRefresh, Err: c.Reconcile(ctx)}
	}
}
