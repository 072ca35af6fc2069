package tui

import "github.com/garrettladley/inbox/internal/xsync"

type SummaryMsg struct {
	Summary xsync.Summary
}

// UpdatesClosedMsg is sent once the controller subscription is closed.
type UpdatesClosedMsg struct{}

type AttachResultMsg struct {
	Err error
}

type action string

const (
	actionMarkRead    action = "mark read"
	actionMarkAllRead action = "mark all read"
	actionRefresh     action = "refresh"
)

type ActionResultMsg struct {
	Action action
	Target string
	Err    error
}
