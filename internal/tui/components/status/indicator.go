package status

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/garrettladley/inbox/internal/client/sse"
	"github.com/garrettladley/inbox/internal/tui/theme"
)

const statusDot = "●"

// Indicator shows the state of the push connection.
type Indicator struct {
	Attached bool
	State    sse.State
}

func (i Indicator) Render() string {
	if !i.Attached {
		return lipgloss.NewStyle().
			Foreground(theme.ColorBgLight).
			Render(statusDot + " signed out")
	}

	return lipgloss.NewStyle().
		Foreground(i.color()).
		Render(statusDot + " " + i.State.String())
}

func (i Indicator) color() color.Color {
	switch i.State {
	case sse.StateLive:
		return theme.ColorLive
	case sse.StateConnecting, sse.StateReconnecting:
		return theme.ColorPending
	default:
		return theme.ColorError
	}
}
