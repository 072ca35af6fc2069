package inbox

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/garrettladley/inbox/internal/storage"
	"github.com/garrettladley/inbox/internal/tui/components/status"
	"github.com/garrettladley/inbox/internal/tui/theme"
	"github.com/garrettladley/inbox/internal/xsync"
)

const (
	serviceWidth = 16
	timeWidth    = 6
	// rows taken by the header, blank lines and the footer
	chromeHeight = 6
	help         = "j/k move · enter read · a read all · r refresh · q quit"
)

type State struct {
	Summary xsync.Summary
	Cursor  int
	Status  string
	Err     string
}

// Selected returns the notification under the cursor.
func (s State) Selected() (storage.Notification, bool) {
	if s.Cursor < 0 || s.Cursor >= len(s.Summary.UnreadMessages) {
		return storage.Notification{}, false
	}
	return s.Summary.UnreadMessages[s.Cursor], true
}

// Move shifts the cursor by delta, staying inside the list.
func (s *State) Move(delta int) {
	s.Cursor += delta
	s.Clamp()
}

func (s *State) Clamp() {
	n := len(s.Summary.UnreadMessages)
	switch {
	case n == 0:
		s.Cursor = 0
	case s.Cursor >= n:
		s.Cursor = n - 1
	case s.Cursor < 0:
		s.Cursor = 0
	}
}

func Indicator(s State) status.Indicator {
	return status.Indicator{
		Attached: s.Summary.UserID != "",
		State:    s.Summary.Connection,
	}
}

func View(s State, t theme.Theme, width, height int) string {
	header := lipgloss.JoinHorizontal(lipgloss.Center,
		t.Title().Render("Inbox"),
		" ",
		t.Badge().Render(fmt.Sprintf("%d unread", s.Summary.UnreadCount)),
	)
	if s.Summary.UserID != "" {
		header += t.Muted().Render("  " + s.Summary.UserID)
	}

	lines := []string{header, ""}
	lines = append(lines, rows(s, t, width, max(height-chromeHeight, 1))...)

	lines = append(lines, "")
	switch {
	case s.Err != "":
		lines = append(lines, t.Error().Render(s.Err))
	case s.Status != "":
		lines = append(lines, t.Muted().Render(s.Status))
	default:
		lines = append(lines, t.Muted().Render(help))
	}

	return lipgloss.NewStyle().
		PaddingLeft(2).
		PaddingTop(1).
		Render(strings.Join(lines, "\n"))
}

func rows(s State, t theme.Theme, width, visible int) []string {
	messages := s.Summary.UnreadMessages
	if len(messages) == 0 {
		return []string{t.Muted().Render("nothing unread")}
	}

	// keep the cursor on screen
	start := 0
	if s.Cursor >= visible {
		start = s.Cursor - visible + 1
	}
	end := min(start+visible, len(messages))

	messageWidth := max(width-serviceWidth-timeWidth-8, 10)
	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		n := messages[i]

		marker, style := "  ", t.Base()
		if i == s.Cursor {
			marker, style = "> ", t.Selected()
		}

		out = append(out, marker+
			t.Service().Width(serviceWidth).Render(truncate(n.ServiceID, serviceWidth-1))+
			style.Width(messageWidth).Render(truncate(oneLine(n.Message), messageWidth-1))+
			t.Muted().Render(n.CreatedAt.Local().Format("15:04")),
		)
	}
	return out
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
