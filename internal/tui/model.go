package tui

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/garrettladley/inbox/internal/tui/components/footer"
	"github.com/garrettladley/inbox/internal/tui/page/inbox"
	"github.com/garrettladley/inbox/internal/tui/theme"
	"github.com/garrettladley/inbox/internal/xslog"
)

var _ tea.Model = (*Model)(nil)

type Model struct {
	ready          bool
	viewportWidth  int
	viewportHeight int
	theme          theme.Theme
	state          inbox.State
	deps           Deps
}

func New(deps Deps) Model {
	if deps.Logger == nil {
		deps.Logger = xslog.Discard()
	}
	return Model{
		theme: theme.New(),
		deps:  deps,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		attachCmd(m.deps.Ctx, m.deps.Controller, m.deps.Session),
		listenCmd(m.deps.Updates),
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewportWidth = msg.Width
		m.viewportHeight = msg.Height
		m.ready = true

	case tea.KeyMsg:
		return m, m.handleKey(msg.String())

	case SummaryMsg:
		m.state.Summary = msg.Summary
		m.state.Clamp()
		return m, listenCmd(m.deps.Updates)

	case AttachResultMsg:
		if msg.Err != nil {
			// the controller stays attached and pull still works
			m.state.Err = "live updates unavailable: " + msg.Err.Error()
		}

	case ActionResultMsg:
		if msg.Err != nil {
			m.deps.Logger.Warn("tui action failed",
				xslog.Event(string(msg.Action)),
				xslog.Error(msg.Err),
			)
			m.state.Err = fmt.Sprintf("%s failed: %v", msg.Action, msg.Err)
			m.state.Status = ""
			return m, nil
		}
		m.state.Err = ""
		switch msg.Action {
		case actionMarkRead:
			m.state.Status = "marked " + msg.Target + " read"
		case actionMarkAllRead:
			m.state.Status = "marked everything read"
		case actionRefresh:
			m.state.Status = "refreshed"
		}
	}

	return m, nil
}

func (m *Model) handleKey(key string) tea.Cmd {
	c := m.deps.Controller
	switch key {
	case "q", "ctrl+c":
		return tea.Quit
	case "j", "down":
		m.state.Move(1)
	case "k", "up":
		m.state.Move(-1)
	case "enter":
		n, ok := m.state.Selected()
		if !ok {
			return nil
		}
		m.state.Status = "marking " + n.ServiceID + " read..."
		return markReadCmd(m.deps.Ctx, c, n.ServiceID)
	case "a":
		m.state.Status = "marking everything read..."
		return markAllReadCmd(m.deps.Ctx, c)
	case "r":
		m.state.Status = "refreshing..."
		return refreshCmd(m.deps.Ctx, c)
	}
	return nil
}

func (m *Model) View() tea.View {
	view := tea.NewView("")
	view.AltScreen = true
	view.BackgroundColor = m.theme.Background()

	if !m.ready {
		return view
	}

	body := inbox.View(m.state, m.theme, m.viewportWidth, m.viewportHeight-2)
	foot := footer.New(inbox.Indicator(m.state).Render(), m.viewportWidth).Render()

	bodyHeight := max(m.viewportHeight-lipgloss.Height(foot), 0)
	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body),
		foot,
	)

	view.SetContent(content)
	return view
}
