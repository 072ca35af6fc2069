package theme

import "charm.land/lipgloss/v2"

var (
	ColorBlack = lipgloss.Color("#000000")
	ColorWhite = lipgloss.Color("#FFFFFF")
	ColorDim   = lipgloss.Color("#666666")
)

var (
	ColorAccent  = lipgloss.Color("#00F19F") // selection, unread badge
	ColorService = lipgloss.Color("#67AEE6") // service ids
	ColorLive    = lipgloss.Color("#16EC06")
	ColorPending = lipgloss.Color("#FFDE00") // connecting, reconnecting
	ColorError   = lipgloss.Color("#FF0026")
)

var (
	ColorBgDark  = lipgloss.Color("#101518")
	ColorBgLight = lipgloss.Color("#283339")
)
