package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	ColorPrimary = lipgloss.Color("#7C3AED") // Purple
	ColorAccent  = lipgloss.Color("#10B981") // Green

	ColorSuccess = lipgloss.Color("#10B981")
	ColorWarning = lipgloss.Color("#F59E0B")
	ColorError   = lipgloss.Color("#EF4444")
	ColorInfo    = lipgloss.Color("#3B82F6")

	ColorBorder      = lipgloss.Color("#6B7280")
	ColorBorderLight = lipgloss.Color("#9CA3AF")
	ColorBackground  = lipgloss.Color("#1F2937")
	ColorText        = lipgloss.Color("#F9FAFB")
	ColorTextMuted   = lipgloss.Color("#9CA3AF")
	ColorHighlight   = lipgloss.Color("#8B5CF6")

	ColorSelected = lipgloss.Color("#7C3AED")
	ColorModified = lipgloss.Color("#F59E0B")
)

type Theme struct {
	HeaderStyle     lipgloss.Style
	NormalTextStyle lipgloss.Style
	MutedTextStyle  lipgloss.Style
	HighlightStyle  lipgloss.Style

	SelectedItemStyle lipgloss.Style
	PanelStyle        lipgloss.Style
	ActivePanelStyle  lipgloss.Style
	ErrorStyle        lipgloss.Style
	SuccessStyle      lipgloss.Style
	WarningStyle      lipgloss.Style

	FieldLabelStyle lipgloss.Style
	EditingStyle    lipgloss.Style
	ModifiedStyle   lipgloss.Style
	MixedStyle      lipgloss.Style
}

func DefaultTheme() *Theme {
	return &Theme{
		HeaderStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Background(ColorPrimary).
			Padding(0, 1),

		NormalTextStyle: lipgloss.NewStyle().
			Foreground(ColorText),

		MutedTextStyle: lipgloss.NewStyle().
			Foreground(ColorTextMuted),

		HighlightStyle: lipgloss.NewStyle().
			Foreground(ColorHighlight).
			Bold(true),

		SelectedItemStyle: lipgloss.NewStyle().
			Foreground(ColorSelected).
			Bold(true).
			Background(lipgloss.Color("#312E81")), // Dark purple

		PanelStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1),

		ActivePanelStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1),

		ErrorStyle: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),

		SuccessStyle: lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true),

		WarningStyle: lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true),

		FieldLabelStyle: lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Width(12).
			Align(lipgloss.Right),

		EditingStyle: lipgloss.NewStyle().
			Foreground(ColorAccent).
			Background(lipgloss.Color("#064E3B")). // Dark green
			Bold(true),

		ModifiedStyle: lipgloss.NewStyle().
			Foreground(ColorModified).
			Bold(true),

		MixedStyle: lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true),
	}
}

const (
	IconMusic      = "🎵"
	IconCheck      = "✓"
	IconCross      = "✗"
	IconArrowRight = "▶"
	IconImage      = "🖼"
)

func StatusBadge(text string, statusType string, theme *Theme) string {
	var style lipgloss.Style

	switch statusType {
	case "success":
		style = theme.SuccessStyle.Background(lipgloss.Color("#065F46"))
	case "error":
		style = theme.ErrorStyle.Background(lipgloss.Color("#7F1D1D"))
	case "warning":
		style = theme.WarningStyle.Background(lipgloss.Color("#78350F"))
	case "info":
		style = lipgloss.NewStyle().
			Foreground(ColorInfo).
			Background(lipgloss.Color("#1E3A8A")).
			Bold(true)
	default:
		style = theme.NormalTextStyle
	}

	return style.Padding(0, 1).Render(text)
}

func KeyHelp(key, description string, theme *Theme) string {
	keyStyle := lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 1).
		Background(ColorBackground)

	return keyStyle.Render(key) + " " + theme.MutedTextStyle.Render(description)
}

func Separator(width int, char string, color lipgloss.Color) string {
	if width < 1 {
		width = 1
	}
	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat(char, width))
}

// truncate shortens s to at most n terminal cells, marking the cut with "...".
func truncate(s string, n int) string {
	return runewidth.Truncate(s, n, "...")
}
