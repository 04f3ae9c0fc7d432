package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/phasegraph/internal/graph"
	"github.com/npratt/phasegraph/internal/syncer"
)

// styles contains all lipgloss styles used by the TUI.
var styles = struct {
	// Header styles
	Title   lipgloss.Style
	Summary lipgloss.Style
	Divider lipgloss.Style

	// Footer style
	Footer lipgloss.Style

	// Form styles
	Label       lipgloss.Style
	LabelActive lipgloss.Style
	Hint        lipgloss.Style
	Checked     lipgloss.Style
	Cursor      lipgloss.Style
	Button      lipgloss.Style
	ButtonFocus lipgloss.Style

	// Notice colors
	NoticeInfo  lipgloss.Style
	NoticeWarn  lipgloss.Style
	NoticeError lipgloss.Style

	// Focus indicators
	FocusedBorder   lipgloss.Style
	UnfocusedBorder lipgloss.Style

	// Modal
	Modal lipgloss.Style
}{
	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("212")),

	Summary: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Divider: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")),

	Footer: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Label: lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")),

	LabelActive: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")),

	Hint: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true),

	Checked: lipgloss.NewStyle().
		Foreground(lipgloss.Color("114")),

	Cursor: lipgloss.NewStyle().
		Background(lipgloss.Color("236")),

	Button: lipgloss.NewStyle().
		Padding(0, 2).
		Foreground(lipgloss.Color("252")).
		Background(lipgloss.Color("238")),

	ButtonFocus: lipgloss.NewStyle().
		Padding(0, 2).
		Bold(true).
		Foreground(lipgloss.Color("255")).
		Background(lipgloss.Color("63")),

	NoticeInfo: lipgloss.NewStyle().
		Foreground(lipgloss.Color("114")),

	NoticeWarn: lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")),

	NoticeError: lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")),

	FocusedBorder: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")), // Bright blue for focused

	UnfocusedBorder: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")), // Dimmed gray for unfocused

	Modal: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("196")).
		Padding(1, 2),
}

// categoryStyles colour category tags in the form, matching the SVG palette.
var categoryStyles = map[graph.Category]lipgloss.Style{
	graph.CategoryStrategy: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#1e40af")).
		Background(lipgloss.Color("#dbeafe")),
	graph.CategoryCreation: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#065f46")).
		Background(lipgloss.Color("#d1fae5")),
	graph.CategoryScore: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#854d0e")).
		Background(lipgloss.Color("#fef9c3")),
}

// noticeStyle returns the style for a notice level.
func noticeStyle(l syncer.Level) lipgloss.Style {
	switch l {
	case syncer.LevelError:
		return styles.NoticeError
	case syncer.LevelWarn:
		return styles.NoticeWarn
	default:
		return styles.NoticeInfo
	}
}

// containerStyle returns the border style for a pane.
func containerStyle(focused bool) lipgloss.Style {
	if focused {
		return styles.FocusedBorder
	}
	return styles.UnfocusedBorder
}
