package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View implements tea.Model. This renders the full TUI display.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	// Handle too small terminal
	if m.width < minWidth || m.height < minHeight {
		return m.renderTooSmall()
	}

	bodyHeight := m.height - headerHeight - footerHeight
	var body string
	if m.confirm.IsOpen() {
		body = lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, m.confirm.View(m.width))
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderFormPane(bodyHeight), m.renderCanvasPane())
	}

	sections := []string{
		m.renderHeader(),
		m.renderDivider(),
		body,
		m.renderStatus(),
		m.renderFooter(),
	}
	return strings.Join(sections, "\n")
}

// renderTooSmall renders a minimal message for terminals that are too small.
func (m model) renderTooSmall() string {
	return fmt.Sprintf("Terminal too small (%dx%d). Need %dx%d minimum.",
		m.width, m.height, minWidth, minHeight)
}

// renderHeader renders the title, graph summary and activity indicator.
func (m model) renderHeader() string {
	title := styles.Title.Render("phasegraph")
	info := styles.Summary.Render(summary(m.graphModel()))

	activity := ""
	switch {
	case m.loading:
		activity = m.spinner.View() + " loading"
	case m.coord.Saving():
		activity = m.spinner.View() + " saving"
	case m.coord.LastError() != nil:
		activity = styles.NoticeWarn.Render("store error")
	}

	left := title + "  " + info
	gap := max(1, m.width-lipgloss.Width(left)-lipgloss.Width(activity))
	return left + strings.Repeat(" ", gap) + activity
}

// renderDivider renders a horizontal divider line.
func (m model) renderDivider() string {
	return styles.Divider.Render(strings.Repeat("─", safeWidth(m.width)))
}

// renderFormPane renders the create form in a bordered pane.
func (m model) renderFormPane(height int) string {
	innerW := formPaneWidth - 2
	innerH := safeWidth(height - 2)

	content := m.form.view(m.graphModel(), innerW, m.focus == focusForm)
	lines := strings.Split(content, "\n")
	if len(lines) > innerH {
		lines = lines[:innerH]
	}

	return containerStyle(m.focus == focusForm).
		Width(innerW).
		Height(innerH).
		Render(strings.Join(lines, "\n"))
}

// renderCanvasPane renders the graph canvas in a bordered pane.
func (m model) renderCanvasPane() string {
	w, h := m.canvasSize()
	dragging, _ := m.ctrl.Dragging()
	state := canvasState{
		nodes:    m.graphModel().Nodes(),
		scene:    m.scene(),
		selected: m.selected,
		dragging: dragging,
		viewport: m.viewport,
	}
	return containerStyle(m.focus == focusCanvas).
		Width(w).
		Height(h).
		Render(renderCanvas(state, w, h))
}

// renderStatus renders the latest notice, or the selection when there is none.
func (m model) renderStatus() string {
	w := safeWidth(m.width)
	if m.notice != nil {
		text := fmt.Sprintf("%s: %s", m.notice.Level, m.notice.Text)
		return noticeStyle(m.notice.Level).Render(truncate(text, w))
	}
	if n, ok := m.graphModel().Lookup(m.selected); ok {
		return styles.Summary.Render(truncate(fmt.Sprintf("selected: %s (phase %d)", n.Name, n.Phase), w))
	}
	return ""
}

// renderFooter renders keyboard shortcuts help text.
func (m model) renderFooter() string {
	var help string
	switch {
	case m.confirm.IsOpen():
		help = "y: delete  n/esc: cancel"
	case m.focus == focusCanvas:
		help = "n/N: select  d: delete  r: reload  arrows: pan  0: reset view  tab: form  q: quit"
	default:
		switch m.form.field {
		case fieldPhase:
			help = "←/→: phase  tab: next  enter: create  ctrl+c: quit"
		case fieldParents, fieldCategories:
			help = "↑/↓: move  space: toggle  tab: next  enter: create  ctrl+c: quit"
		default:
			help = "tab: next  enter: create  ctrl+c: quit"
		}
	}
	return styles.Footer.Render(truncate(help, safeWidth(m.width)))
}
