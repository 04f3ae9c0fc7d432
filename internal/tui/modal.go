package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/phasegraph/internal/graph"
)

// confirmDecision is the outcome of a key pressed in the confirm modal.
type confirmDecision int

const (
	decisionNone confirmDecision = iota
	decisionConfirm
	decisionCancel
)

// ConfirmModal asks before a node is deleted.
type ConfirmModal struct {
	node     graph.Node
	children int
	open     bool
}

// Open shows the modal for n. children is the number of nodes that list n
// as a parent.
func (m *ConfirmModal) Open(n graph.Node, children int) {
	m.node = n
	m.children = children
	m.open = true
}

// Close hides the modal.
func (m *ConfirmModal) Close() {
	m.open = false
	m.node = graph.Node{}
	m.children = 0
}

// IsOpen returns true if the modal is open.
func (m *ConfirmModal) IsOpen() bool {
	return m.open
}

// NodeID returns the id of the node awaiting confirmation.
func (m *ConfirmModal) NodeID() string {
	return m.node.ID
}

// handleKey maps a key press to a decision. Other keys are ignored.
func (m *ConfirmModal) handleKey(msg tea.KeyMsg) confirmDecision {
	switch {
	case key.Matches(msg, keys.Confirm):
		return decisionConfirm
	case key.Matches(msg, keys.Cancel):
		return decisionCancel
	}
	return decisionNone
}

// View renders the modal.
func (m *ConfirmModal) View(parentWidth int) string {
	if !m.open {
		return ""
	}

	modalWidth := min(max(parentWidth*60/100, 36), 60)

	var content strings.Builder
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("196"))
	content.WriteString(titleStyle.Render("Delete node?"))
	content.WriteString("\n\n")
	content.WriteString(fmt.Sprintf("%s (phase %d)", truncate(m.node.Name, modalWidth-16), m.node.Phase))
	content.WriteString("\n")

	if m.children > 0 {
		warn := fmt.Sprintf("%s will keep a reference to it.",
			pluralize(m.children, "child", "children"))
		content.WriteString(styles.Hint.Render(warn))
		content.WriteString("\n")
	}

	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)
	content.WriteString("\n")
	content.WriteString(footerStyle.Render("[y] delete | [n/Esc] cancel"))

	return styles.Modal.Width(modalWidth).Render(content.String())
}
