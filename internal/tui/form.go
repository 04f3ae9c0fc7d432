package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/phasegraph/internal/graph"
)

// formField identifies the focused control of the create form.
type formField int

const (
	fieldName formField = iota
	fieldPhase
	fieldParents
	fieldCategories
	fieldSubmit
)

// nameCharLimit caps node names typed into the form.
const nameCharLimit = 60

// createForm collects the input for a new node. Parents and categories only
// exist for phases above 1.
type createForm struct {
	name         textinput.Model
	phase        int
	parents      map[string]bool
	parentCursor int
	categories   map[graph.Category]bool
	catCursor    int
	field        formField
}

func newCreateForm() createForm {
	ti := textinput.New()
	ti.Placeholder = "node name"
	ti.CharLimit = nameCharLimit
	ti.Prompt = ""
	ti.Focus()

	return createForm{
		name:       ti,
		phase:      1,
		parents:    make(map[string]bool),
		categories: make(map[graph.Category]bool),
		field:      fieldName,
	}
}

// fields returns the controls shown for the current phase, in tab order.
func (f createForm) fields() []formField {
	if f.phase <= 1 {
		return []formField{fieldName, fieldPhase, fieldSubmit}
	}
	return []formField{fieldName, fieldPhase, fieldParents, fieldCategories, fieldSubmit}
}

// focusField moves focus to field, keeping the text input's cursor in step.
func (f *createForm) focusField(field formField) {
	f.field = field
	if field == fieldName {
		f.name.Focus()
	} else {
		f.name.Blur()
	}
}

// next advances focus. It returns false when focus would leave the form.
func (f *createForm) next() bool {
	fields := f.fields()
	for i, field := range fields {
		if field == f.field {
			if i == len(fields)-1 {
				return false
			}
			f.focusField(fields[i+1])
			return true
		}
	}
	f.focusField(fieldName)
	return true
}

// prev moves focus backwards. It returns false when focus would leave the form.
func (f *createForm) prev() bool {
	fields := f.fields()
	for i, field := range fields {
		if field == f.field {
			if i == 0 {
				return false
			}
			f.focusField(fields[i-1])
			return true
		}
	}
	f.focusField(fieldName)
	return true
}

// focusFirst and focusLast are used when focus enters from the canvas.
func (f *createForm) focusFirst() { f.focusField(fieldName) }

func (f *createForm) focusLast() { f.focusField(fieldSubmit) }

func (f *createForm) blur() { f.name.Blur() }

// setPhase clamps p to 1..maxPhase. Changing phase clears the parent
// selection, and phase 1 also clears categories.
func (f *createForm) setPhase(p, maxPhase int) {
	p = max(1, min(p, max(1, maxPhase)))
	if p == f.phase {
		return
	}
	f.phase = p
	f.parents = make(map[string]bool)
	f.parentCursor = 0
	if p == 1 {
		f.categories = make(map[graph.Category]bool)
	}
}

// sync drops state that no longer fits the graph: an out-of-range phase and
// parents that were deleted.
func (f *createForm) sync(m *graph.Model) {
	f.setPhase(f.phase, m.MaxAssignablePhase())
	eligible := m.EligibleParents(f.phase)
	keep := make(map[string]bool, len(f.parents))
	for _, n := range eligible {
		if f.parents[n.ID] {
			keep[n.ID] = true
		}
	}
	f.parents = keep
	f.parentCursor = max(0, min(f.parentCursor, len(eligible)-1))

	visible := false
	for _, field := range f.fields() {
		if field == f.field {
			visible = true
		}
	}
	if !visible {
		f.focusField(fieldPhase)
	}
}

// input builds the node input from the form in display order.
func (f createForm) input(m *graph.Model) graph.NodeInput {
	in := graph.NodeInput{Name: f.name.Value(), Phase: f.phase}
	if f.phase <= 1 {
		return in
	}
	for _, n := range m.EligibleParents(f.phase) {
		if f.parents[n.ID] {
			in.ParentIDs = append(in.ParentIDs, n.ID)
		}
	}
	for _, c := range graph.AllCategories() {
		if f.categories[c] {
			in.Categories = append(in.Categories, c)
		}
	}
	return in
}

// reset clears the form after a node is created.
func (f *createForm) reset() {
	f.name.SetValue("")
	f.phase = 1
	f.parents = make(map[string]bool)
	f.parentCursor = 0
	f.categories = make(map[graph.Category]bool)
	f.catCursor = 0
	f.focusField(fieldName)
}

// update handles a key for the focused control. Enter and tab are handled by
// the caller.
func (f *createForm) update(msg tea.KeyMsg, m *graph.Model) tea.Cmd {
	switch f.field {
	case fieldName:
		var cmd tea.Cmd
		f.name, cmd = f.name.Update(msg)
		return cmd

	case fieldPhase:
		switch {
		case key.Matches(msg, keys.Left), key.Matches(msg, keys.Down):
			f.setPhase(f.phase-1, m.MaxAssignablePhase())
		case key.Matches(msg, keys.Right), key.Matches(msg, keys.Up):
			f.setPhase(f.phase+1, m.MaxAssignablePhase())
		}

	case fieldParents:
		eligible := m.EligibleParents(f.phase)
		switch {
		case key.Matches(msg, keys.Up):
			f.parentCursor = max(0, f.parentCursor-1)
		case key.Matches(msg, keys.Down):
			f.parentCursor = min(len(eligible)-1, f.parentCursor+1)
		case key.Matches(msg, keys.Toggle):
			if f.parentCursor >= 0 && f.parentCursor < len(eligible) {
				id := eligible[f.parentCursor].ID
				f.parents[id] = !f.parents[id]
			}
		}

	case fieldCategories:
		all := graph.AllCategories()
		switch {
		case key.Matches(msg, keys.Left), key.Matches(msg, keys.Up):
			f.catCursor = max(0, f.catCursor-1)
		case key.Matches(msg, keys.Right), key.Matches(msg, keys.Down):
			f.catCursor = min(len(all)-1, f.catCursor+1)
		case key.Matches(msg, keys.Toggle):
			c := all[f.catCursor]
			f.categories[c] = !f.categories[c]
		}
	}
	return nil
}

// view renders the form inside a pane of the given inner width.
func (f createForm) view(m *graph.Model, width int, focused bool) string {
	label := func(field formField, text string) string {
		if focused && f.field == field {
			return styles.LabelActive.Render("› " + text)
		}
		return styles.Label.Render("  " + text)
	}

	var sb strings.Builder
	sb.WriteString(styles.Title.Render("New node"))
	sb.WriteString("\n\n")

	sb.WriteString(label(fieldName, "Name"))
	sb.WriteString("\n  ")
	f.name.Width = max(1, width-4)
	sb.WriteString(f.name.View())
	sb.WriteString("\n\n")

	sb.WriteString(label(fieldPhase, "Phase"))
	sb.WriteString(fmt.Sprintf("\n  ◀ %d ▶ ", f.phase))
	sb.WriteString(styles.Hint.Render(fmt.Sprintf("(1-%d)", m.MaxAssignablePhase())))
	sb.WriteString("\n")

	if f.phase > 1 {
		sb.WriteString("\n")
		sb.WriteString(label(fieldParents, "Parents"))
		sb.WriteString("\n")
		eligible := m.EligibleParents(f.phase)
		if len(eligible) == 0 {
			sb.WriteString(styles.Hint.Render("  no nodes in earlier phases"))
			sb.WriteString("\n")
		}
		for i, n := range eligible {
			box := "[ ]"
			if f.parents[n.ID] {
				box = styles.Checked.Render("[x]")
			}
			line := fmt.Sprintf("%s %s", box, truncate(n.Name, width-16))
			line += styles.Hint.Render(fmt.Sprintf(" (phase %d)", n.Phase))
			if focused && f.field == fieldParents && i == f.parentCursor {
				line = styles.Cursor.Render(line)
			}
			sb.WriteString("  " + line + "\n")
		}

		sb.WriteString("\n")
		sb.WriteString(label(fieldCategories, "Categories"))
		sb.WriteString("\n  ")
		for i, c := range graph.AllCategories() {
			tag := " " + string(c) + " "
			if f.categories[c] {
				tag = categoryStyles[c].Render(tag)
			} else {
				tag = styles.Hint.Render(tag)
			}
			if focused && f.field == fieldCategories && i == f.catCursor {
				tag = styles.LabelActive.Render("›") + tag
			} else {
				tag = " " + tag
			}
			sb.WriteString(tag)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n  ")
	if focused && f.field == fieldSubmit {
		sb.WriteString(styles.ButtonFocus.Render("Create"))
	} else {
		sb.WriteString(styles.Button.Render("Create"))
	}
	return sb.String()
}
