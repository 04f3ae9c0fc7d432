package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/phasegraph/internal/graph"
	"github.com/npratt/phasegraph/internal/syncer"
)

// Update implements tea.Model. It handles all message types and updates the model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampViewport()
		return m, nil

	case resultMsg:
		return m.handleResult(msg.result)

	case spinner.TickMsg:
		m.expireNotice()
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	default:
		// Cursor blink and other input messages belong to the name field
		var cmd tea.Cmd
		m.form.name, cmd = m.form.name.Update(msg)
		return m, cmd
	}
}

// handleResult feeds a finished task to the coordinator and schedules any
// follow-up.
func (m model) handleResult(r syncer.Result) (tea.Model, tea.Cmd) {
	if _, ok := r.(syncer.LoadResult); ok {
		m.loading = false
	}

	next, notice := m.coord.Handle(r)
	if notice != nil {
		m.setNotice(*notice)
	}
	// A failed delete is followed by a reload
	if notice != nil && notice.Text == syncer.NoticeDeleteResynced {
		m.loading = true
	}
	m.syncSelection()
	return m, m.runTask(next)
}

// handleKey processes keyboard input and returns the updated model and command.
func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys: always work regardless of focus
	if key.Matches(msg, keys.Quit) {
		return m.quit()
	}

	if m.confirm.IsOpen() {
		return m.handleConfirmKey(msg)
	}

	switch {
	case key.Matches(msg, keys.Next):
		m.cycleFocus(true)
		return m, nil
	case key.Matches(msg, keys.Prev):
		m.cycleFocus(false)
		return m, nil
	}

	if m.focus == focusForm {
		return m.handleFormKey(msg)
	}
	return m.handleCanvasKey(msg)
}

// cycleFocus moves through the form fields and then onto the canvas.
func (m *model) cycleFocus(forward bool) {
	if m.focus == focusCanvas {
		m.focus = focusForm
		if forward {
			m.form.focusFirst()
		} else {
			m.form.focusLast()
		}
		return
	}

	var moved bool
	if forward {
		moved = m.form.next()
	} else {
		moved = m.form.prev()
	}
	if !moved {
		m.focus = focusCanvas
		m.form.blur()
	}
}

func (m model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Submit) {
		return m.submit()
	}
	cmd := m.form.update(msg, m.graphModel())
	return m, cmd
}

// submit creates a node from the form. Validation errors leave the form as
// typed so the user can correct it.
func (m model) submit() (tea.Model, tea.Cmd) {
	n, task, err := m.coord.Add(m.form.input(m.graphModel()))
	if err != nil {
		if errors.Is(err, graph.ErrValidation) {
			m.logger.Debug("node rejected", "error", err)
		} else {
			m.logger.Error("add node failed", "error", err)
		}
		m.setNotice(syncer.Notice{Level: syncer.LevelError, Text: err.Error()})
		return m, nil
	}

	m.form.reset()
	m.selected = n.ID
	m.setNotice(syncer.Notice{Level: syncer.LevelInfo, Text: fmt.Sprintf("added %q to phase %d", n.Name, n.Phase)})
	m.syncSelection()
	return m, m.runTask(task)
}

func (m model) handleCanvasKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.QuitSoft):
		return m.quit()

	case key.Matches(msg, keys.SelectNext):
		m.cycleSelection(1)

	case key.Matches(msg, keys.SelectPrev):
		m.cycleSelection(-1)

	case key.Matches(msg, keys.Deselect):
		m.selected = ""

	case key.Matches(msg, keys.Delete):
		if n, ok := m.graphModel().Lookup(m.selected); ok {
			m.confirm.Open(n, m.childCount(n.ID))
		}

	case key.Matches(msg, keys.Reload):
		m.loading = true
		return m, m.runTask(m.coord.Load())

	case key.Matches(msg, keys.ResetView):
		m.ctrl.Reset()
		m.viewport = viewport{}

	case key.Matches(msg, keys.Left):
		m.viewport.OffsetX -= panStep
		m.clampViewport()

	case key.Matches(msg, keys.Right):
		m.viewport.OffsetX += panStep
		m.clampViewport()

	case key.Matches(msg, keys.Up):
		m.viewport.OffsetY--
		m.clampViewport()

	case key.Matches(msg, keys.Down):
		m.viewport.OffsetY++
		m.clampViewport()
	}
	return m, nil
}

func (m model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.confirm.handleKey(msg) {
	case decisionConfirm:
		id := m.confirm.NodeID()
		m.confirm.Close()
		task, err := m.coord.Delete(id)
		if err != nil {
			m.setNotice(syncer.Notice{Level: syncer.LevelError, Text: err.Error()})
			return m, nil
		}
		m.setNotice(syncer.Notice{Level: syncer.LevelInfo, Text: "node deleted"})
		m.syncSelection()
		return m, m.runTask(task)

	case decisionCancel:
		m.confirm.Close()
	}
	return m, nil
}

// handleMouse drives the interaction controller from left-button events on
// the canvas.
func (m model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.confirm.IsOpen() {
		return m, nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		p, ok := m.toCanvas(msg.X, msg.Y)
		if !ok {
			return m, nil
		}
		m.focus = focusCanvas
		m.form.blur()
		if m.ctrl.PointerDown(p, m.scene()) {
			m.selected, _ = m.ctrl.Dragging()
		} else {
			m.selected = ""
		}

	case tea.MouseActionMotion:
		if _, dragging := m.ctrl.Dragging(); !dragging {
			return m, nil
		}
		// Motion outside the pane still moves the node, clamped to the edge
		ox, oy := m.canvasOrigin()
		w, h := m.canvasSize()
		x := clamp(msg.X, ox, ox+w-1)
		y := clamp(msg.Y, oy, oy+h-1)
		if p, ok := m.toCanvas(x, y); ok {
			m.ctrl.PointerMove(p)
		}

	case tea.MouseActionRelease:
		m.ctrl.PointerUp()
	}
	return m, nil
}

// quit runs the quit callback and stops the program.
func (m model) quit() (tea.Model, tea.Cmd) {
	if m.onQuit != nil {
		m.onQuit()
	}
	return m, tea.Quit
}
