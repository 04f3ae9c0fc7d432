package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/phasegraph/internal/graph"
	"github.com/npratt/phasegraph/internal/interaction"
	"github.com/npratt/phasegraph/internal/layout"
	"github.com/npratt/phasegraph/internal/syncer"
)

// focusArea is the part of the screen that receives keys.
type focusArea int

const (
	// focusForm means the create form has focus (default).
	focusForm focusArea = iota
	// focusCanvas means the graph canvas has focus.
	focusCanvas
)

// Layout size constants.
const (
	// formPaneWidth is the outer width of the form pane, borders included.
	formPaneWidth = 40
	// headerHeight is the title line plus divider.
	headerHeight = 2
	// footerHeight is the status line plus key help.
	footerHeight = 2
	// minWidth and minHeight are the smallest usable terminal.
	minWidth  = formPaneWidth + 30
	minHeight = 16
	// panStep is how far one arrow press scrolls the canvas horizontally.
	panStep = 4
	// noticeTTL is how long an info notice stays on the status line.
	noticeTTL = 5 * time.Second
)

// model is the bubbletea model for the TUI.
type model struct {
	ctx    context.Context
	coord  *syncer.Coordinator
	ctrl   *interaction.Controller
	canvas layout.Metrics
	logger *slog.Logger

	// UI state
	form     createForm
	confirm  *ConfirmModal
	spinner  spinner.Model
	focus    focusArea
	selected string
	viewport viewport
	width    int
	height   int
	loading  bool

	// Status line
	notice   *syncer.Notice
	noticeAt time.Time
	now      func() time.Time

	onQuit func()
}

// resultMsg carries a finished sync task back to the event loop.
type resultMsg struct {
	result syncer.Result
}

// newModel creates a model around a coordinator whose membership changes are
// reported to ctrl.
func newModel(ctx context.Context, coord *syncer.Coordinator, ctrl *interaction.Controller, canvas layout.Metrics, logger *slog.Logger, onQuit func()) model {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = slog.Default()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		ctx:     ctx,
		coord:   coord,
		ctrl:    ctrl,
		canvas:  canvas,
		logger:  logger,
		form:    newCreateForm(),
		confirm: &ConfirmModal{},
		spinner: sp,
		focus:   focusForm,
		loading: true,
		now:     time.Now,
		onQuit:  onQuit,
	}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.runTask(m.coord.Load()),
		m.spinner.Tick,
		textinput.Blink,
	)
}

// runTask wraps a sync task as a command. A nil task yields no command.
func (m model) runTask(task syncer.Task) tea.Cmd {
	if task == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		return resultMsg{result: task(ctx)}
	}
}

// graphModel returns the node collection.
func (m model) graphModel() *graph.Model {
	return m.coord.Model()
}

// scene layers the current overrides over a fresh layout of the graph.
func (m model) scene() layout.Scene {
	nodes := m.graphModel().Nodes()
	return layout.NewScene(nodes, layout.ComputeNodes(nodes, m.canvas), m.ctrl.Overrides())
}

// busy reports whether a store call the user should know about is running.
func (m model) busy() bool {
	return m.loading || m.coord.Saving()
}

// setNotice shows n on the status line.
func (m *model) setNotice(n syncer.Notice) {
	m.notice = &n
	m.noticeAt = m.now()
}

// expireNotice clears info notices older than noticeTTL. Warnings and errors
// stay until replaced.
func (m *model) expireNotice() {
	if m.notice != nil && m.notice.Level == syncer.LevelInfo && m.now().Sub(m.noticeAt) > noticeTTL {
		m.notice = nil
	}
}

// canvasSize returns the inner size of the canvas pane.
func (m model) canvasSize() (int, int) {
	w := m.width - formPaneWidth - 2
	h := m.height - headerHeight - footerHeight - 2
	return safeWidth(w), safeWidth(h)
}

// canvasOrigin is the screen cell of canvas coordinate (0,0) before scrolling.
func (m model) canvasOrigin() (int, int) {
	return formPaneWidth + 1, headerHeight + 1
}

// toCanvas converts a screen cell to a canvas point, or false when the cell
// lies outside the canvas pane.
func (m model) toCanvas(x, y int) (layout.Point, bool) {
	ox, oy := m.canvasOrigin()
	w, h := m.canvasSize()
	cx, cy := x-ox, y-oy
	if cx < 0 || cy < 0 || cx >= w || cy >= h {
		return layout.Point{}, false
	}
	return layout.Point{
		X: float64(cx + m.viewport.OffsetX),
		Y: float64(cy + m.viewport.OffsetY),
	}, true
}

// clampViewport keeps the scroll offset within the scene bounds.
func (m *model) clampViewport() {
	bw, bh := m.scene().Bounds()
	w, h := m.canvasSize()
	m.viewport.OffsetX = clamp(m.viewport.OffsetX, 0, cell(bw)-w)
	m.viewport.OffsetY = clamp(m.viewport.OffsetY, 0, cell(bh)-h)
}

// syncSelection drops state that refers to nodes that no longer exist.
func (m *model) syncSelection() {
	if m.selected != "" {
		if _, ok := m.graphModel().Lookup(m.selected); !ok {
			m.selected = ""
		}
	}
	if m.confirm.IsOpen() {
		if _, ok := m.graphModel().Lookup(m.confirm.NodeID()); !ok {
			m.confirm.Close()
		}
	}
	m.form.sync(m.graphModel())
	m.clampViewport()
}

// cycleSelection moves the selection through nodes in draw order.
func (m *model) cycleSelection(step int) {
	order := m.scene().DrawOrder()
	if len(order) == 0 {
		m.selected = ""
		return
	}
	idx := -1
	for i, id := range order {
		if id == m.selected {
			idx = i
			break
		}
	}
	if idx < 0 {
		if step > 0 {
			m.selected = order[0]
		} else {
			m.selected = order[len(order)-1]
		}
		return
	}
	m.selected = order[(idx+step+len(order))%len(order)]
}

// childCount returns how many nodes list id as a parent.
func (m model) childCount(id string) int {
	count := 0
	for _, n := range m.graphModel().Nodes() {
		if n.HasParent(id) {
			count++
		}
	}
	return count
}
