// Package tui provides the interactive terminal editor for the phase graph,
// built on bubbletea.
package tui

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/phasegraph/internal/graph"
	"github.com/npratt/phasegraph/internal/interaction"
	"github.com/npratt/phasegraph/internal/layout"
	"github.com/npratt/phasegraph/internal/store"
	"github.com/npratt/phasegraph/internal/syncer"
)

// TUI is the terminal UI for editing a phase graph.
type TUI struct {
	store   store.Store
	canvas  layout.Metrics
	timeout time.Duration
	logger  *slog.Logger
	idFunc  graph.IDFunc
	onQuit  func()
}

// Option configures the TUI.
type Option func(*TUI)

// New creates a new TUI that persists through s.
func New(s store.Store, opts ...Option) *TUI {
	t := &TUI{
		store:  s,
		canvas: layout.CellMetrics(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// WithCanvas sets the cell dimensions used to lay out the graph.
func WithCanvas(m layout.Metrics) Option {
	return func(t *TUI) {
		t.canvas = m
	}
}

// WithTimeout bounds each store call.
func WithTimeout(d time.Duration) Option {
	return func(t *TUI) {
		t.timeout = d
	}
}

// WithLogger sets the logger passed to the sync coordinator.
func WithLogger(l *slog.Logger) Option {
	return func(t *TUI) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithIDFunc overrides node id generation.
func WithIDFunc(fn graph.IDFunc) Option {
	return func(t *TUI) {
		t.idFunc = fn
	}
}

// WithOnQuit sets the callback invoked when the user quits.
func WithOnQuit(fn func()) Option {
	return func(t *TUI) {
		t.onQuit = fn
	}
}

// build wires the graph model, coordinator and drag controller into a
// bubbletea model.
func (t *TUI) build(ctx context.Context) model {
	var modelOpts []graph.Option
	if t.idFunc != nil {
		modelOpts = append(modelOpts, graph.WithIDFunc(t.idFunc))
	}

	ctrl := interaction.New()
	coord := syncer.New(graph.NewModel(modelOpts...), t.store,
		syncer.WithLogger(t.logger),
		syncer.WithTimeout(t.timeout),
		syncer.WithOnChange(func(ids []string) {
			if ctrl.SyncMembership(ids) {
				t.logger.Debug("node membership changed, overrides cleared", "nodes", len(ids))
			}
		}),
	)
	return newModel(ctx, coord, ctrl, t.canvas, t.logger, t.onQuit)
}

// Run starts the TUI and blocks until it exits.
func (t *TUI) Run(ctx context.Context) error {
	m := t.build(ctx)

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}
