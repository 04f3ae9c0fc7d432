// Package syncer keeps the in-memory graph and the persisted store in step.
//
// The Coordinator is driven by a single event loop. Its methods mutate local
// state immediately and hand back a Task describing the store call; the host
// runs the Task elsewhere and feeds the Result back through Handle.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/npratt/phasegraph/internal/graph"
	"github.com/npratt/phasegraph/internal/store"
)

// DefaultTimeout bounds every store call.
const DefaultTimeout = 10 * time.Second

// Task performs one store call off the event loop.
type Task func(ctx context.Context) Result

// Result is the outcome of a Task, delivered back to Handle.
type Result interface {
	isResult()
}

// LoadResult carries the outcome of FetchAll.
type LoadResult struct {
	Nodes []graph.Node
	Err   error
}

// SaveResult carries the outcome of ReplaceAll.
type SaveResult struct {
	Count int
	Err   error
}

// DeleteResult carries the outcome of DeleteOne.
type DeleteResult struct {
	ID  string
	Err error
}

func (LoadResult) isResult()   {}
func (SaveResult) isResult()   {}
func (DeleteResult) isResult() {}

// Level is the severity of a Notice.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a user-visible message produced by the coordinator.
type Notice struct {
	Level Level
	Text  string
}

// Notice texts.
const (
	NoticeDeleteResynced = "delete failed, view refreshed from store"
	NoticeLoadFailed     = "store unavailable, starting with an empty graph"
)

// Coordinator owns the graph model and sequences store calls against it.
type Coordinator struct {
	model    *graph.Model
	store    store.Store
	logger   *slog.Logger
	timeout  time.Duration
	onChange func(ids []string)

	loaded  bool
	saving  bool
	dirty   bool
	lastErr error
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTimeout sets the per-call timeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithOnChange registers a callback run after every membership change.
func WithOnChange(fn func(ids []string)) Option {
	return func(c *Coordinator) {
		c.onChange = fn
	}
}

// New creates a coordinator around model and s.
func New(model *graph.Model, s store.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		model:   model,
		store:   s,
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the graph the coordinator manages. Callers on the event loop
// may read it; mutations must go through the coordinator.
func (c *Coordinator) Model() *graph.Model {
	return c.model
}

// Loaded reports whether the initial load has completed, successfully or not.
func (c *Coordinator) Loaded() bool {
	return c.loaded
}

// Saving reports whether a save is in flight.
func (c *Coordinator) Saving() bool {
	return c.saving
}

// LastError returns the most recent store failure, cleared by a success of
// the same kind.
func (c *Coordinator) LastError() error {
	return c.lastErr
}

// Load fetches the stored collection.
func (c *Coordinator) Load() Task {
	s := c.store
	timeout := c.timeout
	return func(ctx context.Context) Result {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		nodes, err := s.FetchAll(ctx)
		return LoadResult{Nodes: nodes, Err: err}
	}
}

// Add validates and appends a node, returning the save to run. A validation
// error leaves everything unchanged and returns no task.
func (c *Coordinator) Add(in graph.NodeInput) (graph.Node, Task, error) {
	n, err := c.model.Add(in)
	if err != nil {
		return graph.Node{}, nil, err
	}
	c.logger.Info("node added", "id", n.ID, "name", n.Name, "phase", n.Phase)
	c.notify()
	return n, c.requestSave(), nil
}

// Delete removes a node locally and returns the store delete to run. A
// delete that reaches the store is followed by a save of the remaining nodes.
func (c *Coordinator) Delete(id string) (Task, error) {
	n, ok := c.model.Lookup(id)
	if !ok || !c.model.Remove(id) {
		return nil, fmt.Errorf("%w: %s", graph.ErrNodeNotFound, id)
	}
	c.logger.Info("node removed", "id", id, "name", n.Name)
	c.notify()

	// An in-flight save may still carry the removed node; follow it with one
	// built from the current collection.
	if c.saving {
		c.dirty = true
	}

	s := c.store
	timeout := c.timeout
	return func(ctx context.Context) Result {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return DeleteResult{ID: id, Err: s.DeleteOne(ctx, id)}
	}, nil
}

// requestSave returns a save of the current collection, or nil when the
// collection is empty or a save is already running.
func (c *Coordinator) requestSave() Task {
	if c.model.Len() == 0 {
		c.dirty = false
		return nil
	}
	if c.saving {
		c.dirty = true
		return nil
	}
	c.saving = true
	snapshot := c.model.Nodes()
	s := c.store
	timeout := c.timeout
	return func(ctx context.Context) Result {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return SaveResult{Count: len(snapshot), Err: s.ReplaceAll(ctx, snapshot)}
	}
}

// Handle applies a task result and returns any follow-up task and notice.
func (c *Coordinator) Handle(r Result) (Task, *Notice) {
	switch r := r.(type) {
	case LoadResult:
		return c.handleLoad(r)
	case SaveResult:
		return c.handleSave(r)
	case DeleteResult:
		return c.handleDelete(r)
	default:
		c.logger.Warn("unknown sync result", "type", fmt.Sprintf("%T", r))
		return nil, nil
	}
}

func (c *Coordinator) handleLoad(r LoadResult) (Task, *Notice) {
	c.loaded = true
	if r.Err != nil {
		c.lastErr = r.Err
		c.logger.Error("load failed", "error", r.Err)
		c.model.Replace(nil)
		c.notify()
		return nil, &Notice{Level: LevelWarn, Text: NoticeLoadFailed}
	}
	c.lastErr = nil
	c.model.Replace(r.Nodes)
	c.logger.Info("graph loaded", "nodes", len(r.Nodes))
	c.notify()
	return nil, nil
}

func (c *Coordinator) handleSave(r SaveResult) (Task, *Notice) {
	c.saving = false
	if r.Err != nil {
		c.lastErr = r.Err
		c.logger.Error("save failed", "nodes", r.Count, "error", r.Err)
	} else {
		c.lastErr = nil
		c.logger.Debug("graph saved", "nodes", r.Count)
	}
	if c.dirty {
		c.dirty = false
		return c.requestSave(), nil
	}
	return nil, nil
}

func (c *Coordinator) handleDelete(r DeleteResult) (Task, *Notice) {
	// Either way the store no longer holds the node; persist what remains.
	switch {
	case r.Err == nil:
		c.lastErr = nil
		c.logger.Debug("node deleted from store", "id", r.ID)
		return c.requestSave(), nil
	case errors.Is(r.Err, store.ErrNotFound):
		c.logger.Warn("node already absent from store", "id", r.ID)
		return c.requestSave(), nil
	default:
		c.lastErr = r.Err
		c.logger.Error("delete failed, reloading", "id", r.ID, "error", r.Err)
		return c.Load(), &Notice{Level: LevelWarn, Text: NoticeDeleteResynced}
	}
}

func (c *Coordinator) notify() {
	if c.onChange != nil {
		c.onChange(c.model.IDs())
	}
}

// Drain runs task and every follow-up it produces on the calling goroutine,
// returning the notices raised along the way. CLI commands use it in place of
// an event loop.
func Drain(ctx context.Context, c *Coordinator, task Task) []Notice {
	var notices []Notice
	for task != nil {
		next, notice := c.Handle(task(ctx))
		if notice != nil {
			notices = append(notices, *notice)
		}
		task = next
	}
	return notices
}
