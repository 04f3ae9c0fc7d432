// Package interaction tracks pointer-driven node dragging and the manual
// position overrides it produces.
package interaction

import (
	"sort"

	"github.com/npratt/phasegraph/internal/layout"
)

// Locator hit-tests a point against the drawn nodes. layout.Scene satisfies it.
type Locator interface {
	NodeAt(p layout.Point) (string, layout.Point, bool)
}

// Controller is a two-state machine: idle, or dragging one node. Overrides
// survive the end of a drag and are cleared when node membership changes.
type Controller struct {
	dragging  bool
	nodeID    string
	grab      layout.Point
	overrides map[string]layout.Point
	members   []string
}

// New returns an idle controller with no overrides.
func New() *Controller {
	return &Controller{overrides: make(map[string]layout.Point)}
}

// PointerDown starts a drag when p lands on a node. The offset between the
// pointer and the node's top-left is kept so the node does not jump.
func (c *Controller) PointerDown(p layout.Point, loc Locator) bool {
	if c.dragging {
		return false
	}
	id, topLeft, ok := loc.NodeAt(p)
	if !ok {
		return false
	}
	c.dragging = true
	c.nodeID = id
	c.grab = p.Sub(topLeft)
	return true
}

// PointerMove repositions the dragged node. Ignored while idle. The node's
// top-left corner never leaves the positive quadrant, where the canvas can
// scroll to it.
func (c *Controller) PointerMove(p layout.Point) {
	if !c.dragging {
		return
	}
	pos := p.Sub(c.grab)
	c.overrides[c.nodeID] = layout.Point{X: max(pos.X, 0), Y: max(pos.Y, 0)}
}

// PointerUp ends the drag. The last override stays in place.
func (c *Controller) PointerUp() {
	c.dragging = false
	c.nodeID = ""
	c.grab = layout.Point{}
}

// Dragging returns the id of the node being dragged.
func (c *Controller) Dragging() (string, bool) {
	return c.nodeID, c.dragging
}

// Overrides returns a copy of the manual positions.
func (c *Controller) Overrides() map[string]layout.Point {
	out := make(map[string]layout.Point, len(c.overrides))
	for id, p := range c.overrides {
		out[id] = p
	}
	return out
}

// SyncMembership is called whenever the node collection may have changed. If
// the set of ids differs from the last call, every override is dropped so the
// layout engine positions are shown again. A drag on a vanished node is
// cancelled.
func (c *Controller) SyncMembership(ids []string) bool {
	next := append([]string(nil), ids...)
	sort.Strings(next)
	if equal(c.members, next) {
		return false
	}
	c.members = next
	c.overrides = make(map[string]layout.Point)

	if c.dragging && !contains(next, c.nodeID) {
		c.PointerUp()
	}
	return true
}

// Reset drops overrides and any drag in progress.
func (c *Controller) Reset() {
	c.PointerUp()
	c.overrides = make(map[string]layout.Point)
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func contains(sorted []string, id string) bool {
	i := sort.SearchStrings(sorted, id)
	return i < len(sorted) && sorted[i] == id
}
