package layout

import "github.com/npratt/phasegraph/internal/graph"

// Scene layers manual overrides over a computed layout. The computed result is
// never modified; an override simply wins for its node.
type Scene struct {
	Layout    Result
	Overrides map[string]Point
	order     []string
}

// NewScene builds a scene for nodes. Overrides for ids without a computed
// position are ignored so they cannot resurrect removed nodes.
func NewScene(nodes []graph.Node, computed Result, overrides map[string]Point) Scene {
	s := Scene{
		Layout:    computed,
		Overrides: make(map[string]Point, len(overrides)),
		order:     make([]string, 0, len(nodes)),
	}
	for _, n := range nodes {
		if _, ok := computed.Positions[n.ID]; !ok {
			continue
		}
		s.order = append(s.order, n.ID)
		if p, ok := overrides[n.ID]; ok {
			s.Overrides[n.ID] = p
		}
	}
	return s
}

// Position returns the effective top-left corner of a node.
func (s Scene) Position(id string) (Point, bool) {
	if p, ok := s.Overrides[id]; ok {
		return p, true
	}
	return s.Layout.Position(id)
}

// Overridden reports whether the node has a manual position.
func (s Scene) Overridden(id string) bool {
	_, ok := s.Overrides[id]
	return ok
}

// DrawOrder returns node ids in the order they are painted.
func (s Scene) DrawOrder() []string {
	return append([]string(nil), s.order...)
}

// NodeAt returns the topmost node whose box contains p, together with that
// node's top-left corner.
func (s Scene) NodeAt(p Point) (string, Point, bool) {
	m := s.Layout.Metrics
	for i := len(s.order) - 1; i >= 0; i-- {
		id := s.order[i]
		pos, ok := s.Position(id)
		if !ok {
			continue
		}
		if p.X >= pos.X && p.X < pos.X+m.NodeWidth && p.Y >= pos.Y && p.Y < pos.Y+m.NodeHeight {
			return id, pos, true
		}
	}
	return "", Point{}, false
}

// Edges returns the edges between nodes as currently placed.
func (s Scene) Edges(nodes []graph.Node) []Edge {
	return Edges(nodes, s, s.Layout.Metrics)
}

// Bounds returns the canvas size needed to show every node, growing the
// computed canvas when overrides push nodes past its edges.
func (s Scene) Bounds() (float64, float64) {
	w, h := s.Layout.Width, s.Layout.Height
	m := s.Layout.Metrics
	for _, p := range s.Overrides {
		w = max(w, p.X+m.NodeWidth+m.Padding)
		h = max(h, p.Y+m.NodeHeight+m.Padding)
	}
	return w, h
}
