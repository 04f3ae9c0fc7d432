package layout

import (
	"github.com/npratt/phasegraph/internal/graph"
)

// Point is a 2-D coordinate. For node positions it is the top-left corner.
type Point struct {
	X float64
	Y float64
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Column is one phase rendered as a vertical stack of nodes.
type Column struct {
	Phase   int
	Index   int      // 0-based rank among present phases
	X       float64  // left edge of every node in the column
	NodeIDs []string // top to bottom, insertion order
}

// Result is the computed layout for a node collection.
type Result struct {
	Metrics   Metrics
	Columns   []Column
	Positions map[string]Point
	Width     float64
	Height    float64
}

// Empty reports whether the layout has no nodes.
func (r Result) Empty() bool {
	return len(r.Positions) == 0
}

// Position returns the computed top-left corner for a node.
func (r Result) Position(id string) (Point, bool) {
	p, ok := r.Positions[id]
	return p, ok
}

// Compute lays out nodes grouped by phase. Phases become columns in ascending
// order; each column is vertically centred on the tallest one. The result is a
// pure function of the grouping (including within-phase order) and metrics.
func Compute(groups map[int][]graph.Node, m Metrics) Result {
	result := Result{
		Metrics:   m,
		Positions: make(map[string]Point),
	}

	phases := graph.SortedPhases(groups)
	if len(phases) == 0 {
		return result
	}

	maxNodes := 1
	for _, p := range phases {
		if n := len(groups[p]); n > maxNodes {
			maxNodes = n
		}
	}
	height := float64(maxNodes)*m.rowStride() + 2*m.Padding

	for idx, phase := range phases {
		nodes := groups[phase]
		x := float64(idx)*m.columnStride() + m.PhaseGap/2 + m.Padding
		blockHeight := float64(len(nodes))*m.rowStride() - m.VerticalGap
		offsetY := (height - blockHeight) / 2

		col := Column{Phase: phase, Index: idx, X: x, NodeIDs: make([]string, 0, len(nodes))}
		for i, n := range nodes {
			result.Positions[n.ID] = Point{X: x, Y: offsetY + float64(i)*m.rowStride()}
			col.NodeIDs = append(col.NodeIDs, n.ID)
		}
		result.Columns = append(result.Columns, col)
	}

	width := float64(len(phases))*m.columnStride() - m.PhaseGap + 2*m.Padding
	result.Width = max(m.MinWidth, width)
	result.Height = max(m.MinHeight, height)
	return result
}

// ComputeNodes is a convenience wrapper that groups nodes before computing.
func ComputeNodes(nodes []graph.Node, m Metrics) Result {
	return Compute(graph.GroupByPhase(nodes), m)
}
