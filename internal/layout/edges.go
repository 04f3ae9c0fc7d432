package layout

import (
	"fmt"
	"strconv"

	"github.com/npratt/phasegraph/internal/graph"
)

// Curve is a cubic Bezier segment.
type Curve struct {
	Start    Point
	Control1 Point
	Control2 Point
	End      Point
}

// Edge is the drawn connection from a parent to a child.
type Edge struct {
	ParentID string
	ChildID  string
	Curve    Curve
}

// Key identifies the edge for stable rendering.
func (e Edge) Key() string {
	return e.ParentID + "-" + e.ChildID
}

// Resolver returns the top-left corner of a node, if it has one.
type Resolver interface {
	Position(id string) (Point, bool)
}

// Edges builds the curve for every parent/child pair whose endpoints both
// resolve. Dangling parent ids and unplaced nodes produce no edge.
func Edges(nodes []graph.Node, positions Resolver, m Metrics) []Edge {
	var edges []Edge
	for _, child := range nodes {
		childPos, ok := positions.Position(child.ID)
		if !ok {
			continue
		}
		for _, parentID := range child.ParentIDs {
			parentPos, ok := positions.Position(parentID)
			if !ok {
				continue
			}
			edges = append(edges, Edge{
				ParentID: parentID,
				ChildID:  child.ID,
				Curve:    Connect(parentPos, childPos, m),
			})
		}
	}
	return edges
}

// Connect returns the curve from the right-centre of the parent box to the
// left-centre of the child box. Both control points sit at the horizontal
// midpoint, giving a horizontal tangent at each end.
func Connect(parent, child Point, m Metrics) Curve {
	start := Point{X: parent.X + m.NodeWidth, Y: parent.Y + m.NodeHeight/2}
	end := Point{X: child.X, Y: child.Y + m.NodeHeight/2}
	midX := start.X + (end.X-start.X)*0.5
	return Curve{
		Start:    start,
		Control1: Point{X: midX, Y: start.Y},
		Control2: Point{X: midX, Y: end.Y},
		End:      end,
	}
}

// At evaluates the curve at t in [0, 1].
func (c Curve) At(t float64) Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	d := 3 * u * t * t
	e := t * t * t
	return Point{
		X: a*c.Start.X + b*c.Control1.X + d*c.Control2.X + e*c.End.X,
		Y: a*c.Start.Y + b*c.Control1.Y + d*c.Control2.Y + e*c.End.Y,
	}
}

// Sample returns n+1 evenly spaced points from Start to End.
func (c Curve) Sample(n int) []Point {
	if n < 1 {
		n = 1
	}
	pts := make([]Point, 0, n+1)
	for i := 0; i <= n; i++ {
		pts = append(pts, c.At(float64(i)/float64(n)))
	}
	return pts
}

// Path renders the curve as SVG path data.
func (c Curve) Path() string {
	return fmt.Sprintf("M %s %s C %s %s, %s %s, %s %s",
		num(c.Start.X), num(c.Start.Y),
		num(c.Control1.X), num(c.Control1.Y),
		num(c.Control2.X), num(c.Control2.Y),
		num(c.End.X), num(c.End.Y))
}

// num formats a coordinate without trailing zeros.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
