package tui

import (
	"math"
	"strings"

	"github.com/npratt/phasegraph/internal/graph"
	"github.com/npratt/phasegraph/internal/layout"
)

// viewport is the scroll offset of the canvas, in cells.
type viewport struct {
	OffsetX int
	OffsetY int
}

// canvasState is everything the canvas needs to draw one frame.
type canvasState struct {
	nodes    []graph.Node
	scene    layout.Scene
	selected string
	dragging string
	viewport viewport
}

// renderCanvas draws the scene into a width x height block of text.
func renderCanvas(s canvasState, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	if s.scene.Layout.Empty() {
		return renderEmpty(width, height)
	}

	grid := newGrid(width, height)

	// Edges first so nodes draw on top
	for _, e := range s.scene.Edges(s.nodes) {
		renderEdge(grid, e.Curve, s.viewport)
	}

	byID := make(map[string]graph.Node, len(s.nodes))
	for _, n := range s.nodes {
		byID[n.ID] = n
	}
	m := s.scene.Layout.Metrics
	for _, id := range s.scene.DrawOrder() {
		pos, ok := s.scene.Position(id)
		if !ok {
			continue
		}
		x := cell(pos.X) - s.viewport.OffsetX
		y := cell(pos.Y) - s.viewport.OffsetY
		renderNode(grid, byID[id], x, y, cell(m.NodeWidth), cell(m.NodeHeight), boxFor(id, s))
	}

	return grid.String()
}

// renderEmpty renders a placeholder for an empty graph.
func renderEmpty(width, height int) string {
	msgs := []string{"No nodes yet", "fill in the form and press enter"}
	var lines []string
	midY := height/2 - 1
	for y := 0; y < height; y++ {
		line := ""
		if i := y - midY; i >= 0 && i < len(msgs) {
			line = msgs[i]
			if len(line) > width {
				line = line[:width]
			}
			line = strings.Repeat(" ", (width-len(line))/2) + line
		}
		if len(line) < width {
			line += strings.Repeat(" ", width-len(line))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// boxChars are the corner and side runes of a node box.
type boxChars struct {
	tl, tr, bl, br, h, v rune
}

var (
	boxPlain    = boxChars{'╭', '╮', '╰', '╯', '─', '│'}
	boxSelected = boxChars{'╔', '╗', '╚', '╝', '═', '║'}
	boxDragging = boxChars{'┏', '┓', '┗', '┛', '━', '┃'}
)

func boxFor(id string, s canvasState) boxChars {
	switch id {
	case s.dragging:
		return boxDragging
	case s.selected:
		return boxSelected
	default:
		return boxPlain
	}
}

// renderNode draws a node box with its name and a tag line.
func renderNode(grid *charGrid, n graph.Node, x, y, w, h int, b boxChars) {
	if w < 2 || h < 2 {
		return
	}
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			r := ' '
			switch {
			case dy == 0 && dx == 0:
				r = b.tl
			case dy == 0 && dx == w-1:
				r = b.tr
			case dy == h-1 && dx == 0:
				r = b.bl
			case dy == h-1 && dx == w-1:
				r = b.br
			case dy == 0 || dy == h-1:
				r = b.h
			case dx == 0 || dx == w-1:
				r = b.v
			}
			grid.writeRune(x+dx, y+dy, r)
		}
	}

	inner := w - 4
	if inner <= 0 || h < 3 {
		return
	}
	grid.writeString(x+2, y+1, truncate(n.Name, inner))
	if h >= 4 {
		grid.writeString(x+2, y+2, truncate(tagLine(n), inner))
	}
}

// tagLine summarises phase and categories, e.g. "P2 STR SCO".
func tagLine(n graph.Node) string {
	parts := []string{"P" + itoa(n.Phase)}
	for _, c := range n.Categories {
		parts = append(parts, categoryAbbrev(c))
	}
	return strings.Join(parts, " ")
}

func categoryAbbrev(c graph.Category) string {
	s := strings.ToUpper(string(c))
	if len(s) > 3 {
		s = s[:3]
	}
	return s
}

// renderEdge plots a sampled cubic curve and an arrowhead before the child.
func renderEdge(grid *charGrid, c layout.Curve, vp viewport) {
	steps := int(math.Abs(c.End.X-c.Start.X)+math.Abs(c.End.Y-c.Start.Y)) * 2
	pts := c.Sample(max(steps, 4))

	for i := 0; i < len(pts)-1; i++ {
		x := cell(pts[i].X) - vp.OffsetX
		y := cell(pts[i].Y) - vp.OffsetY
		dx := pts[i+1].X - pts[i].X
		dy := pts[i+1].Y - pts[i].Y
		grid.writeRuneIfBlank(x, y, edgeRune(dx, dy))
	}

	end := pts[len(pts)-1]
	grid.writeRune(cell(end.X)-1-vp.OffsetX, cell(end.Y)-vp.OffsetY, '▶')
}

// edgeRune picks a line character for a segment direction. Screen y grows
// downwards.
func edgeRune(dx, dy float64) rune {
	ax, ay := math.Abs(dx), math.Abs(dy)
	switch {
	case ax >= 2*ay:
		return '─'
	case ay >= 2*ax:
		return '│'
	case (dx > 0) == (dy > 0):
		return '╲'
	default:
		return '╱'
	}
}

// cell converts a layout coordinate to a grid index.
func cell(v float64) int {
	return int(math.Round(v))
}

// charGrid is a 2D character grid for rendering.
type charGrid struct {
	width  int
	height int
	cells  [][]rune
}

// newGrid creates a new character grid filled with spaces.
func newGrid(width, height int) *charGrid {
	cells := make([][]rune, height)
	for y := 0; y < height; y++ {
		cells[y] = make([]rune, width)
		for x := 0; x < width; x++ {
			cells[y][x] = ' '
		}
	}
	return &charGrid{
		width:  width,
		height: height,
		cells:  cells,
	}
}

// writeRune writes a single rune at the given position.
func (g *charGrid) writeRune(x, y int, r rune) {
	if x >= 0 && x < g.width && y >= 0 && y < g.height {
		g.cells[y][x] = r
	}
}

// writeRuneIfBlank writes r only over empty space so crossing edges keep the
// first character drawn.
func (g *charGrid) writeRuneIfBlank(x, y int, r rune) {
	if x >= 0 && x < g.width && y >= 0 && y < g.height && g.cells[y][x] == ' ' {
		g.cells[y][x] = r
	}
}

// writeString writes a string starting at the given position.
func (g *charGrid) writeString(x, y int, s string) {
	i := 0
	for _, r := range s {
		g.writeRune(x+i, y, r)
		i++
	}
}

// String converts the grid to a string.
func (g *charGrid) String() string {
	lines := make([]string, 0, len(g.cells))
	for _, row := range g.cells {
		lines = append(lines, string(row))
	}
	return strings.Join(lines, "\n")
}
