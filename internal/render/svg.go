// Package render draws a laid-out graph as a standalone SVG document.
package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"

	"github.com/npratt/phasegraph/internal/graph"
	"github.com/npratt/phasegraph/internal/layout"
)

// Palette holds the fill and text colour of a category pill.
type Palette struct {
	Background string
	Text       string
}

// CategoryPalette maps each category to its pill colours.
var CategoryPalette = map[graph.Category]Palette{
	graph.CategoryStrategy: {Background: "#dbeafe", Text: "#1e40af"},
	graph.CategoryCreation: {Background: "#d1fae5", Text: "#065f46"},
	graph.CategoryScore:    {Background: "#fef9c3", Text: "#854d0e"},
}

const (
	edgeColor   = "#6366f1"
	borderColor = "#cbd5e1"
	nameColor   = "#1e293b"

	pillGap      = 4
	pillCharW    = 6.5
	pillPadding  = 12
	contentInset = 8
)

type pill struct {
	X, Width float64
	Label    string
	Palette
}

type nodeView struct {
	ID    string
	Name  string
	Title string
	X, Y  float64
	Pills []pill
}

type edgeView struct {
	Key  string
	Path string
}

type document struct {
	Width, Height float64
	NodeWidth     float64
	NodeHeight    float64
	Empty         bool
	Edges         []edgeView
	Nodes         []nodeView
}

var svgTemplate = template.Must(template.New("svg").Funcs(template.FuncMap{
	"num":    num,
	"esc":    escape,
	"half":   func(v float64) float64 { return v / 2 },
	"center": func(x, w float64) float64 { return x + w/2 },
}).Parse(`<svg xmlns="http://www.w3.org/2000/svg" width="{{num .Width}}" height="{{num .Height}}" font-family="sans-serif">
  <defs>
    <marker id="arrowhead" viewBox="0 0 10 10" refX="8" refY="5" markerWidth="6" markerHeight="6" orient="auto-start-reverse">
      <path d="M 0 0 L 10 5 L 0 10 z" fill="` + edgeColor + `"/>
    </marker>
  </defs>
{{- if .Empty}}
  <text x="{{num (half .Width)}}" y="{{num (half .Height)}}" text-anchor="middle" fill="#64748b">No nodes yet</text>
{{- end}}
  <g class="edges">
{{- range .Edges}}
    <path data-edge="{{esc .Key}}" d="{{.Path}}" stroke="` + edgeColor + `" stroke-width="2" fill="none" marker-end="url(#arrowhead)"/>
{{- end}}
  </g>
  <g class="nodes">
{{- range .Nodes}}
    <g data-node="{{esc .ID}}" transform="translate({{num .X}}, {{num .Y}})">
      <rect width="{{num $.NodeWidth}}" height="{{num $.NodeHeight}}" rx="8" fill="white" stroke="` + borderColor + `" stroke-width="2"/>
      <text x="8" y="20" font-size="14" font-weight="600" fill="` + nameColor + `">{{esc .Name}}</text>
{{- range .Pills}}
      <rect x="{{num .X}}" y="30" width="{{num .Width}}" height="18" rx="9" fill="{{.Background}}"/>
      <text x="{{num (center .X .Width)}}" y="43" font-size="11" font-weight="500" text-anchor="middle" fill="{{.Text}}">{{esc .Label}}</text>
{{- end}}
      <title>{{esc .Title}}</title>
    </g>
{{- end}}
  </g>
</svg>
`))

// SVG writes nodes laid out with pixel metrics to w. Overrides replace the
// computed position of individual nodes, exactly as on the interactive canvas.
func SVG(w io.Writer, nodes []graph.Node, overrides map[string]layout.Point) error {
	m := layout.PixelMetrics()
	scene := layout.NewScene(nodes, layout.ComputeNodes(nodes, m), overrides)
	return WriteScene(w, nodes, scene)
}

// WriteScene writes an already built scene to w.
func WriteScene(w io.Writer, nodes []graph.Node, scene layout.Scene) error {
	m := scene.Layout.Metrics
	width, height := scene.Bounds()
	doc := document{
		Width:      max(width, m.MinWidth),
		Height:     max(height, m.MinHeight),
		NodeWidth:  m.NodeWidth,
		NodeHeight: m.NodeHeight,
		Empty:      scene.Layout.Empty(),
	}

	for _, e := range scene.Edges(nodes) {
		doc.Edges = append(doc.Edges, edgeView{Key: e.Key(), Path: e.Curve.Path()})
	}

	byID := make(map[string]graph.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	for _, id := range scene.DrawOrder() {
		pos, _ := scene.Position(id)
		n := byID[id]
		doc.Nodes = append(doc.Nodes, nodeView{
			ID:    n.ID,
			Name:  n.Name,
			Title: title(n),
			X:     pos.X,
			Y:     pos.Y,
			Pills: pills(n.Categories),
		})
	}

	var buf bytes.Buffer
	if err := svgTemplate.Execute(&buf, doc); err != nil {
		return fmt.Errorf("render svg: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

// String renders nodes to an SVG string.
func String(nodes []graph.Node, overrides map[string]layout.Point) (string, error) {
	var sb strings.Builder
	if err := SVG(&sb, nodes, overrides); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func pills(cats []graph.Category) []pill {
	out := make([]pill, 0, len(cats))
	x := float64(contentInset)
	for _, c := range cats {
		pal, ok := CategoryPalette[c]
		if !ok {
			continue
		}
		w := float64(len(c))*pillCharW + pillPadding
		out = append(out, pill{X: x, Width: w, Label: string(c), Palette: pal})
		x += w + pillGap
	}
	return out
}

func title(n graph.Node) string {
	if len(n.Categories) == 0 {
		return n.Name
	}
	labels := make([]string, len(n.Categories))
	for i, c := range n.Categories {
		labels[i] = string(c)
	}
	return fmt.Sprintf("%s [%s]", n.Name, strings.Join(labels, ", "))
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
