// Package layout computes deterministic phase-column positions for graph
// nodes and the cubic edge geometry between parents and children.
package layout

// Metrics holds the dimensions the layout is computed in. Units are whatever
// the renderer uses: pixels for SVG, character cells for the terminal.
type Metrics struct {
	NodeWidth   float64 `mapstructure:"node_width" yaml:"node_width"`
	NodeHeight  float64 `mapstructure:"node_height" yaml:"node_height"`
	PhaseGap    float64 `mapstructure:"phase_gap" yaml:"phase_gap"`
	VerticalGap float64 `mapstructure:"vertical_gap" yaml:"vertical_gap"`
	Padding     float64 `mapstructure:"padding" yaml:"padding"`
	MinWidth    float64 `mapstructure:"min_width" yaml:"min_width"`
	MinHeight   float64 `mapstructure:"min_height" yaml:"min_height"`
}

// PixelMetrics returns the dimensions used for SVG output.
func PixelMetrics() Metrics {
	return Metrics{
		NodeWidth:   180,
		NodeHeight:  70,
		PhaseGap:    120,
		VerticalGap: 30,
		Padding:     100, // room to drag nodes past the outermost column
		MinWidth:    600,
		MinHeight:   400,
	}
}

// CellMetrics returns the dimensions used for the terminal canvas.
func CellMetrics() Metrics {
	return Metrics{
		NodeWidth:   22,
		NodeHeight:  4,
		PhaseGap:    10,
		VerticalGap: 1,
		Padding:     2,
		MinWidth:    0,
		MinHeight:   0,
	}
}

// columnStride is the horizontal distance between adjacent phase columns.
func (m Metrics) columnStride() float64 {
	return m.NodeWidth + m.PhaseGap
}

// rowStride is the vertical distance between adjacent nodes in a column.
func (m Metrics) rowStride() float64 {
	return m.NodeHeight + m.VerticalGap
}
