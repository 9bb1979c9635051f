package schema

import (
	"slices"
	"strings"
)

// Series is one value series of a chart. Values line up with the chart labels
// starting at Offset.
type Series struct {
	Label  string    `json:"label"`
	Color  string    `json:"color,omitempty"`
	Colors []string  `json:"colors,omitempty"` // per-point palette, used by bar charts
	Values []float64 `json:"values"`
	Offset int       `json:"offset,omitempty"`
	Scale  float64   `json:"scale,omitempty"` // display multiplier, zero means none
}

// Display returns the i-th value as it should be shown.
func (s Series) Display(i int) float64 {
	if s.Scale == 0 {
		return s.Values[i]
	}
	return s.Values[i] * s.Scale
}

// At returns the value at label index i and whether the series covers it.
func (s Series) At(i int) (float64, bool) {
	j := i - s.Offset
	if j < 0 || j >= len(s.Values) {
		return 0, false
	}
	return s.Values[j], true
}

// RenderState is the label/series form a chart widget holds.
type RenderState struct {
	Kind   ChartKind `json:"kind"`
	Type   ChartType `json:"type"`
	Labels []string  `json:"labels"`
	Series []Series  `json:"series"`
}

// Shape identifies the structure of a chart independent of its values.
type Shape struct {
	Type   ChartType
	Series string
}

// Shape returns the structural shape: chart type plus series identities.
func (r RenderState) Shape() Shape {
	names := make([]string, len(r.Series))
	for i, s := range r.Series {
		names[i] = s.Label
	}
	return Shape{Type: r.Type, Series: strings.Join(names, "\x1f")}
}

// Clone returns a deep copy.
func (r RenderState) Clone() RenderState {
	out := RenderState{Kind: r.Kind, Type: r.Type, Labels: slices.Clone(r.Labels)}
	if r.Series != nil {
		out.Series = make([]Series, len(r.Series))
		for i, s := range r.Series {
			s.Values = slices.Clone(s.Values)
			s.Colors = slices.Clone(s.Colors)
			out.Series[i] = s
		}
	}
	return out
}
