package adapter

import (
	"github.com/huangsam/climdash/core/shape"
	"github.com/huangsam/climdash/schema"
)

// SensitivityLabel names the sensitivity bar series.
const SensitivityLabel = "Sensitivity"

// SensitivityPalette colors the sensitivity bars in order, repeating as needed.
var SensitivityPalette = []string{
	"rgba(255, 99, 132, 0.6)",
	"rgba(54, 162, 235, 0.6)",
	"rgba(255, 206, 86, 0.6)",
	"rgba(75, 192, 192, 0.6)",
}

// SensitivityToRenderState draws one bar per factor in insertion order.
func SensitivityToRenderState(m *schema.SensitivityMap) (schema.RenderState, error) {
	if err := shape.CheckSensitivity(m); err != nil {
		return schema.RenderState{}, err
	}
	colors := make([]string, m.Len())
	for i := range colors {
		colors[i] = SensitivityPalette[i%len(SensitivityPalette)]
	}
	return schema.RenderState{
		Kind:   schema.SensitivityChart,
		Type:   schema.BarChart,
		Labels: m.Keys(),
		Series: []schema.Series{{Label: SensitivityLabel, Colors: colors, Values: m.Values()}},
	}, nil
}

// SensitivityFromRenderState reads the factors back in label order.
func SensitivityFromRenderState(state schema.RenderState) (*schema.SensitivityMap, error) {
	s, err := singleSeries(state, schema.BarChart)
	if err != nil {
		return nil, err
	}
	m := schema.NewOrdered[float64]()
	for i, label := range state.Labels {
		m.Set(label, s.Values[i])
	}
	return m, nil
}
