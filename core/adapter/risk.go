package adapter

import (
	"fmt"
	"slices"

	"github.com/huangsam/climdash/schema"
)

// Risk series presentation.
const (
	RiskLabel = "Risk Metrics"
	RiskColor = "rgb(255, 99, 132)"
)

// RiskAxes are the radar axes of the core risk record, in order.
var RiskAxes = []string{"Mean Temperature", "VaR 95", "Max Temperature"}

// ExtendedRiskAxes are the bar axes of the extended risk record, in order.
var ExtendedRiskAxes = []string{"Mean Temperature", "VaR 95", "Max Temperature", "Economic Impact", "Adaptation Cost"}

// RiskToRenderState draws the core record as a 3-axis radar and the extended
// record as a 5-axis bar chart.
func RiskToRenderState(m schema.RiskMetrics) (schema.RenderState, error) {
	if (m.EconomicImpact == nil) != (m.AdaptationCost == nil) {
		return schema.RenderState{}, schema.NewShapeError(schema.RiskChart, schema.ErrMissingRiskField, "economic_impact and adaptation_cost must be given together")
	}
	state := schema.RenderState{
		Kind:   schema.RiskChart,
		Type:   schema.RadarChart,
		Labels: slices.Clone(RiskAxes),
		Series: []schema.Series{{
			Label:  RiskLabel,
			Color:  RiskColor,
			Values: []float64{m.MeanTemperature, m.VaR95, m.MaxTemperature},
		}},
	}
	if m.Extended() {
		state.Type = schema.BarChart
		state.Labels = slices.Clone(ExtendedRiskAxes)
		state.Series[0].Values = append(state.Series[0].Values, *m.EconomicImpact, *m.AdaptationCost)
	}
	return state, nil
}

// RiskFromRenderState reads the risk record back. The axis labels must match
// the declared list for the chart type exactly.
func RiskFromRenderState(state schema.RenderState) (schema.RiskMetrics, error) {
	axes := RiskAxes
	if state.Type == schema.BarChart {
		axes = ExtendedRiskAxes
	}
	if !slices.Equal(state.Labels, axes) {
		return schema.RiskMetrics{}, fmt.Errorf("risk %s chart has axes %v, want %v", state.Type, state.Labels, axes)
	}
	s, err := singleSeries(state, state.Type)
	if err != nil {
		return schema.RiskMetrics{}, err
	}
	if state.Type != schema.RadarChart && state.Type != schema.BarChart {
		return schema.RiskMetrics{}, fmt.Errorf("risk chart cannot be a %s chart", state.Type)
	}
	m := schema.RiskMetrics{MeanTemperature: s.Values[0], VaR95: s.Values[1], MaxTemperature: s.Values[2]}
	if len(s.Values) == len(ExtendedRiskAxes) {
		impact, cost := s.Values[3], s.Values[4]
		m.EconomicImpact, m.AdaptationCost = &impact, &cost
	}
	return m, nil
}
