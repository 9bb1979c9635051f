package adapter

import (
	"github.com/huangsam/climdash/schema"
)

// Economic series presentation.
const (
	EconomicLabel = "GDP Impact (%)"
	EconomicColor = "rgba(75, 192, 192, 0.6)"
	PercentScale  = 100
)

// EconomicToRenderState draws GDP impact as one bar series. Values stay
// fractional; the series declares a percent display scale.
func EconomicToRenderState(points []schema.EconomicPoint) (schema.RenderState, error) {
	if len(points) == 0 {
		return schema.RenderState{}, &schema.ShapeError{Kind: schema.EconomicChart, Err: schema.ErrEmptySeries}
	}
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.GDPImpact
	}
	return schema.RenderState{
		Kind:   schema.EconomicChart,
		Type:   schema.BarChart,
		Labels: yearLabels(len(points), func(i int) int { return points[i].Year }),
		Series: []schema.Series{{Label: EconomicLabel, Color: EconomicColor, Values: values, Scale: PercentScale}},
	}, nil
}

// EconomicFromRenderState reads the fractional impacts back out.
func EconomicFromRenderState(state schema.RenderState) ([]schema.EconomicPoint, error) {
	s, err := singleSeries(state, schema.BarChart)
	if err != nil {
		return nil, err
	}
	years, err := parseYears(state.Kind, state.Labels)
	if err != nil {
		return nil, err
	}
	points := make([]schema.EconomicPoint, len(years))
	for i, year := range years {
		points[i] = schema.EconomicPoint{Year: year, GDPImpact: s.Values[i]}
	}
	return points, nil
}
