package adapter

import (
	"fmt"

	"github.com/huangsam/climdash/core/shape"
	"github.com/huangsam/climdash/schema"
)

// Temperature series labels and colors.
const (
	HistoricalLabel = "Historical"
	PredictedLabel  = "Predicted"
	HistoricalColor = "rgb(75, 192, 192)"
	PredictedColor  = "rgb(255, 99, 132)"
)

// TemperatureToRenderState draws a temperature path as two line series on one
// year axis. Points up to schema.HistoricalCutoffYear are historical, later ones
// predicted. Both series are always present, either may be empty.
func TemperatureToRenderState(points []schema.TemperaturePoint) (schema.RenderState, error) {
	if err := shape.CheckTemperature(schema.TemperatureChart, points); err != nil {
		return schema.RenderState{}, err
	}
	split := 0
	for split < len(points) && points[split].Year <= schema.HistoricalCutoffYear {
		split++
	}
	historical := make([]float64, split)
	predicted := make([]float64, len(points)-split)
	for i, p := range points {
		if i < split {
			historical[i] = p.Temperature
		} else {
			predicted[i-split] = p.Temperature
		}
	}
	return schema.RenderState{
		Kind:   schema.TemperatureChart,
		Type:   schema.LineChart,
		Labels: yearLabels(len(points), func(i int) int { return points[i].Year }),
		Series: []schema.Series{
			{Label: HistoricalLabel, Color: HistoricalColor, Values: historical},
			{Label: PredictedLabel, Color: PredictedColor, Values: predicted, Offset: split},
		},
	}, nil
}

// TemperatureFromRenderState rebuilds the temperature path from both series.
func TemperatureFromRenderState(state schema.RenderState) ([]schema.TemperaturePoint, error) {
	if state.Type != schema.LineChart || len(state.Series) != 2 {
		return nil, fmt.Errorf("temperature chart must be a line chart with 2 series, got %s with %d", state.Type, len(state.Series))
	}
	years, err := parseYears(state.Kind, state.Labels)
	if err != nil {
		return nil, err
	}
	hist, pred := state.Series[0], state.Series[1]
	if hist.Offset != 0 || pred.Offset != len(hist.Values) || len(hist.Values)+len(pred.Values) != len(years) {
		return nil, fmt.Errorf("temperature series do not tile the %d labels", len(years))
	}
	points := make([]schema.TemperaturePoint, len(years))
	for i, year := range years {
		v, ok := hist.At(i)
		if !ok {
			v, _ = pred.At(i)
		}
		points[i] = schema.TemperaturePoint{Year: year, Temperature: v}
	}
	return points, nil
}
