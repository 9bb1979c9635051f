package adapter

import (
	"github.com/huangsam/climdash/core/shape"
	"github.com/huangsam/climdash/schema"
)

// DefaultScenarioColor is used for scenario names without an assigned color.
const DefaultScenarioColor = "rgb(201, 203, 207)"

var scenarioColors = map[string]string{
	schema.BaselineScenario:    "rgb(75, 192, 192)",
	schema.OptimisticScenario:  "rgb(54, 162, 235)",
	schema.PessimisticScenario: "rgb(255, 99, 132)",
}

// ScenarioColor returns the stable color of a scenario name.
func ScenarioColor(name string) string {
	if c, ok := scenarioColors[name]; ok {
		return c
	}
	return DefaultScenarioColor
}

// ScenarioToRenderState draws one line series per scenario on the shared year
// axis. Series follow the insertion order of the set.
func ScenarioToRenderState(set *schema.ScenarioSet) (schema.RenderState, error) {
	if err := shape.CheckScenario(set); err != nil {
		return schema.RenderState{}, err
	}
	var state schema.RenderState
	for name, points := range set.All() {
		if state.Labels == nil {
			state.Labels = yearLabels(len(points), func(i int) int { return points[i].Year })
		}
		values := make([]float64, len(points))
		for i, p := range points {
			values[i] = p.Temperature
		}
		state.Series = append(state.Series, schema.Series{Label: name, Color: ScenarioColor(name), Values: values})
	}
	state.Kind = schema.ScenarioChart
	state.Type = schema.LineChart
	return state, nil
}

// ScenarioFromRenderState rebuilds the scenario set in series order.
func ScenarioFromRenderState(state schema.RenderState) (*schema.ScenarioSet, error) {
	years, err := parseYears(state.Kind, state.Labels)
	if err != nil {
		return nil, err
	}
	set := schema.NewOrdered[[]schema.TemperaturePoint]()
	for _, s := range state.Series {
		if s.Offset != 0 || len(s.Values) != len(years) {
			return nil, schema.NewShapeError(schema.ScenarioChart, schema.ErrScenarioAxisMismatch,
				"series %q covers %d of %d labels", s.Label, len(s.Values), len(years))
		}
		points := make([]schema.TemperaturePoint, len(years))
		for i, year := range years {
			points[i] = schema.TemperaturePoint{Year: year, Temperature: s.Values[i]}
		}
		set.Set(s.Label, points)
	}
	if err := shape.CheckScenario(set); err != nil {
		return nil, err
	}
	return set, nil
}
