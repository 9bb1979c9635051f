// Package adapter converts domain datasets into chart render state and back.
//
// Every adapter is a pair of pure functions. Decoding a state produced by the
// matching encoder yields the original domain value, and encoding a decoded
// state yields the original state.
package adapter

import (
	"fmt"
	"strconv"

	"github.com/huangsam/climdash/schema"
)

// Codec converts one chart kind between domain and render form.
type Codec interface {
	Kind() schema.ChartKind
	Encode(domain any) (schema.RenderState, error)
	Decode(state schema.RenderState) (any, error)
}

type codec[T any] struct {
	kind schema.ChartKind
	to   func(T) (schema.RenderState, error)
	from func(schema.RenderState) (T, error)
}

func (c codec[T]) Kind() schema.ChartKind { return c.kind }

func (c codec[T]) Encode(domain any) (schema.RenderState, error) {
	v, ok := domain.(T)
	if !ok {
		return schema.RenderState{}, fmt.Errorf("%s adapter cannot encode %T", c.kind, domain)
	}
	return c.to(v)
}

func (c codec[T]) Decode(state schema.RenderState) (any, error) {
	if state.Kind != c.kind {
		return nil, fmt.Errorf("%s adapter cannot decode %s state", c.kind, state.Kind)
	}
	return c.from(state)
}

var codecs = map[schema.ChartKind]Codec{
	schema.TemperatureChart: codec[[]schema.TemperaturePoint]{schema.TemperatureChart, TemperatureToRenderState, TemperatureFromRenderState},
	schema.EconomicChart:    codec[[]schema.EconomicPoint]{schema.EconomicChart, EconomicToRenderState, EconomicFromRenderState},
	schema.RiskChart:        codec[schema.RiskMetrics]{schema.RiskChart, RiskToRenderState, RiskFromRenderState},
	schema.ScenarioChart:    codec[*schema.ScenarioSet]{schema.ScenarioChart, ScenarioToRenderState, ScenarioFromRenderState},
	schema.SensitivityChart: codec[*schema.SensitivityMap]{schema.SensitivityChart, SensitivityToRenderState, SensitivityFromRenderState},
}

// For returns the codec of a chart kind.
func For(kind schema.ChartKind) (Codec, error) {
	c, ok := codecs[kind]
	if !ok {
		return nil, fmt.Errorf("no adapter for chart kind %q", kind)
	}
	return c, nil
}

// ToRenderState encodes a domain value for kind.
func ToRenderState(kind schema.ChartKind, domain any) (schema.RenderState, error) {
	c, err := For(kind)
	if err != nil {
		return schema.RenderState{}, err
	}
	return c.Encode(domain)
}

// FromRenderState decodes the domain value of a render state.
func FromRenderState(state schema.RenderState) (any, error) {
	c, err := For(state.Kind)
	if err != nil {
		return nil, err
	}
	return c.Decode(state)
}

func yearLabels(n int, year func(int) int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = strconv.Itoa(year(i))
	}
	return labels
}

func parseYears(kind schema.ChartKind, labels []string) ([]int, error) {
	years := make([]int, len(labels))
	for i, label := range labels {
		y, err := strconv.Atoi(label)
		if err != nil {
			return nil, fmt.Errorf("%s label %q is not a year: %w", kind, label, schema.ErrParse)
		}
		years[i] = y
	}
	return years, nil
}

func singleSeries(state schema.RenderState, want schema.ChartType) (schema.Series, error) {
	if state.Type != want {
		return schema.Series{}, fmt.Errorf("%s chart has type %s, want %s", state.Kind, state.Type, want)
	}
	if len(state.Series) != 1 {
		return schema.Series{}, fmt.Errorf("%s chart has %d series, want 1", state.Kind, len(state.Series))
	}
	s := state.Series[0]
	if s.Offset != 0 || len(s.Values) != len(state.Labels) {
		return schema.Series{}, fmt.Errorf("%s series covers %d of %d labels", state.Kind, len(s.Values), len(state.Labels))
	}
	return s, nil
}
