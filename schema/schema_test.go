package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestOrderedJSONKeepsInsertionOrder(t *testing.T) {
	input := `{"technology_sensitivity":0.2,"temperature_sensitivity":0.8,"adaptation_sensitivity":0.5}`

	var m SensitivityMap
	require.NoError(t, json.Unmarshal([]byte(input), &m))
	assert.Equal(t, []string{"technology_sensitivity", "temperature_sensitivity", "adaptation_sensitivity"}, m.Keys())
	assert.Equal(t, []float64{0.2, 0.8, 0.5}, m.Values())

	out, err := json.Marshal(&m)
	require.NoError(t, err)
	assert.Equal(t, input, string(out))
}

func TestOrderedSetReplacesInPlace(t *testing.T) {
	m := NewOrdered[float64]()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("a", 3)

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"a", "b"}, m.Keys())
	v, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)
}

func TestOrderedNilSafe(t *testing.T) {
	var m *SensitivityMap
	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.Keys())
	_, ok := m.Get("x")
	assert.False(t, ok)

	out, err := m.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))
}

func TestOrderedYAMLKeepsInsertionOrder(t *testing.T) {
	m := NewOrdered[float64]()
	m.Set("zeta", 1.5)
	m.Set("alpha", 2)

	out, err := yaml.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, "zeta: 1.5\nalpha: 2\n", string(out))
}

func TestEconomicPointAcceptsLegacyKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  EconomicPoint
	}{
		{"current key", `{"year":2030,"gdpImpact":-0.02}`, EconomicPoint{Year: 2030, GDPImpact: -0.02}},
		{"legacy key", `{"year":2040,"gdp":0.01}`, EconomicPoint{Year: 2040, GDPImpact: 0.01}},
		{"current wins", `{"year":2050,"gdp":9,"gdpImpact":0.03}`, EconomicPoint{Year: 2050, GDPImpact: 0.03}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p EconomicPoint
			require.NoError(t, json.Unmarshal([]byte(tt.input), &p))
			assert.Equal(t, tt.want, p)
		})
	}
}

func TestDatasetBundleSections(t *testing.T) {
	b := &DatasetBundle{}
	for _, kind := range AllChartKinds {
		assert.False(t, b.Has(kind), "empty bundle should not have %s", kind)
		assert.Nil(t, b.Section(kind))
	}

	risk := RiskMetrics{MeanTemperature: 1, VaR95: 2, MaxTemperature: 3}
	assert.True(t, b.SetSection(RiskChart, risk))
	assert.False(t, b.SetSection(TemperatureChart, risk), "wrong type for kind must be refused")
	assert.True(t, b.Has(RiskChart))
	assert.Equal(t, risk, b.Section(RiskChart))
}

func TestRawBundleSection(t *testing.T) {
	var raw RawBundle
	require.NoError(t, json.Unmarshal([]byte(`{"temperatureData":[{"year":2020}],"riskMetrics":null}`), &raw))

	assert.NotNil(t, raw.Section(TemperatureChart))
	assert.Nil(t, raw.Section(RiskChart), "null section counts as absent")
	assert.Nil(t, raw.Section(ScenarioChart))
	assert.Equal(t, []ChartKind{TemperatureChart}, raw.Present())
}

func TestRenderStateShape(t *testing.T) {
	a := RenderState{Type: LineChart, Labels: []string{"2020"}, Series: []Series{{Label: "baseline", Values: []float64{1}}}}
	b := RenderState{Type: LineChart, Labels: []string{"2030"}, Series: []Series{{Label: "baseline", Values: []float64{9}}}}
	c := RenderState{Type: LineChart, Series: []Series{{Label: "baseline"}, {Label: "optimistic"}}}
	d := RenderState{Type: BarChart, Series: []Series{{Label: "baseline"}}}

	assert.Equal(t, a.Shape(), b.Shape(), "values do not change shape")
	assert.NotEqual(t, a.Shape(), c.Shape(), "series identity changes shape")
	assert.NotEqual(t, a.Shape(), d.Shape(), "chart type changes shape")
}

func TestRenderStateClone(t *testing.T) {
	orig := RenderState{Labels: []string{"a"}, Series: []Series{{Label: "s", Values: []float64{1}, Colors: []string{"red"}}}}
	clone := orig.Clone()
	clone.Labels[0] = "b"
	clone.Series[0].Values[0] = 2
	clone.Series[0].Colors[0] = "blue"

	assert.Equal(t, "a", orig.Labels[0])
	assert.Equal(t, 1.0, orig.Series[0].Values[0])
	assert.Equal(t, "red", orig.Series[0].Colors[0])
}

func TestSeriesDisplayAndAt(t *testing.T) {
	s := Series{Values: []float64{0.02, 0.03}, Offset: 1, Scale: 100}
	assert.InDelta(t, 2.0, s.Display(0), 1e-9)

	_, ok := s.At(0)
	assert.False(t, ok)
	v, ok := s.At(2)
	assert.True(t, ok)
	assert.Equal(t, 0.03, v)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"shape", NewShapeError(ScenarioChart, ErrScenarioAxisMismatch, "length"), ShapeErrorKind},
		{"wrapped shape", fmt.Errorf("render: %w", &ShapeError{Kind: RiskChart, Err: ErrMissingRiskField}), ShapeErrorKind},
		{"target", fmt.Errorf("x: %w", ErrTargetNotFound), TargetNotFoundKind},
		{"http", &HTTPError{Endpoint: "/api/x", Status: 500}, HTTPErrorKind},
		{"timeout", fmt.Errorf("x: %w", ErrTimeout), TimeoutKind},
		{"deadline", context.DeadlineExceeded, TimeoutKind},
		{"processing over http", fmt.Errorf("%w: %w", ErrProcessingFailed, &HTTPError{Status: 500}), ProcessingFailedKind},
		{"parse", fmt.Errorf("bad: %w", ErrParse), ParseErrorKind},
		{"format", ErrUnsupportedFormat, UnsupportedFormatKind},
		{"stale", ErrStaleResponse, StaleKind},
		{"network", ErrNetwork, NetworkErrorKind},
		{"persistence", ErrPersistence, PersistenceKind},
		{"other", fmt.Errorf("boom"), UnknownKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestParseChartKind(t *testing.T) {
	kind, ok := ParseChartKind("scenario")
	assert.True(t, ok)
	assert.Equal(t, ScenarioChart, kind)

	_, ok = ParseChartKind("pie")
	assert.False(t, ok)
}
