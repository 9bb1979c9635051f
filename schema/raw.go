package schema

import (
	"bytes"
	"encoding/json"
)

// RawBundle is a DatasetBundle as received on the wire, before validation.
// Each section is kept undecoded so absent sections and malformed records can be
// told apart.
type RawBundle struct {
	TemperatureData json.RawMessage `json:"temperatureData,omitempty"`
	EconomicData    json.RawMessage `json:"economicData,omitempty"`
	RiskMetrics     json.RawMessage `json:"riskMetrics,omitempty"`
	ScenarioData    json.RawMessage `json:"scenarioData,omitempty"`
	SensitivityData json.RawMessage `json:"sensitivityData,omitempty"`
}

// Section returns the raw JSON of a section, or nil when it is absent or null.
func (r *RawBundle) Section(kind ChartKind) json.RawMessage {
	if r == nil {
		return nil
	}
	var raw json.RawMessage
	switch kind {
	case TemperatureChart:
		raw = r.TemperatureData
	case EconomicChart:
		raw = r.EconomicData
	case RiskChart:
		raw = r.RiskMetrics
	case ScenarioChart:
		raw = r.ScenarioData
	case SensitivityChart:
		raw = r.SensitivityData
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return trimmed
}

// Present lists the kinds that carry a section, in render order.
func (r *RawBundle) Present() []ChartKind {
	var kinds []ChartKind
	for _, kind := range AllChartKinds {
		if r.Section(kind) != nil {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// RawEconomicPoint accepts both the current and the legacy field name for impact.
type RawEconomicPoint struct {
	Year      *int     `json:"year"`
	GDPImpact *float64 `json:"gdpImpact"`
	GDP       *float64 `json:"gdp"`
}

// Impact returns the impact value, preferring gdpImpact over gdp.
func (r RawEconomicPoint) Impact() *float64 {
	if r.GDPImpact != nil {
		return r.GDPImpact
	}
	return r.GDP
}
