// Package schema has constants, models and errors for all parts of climdash.
package schema

import (
	"encoding/json"
	"time"
)

// TemperaturePoint is one year of a temperature path, in degrees Celsius.
type TemperaturePoint struct {
	Year        int     `json:"year" yaml:"year"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
}

// EconomicPoint is one year of GDP impact. GDPImpact is a fraction (0.02 = 2%).
type EconomicPoint struct {
	Year      int     `json:"year" yaml:"year"`
	GDPImpact float64 `json:"gdpImpact" yaml:"gdpImpact"`
}

// UnmarshalJSON accepts the legacy "gdp" key as an alias of "gdpImpact".
func (p *EconomicPoint) UnmarshalJSON(data []byte) error {
	var raw RawEconomicPoint
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = EconomicPoint{}
	if raw.Year != nil {
		p.Year = *raw.Year
	}
	if v := raw.Impact(); v != nil {
		p.GDPImpact = *v
	}
	return nil
}

// RiskMetrics is the fixed-arity risk record. The two optional fields are present
// together in the extended scenario set.
type RiskMetrics struct {
	MeanTemperature float64  `json:"mean_temperature" yaml:"mean_temperature"`
	VaR95           float64  `json:"var_95" yaml:"var_95"`
	MaxTemperature  float64  `json:"max_temperature" yaml:"max_temperature"`
	EconomicImpact  *float64 `json:"economic_impact,omitempty" yaml:"economic_impact,omitempty"`
	AdaptationCost  *float64 `json:"adaptation_cost,omitempty" yaml:"adaptation_cost,omitempty"`
}

// Extended reports whether the record carries the extended fields.
func (r RiskMetrics) Extended() bool {
	return r.EconomicImpact != nil && r.AdaptationCost != nil
}

// DatasetBundle is the aggregate exchanged with the backend. Every section is optional.
type DatasetBundle struct {
	TemperatureData []TemperaturePoint `json:"temperatureData,omitempty" yaml:"temperatureData,omitempty"`
	EconomicData    []EconomicPoint    `json:"economicData,omitempty" yaml:"economicData,omitempty"`
	RiskMetrics     *RiskMetrics       `json:"riskMetrics,omitempty" yaml:"riskMetrics,omitempty"`
	ScenarioData    *ScenarioSet       `json:"scenarioData,omitempty" yaml:"scenarioData,omitempty"`
	SensitivityData *SensitivityMap    `json:"sensitivityData,omitempty" yaml:"sensitivityData,omitempty"`
}

// Has reports whether the bundle carries a section for kind.
func (b *DatasetBundle) Has(kind ChartKind) bool {
	if b == nil {
		return false
	}
	switch kind {
	case TemperatureChart:
		return len(b.TemperatureData) > 0
	case EconomicChart:
		return len(b.EconomicData) > 0
	case RiskChart:
		return b.RiskMetrics != nil
	case ScenarioChart:
		return b.ScenarioData.Len() > 0
	case SensitivityChart:
		return b.SensitivityData.Len() > 0
	}
	return false
}

// Section returns the domain value of the bundle for kind, or nil when absent.
func (b *DatasetBundle) Section(kind ChartKind) any {
	if !b.Has(kind) {
		return nil
	}
	switch kind {
	case TemperatureChart:
		return b.TemperatureData
	case EconomicChart:
		return b.EconomicData
	case RiskChart:
		return *b.RiskMetrics
	case ScenarioChart:
		return b.ScenarioData
	default:
		return b.SensitivityData
	}
}

// SetSection stores a domain value for kind. Values of the wrong type are ignored
// and reported as false.
func (b *DatasetBundle) SetSection(kind ChartKind, value any) bool {
	switch v := value.(type) {
	case []TemperaturePoint:
		if kind == TemperatureChart {
			b.TemperatureData = v
			return true
		}
	case []EconomicPoint:
		if kind == EconomicChart {
			b.EconomicData = v
			return true
		}
	case RiskMetrics:
		if kind == RiskChart {
			b.RiskMetrics = &v
			return true
		}
	case *ScenarioSet:
		if kind == ScenarioChart {
			b.ScenarioData = v
			return true
		}
	case *SensitivityMap:
		if kind == SensitivityChart {
			b.SensitivityData = v
			return true
		}
	}
	return false
}

// QueryRecord is one free-text query and the answer the backend gave.
type QueryRecord struct {
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// ExportRequest is the body of an export call.
type ExportRequest struct {
	Data   *DatasetBundle `json:"data"`
	Format string         `json:"format"`
}

// ExportResponse carries the serialized export.
type ExportResponse struct {
	ExportedData string `json:"exported_data"`
}

// ScenarioRequest asks the backend to recompute scenarios for a selection.
type ScenarioRequest struct {
	Scenario        string             `json:"scenario"`
	TemperatureData []TemperaturePoint `json:"temperatureData"`
}

// SensitivityRequest asks the backend to recompute sensitivity factors.
type SensitivityRequest struct {
	Sensitivity  int             `json:"sensitivity"`
	EconomicData []EconomicPoint `json:"economicData"`
}

// AnalyticsRequest is the body of an advanced analytics call.
type AnalyticsRequest struct {
	TemperatureData []TemperaturePoint `json:"temperatureData"`
	EconomicData    []EconomicPoint    `json:"economicData"`
}

// ReportRequest bundles the displayed data and the query log for a report.
type ReportRequest struct {
	Data    *DatasetBundle `json:"data"`
	Queries []QueryRecord  `json:"queries"`
}

// SessionResponse carries the id of a saved session.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// QueryRequest is the body of a free-text query.
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryResponse is the answer to a free-text query.
type QueryResponse struct {
	Response string `json:"response"`
}

// SummaryResponse carries a narrative summary of a bundle.
type SummaryResponse struct {
	Summary string `json:"summary"`
}

// CompareRequest asks for a year-by-scenario comparison.
type CompareRequest struct {
	Scenarios *ScenarioSet `json:"scenarios"`
}

// ComparisonRow is one year across all scenarios, in scenario order.
type ComparisonRow struct {
	Year   int               `json:"year"`
	Values *Ordered[float64] `json:"values"`
}

// CompareResponse carries the comparison table.
type CompareResponse struct {
	Comparison []ComparisonRow `json:"comparison"`
}

// APIError is the error body returned by the backend on non-2xx responses.
type APIError struct {
	Error string `json:"error"`
}
