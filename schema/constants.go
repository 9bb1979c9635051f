package schema

// Custom string types for type safety.
type (
	// ChartKind identifies one of the five dashboard charts.
	ChartKind string

	// ChartType is the visual form a chart is drawn with.
	ChartType string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for local storage.
	DatabaseBackend string

	// Phase is the lifecycle state of one controller action.
	Phase string
)

// All chart kinds supported.
const (
	TemperatureChart ChartKind = "temperature"
	EconomicChart    ChartKind = "economic"
	RiskChart        ChartKind = "risk"
	ScenarioChart    ChartKind = "scenario"
	SensitivityChart ChartKind = "sensitivity"
)

// All chart types supported.
const (
	LineChart  ChartType = "line"
	BarChart   ChartType = "bar"
	RadarChart ChartType = "radar"
)

// All output modes supported.
const (
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	CSVOut     OutputMode = "csv"
	YAMLOut    OutputMode = "yaml"
	ParquetOut OutputMode = "parquet"
)

// All storage backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Action phases.
const (
	IdlePhase      Phase = "idle"
	LoadingPhase   Phase = "loading"
	RenderingPhase Phase = "rendering"
	FailedPhase    Phase = "failed"
)

// HistoricalCutoffYear splits temperature series into historical (year <= cutoff)
// and predicted (year > cutoff) points.
const HistoricalCutoffYear = 2050

// ExportFileName is the default name of an exported dataset bundle.
const ExportFileName = "climate_economic_data.json"

// ReportFileName is the default name of a generated HTML report.
const ReportFileName = "climate_economic_report.html"

// Well-known scenario names.
const (
	BaselineScenario    = "baseline"
	OptimisticScenario  = "optimistic"
	PessimisticScenario = "pessimistic"
)

// Sensitivity factor names in display order.
const (
	TemperatureSensitivity    = "temperature_sensitivity"
	EconomicGrowthSensitivity = "economic_growth_sensitivity"
	AdaptationSensitivity     = "adaptation_sensitivity"
	TechnologySensitivity     = "technology_sensitivity"
)

// AllChartKinds is the fixed render order of the dashboard.
var AllChartKinds = []ChartKind{TemperatureChart, EconomicChart, RiskChart, ScenarioChart, SensitivityChart}

// AllSensitivityFactors lists the sensitivity factors in display order.
var AllSensitivityFactors = []string{
	TemperatureSensitivity,
	EconomicGrowthSensitivity,
	AdaptationSensitivity,
	TechnologySensitivity,
}

// ValidChartKinds lists all valid chart kinds.
var ValidChartKinds = map[ChartKind]struct{}{
	TemperatureChart: {},
	EconomicChart:    {},
	RiskChart:        {},
	ScenarioChart:    {},
	SensitivityChart: {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:    {},
	JSONOut:    {},
	CSVOut:     {},
	YAMLOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid storage backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ParseChartKind converts user input into a ChartKind.
func ParseChartKind(s string) (ChartKind, bool) {
	kind := ChartKind(s)
	_, ok := ValidChartKinds[kind]
	return kind, ok
}
