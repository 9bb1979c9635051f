package schema

// Backend endpoints.
const (
	DefaultDataPath       = "/api/get_default_data"
	ProcessPath           = "/api/process_data"
	ExportPath            = "/api/export_data"
	UpdateScenarioPath    = "/api/update_scenario"
	UpdateSensitivityPath = "/api/update_sensitivity"
	SaveSessionPath       = "/api/save_session"
	LoadSessionPath       = "/api/load_session/"
	ReportPath            = "/generate_report"
	AnalyticsPath         = "/api/advanced_analytics"
	QueryPath             = "/api/llm_query"
	SummaryPath           = "/api/generate_summary"
	ComparePath           = "/api/compare_scenarios"
)
