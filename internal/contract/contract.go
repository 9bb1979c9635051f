// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"

	"github.com/huangsam/climdash/schema"
)

// Backend is the remote service that computes datasets.
// Every call is bounded by the client timeout and never retried automatically.
type Backend interface {
	// DefaultData fetches the default dataset bundle.
	DefaultData(ctx context.Context) (*schema.RawBundle, error)

	// Process sends any importable dataset for processing.
	Process(ctx context.Context, raw any) (*schema.RawBundle, error)

	// Export serializes a bundle server-side in the requested format.
	Export(ctx context.Context, bundle *schema.DatasetBundle, format string) (string, error)

	// UpdateScenario recomputes the scenario set for a selection. The response
	// is always a full scenario set.
	UpdateScenario(ctx context.Context, req schema.ScenarioRequest) (*schema.RawBundle, error)

	// UpdateSensitivity recomputes the sensitivity factors for a slider value.
	UpdateSensitivity(ctx context.Context, req schema.SensitivityRequest) (*schema.RawBundle, error)

	// SaveSession stores a bundle remotely and returns its session id.
	SaveSession(ctx context.Context, bundle *schema.DatasetBundle) (string, error)

	// LoadSession fetches a previously saved bundle.
	LoadSession(ctx context.Context, id string) (*schema.RawBundle, error)

	// GenerateReport renders an HTML report of a bundle and the query log.
	GenerateReport(ctx context.Context, req schema.ReportRequest) (string, error)

	// AdvancedAnalytics recomputes a full bundle from temperature and economic data.
	AdvancedAnalytics(ctx context.Context, req schema.AnalyticsRequest) (*schema.RawBundle, error)

	// Query answers a free-text question.
	Query(ctx context.Context, query string) (string, error)

	// Summary narrates a bundle.
	Summary(ctx context.Context, bundle *schema.DatasetBundle) (string, error)

	// CompareScenarios tabulates scenarios year by year.
	CompareScenarios(ctx context.Context, set *schema.ScenarioSet) ([]schema.ComparisonRow, error)
}

// RenderTarget is a named surface a chart is drawn on.
type RenderTarget interface {
	Name() string
	Draw(state schema.RenderState) error
	Clear() error
}

// TargetResolver finds render targets by name. Targets may appear after the
// first lookup.
type TargetResolver interface {
	Lookup(name string) (RenderTarget, bool)
}

// ErrorReporter shows a failure to the user. Implementations must never panic.
type ErrorReporter interface {
	Report(message string, kind schema.ErrorKind)
}

// LoadingIndicator is shown while backend requests are in flight.
type LoadingIndicator interface {
	Show()
	Hide()
}

// FileSaver hands a named file to the user.
type FileSaver interface {
	Save(name string, data []byte) error
}
