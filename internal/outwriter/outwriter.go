// Package outwriter has output and writer logic.
package outwriter

import (
	"github.com/huangsam/climdash/internal/contract"
	"github.com/huangsam/climdash/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteBundle prints a dataset bundle using the configured output format.
func (ow *OutWriter) WriteBundle(bundle *schema.DatasetBundle, cfg *contract.Config) error {
	return PrintBundle(bundle, cfg)
}

// WriteSummary prints a narrative summary using the configured output format.
func (ow *OutWriter) WriteSummary(summary string, cfg *contract.Config) error {
	return PrintSummary(summary, cfg)
}

// WriteComparison prints a scenario comparison using the configured output format.
func (ow *OutWriter) WriteComparison(rows []schema.ComparisonRow, cfg *contract.Config) error {
	return PrintComparison(rows, cfg)
}

// WriteQueryLog prints the query log using the configured output format.
func (ow *OutWriter) WriteQueryLog(records []schema.QueryRecord, cfg *contract.Config) error {
	return PrintQueryLog(records, cfg)
}

// WriteChartStatus prints registry status using the configured output format.
func (ow *OutWriter) WriteChartStatus(statuses []schema.ChartStatus, cfg *contract.Config) error {
	return PrintChartStatus(statuses, cfg)
}
