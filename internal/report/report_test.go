package report

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/climdash/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generated = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func sampleBundle() *schema.DatasetBundle {
	scenarios := schema.NewOrdered[[]schema.TemperaturePoint]()
	scenarios.Set(schema.BaselineScenario, []schema.TemperaturePoint{{Year: 2030, Temperature: 1.5}, {Year: 2040, Temperature: 1.8}})
	scenarios.Set(schema.OptimisticScenario, []schema.TemperaturePoint{{Year: 2030, Temperature: 1.3}})
	sens := schema.NewOrdered[float64]()
	sens.Set(schema.TemperatureSensitivity, 0.8)
	sens.Set(schema.TechnologySensitivity, 0.4)
	return &schema.DatasetBundle{
		TemperatureData: []schema.TemperaturePoint{{Year: 2020, Temperature: 1.1}, {Year: 2060, Temperature: 2.0}},
		EconomicData:    []schema.EconomicPoint{{Year: 2020, GDPImpact: -0.011}},
		RiskMetrics:     &schema.RiskMetrics{MeanTemperature: 1.5, VaR95: 1.9, MaxTemperature: 2.0},
		ScenarioData:    scenarios,
		SensitivityData: sens,
	}
}

func TestPDF(t *testing.T) {
	req := schema.ReportRequest{
		Data: sampleBundle(),
		Queries: []schema.QueryRecord{
			{Query: "What drives warming?", Response: "Emissions (mostly CO2).", Timestamp: generated},
		},
	}
	out, err := PDF(req, generated)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	text := string(out)
	for _, want := range []string{
		"Temperature Projections",
		"Economic Impact",
		"Risk Metrics",
		"Scenarios",
		"Sensitivity Analysis",
		"Query Log",
		"Logged queries: 1",
		"var_95",
		"technology_sensitivity",
		"predicted",
		"-1.10%",
		"What drives warming?",
	} {
		assert.Contains(t, text, want)
	}
}

func TestPDF_Deterministic(t *testing.T) {
	req := schema.ReportRequest{Data: sampleBundle()}
	a, err := PDF(req, generated)
	require.NoError(t, err)
	b, err := PDF(req, generated)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPDF_EmptyRequest(t *testing.T) {
	out, err := PDF(schema.ReportRequest{}, generated)
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "Risk Metrics: not available")
	assert.Contains(t, text, "No queries were logged.")
	assert.NotContains(t, text, "(Sensitivity Analysis) Tj")
}

func TestPDF_LongQueryLogPaginates(t *testing.T) {
	var queries []schema.QueryRecord
	for i := range 80 {
		queries = append(queries, schema.QueryRecord{
			Query:     fmt.Sprintf("question %d", i),
			Response:  strings.Repeat("answer ", 40),
			Timestamp: generated.Add(time.Duration(i) * time.Minute),
		})
	}
	short, err := PDF(schema.ReportRequest{Queries: queries[:1]}, generated)
	require.NoError(t, err)
	long, err := PDF(schema.ReportRequest{Queries: queries}, generated)
	require.NoError(t, err)

	pages := func(b []byte) int {
		return bytes.Count(b, []byte("/Type /Page")) - bytes.Count(b, []byte("/Type /Pages"))
	}
	assert.Greater(t, pages(long), pages(short))
	assert.Contains(t, string(long), "question 79")
}
