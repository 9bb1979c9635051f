package outwriter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/climdash/internal/contract"
	"github.com/huangsam/climdash/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(output schema.OutputMode, file string) *contract.Config {
	return &contract.Config{Output: output, OutputFile: file, Width: 120}
}

func sampleBundle() *schema.DatasetBundle {
	scenarios := schema.NewOrdered[[]schema.TemperaturePoint]()
	scenarios.Set(schema.BaselineScenario, []schema.TemperaturePoint{{Year: 2020, Temperature: 14.9}, {Year: 2100, Temperature: 17.2}})
	scenarios.Set(schema.OptimisticScenario, []schema.TemperaturePoint{{Year: 2020, Temperature: 14.9}, {Year: 2100, Temperature: 16.28}})

	sens := schema.NewOrdered[float64]()
	sens.Set(schema.TemperatureSensitivity, 0.8)
	sens.Set(schema.EconomicGrowthSensitivity, 0.3)

	return &schema.DatasetBundle{
		TemperatureData: []schema.TemperaturePoint{{Year: 2020, Temperature: 14.9}, {Year: 2100, Temperature: 17.2}},
		EconomicData:    []schema.EconomicPoint{{Year: 2020, GDPImpact: 0}, {Year: 2100, GDPImpact: -0.023}},
		RiskMetrics:     &schema.RiskMetrics{MeanTemperature: 16.05, VaR95: 17.1, MaxTemperature: 17.2},
		ScenarioData:    scenarios,
		SensitivityData: sens,
	}
}

func TestBoardLookupAndRender(t *testing.T) {
	board := NewBoard(&contract.Config{Width: 100})
	_, ok := board.Lookup("temperatureChart")
	assert.False(t, ok, "unmounted panel must not resolve")

	board.Mount("temperatureChart", "economicChart", "temperatureChart")
	target, ok := board.Lookup("temperatureChart")
	require.True(t, ok)
	assert.Equal(t, "temperatureChart", target.Name())

	var buf bytes.Buffer
	require.NoError(t, board.Render(&buf))
	assert.Equal(t, "No charts rendered.\n", buf.String())

	state := schema.RenderState{
		Kind:   schema.EconomicChart,
		Type:   schema.BarChart,
		Labels: []string{"2020", "2100"},
		Series: []schema.Series{{Label: "GDP Impact (%)", Values: []float64{0, -0.023}, Scale: 100}},
	}
	require.NoError(t, target.Draw(state))
	assert.Equal(t, 1, board.Panel("temperatureChart").draws)

	buf.Reset()
	require.NoError(t, board.Render(&buf))
	out := buf.String()
	assert.Contains(t, out, "ECONOMIC IMPACT (bar chart)")
	assert.Contains(t, out, "-2.30%")
	assert.Contains(t, out, "2100")
}

func TestPanelDrawRejectsEmptyState(t *testing.T) {
	board := NewBoard(nil)
	board.Mount("riskChart")
	p := board.Panel("riskChart")
	require.Error(t, p.Draw(schema.RenderState{Kind: schema.RiskChart}))
	_, ok := p.State()
	assert.False(t, ok)

	require.NoError(t, p.Draw(schema.RenderState{Kind: schema.RiskChart, Type: schema.RadarChart, Labels: []string{"a"}, Series: []schema.Series{{Label: "Risk", Values: []float64{1}}}}))
	require.NoError(t, p.Clear())
	_, ok = p.State()
	assert.False(t, ok)
}

func TestPanelStateIsACopy(t *testing.T) {
	board := NewBoard(nil)
	board.Mount("sensitivityChart")
	p := board.Panel("sensitivityChart")
	values := []float64{0.8}
	require.NoError(t, p.Draw(schema.RenderState{Kind: schema.SensitivityChart, Type: schema.BarChart, Labels: []string{"x"}, Series: []schema.Series{{Label: "Sensitivity", Values: values}}}))
	values[0] = 99

	state, ok := p.State()
	require.True(t, ok)
	assert.Equal(t, 0.8, state.Series[0].Values[0])
}

func TestStateRowsOffsets(t *testing.T) {
	state := schema.RenderState{
		Kind:   schema.TemperatureChart,
		Type:   schema.LineChart,
		Labels: []string{"2020", "2100"},
		Series: []schema.Series{
			{Label: "Historical", Values: []float64{14.9}},
			{Label: "Predicted", Values: []float64{17.2}, Offset: 1},
		},
	}
	headers, rows := stateRows(state, 20)
	assert.Equal(t, []string{"Year", "Historical", "Predicted"}, headers)
	assert.Equal(t, [][]string{{"2020", "14.90", ""}, {"2100", "", "17.20"}}, rows)
}

func TestWriteBundleCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBundleCSV(&buf, sampleBundle()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, "section,series,label,year,value", lines[0])
	assert.Equal(t, "temperature,temperature,2020,2020,14.9", lines[1])
	assert.Contains(t, lines, "economic,gdpImpact,2100,2100,-0.023")
	assert.Contains(t, lines, "risk,risk,var_95,,17.1")
	assert.Contains(t, lines, "scenario,optimistic,2100,2100,16.28")
	assert.Equal(t, "sensitivity,sensitivity,economic_growth_sensitivity,,0.3", lines[len(lines)-1])
}

func TestWriteBundleFormats(t *testing.T) {
	bundle := sampleBundle()

	var buf bytes.Buffer
	require.NoError(t, WriteBundle(&buf, bundle, schema.JSONOut))
	var decoded schema.DatasetBundle
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, []string{schema.BaselineScenario, schema.OptimisticScenario}, decoded.ScenarioData.Keys())

	buf.Reset()
	require.NoError(t, WriteBundle(&buf, bundle, schema.YAMLOut))
	out := buf.String()
	assert.Less(t, strings.Index(out, "baseline:"), strings.Index(out, "optimistic:"))
	assert.Contains(t, out, "var_95: 17.1")

	err := WriteBundle(&buf, bundle, "xml")
	require.ErrorIs(t, err, schema.ErrUnsupportedFormat)
}

func TestWriteBundleText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBundleText(&buf, sampleBundle(), &contract.Config{Width: 120}))
	out := buf.String()
	for _, heading := range []string{"TEMPERATURE", "ECONOMIC IMPACT", "RISK METRICS", "SCENARIOS", "SENSITIVITY"} {
		assert.Contains(t, out, heading)
	}
	assert.Less(t, strings.Index(out, "TEMPERATURE"), strings.Index(out, "SENSITIVITY"))
}

func TestPrintBundleToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle.csv")
	require.NoError(t, PrintBundle(sampleBundle(), testConfig(schema.CSVOut, path)))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "section,series,label,year,value\n"))
}

func TestPrintBundleParquet(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, PrintBundle(sampleBundle(), testConfig(schema.ParquetOut, filepath.Join(dir, "out.parquet"))))
	for _, kind := range schema.AllChartKinds {
		_, err := os.Stat(filepath.Join(dir, "out."+string(kind)+".parquet"))
		assert.NoError(t, err, kind)
	}
}

func comparisonRows() []schema.ComparisonRow {
	row := func(year int, base, pess float64) schema.ComparisonRow {
		values := schema.NewOrdered[float64]()
		values.Set(schema.BaselineScenario, base)
		values.Set(schema.PessimisticScenario, pess)
		return schema.ComparisonRow{Year: year, Values: values}
	}
	return []schema.ComparisonRow{row(2020, 14.9, 14.9), row(2100, 17.2, 18.35)}
}

func TestPrintComparison(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "compare.csv")
	require.NoError(t, PrintComparison(comparisonRows(), testConfig(schema.CSVOut, csvPath)))
	content, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "year,baseline,pessimistic\n2020,14.90,14.90\n2100,17.20,18.35\n", string(content))

	textPath := filepath.Join(dir, "compare.txt")
	require.NoError(t, PrintComparison(comparisonRows(), testConfig(schema.TextOut, textPath)))
	content, err = os.ReadFile(textPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "18.35 °C")

	var buf bytes.Buffer
	require.NoError(t, writeComparisonTable(&buf, nil, testConfig(schema.TextOut, ""), createFormatters(2)))
	assert.Equal(t, "No scenarios to compare.\n", buf.String())
}

func TestPrintSummaryAndQueryLog(t *testing.T) {
	dir := t.TempDir()

	summaryPath := filepath.Join(dir, "summary.json")
	require.NoError(t, PrintSummary("Warming of 2.3 °C", testConfig(schema.JSONOut, summaryPath)))
	content, err := os.ReadFile(summaryPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":"Warming of 2.3 °C"}`, string(content))

	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []schema.QueryRecord{{Query: "what is var?", Response: "value at risk", Timestamp: ts}}
	logPath := filepath.Join(dir, "queries.csv")
	require.NoError(t, PrintQueryLog(records, testConfig(schema.CSVOut, logPath)))
	content, err = os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, "query,response,timestamp\nwhat is var?,value at risk,2025-03-01T12:00:00Z\n", string(content))

	var buf bytes.Buffer
	require.NoError(t, writeQueryLogTable(&buf, nil, testConfig(schema.TextOut, "")))
	assert.Equal(t, "No queries logged.\n", buf.String())
}

func TestPrintChartStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.csv")
	statuses := []schema.ChartStatus{
		{Kind: schema.TemperatureChart, Rendered: true, HandleID: 3, Type: schema.LineChart, Series: 2, Points: 9, Committed: 1},
		{Kind: schema.EconomicChart},
	}
	require.NoError(t, PrintChartStatus(statuses, testConfig(schema.CSVOut, path)))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "temperature,true,3,line,2,9,1", lines[1])
	assert.Equal(t, "economic,false,0,,0,0,0", lines[2])
}

func TestDirSaver(t *testing.T) {
	dir := t.TempDir()
	saver := NewDirSaver(dir, false)

	require.NoError(t, saver.Save(schema.ExportFileName, []byte(`{}`)))
	content, err := os.ReadFile(filepath.Join(dir, schema.ExportFileName))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(content))

	assert.Error(t, saver.Save("../escape.json", nil))
	assert.Error(t, saver.Save("", nil))
}

func TestGetMaxLabelWidth(t *testing.T) {
	assert.Equal(t, 40, GetMaxLabelWidth(&contract.Config{Width: 300}, 1))
	assert.Equal(t, 12, GetMaxLabelWidth(&contract.Config{Width: 40}, 5))
	assert.Equal(t, 120, GetTerminalWidth(&contract.Config{Width: 120}))
}
