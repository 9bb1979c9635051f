package devserver

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/huangsam/climdash/schema"
)

//go:embed templates/report.html
var reportTemplate string

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"pct":  func(v float64) string { return fmt.Sprintf("%.2f%%", v*100) },
	"num":  func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"date": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
}).Parse(reportTemplate))

// reportData is the view model of the HTML report.
type reportData struct {
	Generated   time.Time
	Year        int
	Summary     string
	Temperature []schema.TemperaturePoint
	Economic    []schema.EconomicPoint
	Risk        []riskRow
	Scenarios   []string
	Comparison  []comparisonRow
	Sensitivity []factorRow
	Queries     []schema.QueryRecord
	DataJSON    template.JS
}

type riskRow struct {
	Label string
	Value float64
}

type comparisonRow struct {
	Year   int
	Values []string
}

type factorRow struct {
	Name   string
	Weight float64
}

// RenderReport writes the HTML report of a bundle and its query log.
func RenderReport(w io.Writer, req schema.ReportRequest, now time.Time) error {
	b := req.Data
	if b == nil {
		b = &schema.DatasetBundle{}
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode report data: %w", err)
	}
	data := reportData{
		Generated:   now,
		Year:        now.Year(),
		Summary:     Summary(b),
		Temperature: b.TemperatureData,
		Economic:    b.EconomicData,
		Scenarios:   b.ScenarioData.Keys(),
		Queries:     req.Queries,
		DataJSON:    template.JS(raw),
	}
	for _, p := range schema.Flatten(b) {
		switch p.Section {
		case schema.RiskChart:
			data.Risk = append(data.Risk, riskRow{Label: p.Label, Value: p.Value})
		case schema.SensitivityChart:
			data.Sensitivity = append(data.Sensitivity, factorRow{Name: p.Label, Weight: p.Value})
		}
	}
	if rows, err := Compare(b.ScenarioData); err == nil {
		for _, r := range rows {
			row := comparisonRow{Year: r.Year}
			for _, v := range r.Values.Values() {
				row.Values = append(row.Values, fmt.Sprintf("%.2f", v))
			}
			data.Comparison = append(data.Comparison, row)
		}
	}
	return reportTmpl.Execute(w, data)
}
