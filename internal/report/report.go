// Package report renders a dashboard dataset and its query log as a PDF.
package report

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/huangsam/climdash/schema"
)

const (
	pageWidth    = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 20.0
	contentWidth = pageWidth - marginLeft - marginRight
)

// Title is the heading of every generated report.
const Title = "Climate-Economic Dashboard Report"

// PDFReport accumulates one PDF document.
type PDFReport struct {
	pdf       *fpdf.Fpdf
	tr        func(string) string
	req       schema.ReportRequest
	generated time.Time
}

// PDF renders req into a PDF document. generated is printed on the title page
// and used as the document creation date.
func PDF(req schema.ReportRequest, generated time.Time) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, req, generated); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WritePDF renders req into w.
func WritePDF(w io.Writer, req schema.ReportRequest, generated time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	r := &PDFReport{
		pdf:       pdf,
		tr:        pdf.UnicodeTranslatorFromDescriptor(""),
		req:       req,
		generated: generated,
	}
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.SetCreationDate(generated)
	pdf.SetModificationDate(generated)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(Title, true)
	pdf.SetCompression(false)

	r.addTitlePage()
	r.addDataPages()
	r.addQueryLog()

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func (r *PDFReport) addTitlePage() {
	r.pdf.AddPage()
	r.pdf.SetFont("Arial", "B", 24)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.Ln(40)
	r.pdf.CellFormat(contentWidth, 15, Title, "", 1, "C", false, 0, "")

	r.pdf.SetFont("Arial", "I", 11)
	r.pdf.SetTextColor(80, 80, 80)
	r.pdf.Ln(10)
	r.pdf.CellFormat(contentWidth, 8, fmt.Sprintf("Generated: %s", r.generated.Format("2 January 2006 15:04")), "", 1, "C", false, 0, "")

	r.pdf.Ln(15)
	r.pdf.SetFillColor(245, 247, 250)
	r.pdf.SetDrawColor(200, 200, 200)
	r.pdf.SetFont("Arial", "B", 12)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 8, "Contents", "1", 1, "C", true, 0, "")

	r.pdf.SetFont("Arial", "", 11)
	r.pdf.SetTextColor(50, 50, 50)
	for _, kind := range schema.AllChartKinds {
		text := fmt.Sprintf("%s: not available", sectionTitle(kind))
		if r.req.Data.Has(kind) {
			text = fmt.Sprintf("%s: %d values", sectionTitle(kind), countValues(r.req.Data, kind))
		}
		r.pdf.CellFormat(contentWidth, 7, text, "LR", 1, "C", true, 0, "")
	}
	r.pdf.CellFormat(contentWidth, 7, fmt.Sprintf("Logged queries: %d", len(r.req.Queries)), "LRB", 1, "C", true, 0, "")
}

func (r *PDFReport) addDataPages() {
	b := r.req.Data
	if b == nil {
		return
	}
	r.pdf.AddPage()
	if b.Has(schema.TemperatureChart) {
		r.drawSectionHeader(sectionTitle(schema.TemperatureChart))
		widths := []float64{40, 60, 60}
		r.drawTableHeader([]string{"Year", "Temperature (°C)", "Period"}, widths)
		for i, p := range b.TemperatureData {
			period := "historical"
			if p.Year > schema.HistoricalCutoffYear {
				period = "predicted"
			}
			r.drawTableRow([]string{strconv.Itoa(p.Year), fmt.Sprintf("%.2f", p.Temperature), period}, widths, i%2 == 1)
		}
	}
	if b.Has(schema.EconomicChart) {
		r.drawSectionHeader(sectionTitle(schema.EconomicChart))
		widths := []float64{40, 60}
		r.drawTableHeader([]string{"Year", "GDP Impact (%)"}, widths)
		for i, p := range b.EconomicData {
			r.drawTableRow([]string{strconv.Itoa(p.Year), fmt.Sprintf("%.2f%%", p.GDPImpact*100)}, widths, i%2 == 1)
		}
	}
	if b.Has(schema.RiskChart) {
		r.drawSectionHeader(sectionTitle(schema.RiskChart))
		widths := []float64{70, 50}
		r.drawTableHeader([]string{"Metric", "Value"}, widths)
		for i, p := range schema.Flatten(&schema.DatasetBundle{RiskMetrics: b.RiskMetrics}) {
			r.drawTableRow([]string{p.Label, fmt.Sprintf("%.2f", p.Value)}, widths, i%2 == 1)
		}
	}
	if b.Has(schema.ScenarioChart) {
		r.drawScenarios(b.ScenarioData)
	}
	if b.Has(schema.SensitivityChart) {
		r.drawSectionHeader(sectionTitle(schema.SensitivityChart))
		widths := []float64{80, 40}
		r.drawTableHeader([]string{"Factor", "Value"}, widths)
		i := 0
		for name, v := range b.SensitivityData.All() {
			r.drawTableRow([]string{name, fmt.Sprintf("%.3f", v)}, widths, i%2 == 1)
			i++
		}
	}
}

// drawScenarios lays scenarios out as columns over the union of their years.
func (r *PDFReport) drawScenarios(set *schema.ScenarioSet) {
	r.drawSectionHeader(sectionTitle(schema.ScenarioChart))
	names := set.Keys()
	byYear := map[int]map[string]float64{}
	for name, points := range set.All() {
		for _, p := range points {
			if byYear[p.Year] == nil {
				byYear[p.Year] = map[string]float64{}
			}
			byYear[p.Year][name] = p.Temperature
		}
	}

	colWidth := (contentWidth - 30) / float64(max(len(names), 1))
	widths := []float64{30}
	for range names {
		widths = append(widths, colWidth)
	}
	r.drawTableHeader(append([]string{"Year"}, names...), widths)
	for i, year := range slices.Sorted(maps.Keys(byYear)) {
		row := []string{strconv.Itoa(year)}
		for _, name := range names {
			cell := "-"
			if v, ok := byYear[year][name]; ok {
				cell = fmt.Sprintf("%.2f", v)
			}
			row = append(row, cell)
		}
		r.drawTableRow(row, widths, i%2 == 1)
	}
}

func (r *PDFReport) addQueryLog() {
	r.pdf.AddPage()
	r.drawSectionHeader("Query Log")
	if len(r.req.Queries) == 0 {
		r.pdf.SetFont("Arial", "I", 10)
		r.pdf.SetTextColor(120, 120, 120)
		r.pdf.CellFormat(contentWidth, 6, "No queries were logged.", "", 1, "L", false, 0, "")
		return
	}
	for i, q := range r.req.Queries {
		r.pdf.SetFont("Arial", "B", 10)
		r.pdf.SetTextColor(0, 51, 102)
		heading := fmt.Sprintf("%d. %s", i+1, q.Timestamp.Format(time.RFC3339))
		r.pdf.CellFormat(contentWidth, 6, heading, "", 1, "L", false, 0, "")

		r.pdf.SetFont("Arial", "", 10)
		r.pdf.SetTextColor(50, 50, 50)
		r.pdf.MultiCell(contentWidth, 5, r.tr("Q: "+q.Query), "", "L", false)
		r.pdf.SetTextColor(80, 80, 80)
		r.pdf.MultiCell(contentWidth, 5, r.tr("A: "+q.Response), "", "L", false)
		r.pdf.Ln(3)
	}
}

func (r *PDFReport) drawSectionHeader(title string) {
	r.pdf.Ln(4)
	r.pdf.SetFont("Arial", "B", 14)
	r.pdf.SetTextColor(0, 51, 102)
	r.pdf.CellFormat(contentWidth, 9, r.tr(title), "B", 1, "L", false, 0, "")
	r.pdf.Ln(2)
}

func (r *PDFReport) drawTableHeader(headers []string, widths []float64) {
	r.pdf.SetFillColor(0, 51, 102)
	r.pdf.SetTextColor(255, 255, 255)
	r.pdf.SetFont("Arial", "B", 9)
	for i, h := range headers {
		r.pdf.CellFormat(widths[i], 6, r.tr(h), "1", 0, "C", true, 0, "")
	}
	r.pdf.Ln(-1)
}

func (r *PDFReport) drawTableRow(cells []string, widths []float64, shaded bool) {
	r.pdf.SetFillColor(240, 245, 250)
	r.pdf.SetTextColor(50, 50, 50)
	r.pdf.SetFont("Arial", "", 9)
	for i, c := range cells {
		align := "R"
		if i == 0 {
			align = "L"
		}
		r.pdf.CellFormat(widths[i], 5, r.tr(c), "1", 0, align, shaded, 0, "")
	}
	r.pdf.Ln(-1)
}

func sectionTitle(kind schema.ChartKind) string {
	switch kind {
	case schema.TemperatureChart:
		return "Temperature Projections"
	case schema.EconomicChart:
		return "Economic Impact"
	case schema.RiskChart:
		return "Risk Metrics"
	case schema.ScenarioChart:
		return "Scenarios"
	default:
		return "Sensitivity Analysis"
	}
}

func countValues(b *schema.DatasetBundle, kind schema.ChartKind) int {
	n := 0
	for _, p := range schema.Flatten(b) {
		if p.Section == kind {
			n++
		}
	}
	return n
}
