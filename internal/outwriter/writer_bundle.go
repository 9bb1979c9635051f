package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/climdash/internal/contract"
	"github.com/huangsam/climdash/schema"
)

// bundleCSVHeader is the long format header of a bundle export.
var bundleCSVHeader = []string{"section", "series", "label", "year", "value"}

// WriteBundleJSON writes the bundle as indented JSON.
func WriteBundleJSON(w io.Writer, bundle *schema.DatasetBundle) error {
	return writeJSON(w, bundle)
}

// WriteBundleYAML writes the bundle as a YAML document. Scenario and
// sensitivity order is kept.
func WriteBundleYAML(w io.Writer, bundle *schema.DatasetBundle) error {
	return writeYAML(w, bundle)
}

// WriteBundleCSV writes every value of the bundle in long format, one row per
// value in render order.
func WriteBundleCSV(w io.Writer, bundle *schema.DatasetBundle) error {
	return writeCSVWithHeader(w, bundleCSVHeader, func(cw *csv.Writer) error {
		for _, p := range schema.Flatten(bundle) {
			year := ""
			if p.Year != nil {
				year = strconv.Itoa(*p.Year)
			}
			row := []string{
				string(p.Section),
				p.Series,
				p.Label,
				year,
				strconv.FormatFloat(p.Value, 'f', -1, 64),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteBundle serializes a bundle in a text format: json, yaml or csv.
func WriteBundle(w io.Writer, bundle *schema.DatasetBundle, format schema.OutputMode) error {
	switch format {
	case schema.JSONOut:
		return WriteBundleJSON(w, bundle)
	case schema.YAMLOut:
		return WriteBundleYAML(w, bundle)
	case schema.CSVOut:
		return WriteBundleCSV(w, bundle)
	}
	return fmt.Errorf("%w: %q", schema.ErrUnsupportedFormat, format)
}

// writeCSVComparison writes one row per year with a column per scenario.
func writeCSVComparison(w io.Writer, rows []schema.ComparisonRow, fmtFloat func(float64) string) error {
	names := comparisonColumns(rows)
	header := append([]string{"year"}, names...)
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range rows {
			record := []string{strconv.Itoa(r.Year)}
			for _, name := range names {
				if v, ok := r.Values.Get(name); ok {
					record = append(record, fmtFloat(v))
				} else {
					record = append(record, "")
				}
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// comparisonColumns returns scenario names in first-seen order.
func comparisonColumns(rows []schema.ComparisonRow) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, r := range rows {
		for _, name := range r.Values.Keys() {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}

// writeCSVQueryLog writes the query log oldest first.
func writeCSVQueryLog(w io.Writer, records []schema.QueryRecord) error {
	return writeCSVWithHeader(w, []string{"query", "response", "timestamp"}, func(cw *csv.Writer) error {
		for _, r := range records {
			if err := cw.Write([]string{r.Query, r.Response, r.Timestamp.Format(contract.DateTimeFormat)}); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeCSVChartStatus writes one row per registry slot.
func writeCSVChartStatus(w io.Writer, statuses []schema.ChartStatus) error {
	header := []string{"kind", "rendered", "handle_id", "type", "series", "points", "committed_seq"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, s := range statuses {
			row := []string{
				string(s.Kind),
				strconv.FormatBool(s.Rendered),
				strconv.FormatUint(s.HandleID, 10),
				string(s.Type),
				strconv.Itoa(s.Series),
				strconv.Itoa(s.Points),
				strconv.FormatUint(s.Committed, 10),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
