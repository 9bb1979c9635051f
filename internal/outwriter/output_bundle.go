package outwriter

import (
	"fmt"
	"io"
	"strings"

	"github.com/huangsam/climdash/core/adapter"
	"github.com/huangsam/climdash/internal/contract"
	"github.com/huangsam/climdash/internal/parquet"
	"github.com/huangsam/climdash/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintBundle outputs a bundle, dispatching based on the output format configured.
func PrintBundle(bundle *schema.DatasetBundle, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.ParquetOut:
		prefix := strings.TrimSuffix(cfg.OutputFile, ".parquet")
		paths, err := parquet.WriteBundleParquet(bundle, prefix)
		if err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		for _, path := range paths {
			contract.LogInfo(cfg.UseEmojis, "💾", fmt.Sprintf("Wrote Parquet to %s", path))
		}
		return nil
	case schema.JSONOut, schema.YAMLOut, schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteBundle(w, bundle, cfg.Output)
		}, fmt.Sprintf("Wrote %s", strings.ToUpper(string(cfg.Output))))
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return WriteBundleText(w, bundle, cfg)
		}, "Wrote text")
	}
}

// WriteBundleText draws every present section on a fresh board and renders it.
func WriteBundleText(w io.Writer, bundle *schema.DatasetBundle, cfg *contract.Config) error {
	board := NewBoard(cfg)
	for _, kind := range schema.AllChartKinds {
		if !bundle.Has(kind) {
			continue
		}
		state, err := adapter.ToRenderState(kind, bundle.Section(kind))
		if err != nil {
			return err
		}
		board.Mount(string(kind))
		if err := board.Panel(string(kind)).Draw(state); err != nil {
			return err
		}
	}
	return board.Render(w)
}

// PrintSummary outputs a narrative summary.
func PrintSummary(summary string, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		switch cfg.Output {
		case schema.JSONOut:
			return writeJSON(w, schema.SummaryResponse{Summary: summary})
		case schema.YAMLOut:
			return writeYAML(w, map[string]string{"summary": summary})
		default:
			_, err := fmt.Fprintln(w, summary)
			return err
		}
	}, "Wrote summary")
}

// PrintComparison outputs a year by scenario comparison.
func PrintComparison(rows []schema.ComparisonRow, cfg *contract.Config) error {
	fmtFloat := createFormatters(2)
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		switch cfg.Output {
		case schema.JSONOut:
			return writeJSON(w, schema.CompareResponse{Comparison: rows})
		case schema.YAMLOut:
			return writeYAML(w, rows)
		case schema.CSVOut:
			return writeCSVComparison(w, rows, fmtFloat)
		default:
			return writeComparisonTable(w, rows, cfg, fmtFloat)
		}
	}, "Wrote comparison")
}

// WriteComparisonTable renders a comparison as a table.
func WriteComparisonTable(w io.Writer, rows []schema.ComparisonRow, cfg *contract.Config) error {
	return writeComparisonTable(w, rows, cfg, createFormatters(2))
}

// writeComparisonTable renders the comparison with one column per scenario.
func writeComparisonTable(w io.Writer, rows []schema.ComparisonRow, cfg *contract.Config, fmtFloat func(float64) string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No scenarios to compare.")
		return err
	}
	names := comparisonColumns(rows)
	width := GetMaxLabelWidth(cfg, len(names))

	headers := []string{"Year"}
	for _, name := range names {
		headers = append(headers, contract.TruncateLabel(name, width))
	}

	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	for _, r := range rows {
		record := []string{fmt.Sprintf("%d", r.Year)}
		for _, name := range names {
			if v, ok := r.Values.Get(name); ok {
				record = append(record, fmtFloat(v)+" °C")
			} else {
				record = append(record, "-")
			}
		}
		if err := table.Append(record); err != nil {
			return err
		}
	}
	return table.Render()
}

// PrintQueryLog outputs the free-text query log oldest first.
func PrintQueryLog(records []schema.QueryRecord, cfg *contract.Config) error {
	if cfg.Output == schema.ParquetOut {
		if err := parquet.WriteQueryLogParquet(parquet.ConvertQueryRecords(records), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		contract.LogInfo(cfg.UseEmojis, "💾", fmt.Sprintf("Wrote Parquet to %s", cfg.OutputFile))
		return nil
	}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		switch cfg.Output {
		case schema.JSONOut:
			return writeJSON(w, records)
		case schema.YAMLOut:
			return writeYAML(w, records)
		case schema.CSVOut:
			return writeCSVQueryLog(w, records)
		default:
			return writeQueryLogTable(w, records, cfg)
		}
	}, "Wrote query log")
}

func writeQueryLogTable(w io.Writer, records []schema.QueryRecord, cfg *contract.Config) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No queries logged.")
		return err
	}
	width := max(GetTerminalWidth(cfg)/3, 20)
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Time", "Query", "Response"})
	for _, r := range records {
		row := []string{
			r.Timestamp.Format(contract.DateTimeFormat),
			contract.TruncateLabel(r.Query, width),
			contract.TruncateLabel(r.Response, width),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

// PrintChartStatus outputs the registry slot status.
func PrintChartStatus(statuses []schema.ChartStatus, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		switch cfg.Output {
		case schema.JSONOut:
			return writeJSON(w, statuses)
		case schema.YAMLOut:
			return writeYAML(w, statuses)
		case schema.CSVOut:
			return writeCSVChartStatus(w, statuses)
		default:
			return WriteChartStatusTable(w, statuses)
		}
	}, "Wrote chart status")
}

// WriteChartStatusTable renders registry slot status as a table.
func WriteChartStatusTable(w io.Writer, statuses []schema.ChartStatus) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Chart", "Rendered", "Handle", "Type", "Series", "Points", "Seq"})
	for _, s := range statuses {
		rendered := "no"
		handle := "-"
		if s.Rendered {
			rendered = "yes"
			handle = fmt.Sprintf("#%d", s.HandleID)
		}
		row := []string{
			string(s.Kind),
			rendered,
			handle,
			string(s.Type),
			fmt.Sprintf("%d", s.Series),
			fmt.Sprintf("%d", s.Points),
			fmt.Sprintf("%d", s.Committed),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}
