package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/climdash/internal/contract"
	"github.com/huangsam/climdash/internal/report"
	"github.com/huangsam/climdash/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// importCmd submits a local file for processing.
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a .json or .csv dataset and render it",
	Long: `Send a local dataset to the backend for processing and render the result.

JSON files are sent as-is. CSV files are read as a header row followed by
data rows; rows with the wrong number of cells are skipped. The processed
dataset is saved as a backend session and as the local workspace.

Examples:
  climdash import observations.csv
  climdash import bundle.json --output json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		return withDashboard(false, func(ctx context.Context, d *dashboard) error {
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("error opening import file: %w", err)
			}
			defer func() { _ = file.Close() }()

			if err := d.ctrl.ImportFile(ctx, args[0], file); err != nil && !d.anyRendered() {
				return err
			}
			d.ctrl.Wait()
			if id := d.ctrl.SessionID(); id != "" {
				contract.LogInfo(cfg.UseEmojis, "🔖", fmt.Sprintf("Saved session %s", id))
			}
			return showDashboard(d)
		})
	},
}

// exportCmd writes the displayed dataset.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the displayed dataset",
	Long: `Read every displayed chart back into one dataset and write it out.

With the default text output the dataset is saved as JSON to
climate_economic_data.json in the working directory. Other output formats
(json, yaml, csv, parquet) honor --output-file. With --server-side the
backend serializes the dataset instead.

Examples:
  climdash export
  climdash export --output csv --output-file data.csv
  climdash export --output parquet --output-file data
  climdash export --server-side --output csv`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return withDashboard(true, func(ctx context.Context, d *dashboard) error {
			if viper.GetBool("server-side") {
				bundle, err := d.ctrl.Snapshot()
				if bundle == nil {
					return err
				}
				format := string(cfg.Output)
				if cfg.Output == schema.TextOut {
					format = string(schema.JSONOut)
				}
				out, err := d.client.Export(ctx, bundle, format)
				if err != nil {
					return err
				}
				return writeText(cfg.OutputFile, out)
			}
			if cfg.Output == schema.TextOut {
				return d.ctrl.ExportCurrentState(ctx)
			}
			bundle, err := d.ctrl.Snapshot()
			if bundle == nil {
				return err
			}
			return ow.WriteBundle(bundle, cfg)
		})
	},
}

// scenarioCmd changes the selected scenario.
var scenarioCmd = &cobra.Command{
	Use:   "scenario <name>",
	Short: "Recompute the scenario chart for a scenario selection",
	Long: `Send the displayed temperature path and a scenario name to the backend
and redraw the scenario chart with the answer.

Examples:
  climdash scenario optimistic
  climdash scenario baseline`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		return withDashboard(true, func(ctx context.Context, d *dashboard) error {
			if err := d.ctrl.ChangeScenario(ctx, args[0]); err != nil {
				return err
			}
			return showDashboard(d)
		})
	},
}

// sensitivityCmd changes the sensitivity slider.
var sensitivityCmd = &cobra.Command{
	Use:   "sensitivity <value>",
	Short: "Recompute the sensitivity chart for a slider value",
	Long: `Send the displayed economic impact and a slider value to the backend and
redraw the sensitivity chart with the answer. 100 is neutral.

Examples:
  climdash sensitivity 150`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		value, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("sensitivity must be an integer, got %q", args[0])
		}
		return withDashboard(true, func(ctx context.Context, d *dashboard) error {
			if err := d.ctrl.ChangeSensitivity(ctx, value); err != nil {
				return err
			}
			return showDashboard(d)
		})
	},
}

// analyticsCmd runs the advanced analytics recompute.
var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Recompute every chart with advanced analytics",
	Long: `Send the displayed temperature and economic series to the backend and
redraw every chart from the extended result. The risk chart gains the
economic impact and adaptation cost metrics.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return withDashboard(true, func(ctx context.Context, d *dashboard) error {
			if err := d.ctrl.RunAdvancedAnalytics(ctx); err != nil && !d.anyRendered() {
				return err
			}
			return showDashboard(d)
		})
	},
}

// reportCmd generates an HTML or PDF report.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a report of the displayed dataset and the query log",
	Long: `Generate a report of the displayed dataset and every logged query.

By default the backend renders an HTML report, written to
climate_economic_report.html. With --pdf the report is rendered locally.

Examples:
  climdash report
  climdash report --pdf --output-file report.pdf`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return withDashboard(true, func(ctx context.Context, d *dashboard) error {
			if viper.GetBool("pdf") {
				req, err := d.ctrl.ReportInput()
				if err != nil {
					return err
				}
				data, err := report.PDF(req, time.Now())
				if err != nil {
					return err
				}
				return saveFile(cfg.OutputFile, pdfReportFileName, data)
			}
			html, err := d.ctrl.GenerateReport(ctx)
			if err != nil {
				return err
			}
			return saveFile(cfg.OutputFile, schema.ReportFileName, []byte(html))
		})
	},
}

// pdfReportFileName is the default name of a locally rendered report.
const pdfReportFileName = "climate_economic_report.pdf"

// queryCmd asks the backend a free-text question.
var queryCmd = &cobra.Command{
	Use:   "query [text...]",
	Short: "Ask a free-text question and log the answer",
	Long: `Ask the backend a free-text question. Every answered query is appended to
the query log, which feeds the report. With --history the log is printed
instead.

Examples:
  climdash query "What drives the economic impact?"
  climdash query --history --output csv`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		return withDashboard(false, func(ctx context.Context, d *dashboard) error {
			if viper.GetBool("history") {
				records, err := d.ctrl.QueryLog()
				if err != nil {
					return err
				}
				return ow.WriteQueryLog(records, cfg)
			}
			answer, err := d.ctrl.Query(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return writeText(cfg.OutputFile, answer)
		})
	},
}

// summaryCmd narrates the displayed dataset.
var summaryCmd = &cobra.Command{
	Use:     "summary",
	Short:   "Summarize the displayed dataset in plain language",
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return withDashboard(true, func(ctx context.Context, d *dashboard) error {
			summary, err := d.ctrl.Summary(ctx)
			if err != nil {
				return err
			}
			return ow.WriteSummary(summary, cfg)
		})
	},
}

// compareCmd tabulates the displayed scenarios.
var compareCmd = &cobra.Command{
	Use:     "compare",
	Short:   "Compare the displayed scenarios year by year",
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return withDashboard(true, func(ctx context.Context, d *dashboard) error {
			rows, err := d.ctrl.CompareScenarios(ctx)
			if err != nil {
				return err
			}
			return ow.WriteComparison(rows, cfg)
		})
	},
}

// sessionCmd groups backend session commands.
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Work with datasets saved as backend sessions",
}

// sessionLoadCmd renders a saved session.
var sessionLoadCmd = &cobra.Command{
	Use:     "load <id>",
	Short:   "Render a dataset saved as a backend session",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		return withDashboard(false, func(ctx context.Context, d *dashboard) error {
			if err := d.ctrl.LoadSession(ctx, args[0]); err != nil && !d.anyRendered() {
				return err
			}
			return showDashboard(d)
		})
	},
}

// saveFile writes data to path, or to defaultName when path is empty.
func saveFile(path, defaultName string, data []byte) error {
	if path == "" {
		path = defaultName
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	contract.LogInfo(cfg.UseEmojis, "💾", fmt.Sprintf("Wrote %s", path))
	return nil
}

// writeText prints text to stdout or to path.
func writeText(path, text string) error {
	file, err := contract.SelectOutputFile(path)
	if err != nil {
		return fmt.Errorf("error opening output file: %w", err)
	}
	if path != "" {
		defer func() { _ = file.Close() }()
	}
	_, err = fmt.Fprintln(file, text)
	return err
}
