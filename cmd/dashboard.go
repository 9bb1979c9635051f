package cmd

import (
	"context"
	"fmt"

	"github.com/huangsam/climdash/internal/contract"
	"github.com/huangsam/climdash/internal/outwriter"
	"github.com/huangsam/climdash/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ow prints results in the configured output format.
var ow = outwriter.NewOutWriter()

// showDashboard prints the displayed charts: panels for text output, the
// read-back bundle for every other format.
func showDashboard(d *dashboard) error {
	if cfg.Output == schema.TextOut {
		file, err := contract.SelectOutputFile(cfg.OutputFile)
		if err != nil {
			return fmt.Errorf("error opening output file: %w", err)
		}
		if cfg.OutputFile != "" {
			defer func() { _ = file.Close() }()
		}
		return d.board.Render(file)
	}
	bundle, err := d.ctrl.Snapshot()
	if bundle == nil {
		return err
	}
	return ow.WriteBundle(bundle, cfg)
}

// dashboardCmd renders every chart.
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Render all five dashboard charts",
	Long: `Render the temperature, economic, risk, scenario and sensitivity charts.

The last saved workspace is restored when there is one. Otherwise the
default dataset is fetched from the backend.

Examples:
  # Show the dashboard
  climdash dashboard

  # Ignore the saved workspace and fetch the default dataset
  climdash dashboard --fresh

  # Dump the displayed dataset as YAML
  climdash dashboard --output yaml`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		fresh := viper.GetBool("fresh")
		return withDashboard(!fresh, func(ctx context.Context, d *dashboard) error {
			if fresh {
				if err := d.ctrl.Bootstrap(ctx); err != nil && !d.anyRendered() {
					return err
				}
			}
			if viper.GetBool("status") {
				return ow.WriteChartStatus(d.ctrl.Registry().Status(), cfg)
			}
			return showDashboard(d)
		})
	},
}
