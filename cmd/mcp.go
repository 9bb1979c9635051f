package cmd

import (
	"github.com/huangsam/climdash/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the dashboard MCP server",
	Long: `Launch an MCP server that lets AI agents read and drive the dashboard via standard tools.

The saved workspace is restored, or the default dataset fetched, before the
server starts.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		// No spinner in MCP mode: stdio carries the protocol.
		d, err := openDashboard(true)
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.ensureRendered(rootCtx); err != nil && !d.anyRendered() {
			return err
		}
		return mcp.StartMCPServer(rootCtx, d.ctrl)
	},
}
