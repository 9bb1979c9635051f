package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/huangsam/climdash/internal/contract"
	"github.com/huangsam/climdash/internal/devserver"
	"github.com/spf13/cobra"
)

// serveCmd runs the reference backend.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reference dashboard backend",
	Long: `Serve every dashboard endpoint with deterministic placeholder models.

Use it for local development, demos and tests. When api-secret is set every
/api route requires an HS256 bearer token signed with it.

Examples:
  climdash serve --serve-addr :5000
  CLIMDASH_API_SECRET=changeme climdash serve --cors-origins http://localhost:3000`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		contract.LogInfo(cfg.UseEmojis, "🌍", fmt.Sprintf("Serving dashboard backend on %s", cfg.ServeAddr))
		return devserver.NewFromConfig(cfg).ListenAndServe(ctx, cfg.ServeAddr)
	},
}
