// Package cmd defines the command-line interface for climdash.
package cmd

import (
	"github.com/huangsam/climdash/internal/contract"
	"github.com/huangsam/climdash/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(scenarioCmd)
	rootCmd.AddCommand(sensitivityCmd)
	rootCmd.AddCommand(analyticsCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the session subcommands to the parent session command
	sessionCmd.AddCommand(sessionLoadCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeMigrateCmd)
	storeCmd.AddCommand(storeExportCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("api-url", contract.DefaultAPIURL, "Base URL of the dashboard backend")
	rootCmd.PersistentFlags().String("api-secret", "", "HS256 secret for signing backend requests (prefer CLIMDASH_API_SECRET)")
	rootCmd.PersistentFlags().String("timeout", contract.DefaultTimeout.String(), "Per-request timeout")
	rootCmd.PersistentFlags().Int("retry-attempts", contract.DefaultRetryAttempts, "Render attempts before a chart update is reported as failed")
	rootCmd.PersistentFlags().String("retry-delay", contract.DefaultRetryDelay.String(), "Delay between render attempts")
	rootCmd.PersistentFlags().String("notice-duration", contract.DefaultNoticeDuration.String(), "How long an error notice stays visible")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or json or csv or yaml or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("workspace-backend", string(schema.SQLiteBackend), "Workspace backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("workspace-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("querylog-backend", "", "Query log backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("querylog-db-connect", "", "Database connection string for the query log")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored notices and headers (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("emoji", "no", "Enable emojis in progress lines (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of dashboardCmd to Viper
	dashboardCmd.Flags().Bool("fresh", false, "Fetch the default dataset instead of restoring the saved workspace")
	dashboardCmd.Flags().Bool("status", false, "Print chart slot status instead of the charts")
	if err := viper.BindPFlags(dashboardCmd.Flags()); err != nil {
		contract.LogFatal("Error binding dashboard flags", err)
	}

	// Bind all flags of exportCmd to Viper
	exportCmd.Flags().Bool("server-side", false, "Ask the backend to render the export")
	if err := viper.BindPFlags(exportCmd.Flags()); err != nil {
		contract.LogFatal("Error binding export flags", err)
	}

	// Bind all flags of reportCmd to Viper
	reportCmd.Flags().Bool("pdf", false, "Render a PDF report locally instead of the backend HTML report")
	if err := viper.BindPFlags(reportCmd.Flags()); err != nil {
		contract.LogFatal("Error binding report flags", err)
	}

	// Bind all flags of queryCmd to Viper
	queryCmd.Flags().Bool("history", false, "List logged queries instead of asking a new one")
	if err := viper.BindPFlags(queryCmd.Flags()); err != nil {
		contract.LogFatal("Error binding query flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("serve-addr", contract.DefaultServeAddr, "Address the reference backend listens on")
	serveCmd.Flags().String("cors-origins", "", "Comma-separated list of allowed CORS origins")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Bind all flags of storeClearCmd to Viper
	storeClearCmd.Flags().String("target", allStores, "Store to clear: all or workspace or querylog")
	if err := viper.BindPFlags(storeClearCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store clear flags", err)
	}

	// Bind all flags of storeMigrateCmd to Viper
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store migrate flags", err)
	}
}
