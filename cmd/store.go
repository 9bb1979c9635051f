package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/climdash/internal/contract"
	"github.com/huangsam/climdash/internal/iocache"
	"github.com/huangsam/climdash/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeSetup loads the configuration needed for store operations.
// It does not open the stores, so migrations can run on a fresh database.
func storeSetup(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	return contract.ProcessAndValidate(cfg, input)
}

// Store targets accepted by --target.
const (
	allStores      = "all"
	workspaceStore = "workspace"
	queryLogStore  = "querylog"
)

// storeCmd focused on local store management.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the local workspace snapshot and query log",
	Long: `Manage the local stores that outlive a single dashboard invocation.

The workspace store keeps the last displayed dataset so the next command can
restore it. The query log store keeps every answered free-text query for
reports.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show store statistics and connection info
  clear   - Remove stored data
  migrate - Run query log schema migrations
  export  - Export the query log to Parquet

Examples:
  # Check store status
  climdash store status

  # Start over with an empty workspace
  climdash store clear --target workspace`,
}

// storeStatusCmd shows store status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display store statistics and connection details",
	Long: `Show detailed information about both local stores.

Displays:
- Backend type and connection status
- Number of snapshots and logged queries
- Last and oldest entry timestamps
- Workspace table size`,
	PreRunE: storeSetup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		mgr, err := iocache.InitStores(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize persistence: %w", err)
		}
		defer mgr.Close()

		out := cmd.OutOrStdout()
		status, err := mgr.GetWorkspaceStore().GetStatus()
		if err != nil {
			return fmt.Errorf("failed to get workspace status: %w", err)
		}
		iocache.PrintWorkspaceStatus(out, status)

		qstatus, err := mgr.GetQueryLogStore().GetStatus()
		if err != nil {
			return fmt.Errorf("failed to get query log status: %w", err)
		}
		iocache.PrintQueryLogStatus(out, qstatus)
		return nil
	},
}

// storeClearCmd clears stored data.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the workspace snapshot, the query log, or both",
	Long: `Delete stored dashboard data from the configured backends.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the tables

WARNING: Clearing the query log cannot be undone. Consider exporting it first.

Examples:
  climdash store export --output-file backup
  climdash store clear

  # Clear only the workspace snapshot
  climdash store clear --target workspace`,
	PreRunE: storeSetup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		target := viper.GetString("target")
		switch target {
		case allStores, workspaceStore, queryLogStore:
		default:
			return fmt.Errorf("invalid target %q. must be all, workspace, querylog", target)
		}
		if target != queryLogStore {
			path := iocache.SQLiteFilePath(cfg.WorkspaceDBConnect, contract.GetWorkspaceDBFilePath())
			if err := iocache.ClearWorkspace(cfg.WorkspaceBackend, path, cfg.WorkspaceDBConnect); err != nil {
				return fmt.Errorf("failed to clear workspace: %w", err)
			}
			cmd.Println("Workspace cleared successfully.")
		}
		if target != workspaceStore {
			path := iocache.SQLiteFilePath(cfg.QueryLogDBConnect, contract.GetQueryLogDBFilePath())
			if err := iocache.ClearQueryLog(cfg.QueryLogBackend, path, cfg.QueryLogDBConnect); err != nil {
				return fmt.Errorf("failed to clear query log: %w", err)
			}
			cmd.Println("Query log cleared successfully.")
		}
		return nil
	},
}

// storeMigrateCmd runs database migrations for the query log store.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run query log schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the query log store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  climdash store migrate

  # Migrate to specific version
  climdash store migrate --target-version 1

  # Rollback to initial state
  climdash store migrate --target-version 0`,
	PreRunE: storeSetup,
	RunE: func(cmd *cobra.Command, _ []string) error {
		connStr := cfg.QueryLogDBConnect
		if cfg.QueryLogBackend == schema.SQLiteBackend && connStr == "" {
			connStr = contract.GetQueryLogDBFilePath()
		}
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateQueryLog(cmd.OutOrStdout(), cfg.QueryLogBackend, connStr, targetVersion); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	},
}

// storeExportCmd exports the query log to Parquet.
var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the query log to Parquet for analytics tools",
	Long: `Export every logged query to a Parquet file.

Requires: --output-file parameter. The file is written as
<output-file>.query_log.parquet.

Examples:
  climdash store export --output-file climdash
  duckdb -c "SELECT * FROM read_parquet('climdash.query_log.parquet')"`,
	PreRunE: storeSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		mgr, err := iocache.InitStores(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize persistence: %w", err)
		}
		defer mgr.Close()
		return iocache.ExecuteQueryLogExport(os.Stderr, mgr.GetQueryLogStore(), cfg.OutputFile)
	},
}
