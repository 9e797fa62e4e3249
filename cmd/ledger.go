package cmd

import (
	"fmt"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/internal/iocache"
	"github.com/huangsam/recap/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ledgerSetup loads minimal configuration needed for ledger operations.
// This is used by commands that need ledger access without full shared setup.
func ledgerSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get ledger-related config values
	backendStr := viper.GetString("ledger-backend")
	connStr := viper.GetString("ledger-db-connect")

	// Handle empty backend as NoneBackend
	var backend schema.DatabaseBackend
	if backendStr == "" {
		backend = schema.NoneBackend
	} else {
		backend = schema.DatabaseBackend(backendStr)
	}

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// Get output-related config values (used by export command)
	outputFile := viper.GetString("output-file")

	// Initialize stores with the loaded config (no fetch cache for ledger commands)
	if err := iocache.InitCaching(schema.NoneBackend, "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize ledger: %w", err)
	}

	cfg.LedgerBackend = backend
	cfg.LedgerDBConnect = connStr
	cfg.OutputFile = outputFile

	return nil
}

// ledgerSetupWrapper wraps ledgerSetup to provide PreRunE for ledger commands.
func ledgerSetupWrapper(_ *cobra.Command, _ []string) error {
	return ledgerSetup()
}

// ledgerMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func ledgerMigrateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get ledger-related config values
	backendStr := viper.GetString("ledger-backend")
	connStr := viper.GetString("ledger-db-connect")

	// Handle empty backend as NoneBackend
	var backend schema.DatabaseBackend
	if backendStr == "" {
		backend = schema.NoneBackend
	} else {
		backend = schema.DatabaseBackend(backendStr)
	}

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetLedgerDBFilePath()
	}

	cfg.LedgerBackend = backend
	cfg.LedgerDBConnect = connStr

	return nil
}

// ledgerMigrateSetupWrapper wraps ledgerMigrateSetup to provide PreRunE for migrate command.
func ledgerMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return ledgerMigrateSetup()
}

// ledgerCmd focused on run ledger management.
//
// Note: Ledger subcommands use minimal initialization (ledgerSetup) instead of
// the full sharedSetup used by report commands. This avoids window resolution
// and credential checks for simple ledger operations.
var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Manage run telemetry tracking and exports",
	Long: `Manage the run ledger used for fetch telemetry and reporting history.

When enabled, Recap tracks every report run, storing:
- Run metadata (timestamp, window, configuration, duration)
- Per (source, actor) fetch telemetry (status, records, requests)

The ledger stores fetch accounting only; report content is never persisted.

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show run ledger statistics
  export  - Export telemetry to Parquet for analytics
  clear   - Remove all ledger data
  migrate - Run database schema migrations

Examples:
  # Check ledger status
  recap ledger status --ledger-backend sqlite

  # Export for analysis in pandas/DuckDB
  recap ledger export --ledger-backend sqlite --output-file runs.parquet`,
}

// ledgerClearCmd clears the ledger data.
var ledgerClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all run telemetry data",
	Long: `Delete all stored runs and fetch telemetry rows.

WARNING: This action cannot be undone. Consider exporting data first.

Use this when:
- Resetting run history
- Database storage is full
- Testing ledger features

Examples:
  # Export before clearing
  recap ledger export --ledger-backend sqlite --output-file backup.parquet
  recap ledger clear --ledger-backend sqlite`,
	PreRunE: ledgerSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearLedger(cfg.LedgerBackend, contract.GetLedgerDBFilePath(), cfg.LedgerDBConnect); err != nil {
			contract.LogFatal("Failed to clear ledger data", err)
		}
		fmt.Println("Ledger data cleared successfully.")
	},
}

// ledgerStatusCmd shows ledger status.
var ledgerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run ledger statistics and connection details",
	Long: `Show detailed information about run telemetry tracking.

Displays:
- Backend type and connection status
- Total number of runs stored
- Last and oldest run timestamps
- Total events reported across all runs
- Database table sizes

Examples:
  # Check ledger status
  recap ledger status --ledger-backend sqlite`,
	PreRunE: ledgerSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetLedgerStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get ledger status", err)
		}
		iocache.PrintLedgerStatus(status)
	},
}

// ledgerExportCmd exports ledger data to Parquet files.
var ledgerExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run telemetry to Parquet for BI tools and analytics",
	Long: `Export all stored ledger data to Parquet format for use with analytics tools.

Exports two datasets:
- Runs - metadata about each report run
- Fetch records - per (source, actor) telemetry rows

Requires: --output-file parameter

Use cases:
- Spotting sources that degrade over time
- Capacity planning for API quotas
- Custom dashboards on report activity

Examples:
  # Export all data
  recap ledger export --ledger-backend sqlite --output-file recap-runs.parquet

  # Use with DuckDB for analysis
  recap ledger export --ledger-backend sqlite --output-file data.parquet
  duckdb -c "SELECT * FROM read_parquet('data.runs.parquet') LIMIT 10"`,
	PreRunE: ledgerSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteLedgerExport(cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export ledger data", err)
		}
	},
}

// ledgerMigrateCmd runs database migrations for the ledger store.
var ledgerMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run ledger store.

Migrations allow:
- Upgrading to new schema versions when Recap is updated
- Safely modifying database structure without data loss
- Rolling back schema changes if needed

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  recap ledger migrate --ledger-backend sqlite

  # Migrate to specific version
  recap ledger migrate --ledger-backend sqlite --target-version 1

  # Rollback to initial state
  recap ledger migrate --ledger-backend sqlite --target-version 0`,
	PreRunE: ledgerMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateLedger(cfg.LedgerBackend, cfg.LedgerDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
