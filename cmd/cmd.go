// Package cmd defines the command-line interface for recap.
package cmd

import (
	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(ledgerCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the ledger subcommands to the parent ledger command
	ledgerCmd.AddCommand(ledgerClearCmd)
	ledgerCmd.AddCommand(ledgerStatusCmd)
	ledgerCmd.AddCommand(ledgerExportCmd)
	ledgerCmd.AddCommand(ledgerMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("quarter", "q", "", "Reporting quarter: 2024Q2, current or last")
	rootCmd.PersistentFlags().String("start", "", "Window start in ISO8601 or time ago (alternative to --quarter)")
	rootCmd.PersistentFlags().String("end", "", "Window end in ISO8601 or time ago (defaults to now)")
	rootCmd.PersistentFlags().StringP("team", "t", "", "Path to a team manifest listing members and identities")
	rootCmd.PersistentFlags().String("actor", "", "Report on a single person instead of a team")
	rootCmd.PersistentFlags().String("github-login", "", "GitHub login for --actor (defaults to the actor name)")
	rootCmd.PersistentFlags().String("bugzilla-email", "", "Bugzilla account email for --actor")
	rootCmd.PersistentFlags().String("sources", "github,bugzilla", "Comma-separated sources to query: github, bugzilla")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent fetch workers")
	rootCmd.PersistentFlags().Int("retry-limit", contract.DefaultRetryLimit, "Retry attempts per failing request")
	rootCmd.PersistentFlags().String("timeout", "30s", "Per-request HTTP timeout")
	rootCmd.PersistentFlags().String("exclude", "", "Comma-separated project patterns to drop from the report")
	rootCmd.PersistentFlags().String("github-url", contract.DefaultGitHubURL, "GitHub API base URL (override for GitHub Enterprise)")
	rootCmd.PersistentFlags().String("github-token", "", "GitHub API token (prefer RECAP_GITHUB_TOKEN)")
	rootCmd.PersistentFlags().String("bugzilla-url", "", "Bugzilla REST base URL")
	rootCmd.PersistentFlags().String("bugzilla-key", "", "Bugzilla API key (prefer RECAP_BUGZILLA_KEY)")
	rootCmd.PersistentFlags().StringP("output", "o", string(schema.TextOut), "Output format: text, markdown, csv, json, parquet, xlsx")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("report-dir", "", "Directory for per-actor markdown files")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Bool("quiet", false, "Suppress the run header")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Fetch cache backend: sqlite, mysql, postgresql, none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("cache-ttl", "7 days", "Fetch cache entry lifetime")
	rootCmd.PersistentFlags().Bool("no-cache", false, "Bypass the fetch cache for this run")
	rootCmd.PersistentFlags().String("ledger-backend", "", "Run ledger backend: sqlite, mysql, postgresql, none (empty disables)")
	rootCmd.PersistentFlags().String("ledger-db-connect", "", "Database connection string for the run ledger (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of ledgerMigrateCmd to Viper
	ledgerMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(ledgerMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding ledger migrate flags", err)
	}
}
