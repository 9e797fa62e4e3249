package cmd

import (
	"time"

	"github.com/huangsam/recap/core"
	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/internal/outwriter"
	"github.com/spf13/cobra"
)

// reportCmd runs the full activity report pipeline.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build the quarterly activity report for your team.",
	Long: `Fetch activity from every enabled source, normalize it into one event
stream and roll it up into a quarterly report grouped by person and project.

For each member the report covers:
- Commits pushed and pull requests opened on GitHub
- Issues opened and closed on GitHub
- Bugs filed and resolved on Bugzilla
- Comments left on either source

Events are deduplicated across pages, clipped to the reporting window and
grouped by (actor, project) with per-kind counts and a few sample links.
A member missing an identity for a source is simply skipped by that source.

Partial data is reported, never hidden: each source's outcome (ok, partial,
unavailable) is part of the output, and the run only fails when every
source came back empty-handed.

Examples:
  # Last completed quarter for the whole team
  recap report --team team.yaml

  # A specific quarter for one person
  recap report --actor octocat --quarter 2024Q2

  # Custom window with Bugzilla credentials
  recap report --team team.yaml --start "3 months ago" \
    --bugzilla-url https://bugzilla.example.org --bugzilla-key $KEY

  # Per-actor markdown files for a status email
  recap report --team team.yaml --output markdown --report-dir ./reports

  # Columnar export for notebooks
  recap report --team team.yaml --output parquet --output-file q2.parquet`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		start := time.Now()
		report, err := core.Execute(rootCtx, cfg, cacheManager)
		if err != nil {
			contract.LogFatal("Cannot build report", err)
		}
		ow := outwriter.NewOutWriter()
		if err := ow.WriteReport(report, cfg, time.Since(start)); err != nil {
			contract.LogFatal("Cannot write report", err)
		}
	},
}
