package cmd

import (
	"github.com/huangsam/recap/core"
	"github.com/huangsam/recap/internal/contract"
	"github.com/spf13/cobra"
)

// sourcesCmd probes source connectivity.
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Check that every enabled source is reachable (fails on outages)",
	Long: `Probe each enabled source with the configured endpoints and credentials.

Probes are cheap: one authenticated request per source, no activity data
is fetched. The command exits non-zero when any source is unreachable,
which makes it handy as a preflight step in cron jobs and CI.

Use cases:
- Verify a GitHub token before a scheduled report run
- Confirm the Bugzilla endpoint and API key after rotation
- Debug connectivity from a new environment

Examples:
  # Probe both sources
  recap sources --team team.yaml

  # Probe GitHub only
  recap sources --actor octocat --sources github`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSourceCheck(rootCtx, cfg); err != nil {
			contract.LogFatal("Source check failed", err)
		}
	},
}
