package cmd

import (
	"github.com/ncolesummers/ai-code-metrics/core"
	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"github.com/ncolesummers/ai-code-metrics/internal/iocache"
	"github.com/spf13/cobra"
)

// analyzeCmd classifies recent commits and writes the AI usage report.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [repo-path]",
	Short: "Classify recent commits by AI assistance and write a report.",
	Long: `Walk the commits of the last --days days and classify each one by its
message trailers and markers:

- AI-assisted commits name an assistant (Claude, Copilot, Cursor, ...)
- Explanation commits carry a "Why" or "Context" section
- Line counts come from --numstat, so AI-generated lines can be totalled

The report is written as JSON to --output-file by default.

Examples:
  # Last week of history into metrics_report.json
  aimetrics analyze

  # Last 30 days as a table on stdout
  aimetrics analyze --days 30 --output text --output-file ""

  # Anonymize authors before sharing
  aimetrics analyze --anonymize --output-file shared_report.json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAnalyze(rootCtx, cfg, gitClient, iocache.Manager); err != nil {
			contract.LogFatal("Cannot run commit analysis", err)
		}
	},
}

// statsCmd summarizes AI usage over the whole history.
var statsCmd = &cobra.Command{
	Use:   "stats [repo-path]",
	Short: "Summarize AI assistance over the full commit history.",
	Long: `Read every commit message in the repository and report how many commits
were AI-assisted and how they split between assistants.

Examples:
  aimetrics stats
  aimetrics stats ~/src/project --output json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteStats(rootCtx, cfg, gitClient, iocache.Manager); err != nil {
			contract.LogFatal("Cannot compute usage stats", err)
		}
	},
}

// timelineCmd prints the per-day series used by dashboards.
var timelineCmd = &cobra.Command{
	Use:   "timeline [repo-path]",
	Short: "Show AI activity per day.",
	Long: `Bucket the commits of the last --days days per calendar day (UTC) and show
total commits, AI-assisted commits and AI versus human lines for each day.

Examples:
  aimetrics timeline
  aimetrics timeline --days 90 --output csv --output-file timeline.csv`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteTimeline(rootCtx, cfg, gitClient, iocache.Manager); err != nil {
			contract.LogFatal("Cannot build timeline", err)
		}
	},
}

// roiCmd folds the observation logs into a return-on-investment estimate.
var roiCmd = &cobra.Command{
	Use:   "roi",
	Short: "Estimate time and money saved from recorded observations.",
	Long: `Read the timing and API usage logs under the metrics directory for the
last --days days and estimate what AI assistance saved.

Each AI-assisted operation of duration d is assumed to have taken
d / (1 - improvement_factor) without assistance. The difference is valued at
--hourly-rate and offset by the recorded API cost.

Examples:
  aimetrics roi
  aimetrics roi --days 7 --hourly-rate 120 --output json`,
	Args:    cobra.NoArgs,
	PreRunE: settingsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteROI(cfg); err != nil {
			contract.LogFatal("Cannot calculate ROI", err)
		}
	},
}
