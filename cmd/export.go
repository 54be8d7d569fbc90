package cmd

import (
	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"github.com/ncolesummers/ai-code-metrics/internal/exporter"
	"github.com/spf13/cobra"
)

// exportCmd serves the observation logs as Prometheus metrics.
var exportCmd = &cobra.Command{
	Use:     "export",
	Aliases: []string{"serve"},
	Short:   "Serve recorded observations as Prometheus metrics.",
	Long: `Start an HTTP endpoint that exposes the timing and API usage logs as
Prometheus metrics on GET /metrics. Log files are read incrementally, so each
record is counted once per process.

Exposed series:
  ai_coding_requests_total
  ai_coding_response_time_seconds
  ai_coding_api_cost_dollars
  ai_coding_lines_generated_total
  ai_coding_quality_score

Examples:
  aimetrics export
  aimetrics serve --host 127.0.0.1 --port 9464 --refresh 5s`,
	Args:    cobra.NoArgs,
	PreRunE: settingsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		exp := exporter.NewFromConfig(cfg)
		contract.LogInfo("Serving metrics from %s on http://%s/metrics", exp.Dir(), cfg.ListenAddr())
		if err := exp.Serve(rootCtx, cfg.ListenAddr(), cfg.RefreshInterval); err != nil {
			contract.LogFatal("Metrics server stopped", err)
		}
	},
}
