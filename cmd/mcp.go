package cmd

import (
	"github.com/ncolesummers/ai-code-metrics/internal/iocache"
	"github.com/ncolesummers/ai-code-metrics/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the aimetrics MCP server",
	Long: `Launch an MCP server on stdio so AI agents can query usage stats,
analyze commits, read the timeline and calculate ROI as tools.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		// Tools take the repository per call, so no repository is resolved here.
		if err := loadSettings(rootCtx, cmd, nil, nil); err != nil {
			return err
		}
		return iocache.InitStores(cfg.AnalysisBackend, cfg.AnalysisDBConnect)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, gitClient, iocache.Manager)
	},
}
