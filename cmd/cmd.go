// Package cmd defines the command-line interface for aimetrics.
package cmd

import (
	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"github.com/ncolesummers/ai-code-metrics/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(timelineCmd)
	rootCmd.AddCommand(roiCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(secretsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(analysisCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the secrets subcommands to the parent secrets command
	secretsCmd.AddCommand(secretsSetCmd)
	secretsCmd.AddCommand(secretsGetCmd)
	secretsCmd.AddCommand(secretsListCmd)
	secretsCmd.AddCommand(secretsDeleteCmd)

	// Add the config subcommands to the parent config command
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configShowCmd)

	// Add the analysis subcommands to the parent analysis command
	analysisCmd.AddCommand(analysisClearCmd)
	analysisCmd.AddCommand(analysisStatusCmd)
	analysisCmd.AddCommand(analysisExportCmd)
	analysisCmd.AddCommand(analysisMigrateCmd)

	// Persistent flags are bound up front so initConfig can see --config.
	// Command flags are bound when the command runs, see bindCommandFlags.
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default ~/.ai_metrics/config.json)")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("metrics-dir", "", "Directory holding observation logs (default ~/.ai_metrics)")
	rootCmd.PersistentFlags().String("analysis-backend", "", "Analysis tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("analysis-db-connect", "", "Database connection string for analysis tracking (e.g., user:pass@tcp(host:port)/dbname)")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}
	if err := viper.BindPFlag("metrics_storage_path", rootCmd.PersistentFlags().Lookup("metrics-dir")); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// The report goes to a JSON file unless told otherwise
	analyzeCmd.Flags().Int("days", contract.DefaultLookbackDays, "Number of days of history to analyze")
	analyzeCmd.Flags().Int("max-count", 0, "Maximum number of commits to read (0 = no limit)")
	analyzeCmd.Flags().Bool("anonymize", false, "Replace author names and emails with stable pseudonyms")
	analyzeCmd.Flags().String("output", string(schema.JSONOut), "Output format: text or csv or json or parquet")
	analyzeCmd.Flags().String("output-file", contract.DefaultReportFile, "Path to write the report to (empty for stdout)")

	timelineCmd.Flags().Int("days", contract.DefaultTimelineDays, "Number of days to show")
	timelineCmd.Flags().Int("max-count", 0, "Maximum number of commits to read (0 = no limit)")

	roiCmd.Flags().Int("days", contract.DefaultROIDays, "Number of days of observations to include")
	roiCmd.Flags().Float64("hourly-rate", contract.DefaultHourlyRate, "Developer cost per hour in dollars")

	exportCmd.Flags().String("host", contract.DefaultPrometheusHost, "Address to listen on")
	exportCmd.Flags().Int("port", contract.DefaultPrometheusPort, "Port to listen on")
	exportCmd.Flags().String("refresh", "0s", "Minimum time between log rescans on scrape (0s rescans every scrape)")

	trackCmd.Flags().String("name", "", "Operation name (default: the command name)")
	trackCmd.Flags().Bool("ai", false, "Mark the run as AI-assisted")
	trackCmd.Flags().String("model", "", "Model label for the record")
	trackCmd.Flags().String("language", "", "Language label for the record")
	trackCmd.Flags().Float64("quality-score", 0, "Quality score between 0 and 100")
	trackCmd.Flags().Int("lines-generated", 0, "Number of lines the run produced")
	trackCmd.Flags().SetInterspersed(false)

	configInitCmd.Flags().Bool("force", false, "Overwrite an existing config file")

	analysisExportCmd.Flags().Bool("observations", false, "Export the timing and API usage logs instead of stored runs")
	analysisMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
}
