package cmd

import (
	"fmt"
	"os"

	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"github.com/ncolesummers/ai-code-metrics/internal/iocache"
	"github.com/ncolesummers/ai-code-metrics/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// analysisBackendConfig resolves the analysis backend settings without touching Git.
func analysisBackendConfig(cmd *cobra.Command) error {
	if err := bindCommandFlags(cmd); err != nil {
		return err
	}
	loadConfigFile()

	// Handle empty backend as NoneBackend
	backend := schema.DatabaseBackend(viper.GetString("analysis-backend"))
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return fmt.Errorf("invalid analysis backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("analysis-db-connect")
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.AnalysisBackend = backend
	cfg.AnalysisDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	cfg.MetricsDir = contract.ExpandHome(viper.GetString("metrics_storage_path"))
	return nil
}

// analysisSetupWrapper loads the minimal configuration for analysis data commands
// and opens the store.
func analysisSetupWrapper(cmd *cobra.Command, _ []string) error {
	if err := analysisBackendConfig(cmd); err != nil {
		return err
	}
	if err := iocache.InitStores(cfg.AnalysisBackend, cfg.AnalysisDBConnect); err != nil {
		return fmt.Errorf("failed to initialize analysis: %w", err)
	}
	return nil
}

// analysisMigrateSetupWrapper loads the backend configuration without opening the
// store, so migrations can run on a fresh database.
func analysisMigrateSetupWrapper(cmd *cobra.Command, _ []string) error {
	return analysisBackendConfig(cmd)
}

// sqliteFilePath returns the SQLite database file for the configured backend.
func sqliteFilePath() string {
	if cfg.AnalysisDBConnect != "" {
		return cfg.AnalysisDBConnect
	}
	return contract.GetAnalysisDBFilePath()
}

// analysisCmd manages stored analyze runs and observation logs.
var analysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Manage stored analysis runs and observation logs",
	Long: `Manage the history written by analyze runs and the observation logs
written by the timing and API recorders.

When a backend is configured, every analyze run is stored together with the
commits it classified.

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, the default)

Subcommands:
  status  - Show stored runs and observation log statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all stored analysis runs
  migrate - Run database schema migrations

Examples:
  # Enable tracking for one run
  AIMETRICS_ANALYSIS_BACKEND=sqlite aimetrics analyze

  # Export for analysis in pandas/DuckDB
  aimetrics analysis export --output-file analysis-data`,
}

// analysisClearCmd clears the analysis data.
var analysisClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored analysis runs",
	Long: `Delete all stored analysis runs and their commit records.
Observation logs under the metrics directory are left alone.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  aimetrics analysis export --output-file backup
  aimetrics analysis clear`,
	PreRunE: analysisMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ClearAnalysis(cfg.AnalysisBackend, sqliteFilePath(), cfg.AnalysisDBConnect); err != nil {
			contract.LogFatal("Failed to clear analysis data", err)
		}
		fmt.Println("Analysis data cleared successfully.")
	},
}

// analysisStatusCmd shows analysis status.
var analysisStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display stored run statistics and observation log details",
	Long: `Show the analysis backend, stored run counts and the observation
files found in the metrics directory.

Examples:
  aimetrics analysis status`,
	PreRunE: analysisSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetAnalysisStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get analysis status", err)
		}
		iocache.PrintAnalysisStatus(os.Stdout, status)

		observations, err := iocache.GetObservationStatus(cfg.MetricsDir)
		if err != nil {
			contract.LogWarn("Cannot read observation logs", err)
			return
		}
		fmt.Println()
		iocache.PrintObservationStatus(os.Stdout, observations)
	},
}

// analysisExportCmd exports analysis data to Parquet files.
var analysisExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored data to Parquet for BI tools and analytics",
	Long: `Export stored analyze runs and commit records to Parquet.
With --observations the timing and API usage logs are exported instead.

Requires: --output-file parameter

Examples:
  aimetrics analysis export --output-file aimetrics-data
  aimetrics analysis export --observations --output-file observations.parquet
  duckdb -c "SELECT * FROM read_parquet('aimetrics-data.commits.parquet') LIMIT 10"`,
	PreRunE: analysisSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if viper.GetBool("observations") {
			if err := iocache.ExecuteObservationExport(os.Stdout, cfg.MetricsDir, cfg.OutputFile); err != nil {
				contract.LogFatal("Failed to export observations", err)
			}
			return
		}
		if err := iocache.ExecuteAnalysisExport(os.Stdout, iocache.Manager.GetAnalysisStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export analysis data", err)
		}
	},
}

// analysisMigrateCmd runs database migrations for the analysis store.
var analysisMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the analysis store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  aimetrics analysis migrate

  # Rollback to the initial state
  aimetrics analysis migrate --target-version 0`,
	PreRunE: analysisMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		result, err := iocache.MigrateAnalysis(cfg.AnalysisBackend, cfg.AnalysisDBConnect, targetVersion)
		if err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		fmt.Println(result)
	},
}
