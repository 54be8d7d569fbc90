package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"github.com/ncolesummers/ai-code-metrics/internal/iocache"
	"github.com/ncolesummers/ai-code-metrics/internal/outwriter"
	"github.com/ncolesummers/ai-code-metrics/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// gitClient runs git for every repository command.
var gitClient contract.GitClient = contract.NewLocalGitClient()

// nestedFlagKeys maps flags onto their key in the config document.
var nestedFlagKeys = map[string]string{
	"hourly-rate": "roi.hourly_rate",
	"host":        "prometheus.host",
	"port":        "prometheus.port",
	"refresh":     "prometheus.refresh_interval",
	"metrics-dir": "metrics_storage_path",
}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "aimetrics",
	Short: "Measure how AI coding assistants are used and what they are worth.",
	Long: `aimetrics classifies Git commits by AI assistance, records timing and API
usage observations, exports them to Prometheus and estimates return on investment.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetConfigFile(configFilePath())
	viper.SetConfigType("json")

	// AIMETRICS_ROI_HOURLY_RATE overrides roi.hourly_rate
	viper.SetEnvPrefix("AIMETRICS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	defaults := contract.DefaultSettings()
	viper.SetDefault("metrics_storage_path", defaults.MetricsStoragePath)
	viper.SetDefault("prometheus.host", defaults.Prometheus.Host)
	viper.SetDefault("prometheus.port", defaults.Prometheus.Port)
	viper.SetDefault("prometheus.refresh_interval", defaults.Prometheus.RefreshInterval)
	viper.SetDefault("prometheus.default_model", defaults.Prometheus.DefaultModel)
	viper.SetDefault("prometheus.default_language", defaults.Prometheus.DefaultLanguage)
	viper.SetDefault("roi.hourly_rate", defaults.ROI.HourlyRate)
	viper.SetDefault("roi.improvement_factor", defaults.ROI.ImprovementFactor)
	viper.SetDefault("security.anonymize", defaults.Security.Anonymize)
	viper.SetDefault("security.salt", defaults.Security.Salt)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("analysis-backend", "")
	viper.SetDefault("analysis-db-connect", "")
	viper.SetDefault("color", "yes")
}

// configFilePath returns the --config override or ~/.ai_metrics/config.json.
func configFilePath() string {
	if configFile := viper.GetString("config"); configFile != "" {
		return contract.ExpandHome(configFile)
	}
	return contract.DefaultConfigFilePath()
}

// loadConfigFile reads the config document into viper. A missing file is fine.
// A corrupt one is reported and the defaults are used.
func loadConfigFile() {
	if err := viper.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return
		}
		contract.LogWarn("Using default configuration", &contract.ConfigLoadError{Path: configFilePath(), Err: err})
	}
}

// bindCommandFlags binds the running command's flags, so commands can share
// flag names with different defaults.
func bindCommandFlags(cmd *cobra.Command) error {
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key := f.Name
		if nested, ok := nestedFlagKeys[f.Name]; ok {
			key = nested
		}
		if err := viper.BindPFlag(key, f); err != nil && bindErr == nil {
			bindErr = fmt.Errorf("failed to bind flag --%s: %w", f.Name, err)
		}
	})
	return bindErr
}

// modelsFromFile reads the models section straight from the config document,
// because viper splits model ids such as gpt-3.5-turbo on their dots.
func modelsFromFile() any {
	settings, err := contract.LoadSettingsFile(configFilePath())
	if err != nil {
		return nil
	}
	models := make(map[string]any, len(settings.Models))
	for id, price := range settings.Models {
		models[id] = map[string]any{"input": price.Input, "output": price.Output}
	}
	return models
}

// loadSettings merges defaults, file, env and the command's flags into cfg.
// A nil client skips repository resolution.
func loadSettings(ctx context.Context, cmd *cobra.Command, args []string, client contract.GitClient) error {
	if err := bindCommandFlags(cmd); err != nil {
		return err
	}

	// 1. Read config file. This merges defaults, file, env, and flags.
	loadConfigFile()

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	input.ModelsRaw = modelsFromFile()

	// 3. Handle positional arguments (which Viper doesn't do).
	if len(args) == 1 {
		input.RepoPathStr = args[0]
	} else {
		input.RepoPathStr = "."
	}

	// 4. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(ctx, cfg, client, input); err != nil {
		return err
	}
	outwriter.ConfigureColors(cfg.UseColors)
	return nil
}

// sharedSetup unmarshals config, runs validation and opens the analysis store.
func sharedSetup(ctx context.Context, cmd *cobra.Command, args []string) error {
	if err := loadSettings(ctx, cmd, args, gitClient); err != nil {
		return err
	}

	// 5. Initialize persistence layer with validated config
	if err := iocache.InitStores(cfg.AnalysisBackend, cfg.AnalysisDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// settingsSetupWrapper loads configuration for commands that need no repository.
func settingsSetupWrapper(cmd *cobra.Command, _ []string) error {
	return loadSettings(rootCtx, cmd, nil, nil)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetRootContext replaces the context handed to every command.
func SetRootContext(ctx context.Context) {
	rootCtx = ctx
}
