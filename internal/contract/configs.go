package contract

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ncolesummers/ai-code-metrics/schema"
	"github.com/spf13/cast"
)

// Default values for configuration.
const (
	DefaultLookbackDays      = 7
	DefaultROIDays           = 30
	DefaultTimelineDays      = 30
	DefaultHourlyRate        = 75.0
	DefaultImprovementFactor = 0.3
	DefaultPrometheusHost    = "0.0.0.0"
	DefaultPrometheusPort    = 8080
	DefaultModelLabel        = "claude"
	DefaultLanguageLabel     = "python"
	DefaultSalt              = "change-this-salt"
	DefaultReportFile        = "metrics_report.json"
	DefaultConfigDirName     = ".ai_metrics"
	DefaultConfigFileName    = "config.json"
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ModelPrice is the price of a model in dollars per one million tokens.
type ModelPrice struct {
	Input  float64 `json:"input"`
	Output float64 `json:"output"`
}

// DefaultModelPricing returns a fresh copy of the built-in price table.
func DefaultModelPricing() map[string]ModelPrice {
	return map[string]ModelPrice{
		"claude-4-sonnet": {Input: 3.0, Output: 15.0},
		"claude-3-opus":   {Input: 15.0, Output: 75.0},
		"claude-3-sonnet": {Input: 3.0, Output: 15.0},
		"claude-3-haiku":  {Input: 0.25, Output: 1.25},
		"gpt-4":           {Input: 30.0, Output: 60.0},
		"gpt-3.5-turbo":   {Input: 0.5, Output: 1.5},
	}
}

// PrometheusSettings configures the pull-based metrics endpoint.
type PrometheusSettings struct {
	Host            string `json:"host" mapstructure:"host"`
	Port            int    `json:"port" mapstructure:"port"`
	RefreshInterval string `json:"refresh_interval" mapstructure:"refresh_interval"`
	DefaultModel    string `json:"default_model" mapstructure:"default_model"`
	DefaultLanguage string `json:"default_language" mapstructure:"default_language"`
}

// ROISettings holds the savings model inputs.
type ROISettings struct {
	HourlyRate        float64 `json:"hourly_rate" mapstructure:"hourly_rate"`
	ImprovementFactor float64 `json:"improvement_factor" mapstructure:"improvement_factor"`
}

// SecuritySettings controls anonymization of identities in reports.
type SecuritySettings struct {
	Anonymize bool   `json:"anonymize" mapstructure:"anonymize"`
	Salt      string `json:"salt" mapstructure:"salt"`
}

// Settings is the persisted configuration document at ~/.ai_metrics/config.json.
// Models is excluded from mapstructure decoding because model ids contain dots.
type Settings struct {
	MetricsStoragePath string                `json:"metrics_storage_path" mapstructure:"metrics_storage_path"`
	Prometheus         PrometheusSettings    `json:"prometheus" mapstructure:"prometheus"`
	Models             map[string]ModelPrice `json:"models" mapstructure:"-"`
	ROI                ROISettings           `json:"roi" mapstructure:"roi"`
	Security           SecuritySettings      `json:"security" mapstructure:"security"`
}

// DefaultSettings returns the built-in configuration.
func DefaultSettings() Settings {
	return Settings{
		MetricsStoragePath: DefaultMetricsDir(),
		Prometheus: PrometheusSettings{
			Host:            DefaultPrometheusHost,
			Port:            DefaultPrometheusPort,
			RefreshInterval: "0s",
			DefaultModel:    DefaultModelLabel,
			DefaultLanguage: DefaultLanguageLabel,
		},
		Models: DefaultModelPricing(),
		ROI: ROISettings{
			HourlyRate:        DefaultHourlyRate,
			ImprovementFactor: DefaultImprovementFactor,
		},
		Security: SecuritySettings{
			Anonymize: false,
			Salt:      DefaultSalt,
		},
	}
}

// Config holds the runtime configuration for a command.
// This struct is the "final, validated" config, built once by the entry point.
type Config struct {
	RepoPath   string
	Days       int
	StartTime  time.Time
	EndTime    time.Time
	MaxCount   int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	MetricsDir string
	Models     map[string]ModelPrice

	PrometheusHost    string
	PrometheusPort    int
	RefreshInterval   time.Duration
	DefaultModel      string
	DefaultLanguage   string
	HourlyRate        float64
	ImprovementFactor float64
	Anonymize         bool
	AnonymizeSalt     string

	AnalysisBackend   schema.DatabaseBackend
	AnalysisDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	RepoPathStr string

	// --- Persisted settings ---
	Settings `mapstructure:",squash"`

	// ModelsRaw is set manually from viper.Get("models"), so no tag
	ModelsRaw any `mapstructure:"-"`

	// --- Fields from rootCmd.PersistentFlags() ---
	Days              int    `mapstructure:"days"`
	MaxCount          int    `mapstructure:"max-count"`
	Output            string `mapstructure:"output"`
	OutputFile        string `mapstructure:"output-file"`
	Width             int    `mapstructure:"width"`
	Color             string `mapstructure:"color"`
	Anonymize         bool   `mapstructure:"anonymize"`
	AnalysisBackend   string `mapstructure:"analysis-backend"`
	AnalysisDBConnect string `mapstructure:"analysis-db-connect"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Models != nil {
		clone.Models = make(map[string]ModelPrice, len(c.Models))
		maps.Copy(clone.Models, c.Models)
	}
	return &clone
}

// ListenAddr returns host:port for the metrics endpoint.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.PrometheusHost, c.PrometheusPort)
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct. A nil client skips repository resolution.
func ProcessAndValidate(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processSettings(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if client == nil {
		return nil
	}
	return resolveRepoPath(ctx, cfg, client, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("analysis-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("analysis-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates the analysis backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.AnalysisBackend = schema.DatabaseBackend(strings.ToLower(input.AnalysisBackend))
	if cfg.AnalysisBackend == "" {
		cfg.AnalysisBackend = schema.NoneBackend
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.AnalysisBackend]; !ok {
		return fmt.Errorf("invalid analysis backend '%s'. must be sqlite, mysql, postgresql, none", input.AnalysisBackend)
	}
	cfg.AnalysisDBConnect = input.AnalysisDBConnect
	return ValidateDatabaseConnectionString(cfg.AnalysisBackend, cfg.AnalysisDBConnect)
}

// RevalidateWindow sets the analysis window to the last days days, ending now.
func RevalidateWindow(cfg *Config, days int) error {
	if days < 0 {
		return fmt.Errorf("days must be a positive number, got %d", days)
	}
	cfg.Days = days
	cfg.EndTime = time.Now().UTC()
	cfg.StartTime = cfg.EndTime.Add(-time.Duration(days) * 24 * time.Hour)
	return nil
}

// validateSimpleInputs processes and validates the per-command fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width

	days := input.Days
	if days == 0 {
		days = DefaultLookbackDays
	}
	if err := RevalidateWindow(cfg, days); err != nil {
		return err
	}

	if input.MaxCount < 0 {
		return fmt.Errorf("max-count cannot be negative, got %d", input.MaxCount)
	}
	cfg.MaxCount = input.MaxCount

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if cfg.Output == "" {
		cfg.Output = schema.TextOut
	}
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	cfg.UseColors = true
	if input.Color != "" {
		useColors, err := ParseBoolString(input.Color)
		if err != nil {
			return fmt.Errorf("invalid color value: %w", err)
		}
		cfg.UseColors = useColors
	}
	return nil
}

// processSettings transfers the persisted settings, merged with defaults, into cfg.
func processSettings(cfg *Config, input *ConfigRawInput) error {
	defaults := DefaultSettings()
	s := input.Settings

	cfg.MetricsDir = ExpandHome(s.MetricsStoragePath)
	if cfg.MetricsDir == "" {
		cfg.MetricsDir = defaults.MetricsStoragePath
	}

	cfg.PrometheusHost = s.Prometheus.Host
	if cfg.PrometheusHost == "" {
		cfg.PrometheusHost = defaults.Prometheus.Host
	}
	cfg.PrometheusPort = s.Prometheus.Port
	if cfg.PrometheusPort == 0 {
		cfg.PrometheusPort = defaults.Prometheus.Port
	}
	if cfg.PrometheusPort < 0 || cfg.PrometheusPort > 65535 {
		return fmt.Errorf("prometheus.port must be between 1 and 65535, got %d", cfg.PrometheusPort)
	}
	if s.Prometheus.RefreshInterval != "" {
		d, err := time.ParseDuration(s.Prometheus.RefreshInterval)
		if err != nil || d < 0 {
			return fmt.Errorf("invalid prometheus.refresh_interval %q: expected a non-negative duration like 5s", s.Prometheus.RefreshInterval)
		}
		cfg.RefreshInterval = d
	}
	cfg.DefaultModel = cmp.Or(s.Prometheus.DefaultModel, defaults.Prometheus.DefaultModel)
	cfg.DefaultLanguage = cmp.Or(s.Prometheus.DefaultLanguage, defaults.Prometheus.DefaultLanguage)

	cfg.HourlyRate = s.ROI.HourlyRate
	if cfg.HourlyRate == 0 {
		cfg.HourlyRate = defaults.ROI.HourlyRate
	}
	if cfg.HourlyRate < 0 {
		return fmt.Errorf("roi.hourly_rate cannot be negative, got %v", cfg.HourlyRate)
	}
	cfg.ImprovementFactor = s.ROI.ImprovementFactor
	if cfg.ImprovementFactor == 0 {
		cfg.ImprovementFactor = defaults.ROI.ImprovementFactor
	}
	if cfg.ImprovementFactor < 0 || cfg.ImprovementFactor >= 1 {
		return fmt.Errorf("roi.improvement_factor must be in [0, 1), got %v", cfg.ImprovementFactor)
	}

	cfg.Anonymize = s.Security.Anonymize || input.Anonymize
	cfg.AnonymizeSalt = cmp.Or(s.Security.Salt, defaults.Security.Salt)

	models, err := MergeModelPricing(DefaultModelPricing(), input.ModelsRaw)
	if err != nil {
		return err
	}
	cfg.Models = models
	return nil
}

// MergeModelPricing overlays a raw models map (as decoded from JSON or viper) on base.
// Prices given for only one side keep the other side from base.
func MergeModelPricing(base map[string]ModelPrice, raw any) (map[string]ModelPrice, error) {
	out := make(map[string]ModelPrice, len(base))
	maps.Copy(out, base)
	if raw == nil {
		return out, nil
	}
	models, err := cast.ToStringMapE(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid models section: %w", err)
	}
	for id, entry := range models {
		fields, err := cast.ToStringMapE(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid pricing for model %q: %w", id, err)
		}
		price := out[id]
		for key, value := range fields {
			f, err := cast.ToFloat64E(value)
			if err != nil {
				return nil, fmt.Errorf("invalid %s price for model %q: %w", key, id, err)
			}
			if f < 0 {
				return nil, fmt.Errorf("%s price for model %q cannot be negative", key, id)
			}
			switch strings.ToLower(key) {
			case "input":
				price.Input = f
			case "output":
				price.Output = f
			default:
				return nil, fmt.Errorf("unknown price field %q for model %q (expected input or output)", key, id)
			}
		}
		out[id] = price
	}
	return out, nil
}

// resolveRepoPath resolves the Git repository root from the positional path.
func resolveRepoPath(ctx context.Context, cfg *Config, client GitClient, input *ConfigRawInput) error {
	searchPath := input.RepoPathStr
	if searchPath == "" {
		searchPath = "."
	}
	absSearchPath, err := filepath.Abs(searchPath)
	if err != nil {
		return &RepositoryAccessError{Path: searchPath, Err: err}
	}
	absSearchPath = filepath.Clean(absSearchPath)

	info, statErr := os.Stat(absSearchPath)
	if statErr != nil {
		return &RepositoryAccessError{Path: absSearchPath, Err: statErr}
	}
	gitContextPath := absSearchPath
	if !info.IsDir() {
		gitContextPath = filepath.Dir(absSearchPath)
	}

	gitRoot, err := client.GetRepoRoot(ctx, gitContextPath)
	if err != nil {
		return &RepositoryAccessError{Path: absSearchPath, Err: err}
	}
	cfg.RepoPath = gitRoot
	return nil
}
