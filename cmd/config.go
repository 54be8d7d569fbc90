package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// configCmd reads and writes the persisted configuration document.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit ~/.ai_metrics/config.json",
	Long: `Read and write the persisted configuration. Keys are dotted paths into the
JSON document, for example prometheus.port, roi.hourly_rate or
models.gpt-4.input. Values are converted to the type already stored at the key.

Environment variables prefixed with AIMETRICS_ override the file at run time,
for example AIMETRICS_ROI_HOURLY_RATE=120.

Examples:
  aimetrics config init
  aimetrics config set roi.hourly_rate 120
  aimetrics config get prometheus.port
  aimetrics config show`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		path := configFilePath()
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			contract.LogFatal("Cannot initialize config", fmt.Errorf("%s already exists, use --force to overwrite", path))
		}
		if err := contract.SaveConfigFile(path, contract.DefaultSettings()); err != nil {
			contract.LogFatal("Cannot initialize config", err)
		}
		fmt.Printf("Wrote default configuration to %s\n", path)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set key value",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		path := configFilePath()
		settings, err := readSettings(path)
		if err != nil {
			contract.LogFatal("Cannot load config", err)
		}
		if err := contract.SetSettingValue(&settings, args[0], args[1]); err != nil {
			contract.LogFatal("Cannot set config value", err)
		}
		if err := contract.SaveConfigFile(path, settings); err != nil {
			contract.LogFatal("Cannot save config", err)
		}
		fmt.Printf("%s = %s\n", args[0], args[1])
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get key",
	Short: "Print a configuration value",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		settings, err := readSettings(configFilePath())
		if err != nil {
			contract.LogFatal("Cannot load config", err)
		}
		value, err := contract.GetSettingValue(settings, args[0])
		if err != nil {
			contract.LogFatal("Cannot get config value", err)
		}
		if section, ok := value.(map[string]any); ok {
			data, err := json.MarshalIndent(section, "", "  ")
			if err != nil {
				contract.LogFatal("Cannot encode config value", err)
			}
			fmt.Println(string(data))
			return
		}
		fmt.Println(value)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every configuration value",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		path := configFilePath()
		settings, err := contract.LoadSettingsFile(path)
		if err != nil {
			contract.LogWarn("Using default configuration", err)
		}
		rows, err := contract.FlattenSettings(settings)
		if err != nil {
			contract.LogFatal("Cannot list config values", err)
		}
		data := make([][]string, 0, len(rows))
		for _, row := range rows {
			data = append(data, []string{row[0], row[1]})
		}

		fmt.Printf("Configuration file: %s\n", path)
		table := tablewriter.NewWriter(os.Stdout)
		table.Header([]string{"Key", "Value"})
		if err := table.Bulk(data); err != nil {
			contract.LogFatal("Cannot render config", err)
		}
		if err := table.Render(); err != nil {
			contract.LogFatal("Cannot render config", err)
		}
	},
}

// readSettings loads the config document for editing. A corrupt file is an error
// so that set never silently replaces it with defaults.
func readSettings(path string) (contract.Settings, error) {
	return contract.LoadSettingsFile(path)
}
