package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"github.com/ncolesummers/ai-code-metrics/internal/recorder"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// trackCmd times an external command and appends a timing observation.
var trackCmd = &cobra.Command{
	Use:   "track [flags] -- command [args...]",
	Short: "Run a command and record how long it took.",
	Long: `Run an external command with the terminal attached and append one timing
record to the metrics directory. The command's exit status is passed through.

Mark AI-assisted runs with --ai so roi can compare them with manual ones.

Examples:
  aimetrics track --name write-tests --ai -- make test
  aimetrics track --name write-tests -- make test
  aimetrics track --name refactor --ai --quality-score 80 --lines-generated 120 -- ./check.sh`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: settingsSetupWrapper,
	Run: func(cmd *cobra.Command, args []string) {
		code, err := runTracked(cmd, args)
		if err != nil {
			if code == 0 {
				contract.LogFatal("Cannot track command", err)
			}
			contract.LogWarn("Cannot track command", err)
		}
		if code != 0 {
			os.Exit(code)
		}
	},
}

// runTracked runs args under a timing span and returns the command's exit code.
// The error is reserved for failures of aimetrics itself, including a timing
// record that could not be written.
func runTracked(cmd *cobra.Command, args []string) (int, error) {
	rec, err := recorder.NewRecorder(cfg.MetricsDir)
	if err != nil {
		return 0, err
	}

	name := viper.GetString("name")
	if name == "" {
		name = args[0]
	}
	span := rec.Start(name, viper.GetBool("ai"))
	span.SetLabels(viper.GetString("model"), viper.GetString("language"))
	if cmd.Flags().Changed("quality-score") {
		q := viper.GetFloat64("quality-score")
		if q < 0 || q > 100 {
			return 0, fmt.Errorf("quality-score must be between 0 and 100, got %v", q)
		}
		span.SetQualityScore(q)
	}
	if cmd.Flags().Changed("lines-generated") {
		n := viper.GetInt("lines-generated")
		if n < 0 {
			return 0, fmt.Errorf("lines-generated cannot be negative, got %d", n)
		}
		span.SetLinesGenerated(n)
	}

	child := exec.CommandContext(rootCtx, args[0], args[1:]...)
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr
	runErr := child.Run()

	endErr := span.End(runErr)
	if endErr != nil {
		endErr = fmt.Errorf("failed to record timing for %s: %w", name, endErr)
	}

	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		return 0, endErr
	case errors.As(runErr, &exitErr):
		return exitErr.ExitCode(), endErr
	default:
		return 0, errors.Join(runErr, endErr)
	}
}
