package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"github.com/ncolesummers/ai-code-metrics/internal/security"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// secretsCmd manages provider API keys encrypted under the metrics directory.
var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage encrypted provider API keys",
	Long: `Store provider API keys encrypted under the metrics directory.
An environment variable named <PROVIDER>_API_KEY always takes priority over
a stored key.

Examples:
  aimetrics secrets set anthropic
  aimetrics secrets list
  aimetrics secrets delete openai`,
}

var secretsSetCmd = &cobra.Command{
	Use:     "set provider [api-key]",
	Short:   "Store an API key; prompts when the key is omitted",
	Args:    cobra.RangeArgs(1, 2),
	PreRunE: settingsSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		apiKey := ""
		if len(args) == 2 {
			apiKey = args[1]
		} else {
			var err error
			if apiKey, err = readSecret(os.Stdin, fmt.Sprintf("API key for %s: ", args[0])); err != nil {
				contract.LogFatal("Cannot read API key", err)
			}
		}
		if apiKey == "" {
			contract.LogFatal("Cannot store API key", errors.New("API key is empty"))
		}
		if err := security.NewSecretStore(cfg.MetricsDir).Set(args[0], apiKey); err != nil {
			contract.LogFatal("Cannot store API key", err)
		}
		fmt.Printf("Stored API key for %s.\n", args[0])
	},
}

var secretsGetCmd = &cobra.Command{
	Use:     "get provider",
	Short:   "Print an API key",
	Args:    cobra.ExactArgs(1),
	PreRunE: settingsSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		apiKey, err := security.NewSecretStore(cfg.MetricsDir).Get(args[0])
		if err != nil {
			contract.LogFatal("Cannot read API key", err)
		}
		fmt.Println(apiKey)
	},
}

var secretsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List providers with a stored API key",
	Args:    cobra.NoArgs,
	PreRunE: settingsSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		providers, err := security.NewSecretStore(cfg.MetricsDir).Providers()
		if err != nil {
			contract.LogFatal("Cannot list API keys", err)
		}
		if len(providers) == 0 {
			fmt.Println("No API keys stored.")
			return
		}
		for _, p := range providers {
			fmt.Println(p)
		}
	},
}

var secretsDeleteCmd = &cobra.Command{
	Use:     "delete provider",
	Short:   "Remove a stored API key",
	Args:    cobra.ExactArgs(1),
	PreRunE: settingsSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := security.NewSecretStore(cfg.MetricsDir).Delete(args[0]); err != nil {
			contract.LogFatal("Cannot delete API key", err)
		}
		fmt.Printf("Deleted API key for %s.\n", args[0])
	},
}

// readSecret reads one line without echo when stdin is a terminal.
func readSecret(in *os.File, prompt string) (string, error) {
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		_, _ = fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
