package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Classification label constants.
const (
	AIValue    = "AI"    // Commit matched an assistant signature
	HumanValue = "Human" // Commit matched nothing
)

// Color variables for console output.
var (
	AIColor    = color.New(color.FgMagenta, color.Bold) // AIColor marks assistant-authored rows.
	HumanColor = color.New(color.FgCyan)                // HumanColor marks everything else.
	InfoColor  = color.New(color.FgGreen)
	WarnColor  = color.New(color.FgYellow)
)

// GetPlainLabel returns a plain text label for the classification of a commit.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(aiAssisted bool) string {
	if aiAssisted {
		return AIValue
	}
	return HumanValue
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(aiAssisted bool) string {
	text := GetPlainLabel(aiAssisted)
	if aiAssisted {
		return AIColor.Sprint(text)
	}
	return HumanColor.Sprint(text)
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It uses os.Stdout when the path is empty.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "%s %s: %v\n", WarnColor.Sprint("Warn"), msg, err)
}

// LogInfo logs an informational message to stderr.
func LogInfo(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", InfoColor.Sprint("Info"), fmt.Sprintf(format, args...))
}

// DefaultMetricsDir returns ~/.ai_metrics, or a relative .ai_metrics when the
// home directory is unknown.
func DefaultMetricsDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfigDirName
	}
	return filepath.Join(homeDir, DefaultConfigDirName)
}

// DefaultConfigFilePath returns the path of the persisted config document.
func DefaultConfigFilePath() string {
	return filepath.Join(DefaultMetricsDir(), DefaultConfigFileName)
}

// GetAnalysisDBFilePath returns the path to the SQLite DB file for analysis storage.
func GetAnalysisDBFilePath() string {
	return filepath.Join(DefaultMetricsDir(), "analysis.db")
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}

// SecretEnvVar returns the environment variable consulted for a provider's API key.
func SecretEnvVar(provider string) string {
	return strings.ToUpper(strings.ReplaceAll(provider, "-", "_")) + "_API_KEY"
}

// TruncatePath truncates a string to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to ensure there's space for both the "..." prefix and at least one character of content.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// TruncateText truncates text to a maximum width with an ellipsis suffix.
func TruncateText(text string, maxWidth int) string {
	runes := []rune(text)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return text
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
