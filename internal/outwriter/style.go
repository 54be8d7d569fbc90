package outwriter

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Color constants for consistent styling across the CLI.
var (
	colorPrimary = lipgloss.Color("#64b5f6")
	colorSuccess = lipgloss.Color("#66bb6a")
	colorError   = lipgloss.Color("#ef5350")
	colorMuted   = lipgloss.Color("#888888")
)

// Reusable styles for section headers and summary values.
var (
	styleHeader  = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleSuccess = lipgloss.NewStyle().Foreground(colorSuccess)
	styleError   = lipgloss.NewStyle().Foreground(colorError)
	styleMuted   = lipgloss.NewStyle().Foreground(colorMuted)
	styleLabel   = lipgloss.NewStyle().Width(24)
)

// ConfigureColors enables or disables colored output for both the lipgloss
// styles and the fatih/color labels. Colors stay off when stdout is not a terminal.
func ConfigureColors(enabled bool) {
	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		enabled = false
	}
	color.NoColor = !enabled
	if enabled {
		return
	}
	plain := lipgloss.NewStyle()
	styleHeader = plain
	styleSuccess = plain
	styleError = plain
	styleMuted = plain
	styleLabel = plain.Width(24)
}

// signedStyle picks the success or error style by the sign of v.
func signedStyle(v float64) lipgloss.Style {
	if v < 0 {
		return styleError
	}
	return styleSuccess
}
