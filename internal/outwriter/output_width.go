package outwriter

import (
	"os"

	"github.com/ncolesummers/ai-code-metrics/internal/contract"
	"golang.org/x/term"
)

// GetMaxMessageWidth calculates the maximum width for commit subjects in table output
// based on terminal width and the fixed commit columns.
func GetMaxMessageWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Fallback to conservative default if terminal size can't be detected
			termWidth = 80
		} else {
			termWidth = detectedWidth
		}
	}

	// Hash + Date + Author + Label + Assistant + Added/Deleted with borders/padding
	baseWidth := 90

	available := termWidth - baseWidth
	if available < 15 {
		return 15
	}
	if available > 70 {
		return 70
	}
	return available
}
