package outwriter

import (
	"os"

	"github.com/huangsam/recap/internal/contract"
	"golang.org/x/term"
)

// getMaxProjectCellWidth calculates the maximum width for project names
// in table output based on terminal width and table configuration.
func getMaxProjectCellWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		// Get terminal width
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Fallback to conservative default if terminal size can't be detected
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Reserve space for fixed columns with table formatting
	baseWidth := 30 // Rank + Source + Events with borders/padding

	// Add the actor column
	baseWidth += 20

	// Add the breakdown column
	baseWidth += 30

	// Calculate available space for the project name
	available := termWidth - baseWidth
	if available < 12 {
		// Minimum reasonable project width
		return 12
	}
	if available > 60 {
		// Maximum project width to prevent overly long names
		return 60
	}
	return available
}
