package outwriter

import (
	"os"

	"github.com/huangsam/climdash/internal/contract"
	"golang.org/x/term"
)

// Column budget for panel tables.
const (
	minLabelWidth = 12
	maxLabelWidth = 40
)

// GetTerminalWidth returns the configured width, the detected terminal width,
// or 80 when neither is available.
func GetTerminalWidth(cfg *contract.Config) int {
	if cfg != nil && cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		// Fallback to conservative default if terminal size can't be detected
		return 80
	}
	return detectedWidth
}

// GetMaxLabelWidth returns how wide series labels may be in a table with
// columns value columns.
func GetMaxLabelWidth(cfg *contract.Config, columns int) int {
	termWidth := GetTerminalWidth(cfg)

	// Reserve space for the label column and borders
	baseWidth := 14 + 4*(columns+1)

	available := (termWidth - baseWidth) / max(columns, 1)
	if available < minLabelWidth {
		return minLabelWidth
	}
	if available > maxLabelWidth {
		return maxLabelWidth
	}
	return available
}
