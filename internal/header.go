// Package internal has helpers that are only useful within the recap runtime.
package internal

import (
	"fmt"
	"os"
	"strings"

	"github.com/huangsam/recap/internal/contract"
)

// LogRunHeader prints a concise, 2-line header for each report run.
// The header goes to stderr so stdout stays clean for report output.
func LogRunHeader(cfg *contract.Config) {
	sources := make([]string, len(cfg.Sources))
	for i, s := range cfg.Sources {
		sources[i] = string(s)
	}

	// Line 1: The run summary (Actors and Sources)
	fmt.Fprintf(os.Stderr, "🔎 Actors: %d (Sources: %s)\n", len(cfg.Members), strings.Join(sources, ", "))

	// Line 2: The actual reporting window
	fmt.Fprintf(os.Stderr, "📅 Window: %s → %s (%s)\n",
		cfg.Window.Start.Format(contract.DateTimeFormat),
		cfg.Window.End.Format(contract.DateTimeFormat),
		cfg.Window.Label())
}
