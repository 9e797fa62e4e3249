// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteReport renders the assembled report using the configured output format.
func (ow *OutWriter) WriteReport(report *schema.Report, cfg *contract.Config, duration time.Duration) error {
	return WriteReportResults(report, cfg, duration)
}
