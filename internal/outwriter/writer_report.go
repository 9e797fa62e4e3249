package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/internal/parquet"
	"github.com/huangsam/recap/schema"
)

// writeJSONResultsForReport marshals the full report to JSON, with
// groups enriched by rank.
func writeJSONResultsForReport(w io.Writer, report *schema.Report) error {
	// 1. Prepare the data structure for JSON with rank and window label added
	type JSONReport struct {
		Window schema.ReportingWindow `json:"window"`
		Label  string                 `json:"label"`
		Groups []schema.EnrichedGroup `json:"groups"`
		Meta   schema.RunMeta         `json:"meta"`
	}

	output := JSONReport{
		Window: report.Window,
		Label:  report.Window.Label(),
		Groups: schema.EnrichGroups(report.Groups),
		Meta:   report.Meta,
	}

	// 2. Use the generic JSON writer
	return writeJSON(w, output)
}

// writeCSVResultsForReport flattens the report into one row per
// (actor, project, kind) tally.
func writeCSVResultsForReport(w *csv.Writer, report *schema.Report) error {
	// CSV header
	header := []string{
		"actor",
		"project",
		"kind",
		"count",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, g := range report.Groups {
		for _, kind := range schema.AllEventKinds {
			count := g.KindCounts[kind]
			if count == 0 {
				continue
			}
			rec := []string{
				g.Actor,              // Actor
				g.Project,            // Project
				string(kind),         // Event kind
				strconv.Itoa(count),  // Tally
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeReportParquet writes group rows through the parquet package.
// Binary output never goes to stdout, so a file path is required.
func writeReportParquet(report *schema.Report, cfg *contract.Config) error {
	if cfg.OutputFile == "" {
		return fmt.Errorf("--output-file is required for parquet output")
	}
	rows := parquet.ConvertReportGroups(report)
	if err := parquet.WriteGroupsParquet(rows, cfg.OutputFile); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "💾 Wrote Parquet to %s\n", cfg.OutputFile)
	return nil
}
