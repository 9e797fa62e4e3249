package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteReportResults outputs the assembled report, dispatching based on the output format configured.
func WriteReportResults(report *schema.Report, cfg *contract.Config, duration time.Duration) error {
	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeReportJSONResults(report, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeReportCSVResults(report, cfg); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.MarkdownOut:
		if err := writeMarkdownReports(report, cfg); err != nil {
			return fmt.Errorf("error writing Markdown output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeReportParquet(report, cfg); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	case schema.XLSXOut:
		if err := writeReportWorkbook(report, cfg); err != nil {
			return fmt.Errorf("error writing XLSX output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeReportTable(report, cfg, duration, w)
		}, "Wrote table")
	}
	return nil
}

// writeReportJSONResults handles opening the file and calling the JSON writer.
func writeReportJSONResults(report *schema.Report, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeJSONResultsForReport(w, report)
	}, "Wrote JSON")
}

// writeReportCSVResults handles opening the file and calling the CSV writer.
func writeReportCSVResults(report *schema.Report, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		csvWriter := csv.NewWriter(w)
		defer csvWriter.Flush()
		return writeCSVResultsForReport(csvWriter, report)
	}, "Wrote CSV")
}

// writeReportTable generates and writes the human-readable table.
func writeReportTable(report *schema.Report, cfg *contract.Config, duration time.Duration, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)

	// 1. Define Headers
	headers := []string{"Rank", "Actor", "Project", "Source", "Events", "Breakdown"}
	table.Header(headers)

	// 2. Configure Separators/Borders to match a minimal look
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// 3. Populate Rows
	var data [][]string
	for i, g := range report.Groups {
		// Prepare the row data as a slice of strings
		row := []string{
			strconv.Itoa(i + 1), // Rank
			g.Actor,             // Actor
			contract.TruncateCell(g.Project, getMaxProjectCellWidth(cfg)), // Project
			string(groupSource(g)),       // Source
			fmt.Sprintf("%d", g.Total),   // Events
			formatTopKindBreakdown(&g),   // Dominant kinds
		}
		data = append(data, row)
	}

	// 4. Render the table
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	// Compute summary stats
	if _, err := fmt.Fprintf(writer, "Showing %d groups across %d actors in %s (total events: %d)\n",
		len(report.Groups), len(report.Meta.Actors), report.Window.Label(), report.TotalEvents()); err != nil {
		return err
	}
	if err := writeSourceStatus(writer, report.Meta.Sources); err != nil {
		return err
	}
	if report.Meta.MalformedTotal > 0 {
		if _, err := fmt.Fprintf(writer, "Malformed records dropped: %d\n", report.Meta.MalformedTotal); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(writer, "Report completed in %v with %d workers. Cache backend: %s\n", duration, cfg.Workers, cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}

// writeSourceStatus prints one outcome line per source below the table.
func writeSourceStatus(w io.Writer, runs []schema.SourceRun) error {
	for _, run := range runs {
		line := fmt.Sprintf("Source %s: %s (%d events, %d dropped, %d requests)",
			run.Source, contract.GetColorStatusLabel(run.Status), run.Records, run.Dropped, run.Requests)
		if run.Detail != "" {
			line += " - " + run.Detail
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

const topNKinds = 3

// formatTopKindBreakdown renders a group's dominant kinds in descending
// count order. Ties resolve in display order so output stays deterministic.
func formatTopKindBreakdown(g *schema.ActivityGroup) string {
	type kindCount struct {
		kind  schema.EventKind
		count int
	}

	// 1. Collect the kinds that actually occurred, in display order
	var kinds []kindCount
	for _, kind := range schema.AllEventKinds {
		if c := g.KindCounts[kind]; c > 0 {
			kinds = append(kinds, kindCount{kind: kind, count: c})
		}
	}
	if len(kinds) == 0 {
		return "Not applicable"
	}

	// 2. Sort by count descending; stable sort preserves display order on ties
	sort.SliceStable(kinds, func(i, j int) bool {
		return kinds[i].count > kinds[j].count
	})

	// 3. Limit to the top kinds and format the output
	var parts []string
	limit := min(len(kinds), topNKinds)
	for i := range limit {
		parts = append(parts, fmt.Sprintf("%s:%d", kinds[i].kind, kinds[i].count))
	}
	return strings.Join(parts, " > ")
}
