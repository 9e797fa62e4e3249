package outwriter

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/schema"
)

// writeReportWorkbook writes the report as an Excel workbook: a summary
// sheet with one row per group, plus one sample-event sheet per source.
// Binary output never goes to stdout, so a file path is required.
func writeReportWorkbook(report *schema.Report, cfg *contract.Config) error {
	if cfg.OutputFile == "" {
		return fmt.Errorf("--output-file is required for xlsx output")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := createSummarySheet(f, report); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	for _, sourceID := range schema.AllSources {
		if err := createSourceSheet(f, report, sourceID); err != nil {
			return fmt.Errorf("failed to create %s sheet: %w", sourceID, err)
		}
	}

	// Drop the default sheet so Summary opens first
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	if err := f.SaveAs(cfg.OutputFile); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	fmt.Fprintf(os.Stderr, "💾 Wrote workbook to %s\n", cfg.OutputFile)
	return nil
}

// createSummarySheet writes the window header and the ranked group table
// with kind counts flattened to columns.
func createSummarySheet(f *excelize.File, report *schema.Report) error {
	const sheetName = "Summary"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetCellValue(sheetName, "A1", "Window:")
	f.SetCellValue(sheetName, "B1", report.Window.Label())
	f.SetCellValue(sheetName, "A2", "Total events:")
	f.SetCellValue(sheetName, "B2", report.TotalEvents())

	headers := []string{"Rank", "Actor", "Project", "Source", "Total"}
	for _, kind := range schema.AllEventKinds {
		headers = append(headers, string(kind))
	}

	const headerRow = 4
	for col, header := range headers {
		cell := cellName(col+1, headerRow)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, g := range report.Groups {
		row := headerRow + 1 + i
		f.SetCellValue(sheetName, cellName(1, row), i+1)
		f.SetCellValue(sheetName, cellName(2, row), g.Actor)
		f.SetCellValue(sheetName, cellName(3, row), g.Project)
		f.SetCellValue(sheetName, cellName(4, row), string(groupSource(g)))
		f.SetCellValue(sheetName, cellName(5, row), g.Total)
		for j, kind := range schema.AllEventKinds {
			f.SetCellValue(sheetName, cellName(6+j, row), g.KindCounts[kind])
		}
	}

	f.SetColWidth(sheetName, "B", "C", 25)
	f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: fmt.Sprintf("A%d", headerRow+1),
		ActivePane:  "bottomLeft",
	})

	return nil
}

// createSourceSheet lists one source's sample events, one row per event.
func createSourceSheet(f *excelize.File, report *schema.Report, sourceID schema.SourceID) error {
	sheetName := sourceDisplayName(sourceID)
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	headers := []string{"Actor", "Project", "Kind", "Timestamp", "Title", "URL"}
	for col, header := range headers {
		f.SetCellValue(sheetName, cellName(col+1, 1), header)
	}

	row := 2
	for _, g := range report.Groups {
		if groupSource(g) != sourceID {
			continue
		}
		for _, ev := range g.SampleEvents {
			f.SetCellValue(sheetName, cellName(1, row), g.Actor)
			f.SetCellValue(sheetName, cellName(2, row), g.Project)
			f.SetCellValue(sheetName, cellName(3, row), string(ev.Kind))
			f.SetCellValue(sheetName, cellName(4, row), ev.Timestamp.Format(contract.DateTimeFormat))
			f.SetCellValue(sheetName, cellName(5, row), ev.Title)
			f.SetCellValue(sheetName, cellName(6, row), ev.URL)
			row++
		}
	}

	f.SetColWidth(sheetName, "B", "B", 25)
	f.SetColWidth(sheetName, "D", "F", 30)

	return nil
}

func cellName(col, row int) string {
	return fmt.Sprintf("%s%d", columnLetter(col), row)
}

func columnLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
