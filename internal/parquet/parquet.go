// Package parquet provides data structures and functions for exporting recap
// run telemetry and reports to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/recap/schema"
	"github.com/parquet-go/parquet-go"
)

// Run represents a single report run with metadata.
// This struct maps to the recap_runs database table.
type Run struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable, stored as TIMESTAMP with nanosecond precision)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// WindowStart is the inclusive start of the reporting window
	WindowStart time.Time `parquet:"window_start,snappy"`

	// WindowEnd is the exclusive end of the reporting window
	WindowEnd time.Time `parquet:"window_end,snappy"`

	// TotalEvents is the number of events in the produced report
	TotalEvents int32 `parquet:"total_events,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// FetchRecord represents the telemetry for one (source, actor) fetch within a run.
// This struct maps to the recap_run_ledger database table.
type FetchRecord struct {
	// RunID references the parent run
	RunID int64 `parquet:"run_id,snappy"`

	// WindowStart is the inclusive start of the reporting window
	WindowStart time.Time `parquet:"window_start,snappy"`

	// WindowEnd is the exclusive end of the reporting window
	WindowEnd time.Time `parquet:"window_end,snappy"`

	// Actor is the person whose activity was fetched
	Actor string `parquet:"actor,snappy"`

	// Source identifies the adapter that performed the fetch
	Source string `parquet:"source,snappy"`

	// Status is the per-fetch outcome (ok, partial, unavailable)
	Status string `parquet:"status,snappy"`

	// Records is the number of normalized events contributed
	Records int32 `parquet:"records,snappy"`

	// Requests is the number of HTTP requests issued
	Requests int32 `parquet:"requests,snappy"`

	// DurationMs is how long the fetch took in milliseconds
	DurationMs int32 `parquet:"duration_ms,snappy"`

	// CreatedAt is when the telemetry row was written
	CreatedAt time.Time `parquet:"created_at,snappy"`
}

// GroupRow is one (actor, project) aggregate from a report, flattened for
// columnar analysis.
type GroupRow struct {
	// Window is the report window label, e.g. "2024Q2"
	Window string `parquet:"window,snappy"`

	// Actor is the person credited with the activity
	Actor string `parquet:"actor,snappy"`

	// Project is the repository or product name
	Project string `parquet:"project,snappy"`

	// Per-kind event counts
	Commits      int32 `parquet:"commits,snappy"`
	PullRequests int32 `parquet:"pull_requests,snappy"`
	IssuesOpened int32 `parquet:"issues_opened,snappy"`
	IssuesClosed int32 `parquet:"issues_closed,snappy"`
	BugsFiled    int32 `parquet:"bugs_filed,snappy"`
	BugsResolved int32 `parquet:"bugs_resolved,snappy"`
	Comments     int32 `parquet:"comments,snappy"`
	Other        int32 `parquet:"other,snappy"`

	// Total is the sum of all kind counts for the group
	Total int32 `parquet:"total,snappy"`
}

// WriteRunsParquet writes a slice of Run structs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	// Create the output file
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Create a Parquet writer using struct schema inference
	// The schema is automatically derived from the Run struct tags
	writer := parquet.NewGenericWriter[Run](file)
	defer func() { _ = writer.Close() }()

	// Write all records to the file
	// The Write method accepts a variadic slice
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	return nil
}

// WriteFetchRecordsParquet writes a slice of FetchRecord structs to a Parquet file.
func WriteFetchRecordsParquet(data []FetchRecord, outputPath string) error {
	// Create the output file
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Create a Parquet writer using struct schema inference
	// The schema is automatically derived from the FetchRecord struct tags
	writer := parquet.NewGenericWriter[FetchRecord](file)
	defer func() { _ = writer.Close() }()

	// Write all records to the file
	// The Write method accepts a variadic slice
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	return nil
}

// WriteGroupsParquet writes a slice of GroupRow structs to a Parquet file.
func WriteGroupsParquet(data []GroupRow, outputPath string) error {
	// Create the output file
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Create a Parquet writer using struct schema inference
	// The schema is automatically derived from the GroupRow struct tags
	writer := parquet.NewGenericWriter[GroupRow](file)
	defer func() { _ = writer.Close() }()

	// Write all records to the file
	// The Write method accepts a variadic slice
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	return nil
}

// ConvertRunSummaries converts schema.RunSummary to Run for Parquet export.
func ConvertRunSummaries(records []schema.RunSummary) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:         record.RunID,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			WindowStart:   record.WindowStart,
			WindowEnd:     record.WindowEnd,
			TotalEvents:   record.TotalEvents,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertRunRecords converts schema.RunRecord to FetchRecord for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []FetchRecord {
	result := make([]FetchRecord, len(records))
	for i, record := range records {
		result[i] = FetchRecord{
			RunID:       record.RunID,
			WindowStart: record.WindowStart,
			WindowEnd:   record.WindowEnd,
			Actor:       record.Actor,
			Source:      record.Source,
			Status:      record.Status,
			Records:     record.Records,
			Requests:    record.Requests,
			DurationMs:  record.DurationMs,
			CreatedAt:   record.CreatedAt,
		}
	}
	return result
}

// ConvertReportGroups flattens a report's groups to GroupRow for Parquet export.
func ConvertReportGroups(report *schema.Report) []GroupRow {
	window := report.Window.Label()
	result := make([]GroupRow, len(report.Groups))
	for i, group := range report.Groups {
		result[i] = GroupRow{
			Window:       window,
			Actor:        group.Actor,
			Project:      group.Project,
			Commits:      int32(group.KindCounts[schema.CommitKind]),
			PullRequests: int32(group.KindCounts[schema.PullRequestKind]),
			IssuesOpened: int32(group.KindCounts[schema.IssueOpenedKind]),
			IssuesClosed: int32(group.KindCounts[schema.IssueClosedKind]),
			BugsFiled:    int32(group.KindCounts[schema.BugFiledKind]),
			BugsResolved: int32(group.KindCounts[schema.BugResolvedKind]),
			Comments:     int32(group.KindCounts[schema.CommentKind]),
			Other:        int32(group.KindCounts[schema.OtherKind]),
			Total:        int32(group.Total),
		}
	}
	return result
}

// MockFetchRuns generates sample Run data for demonstration.
func MockFetchRuns() []Run {
	now := time.Now()
	windowStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	windowEnd := windowStart.AddDate(0, 3, 0)

	startTime1 := now.Add(-2 * time.Hour)
	endTime1 := now.Add(-1*time.Hour - 58*time.Minute)
	durationMs1 := int32(endTime1.Sub(startTime1).Milliseconds())
	configParams1 := `{"actors":3,"sources":"github,bugzilla","quarter":"2024-Q1"}`

	startTime2 := now.Add(-24 * time.Hour)
	endTime2 := now.Add(-24*time.Hour + 90*time.Second)
	durationMs2 := int32(endTime2.Sub(startTime2).Milliseconds())
	configParams2 := `{"actors":1,"sources":"github","quarter":"2024-Q1"}`

	startTime3 := now.Add(-10 * time.Minute)
	// Note: endTime3, durationMs3, configParams3 are nil to demonstrate nullable fields

	return []Run{
		{
			RunID:         1,
			StartTime:     startTime1,
			EndTime:       &endTime1,
			RunDurationMs: &durationMs1,
			WindowStart:   windowStart,
			WindowEnd:     windowEnd,
			TotalEvents:   150,
			ConfigParams:  &configParams1,
		},
		{
			RunID:         2,
			StartTime:     startTime2,
			EndTime:       &endTime2,
			RunDurationMs: &durationMs2,
			WindowStart:   windowStart,
			WindowEnd:     windowEnd,
			TotalEvents:   42,
			ConfigParams:  &configParams2,
		},
		{
			RunID:         3,
			StartTime:     startTime3,
			EndTime:       nil, // Still running - nullable field
			RunDurationMs: nil, // Not yet calculated - nullable field
			WindowStart:   windowStart,
			WindowEnd:     windowEnd,
			TotalEvents:   0,
			ConfigParams:  nil, // No config stored - nullable field
		},
	}
}

// MockFetchLedgerRecords generates sample FetchRecord data for demonstration.
func MockFetchLedgerRecords() []FetchRecord {
	now := time.Now()
	windowStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	windowEnd := windowStart.AddDate(0, 3, 0)

	return []FetchRecord{
		{
			RunID:       1,
			WindowStart: windowStart,
			WindowEnd:   windowEnd,
			Actor:       "alice",
			Source:      "github",
			Status:      "ok",
			Records:     88,
			Requests:    4,
			DurationMs:  2150,
			CreatedAt:   now.Add(-2 * time.Hour),
		},
		{
			RunID:       1,
			WindowStart: windowStart,
			WindowEnd:   windowEnd,
			Actor:       "alice@example.org",
			Source:      "bugzilla",
			Status:      "partial",
			Records:     62,
			Requests:    9,
			DurationMs:  4800,
			CreatedAt:   now.Add(-2 * time.Hour),
		},
		{
			RunID:       2,
			WindowStart: windowStart,
			WindowEnd:   windowEnd,
			Actor:       "bob",
			Source:      "github",
			Status:      "unavailable",
			Records:     0,
			Requests:    3,
			DurationMs:  30500,
			CreatedAt:   now.Add(-24 * time.Hour),
		},
	}
}
