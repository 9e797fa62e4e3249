package outwriter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleReport builds a two-group report covering both sources, with one
// configured actor who recorded nothing.
func sampleReport() *schema.Report {
	window := schema.ReportingWindow{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	return &schema.Report{
		Window: window,
		Groups: []schema.ActivityGroup{
			{
				Actor:   "Alice Example",
				Project: "octo-org/widgets",
				KindCounts: map[schema.EventKind]int{
					schema.CommitKind:      12,
					schema.PullRequestKind: 3,
				},
				SampleEvents: []schema.ActivityEvent{
					{
						Source:    schema.GitHubSource,
						NativeID:  "push-1001",
						Actor:     "Alice Example",
						Project:   "octo-org/widgets",
						Kind:      schema.CommitKind,
						Timestamp: time.Date(2024, 3, 28, 15, 4, 5, 0, time.UTC),
						Title:     "Fix cache eviction",
						URL:       "https://github.com/octo-org/widgets/commit/abc123",
					},
				},
				Total: 15,
			},
			{
				Actor:   "Alice Example",
				Project: "Widgets",
				KindCounts: map[schema.EventKind]int{
					schema.BugFiledKind:    2,
					schema.BugResolvedKind: 1,
				},
				SampleEvents: []schema.ActivityEvent{
					{
						Source:    schema.BugzillaSource,
						NativeID:  "bug-4242",
						Actor:     "Alice Example",
						Project:   "Widgets",
						Kind:      schema.BugResolvedKind,
						Timestamp: time.Date(2024, 2, 14, 9, 0, 0, 0, time.UTC),
						Title:     "Crash on empty profile",
						URL:       "https://bugzilla.example.org/show_bug.cgi?id=4242",
					},
				},
				Total: 3,
			},
		},
		Meta: schema.RunMeta{
			GeneratedAt: time.Date(2024, 4, 2, 9, 30, 0, 0, time.UTC),
			Actors:      []string{"Alice Example", "Bob Sample"},
			Sources: []schema.SourceRun{
				{Source: schema.GitHubSource, Status: schema.SourceOK, Records: 15, Requests: 3},
				{Source: schema.BugzillaSource, Status: schema.SourcePartial, Records: 3, Dropped: 1, Requests: 2, Detail: "history pages truncated"},
			},
			MalformedTotal: 1,
		},
	}
}

func sampleConfig(output schema.OutputMode, outputFile string) *contract.Config {
	return &contract.Config{
		Output:       output,
		OutputFile:   outputFile,
		Width:        120,
		Workers:      4,
		CacheBackend: schema.SQLiteBackend,
	}
}

func TestWriteReportResultsTable(t *testing.T) {
	tmpDir := t.TempDir()
	outputPath := filepath.Join(tmpDir, "report.txt")
	cfg := sampleConfig(schema.TextOut, outputPath)

	err := WriteReportResults(sampleReport(), cfg, 250*time.Millisecond)
	require.NoError(t, err)

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	text := string(content)

	assert.Contains(t, text, "Alice Example")
	assert.Contains(t, text, "octo-org/widgets")
	assert.Contains(t, text, "Showing 2 groups across 2 actors in 2024Q1 (total events: 18)")
	assert.Contains(t, text, "Source github:")
	assert.Contains(t, text, "history pages truncated")
	assert.Contains(t, text, "Malformed records dropped: 1")
	assert.Contains(t, text, "Report completed in")
}

func TestWriteReportResultsCSV(t *testing.T) {
	tmpDir := t.TempDir()
	outputPath := filepath.Join(tmpDir, "report.csv")
	cfg := sampleConfig(schema.CSVOut, outputPath)

	err := WriteReportResults(sampleReport(), cfg, time.Second)
	require.NoError(t, err)

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	text := string(content)

	assert.Contains(t, text, "actor,project,kind,count")
	assert.Contains(t, text, "Alice Example,octo-org/widgets,commit,12")
	assert.Contains(t, text, "Alice Example,Widgets,bug_filed,2")
}

func TestWriteReportResultsParquet(t *testing.T) {
	tmpDir := t.TempDir()
	outputPath := filepath.Join(tmpDir, "report.parquet")
	cfg := sampleConfig(schema.ParquetOut, outputPath)

	err := WriteReportResults(sampleReport(), cfg, time.Second)
	require.NoError(t, err)

	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0), "Parquet file should not be empty")
}

func TestWriteReportResultsParquetRequiresFile(t *testing.T) {
	cfg := sampleConfig(schema.ParquetOut, "")

	err := WriteReportResults(sampleReport(), cfg, time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--output-file is required")
}

func TestWriteSourceStatus(t *testing.T) {
	var buf bytes.Buffer
	err := writeSourceStatus(&buf, sampleReport().Meta.Sources)
	require.NoError(t, err)

	text := buf.String()
	assert.Contains(t, text, "Source github:")
	assert.Contains(t, text, "(15 events, 0 dropped, 3 requests)")
	assert.Contains(t, text, "Source bugzilla:")
	assert.Contains(t, text, "- history pages truncated")
}

func TestFormatTopKindBreakdown(t *testing.T) {
	tests := []struct {
		name     string
		counts   map[schema.EventKind]int
		expected string
	}{
		{
			name: "descending order",
			counts: map[schema.EventKind]int{
				schema.CommitKind:      12,
				schema.PullRequestKind: 3,
				schema.CommentKind:     1,
			},
			expected: "commit:12 > pull_request:3 > comment:1",
		},
		{
			name: "caps at three kinds",
			counts: map[schema.EventKind]int{
				schema.CommitKind:      9,
				schema.PullRequestKind: 7,
				schema.IssueOpenedKind: 5,
				schema.CommentKind:     2,
			},
			expected: "commit:9 > pull_request:7 > issue_opened:5",
		},
		{
			name: "ties keep display order",
			counts: map[schema.EventKind]int{
				schema.BugFiledKind:    2,
				schema.BugResolvedKind: 2,
			},
			expected: "bug_filed:2 > bug_resolved:2",
		},
		{
			name:     "no events",
			counts:   map[schema.EventKind]int{},
			expected: "Not applicable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			group := schema.ActivityGroup{KindCounts: tt.counts}
			assert.Equal(t, tt.expected, formatTopKindBreakdown(&group))
		})
	}
}

func TestGroupSource(t *testing.T) {
	report := sampleReport()

	assert.Equal(t, schema.GitHubSource, groupSource(report.Groups[0]))
	assert.Equal(t, schema.BugzillaSource, groupSource(report.Groups[1]))

	// Without samples the kinds decide
	noSamples := schema.ActivityGroup{
		KindCounts: map[schema.EventKind]int{schema.BugFiledKind: 1},
	}
	assert.Equal(t, schema.BugzillaSource, groupSource(noSamples))

	empty := schema.ActivityGroup{}
	assert.Equal(t, schema.GitHubSource, groupSource(empty))
}

func TestSourceDisplayName(t *testing.T) {
	assert.Equal(t, "GitHub", sourceDisplayName(schema.GitHubSource))
	assert.Equal(t, "Bugzilla", sourceDisplayName(schema.BugzillaSource))
	assert.Equal(t, "custom", sourceDisplayName(schema.SourceID("custom")))
}

func TestGetMaxProjectCellWidth(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		expected int
	}{
		{name: "narrow floor", width: 60, expected: 12},
		{name: "mid terminal", width: 120, expected: 40},
		{name: "wide cap", width: 200, expected: 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &contract.Config{Width: tt.width}
			assert.Equal(t, tt.expected, getMaxProjectCellWidth(cfg))
		})
	}
}
