package schema

import "time"

// RunRecord represents a row from the recap_run_ledger table. One row is
// written per (source, actor) fetch within a run; rows hold fetch
// telemetry only, never report content.
type RunRecord struct {
	RunID       int64
	WindowStart time.Time
	WindowEnd   time.Time
	Actor       string
	Source      string
	Status      string
	Records     int32
	Requests    int32
	DurationMs  int32
	CreatedAt   time.Time
}

// RunSummary represents a row from the recap_runs table. Pointer fields
// are NULL until the run finishes.
type RunSummary struct {
	RunID         int64
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	WindowStart   time.Time
	WindowEnd     time.Time
	TotalEvents   int32
	ConfigParams  *string
}

// CacheRecord represents a row from the fetch cache table, surfaced by
// the cache export path.
type CacheRecord struct {
	Key       string
	Version   int
	Timestamp int64
	SizeBytes int64
}
