package schema

import "time"

// SourceRun records one source's outcome within a single run. A produced
// report always states which sources succeeded fully, partially, or not
// at all; silent data loss is disallowed.
type SourceRun struct {
	Source    SourceID    `json:"source"`
	Status    SourceState `json:"status"`
	Records   int         `json:"records"`    // Normalized events contributed
	Dropped   int         `json:"dropped"`    // Malformed records dropped
	Requests  int         `json:"requests"`   // HTTP requests issued
	RateWaits int         `json:"rate_waits"` // Rate-limit pauses observed
	Detail    string      `json:"detail,omitempty"`
}

// RunMeta carries run-level bookkeeping attached to every report.
type RunMeta struct {
	GeneratedAt    time.Time   `json:"generated_at"`
	Actors         []string    `json:"actors"`
	Sources        []SourceRun `json:"sources"`
	MalformedTotal int         `json:"malformed_total"`
}

// MergeStates combines two per-source outcomes. Any mix of success and
// failure yields a partial outcome; identical states are preserved.
func MergeStates(a, b SourceState) SourceState {
	if a == "" {
		return b
	}
	if b == "" || a == b {
		return a
	}
	return SourcePartial
}

// CacheStatus represents the status of the fetch cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// LedgerStatus represents the status of the run ledger store.
type LedgerStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     int64            `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TotalRecords  int              `json:"total_records"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}
