// Package contract provides interfaces and shared utilities for the recap CLI's internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/recap/schema"
)

// SourceAdapter defines the operations one external activity source must
// support. The pipeline core treats every source the same way; paging
// schemes, rate-limit protocols and credential handling stay behind this
// boundary.
type SourceAdapter interface {
	// Name identifies the source.
	Name() schema.SourceID

	// Fetch retrieves all raw records for one actor within the window.
	// It pages internally until the source has no more matching data,
	// waits out rate limits, and retries transient failures with backoff.
	// On cancellation it returns whatever records were already fetched
	// together with the context error. Adapters keep no state between
	// separate Fetch calls.
	Fetch(ctx context.Context, actor string, window schema.ReportingWindow) (schema.FetchResult, error)

	// Probe verifies the source is reachable with the configured
	// credentials. Used by the sources command and the MCP server.
	Probe(ctx context.Context) error
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetFetchStore() CacheStore
	GetLedgerStore() LedgerStore
}

// CacheStore defines the interface for fetch cache storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// LedgerStore defines the interface for tracking run telemetry.
type LedgerStore interface {
	// BeginRun creates a new run row and returns its unique ID
	BeginRun(startTime time.Time, window schema.ReportingWindow, configParams map[string]any) (int64, error)

	// EndRun updates the run row with completion data
	EndRun(runID int64, endTime time.Time, totalRecords int) error

	// RecordFetch stores telemetry for one (source, actor) fetch
	RecordFetch(runID int64, rec schema.RunRecord) error

	// GetStatus returns status information about the ledger store
	GetStatus() (schema.LedgerStatus, error)

	// GetAllRuns retrieves every run row, for export
	GetAllRuns() ([]schema.RunSummary, error)

	// GetAllRecords retrieves every fetch telemetry row, for export
	GetAllRecords() ([]schema.RunRecord, error)

	// Close closes the underlying connection
	Close() error
}
