// Package core orchestrates the report pipeline: concurrent source
// fetches, normalization, window filtering, aggregation and assembly.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/recap/core/agg"
	"github.com/huangsam/recap/internal"
	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/internal/source"
	"github.com/huangsam/recap/schema"
)

// Execute runs one full report over the configured window, members and
// sources. Source failures degrade the run to partial statuses; only a
// run where every source came back empty-handed fails outright.
func Execute(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*schema.Report, error) {
	adapters := source.BuildAdapters(cfg)
	return runReportCore(ctx, cfg, adapters, mgr)
}

// runReportCore performs the common Fetch, Reduction and Assembly steps.
func runReportCore(ctx context.Context, cfg *contract.Config, adapters []contract.SourceAdapter, mgr contract.CacheManager) (*schema.Report, error) {
	if !cfg.Quiet {
		internal.LogRunHeader(cfg)
	}

	// Add cache manager to context for use in worker goroutines
	ctx = contextWithCacheManager(ctx, mgr)

	// --- 0. Begin Run Tracking (if configured) ---
	var runID int64
	ledger := mgr.GetLedgerStore()
	if ledger != nil {
		startTime := time.Now()
		var err error
		runID, err = ledger.BeginRun(startTime, cfg.Window, cfg.ConfigParams())
		if err != nil {
			contract.LogWarn("Run tracking initialization failed", err)
		} else if runID > 0 {
			// Add run ID to context for use in fetch telemetry
			ctx = withRunID(ctx, runID)
		}
	}

	// --- 1. Fetch Phase (worker pool, with caching) ---
	events, runs, malformed := fetchAllSources(ctx, cfg, adapters)

	if allUnavailable(runs) {
		return nil, fmt.Errorf("%w: every configured source failed", contract.ErrNoData)
	}

	// --- 2. Reduction Phase ---
	events = agg.FilterExcluded(events, cfg.Excludes)
	events = agg.FilterWindow(events, cfg.Window)
	groups := agg.Aggregate(events)

	// --- 3. Assembly ---
	meta := schema.RunMeta{
		GeneratedAt:    time.Now().UTC(),
		Actors:         cfg.ActorNames(),
		Sources:        runs,
		MalformedTotal: malformed,
	}
	report := agg.Assemble(cfg.Window, groups, meta)

	// --- 4. End Run Tracking ---
	if ledger != nil && runID > 0 {
		endTime := time.Now()
		if err := ledger.EndRun(runID, endTime, report.TotalEvents()); err != nil {
			contract.LogWarn("Failed to finalize run tracking", err)
		}
	}

	return &report, nil
}

// allUnavailable reports whether every source run failed outright.
func allUnavailable(runs []schema.SourceRun) bool {
	if len(runs) == 0 {
		return true
	}
	for _, run := range runs {
		if run.Status != schema.SourceUnavailable {
			return false
		}
	}
	return true
}
