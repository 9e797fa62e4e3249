package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/internal/source"
	"github.com/huangsam/recap/schema"
)

// ExecuteSourceCheck probes every enabled source and prints a concise
// reachability report. It returns an error when any source is down so
// the command exits non-zero for scripting.
func ExecuteSourceCheck(ctx context.Context, cfg *contract.Config) error {
	start := time.Now()

	results := ProbeSources(ctx, cfg)
	printProbeResults(results, time.Since(start))

	unreachable := 0
	for _, result := range results {
		if !result.Reachable {
			unreachable++
		}
	}
	if unreachable > 0 {
		return fmt.Errorf("%d source(s) unreachable", unreachable)
	}
	return nil
}

// ProbeSources probes each enabled source adapter concurrently.
func ProbeSources(ctx context.Context, cfg *contract.Config) []schema.ProbeResult {
	adapters := source.BuildAdapters(cfg)
	results := make([]schema.ProbeResult, len(adapters))

	var wg sync.WaitGroup
	for i, adapter := range adapters {
		idx := i // Capture loop variable for goroutine
		probed := adapter
		wg.Go(func() {
			// Each goroutine writes to a *unique* index, which is safe.
			start := time.Now()
			err := probed.Probe(ctx)
			result := schema.ProbeResult{
				Source:     probed.Name(),
				Reachable:  err == nil,
				DurationMs: time.Since(start).Milliseconds(),
			}
			if err != nil {
				result.Error = err.Error()
			}
			results[idx] = result
		})
	}
	wg.Wait()

	return results
}

// printProbeResults prints probe outcomes in a concise format.
func printProbeResults(results []schema.ProbeResult, duration time.Duration) {
	fmt.Println("Source Check Results:")

	for _, result := range results {
		if result.Reachable {
			fmt.Printf("  ✅ %-10s reachable (%dms)\n", result.Source, result.DurationMs)
			continue
		}
		fmt.Printf("  ❌ %-10s unreachable: %s\n", result.Source, result.Error)
	}

	fmt.Printf("\nChecked %d sources in %v\n", len(results), duration)
}
