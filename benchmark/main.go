// Package main provides a performance benchmarking tool for the recap pipeline.
// It generates synthetic activity events at several team scales and measures the
// reduction phase (exclusion filter, window clip, dedup and grouping, assembly),
// treating the first run as cold and averaging the rest as warm, generating CSV
// output for performance analysis and documentation.
//
// No network access or credentials are required; everything runs in-process.
//
// Usage: go run benchmark/main.go
package main

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/huangsam/recap/core/agg"
	"github.com/huangsam/recap/schema"
)

// BenchmarkResult holds the result of one scale (cold run and average of warm runs).
type BenchmarkResult struct {
	Scale    string
	Events   int
	Groups   int
	ColdTime string
	WarmTime string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	Runs   int
	Seed   int64
	Scales []ScaleSpec
}

// ScaleSpec describes one synthetic team size.
type ScaleSpec struct {
	Name           string
	Actors         int
	Projects       int
	EventsPerActor int
}

func main() {
	config := BenchmarkConfig{
		Runs: 5,
		Seed: 42,
		Scales: []ScaleSpec{
			{Name: "small", Actors: 5, Projects: 8, EventsPerActor: 200},
			{Name: "medium", Actors: 25, Projects: 40, EventsPerActor: 400},
			{Name: "large", Actors: 100, Projects: 150, EventsPerActor: 1000},
			{Name: "xlarge", Actors: 250, Projects: 300, EventsPerActor: 2000},
		},
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// runBenchmarks executes the reduction pipeline across all configured scales.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	window := schema.ReportingWindow{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	excludes := []string{"sandbox/", "archived-"}

	fmt.Printf("Starting benchmark: %d scales, %d runs each (first run cold)\n",
		len(config.Scales), config.Runs)

	for _, scale := range config.Scales {
		fmt.Printf("Benchmarking %s (%d actors, %d projects, %d events/actor)\n",
			scale.Name, scale.Actors, scale.Projects, scale.EventsPerActor)

		events := generateEvents(scale, window, config.Seed)

		var times []float64
		groups := 0
		for run := 0; run < config.Runs; run++ {
			// Reduction mutates nothing, so the same slice feeds every run
			start := time.Now()
			kept := agg.FilterExcluded(events, excludes)
			kept = agg.FilterWindow(kept, window)
			grouped := agg.Aggregate(kept)
			report := agg.Assemble(window, grouped, schema.RunMeta{GeneratedAt: time.Now().UTC()})
			times = append(times, time.Since(start).Seconds())
			groups = len(report.Groups)
		}

		coldTime := fmt.Sprintf("%.3fs", times[0])
		var sum float64
		for _, t := range times[1:] {
			sum += t
		}
		warmTime := fmt.Sprintf("%.3fs", sum/float64(len(times)-1))

		fmt.Printf("  Events: %d, Groups: %d, Cold: %s, Warm average: %s\n",
			len(events), groups, coldTime, warmTime)

		results = append(results, BenchmarkResult{
			Scale:    scale.Name,
			Events:   len(events),
			Groups:   groups,
			ColdTime: coldTime,
			WarmTime: warmTime,
		})
	}

	return results
}

// generateEvents builds a deterministic synthetic event stream. Roughly 10%
// of events are duplicates, 15% fall outside the window and a few land in
// excluded projects, so every reduction step has real work to do.
func generateEvents(scale ScaleSpec, window schema.ReportingWindow, seed int64) []schema.ActivityEvent {
	rng := rand.New(rand.NewSource(seed))
	span := window.End.Sub(window.Start)

	kinds := []schema.EventKind{
		schema.CommitKind, schema.CommitKind, schema.CommitKind,
		schema.PullRequestKind, schema.IssueOpenedKind, schema.IssueClosedKind,
		schema.BugFiledKind, schema.BugResolvedKind, schema.CommentKind,
	}

	var events []schema.ActivityEvent
	for a := 0; a < scale.Actors; a++ {
		actor := fmt.Sprintf("member-%03d", a)
		for i := 0; i < scale.EventsPerActor; i++ {
			project := fmt.Sprintf("org/project-%03d", rng.Intn(scale.Projects))
			switch rng.Intn(20) {
			case 0:
				project = "sandbox/scratch"
			case 1:
				project = "archived-legacy"
			}

			ts := window.Start.Add(time.Duration(rng.Int63n(int64(span))))
			if rng.Intn(100) < 15 {
				// Push outside the window in either direction
				ts = ts.AddDate(0, -6+rng.Intn(2)*12, 0)
			}

			kind := kinds[rng.Intn(len(kinds))]
			source := schema.GitHubSource
			if kind == schema.BugFiledKind || kind == schema.BugResolvedKind {
				source = schema.BugzillaSource
			}

			events = append(events, schema.ActivityEvent{
				Source:    source,
				NativeID:  fmt.Sprintf("%s-%s-%d", actor, kind, i),
				Actor:     actor,
				Project:   project,
				Kind:      kind,
				Timestamp: ts,
				Title:     fmt.Sprintf("Synthetic %s %d by %s", kind, i, actor),
			})

			if rng.Intn(10) == 0 {
				events = append(events, events[len(events)-1])
			}
		}
	}

	return events
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/recap_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"scale", "events", "groups", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		row := []string{
			result.Scale,
			fmt.Sprintf("%d", result.Events),
			fmt.Sprintf("%d", result.Groups),
			result.ColdTime,
			result.WarmTime,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	for _, result := range results {
		fmt.Printf("  %-8s: Events: %d, Groups: %d, Cold: %s, Warm: %s\n",
			result.Scale, result.Events, result.Groups, result.ColdTime, result.WarmTime)
	}

	fmt.Printf("Benchmark script completed successfully\n")
}
