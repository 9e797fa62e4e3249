package core

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/huangsam/recap/core/norm"
	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/schema"
)

// fetchTask is one (source, actor) unit of work for the worker pool.
type fetchTask struct {
	adapter contract.SourceAdapter
	member  contract.Member
	actorID string // The member's identity on this source
}

// fetchOutcome is what one completed task reports back.
type fetchOutcome struct {
	source   schema.SourceID
	actor    string // Canonical member name
	events   []schema.ActivityEvent
	dropped  int
	stats    schema.FetchStats
	status   schema.SourceState
	detail   string
	duration time.Duration
}

// fetchAllSources runs every (source, actor) fetch through a bounded
// worker pool and folds the outcomes into per-source run statuses.
// Task failures never abort the pool; they surface as partial or
// unavailable statuses on the owning source.
func fetchAllSources(ctx context.Context, cfg *contract.Config, adapters []contract.SourceAdapter) ([]schema.ActivityEvent, []schema.SourceRun, int) {
	tasks := buildFetchTasks(cfg, adapters)

	bar := newFetchProgress(cfg, len(tasks))
	defer finishProgress(bar)

	// Initialize channels based on the final number of tasks to be processed.
	taskCh := make(chan fetchTask, len(tasks))
	outcomeCh := make(chan fetchOutcome, len(tasks))
	var wg sync.WaitGroup

	// Start worker pool
	for range cfg.Workers {
		wg.Go(func() {
			for task := range taskCh {
				outcomeCh <- runFetchTask(ctx, cfg, task)
				progressStep(bar)
			}
		})
	}

	// Send tasks to worker channel
	for _, task := range tasks {
		taskCh <- task
	}
	close(taskCh)

	// Wait for all workers to finish processing
	wg.Wait()
	close(outcomeCh)

	return foldOutcomes(adapters, outcomeCh)
}

// buildFetchTasks expands the adapter list into per-member tasks.
// Members without an identity on a source have no task for it.
func buildFetchTasks(cfg *contract.Config, adapters []contract.SourceAdapter) []fetchTask {
	var tasks []fetchTask
	for _, adapter := range adapters {
		for _, member := range cfg.MembersFor(adapter.Name()) {
			actorID, _ := member.Identity(adapter.Name())
			tasks = append(tasks, fetchTask{
				adapter: adapter,
				member:  member,
				actorID: actorID,
			})
		}
	}
	return tasks
}

// runFetchTask fetches and normalizes activity for one (source, actor) pair.
func runFetchTask(ctx context.Context, cfg *contract.Config, task fetchTask) fetchOutcome {
	start := time.Now()
	result, err := cachedFetch(ctx, cfg, task.adapter, task.actorID)

	// Normalize whatever arrived; a failed fetch may still carry records.
	normalizer := norm.New(task.member, cfg.BugzillaURL)
	events, dropped := normalizer.Batch(result.Records)

	out := fetchOutcome{
		source:   task.adapter.Name(),
		actor:    task.member.Name,
		events:   events,
		dropped:  dropped,
		stats:    result.Stats,
		duration: time.Since(start),
	}
	out.status, out.detail = classifyOutcome(err, result.Stats, len(events))

	if err != nil {
		contract.LogWarn(fmt.Sprintf("Fetch from %s for %s ended with status %s", out.source, out.actor, out.status), err)
	}

	recordFetchTelemetry(ctx, cfg, out)
	return out
}

// classifyOutcome derives the per-task source state. Records salvaged
// from a failed fetch downgrade the failure to partial; a truncated but
// otherwise clean fetch is partial as well.
func classifyOutcome(err error, stats schema.FetchStats, records int) (schema.SourceState, string) {
	switch {
	case err == nil && !stats.Truncated:
		return schema.SourceOK, ""
	case err == nil:
		return schema.SourcePartial, "history may be truncated"
	case records > 0:
		return schema.SourcePartial, err.Error()
	default:
		return schema.SourceUnavailable, err.Error()
	}
}

// foldOutcomes merges task outcomes into the event stream and one
// SourceRun per adapter, in adapter order.
func foldOutcomes(adapters []contract.SourceAdapter, outcomeCh <-chan fetchOutcome) ([]schema.ActivityEvent, []schema.SourceRun, int) {
	bySource := make(map[schema.SourceID]*schema.SourceRun, len(adapters))
	for _, adapter := range adapters {
		bySource[adapter.Name()] = &schema.SourceRun{Source: adapter.Name()}
	}

	var events []schema.ActivityEvent
	malformed := 0
	for out := range outcomeCh {
		events = append(events, out.events...)
		malformed += out.dropped

		run := bySource[out.source]
		run.Status = schema.MergeStates(run.Status, out.status)
		run.Records += len(out.events)
		run.Dropped += out.dropped
		run.Requests += out.stats.Requests
		run.RateWaits += out.stats.RateWaits
		if run.Detail == "" {
			run.Detail = out.detail
		}
	}

	runs := make([]schema.SourceRun, 0, len(adapters))
	for _, adapter := range adapters {
		run := bySource[adapter.Name()]
		if run.Status == "" {
			// No member carries an identity for this source; nothing ran.
			run.Status = schema.SourceOK
			run.Detail = "no members configured for this source"
		}
		runs = append(runs, *run)
	}
	return events, runs, malformed
}

// recordFetchTelemetry stores one task's fetch accounting in the run ledger.
func recordFetchTelemetry(ctx context.Context, cfg *contract.Config, out fetchOutcome) {
	runID, ok := getRunID(ctx)
	if !ok || runID <= 0 {
		return
	}

	// Get the cache manager from context
	mgr := cacheManagerFromContext(ctx)
	if mgr == nil {
		return
	}
	ledger := mgr.GetLedgerStore()
	if ledger == nil {
		return
	}

	rec := schema.RunRecord{
		RunID:       runID,
		WindowStart: cfg.Window.Start,
		WindowEnd:   cfg.Window.End,
		Actor:       out.actor,
		Source:      string(out.source),
		Status:      string(out.status),
		Records:     int32(len(out.events)),
		Requests:    int32(out.stats.Requests),
		DurationMs:  int32(out.duration.Milliseconds()),
	}
	if err := ledger.RecordFetch(runID, rec); err != nil {
		logTrackingError("RecordFetch", fmt.Sprintf("%s/%s", out.source, out.actor), err)
	}
}

// logTrackingError logs ledger tracking errors to stderr without disrupting the run.
func logTrackingError(operation, subject string, err error) {
	contract.LogWarn(fmt.Sprintf("Run tracking failed for %s on %s", operation, subject), err)
}

// newFetchProgress returns a fetch progress bar, or nil in quiet mode.
// Progress renders on stderr; stdout is reserved for report output.
func newFetchProgress(cfg *contract.Config, total int) *progressbar.ProgressBar {
	if cfg.Quiet || total == 0 {
		return nil
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Fetching activity"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(15),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
	_ = bar.RenderBlank()
	return bar
}

func progressStep(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Add(1)
	}
}

func finishProgress(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
}
