// Package agg has the data-reduction stages of the activity pipeline:
// window filtering, deduplication, grouping and report assembly. Every
// function here is a pure transformation; concurrency upstream can never
// leak into the output ordering.
package agg

import (
	"sort"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/schema"
)

// FilterWindow keeps events whose timestamp falls inside the half-open
// window. Order-preserving and stateless; an empty result is valid.
func FilterWindow(events []schema.ActivityEvent, window schema.ReportingWindow) []schema.ActivityEvent {
	out := make([]schema.ActivityEvent, 0, len(events))
	for _, e := range events {
		if window.Contains(e.Timestamp) {
			out = append(out, e)
		}
	}
	return out
}

// FilterExcluded drops events whose project matches an exclude pattern.
func FilterExcluded(events []schema.ActivityEvent, excludes []string) []schema.ActivityEvent {
	if len(excludes) == 0 {
		return events
	}
	out := make([]schema.ActivityEvent, 0, len(events))
	for _, e := range events {
		if contract.ShouldIgnore(e.Project, excludes) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Aggregate deduplicates events and groups them by (actor, project).
// Empty input yields an empty group set.
func Aggregate(events []schema.ActivityEvent) []schema.ActivityGroup {
	type groupKey struct {
		actor   string
		project string
	}

	groups := make(map[groupKey]*schema.ActivityGroup)
	for _, e := range dedupEvents(events) {
		key := groupKey{actor: e.Actor, project: e.Project}
		g, ok := groups[key]
		if !ok {
			g = &schema.ActivityGroup{
				Actor:      e.Actor,
				Project:    e.Project,
				KindCounts: make(map[schema.EventKind]int),
			}
			groups[key] = g
		}
		g.KindCounts[e.Kind]++
		g.Total++
		g.SampleEvents = insertSample(g.SampleEvents, e)
	}

	out := make([]schema.ActivityGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	return out
}

// Assemble orders groups into the final report: total descending, then
// actor ascending, then project ascending. The result is identical for
// any permutation of the input.
func Assemble(window schema.ReportingWindow, groups []schema.ActivityGroup, meta schema.RunMeta) schema.Report {
	ordered := make([]schema.ActivityGroup, len(groups))
	copy(ordered, groups)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Total != ordered[j].Total {
			return ordered[i].Total > ordered[j].Total
		}
		if ordered[i].Actor != ordered[j].Actor {
			return ordered[i].Actor < ordered[j].Actor
		}
		return ordered[i].Project < ordered[j].Project
	})
	return schema.Report{Window: window, Groups: ordered, Meta: meta}
}

// dedupEvents collapses events sharing (source, native id). The input is
// sorted by a total order over all fields first, so when duplicates
// disagree on other fields the survivor is still the same no matter what
// order the sources delivered them in.
func dedupEvents(events []schema.ActivityEvent) []schema.ActivityEvent {
	sorted := make([]schema.ActivityEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		return eventLess(sorted[i], sorted[j])
	})

	out := make([]schema.ActivityEvent, 0, len(sorted))
	for i, e := range sorted {
		if i > 0 && e.Source == sorted[i-1].Source && e.NativeID == sorted[i-1].NativeID {
			continue
		}
		out = append(out, e)
	}
	return out
}

// eventLess is a total order over events: the dedup key first, then
// every remaining field.
func eventLess(a, b schema.ActivityEvent) bool {
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	if a.NativeID != b.NativeID {
		return a.NativeID < b.NativeID
	}
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	if a.Actor != b.Actor {
		return a.Actor < b.Actor
	}
	if a.Project != b.Project {
		return a.Project < b.Project
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.Title != b.Title {
		return a.Title < b.Title
	}
	return a.URL < b.URL
}

// insertSample keeps the most recent events, newest first, bounded by
// schema.SampleEventCap. Timestamp ties break on native id so samples
// stay stable under input reordering.
func insertSample(samples []schema.ActivityEvent, e schema.ActivityEvent) []schema.ActivityEvent {
	samples = append(samples, e)
	sort.Slice(samples, func(i, j int) bool {
		if !samples[i].Timestamp.Equal(samples[j].Timestamp) {
			return samples[i].Timestamp.After(samples[j].Timestamp)
		}
		return samples[i].NativeID < samples[j].NativeID
	})
	if len(samples) > schema.SampleEventCap {
		samples = samples[:schema.SampleEventCap]
	}
	return samples
}
