package agg

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/recap/schema"
)

var (
	windowStart = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	testWindow  = schema.ReportingWindow{Start: windowStart, End: windowEnd}
)

// mkEvent builds a minimal event for aggregation tests.
func mkEvent(source schema.SourceID, id, actor, project string, kind schema.EventKind, ts time.Time) schema.ActivityEvent {
	return schema.ActivityEvent{Source: source, NativeID: id, Actor: actor, Project: project, Kind: kind, Timestamp: ts}
}

func TestFilterWindowBoundaries(t *testing.T) {
	tests := []struct {
		name string
		ts   time.Time
		want bool
	}{
		{name: "before start", ts: windowStart.Add(-time.Second), want: false},
		{name: "exactly at start", ts: windowStart, want: true},
		{name: "mid window", ts: windowStart.Add(36 * time.Hour), want: true},
		{name: "just before end", ts: windowEnd.Add(-time.Second), want: true},
		{name: "exactly at end", ts: windowEnd, want: false},
		{name: "after end", ts: windowEnd.Add(time.Second), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := []schema.ActivityEvent{mkEvent(schema.GitHubSource, "1", "alice", "repo", schema.CommitKind, tt.ts)}
			got := FilterWindow(events, testWindow)
			if tt.want {
				assert.Len(t, got, 1)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestFilterWindowPreservesOrder(t *testing.T) {
	events := []schema.ActivityEvent{
		mkEvent(schema.GitHubSource, "c", "alice", "repo", schema.CommitKind, windowStart.Add(72*time.Hour)),
		mkEvent(schema.GitHubSource, "a", "alice", "repo", schema.CommitKind, windowStart.Add(24*time.Hour)),
		mkEvent(schema.GitHubSource, "x", "alice", "repo", schema.CommitKind, windowEnd.Add(time.Hour)),
		mkEvent(schema.GitHubSource, "b", "alice", "repo", schema.CommitKind, windowStart.Add(48*time.Hour)),
	}

	got := FilterWindow(events, testWindow)
	require.Len(t, got, 3)
	assert.Equal(t, "c", got[0].NativeID)
	assert.Equal(t, "a", got[1].NativeID)
	assert.Equal(t, "b", got[2].NativeID)
}

func TestFilterExcluded(t *testing.T) {
	ts := windowStart.Add(time.Hour)
	events := []schema.ActivityEvent{
		mkEvent(schema.GitHubSource, "1", "alice", "octo-org/widgets", schema.CommitKind, ts),
		mkEvent(schema.GitHubSource, "2", "alice", "sandbox/scratch", schema.CommitKind, ts),
		mkEvent(schema.GitHubSource, "3", "alice", "octo-org/widgets-fork", schema.CommitKind, ts),
	}

	got := FilterExcluded(events, []string{"sandbox/", "*-fork"})
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].NativeID)

	assert.Len(t, FilterExcluded(events, nil), 3)
}

func TestAggregateGroupsByActorProject(t *testing.T) {
	events := []schema.ActivityEvent{
		mkEvent(schema.GitHubSource, "1", "alice", "repoA", schema.CommitKind, windowStart.Add(1*time.Hour)),
		mkEvent(schema.GitHubSource, "2", "alice", "repoA", schema.CommitKind, windowStart.Add(2*time.Hour)),
		mkEvent(schema.GitHubSource, "3", "alice", "repoB", schema.IssueOpenedKind, windowStart.Add(3*time.Hour)),
		mkEvent(schema.BugzillaSource, "4", "bob", "repoA", schema.CommentKind, windowStart.Add(4*time.Hour)),
	}

	groups := Aggregate(events)
	require.Len(t, groups, 3)

	byKey := map[string]schema.ActivityGroup{}
	for _, g := range groups {
		byKey[g.Actor+"/"+g.Project] = g
	}

	aliceA := byKey["alice/repoA"]
	assert.Equal(t, 2, aliceA.Total)
	assert.Equal(t, 2, aliceA.KindCounts[schema.CommitKind])
	assert.Len(t, aliceA.SampleEvents, 2)

	assert.Equal(t, 1, byKey["alice/repoB"].Total)
	assert.Equal(t, 1, byKey["bob/repoA"].KindCounts[schema.CommentKind])
}

func TestAggregateDeduplicates(t *testing.T) {
	// The same native id reported twice with disagreeing fields. The
	// earlier timestamp sorts first, so that version wins.
	events := []schema.ActivityEvent{
		mkEvent(schema.GitHubSource, "1", "alice", "repo", schema.CommentKind, windowStart.Add(2*time.Hour)),
		mkEvent(schema.GitHubSource, "1", "alice", "repo", schema.CommitKind, windowStart.Add(1*time.Hour)),
		// Same id on a different source is a different item.
		mkEvent(schema.BugzillaSource, "1", "alice", "repo", schema.BugFiledKind, windowStart.Add(3*time.Hour)),
	}

	groups := Aggregate(events)
	require.Len(t, groups, 1)
	g := groups[0]
	assert.Equal(t, 2, g.Total)
	assert.Equal(t, 1, g.KindCounts[schema.CommitKind], "earlier duplicate wins")
	assert.Zero(t, g.KindCounts[schema.CommentKind])
	assert.Equal(t, 1, g.KindCounts[schema.BugFiledKind])
}

func TestAggregateIdempotence(t *testing.T) {
	events := []schema.ActivityEvent{
		mkEvent(schema.GitHubSource, "1", "alice", "repoA", schema.CommitKind, windowStart.Add(1*time.Hour)),
		mkEvent(schema.GitHubSource, "2", "alice", "repoA", schema.PullRequestKind, windowStart.Add(2*time.Hour)),
		mkEvent(schema.BugzillaSource, "bug-7", "bob", "Firefox", schema.BugResolvedKind, windowStart.Add(3*time.Hour)),
	}
	doubled := append(append([]schema.ActivityEvent{}, events...), events...)

	once := Assemble(testWindow, Aggregate(events), schema.RunMeta{})
	twice := Assemble(testWindow, Aggregate(doubled), schema.RunMeta{})

	assert.Equal(t, once, twice, "feeding the input twice changes nothing")
}

func TestAggregateSampleCap(t *testing.T) {
	var events []schema.ActivityEvent
	for i := range 7 {
		events = append(events, mkEvent(
			schema.GitHubSource,
			string(rune('a'+i)),
			"alice", "repo", schema.CommitKind,
			windowStart.Add(time.Duration(i)*time.Hour),
		))
	}

	groups := Aggregate(events)
	require.Len(t, groups, 1)
	g := groups[0]
	assert.Equal(t, 7, g.Total)
	require.Len(t, g.SampleEvents, schema.SampleEventCap)

	// Newest first: events c..g survive, g first.
	assert.Equal(t, "g", g.SampleEvents[0].NativeID)
	assert.Equal(t, "c", g.SampleEvents[len(g.SampleEvents)-1].NativeID)
}

func TestAggregateSampleTieBreak(t *testing.T) {
	ts := windowStart.Add(time.Hour)
	events := []schema.ActivityEvent{
		mkEvent(schema.GitHubSource, "zeta", "alice", "repo", schema.CommitKind, ts),
		mkEvent(schema.GitHubSource, "alpha", "alice", "repo", schema.CommitKind, ts),
	}

	groups := Aggregate(events)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].SampleEvents, 2)
	assert.Equal(t, "alpha", groups[0].SampleEvents[0].NativeID, "equal timestamps order by native id")
}

func TestAssembleOrdering(t *testing.T) {
	groups := []schema.ActivityGroup{
		{Actor: "bob", Project: "repoA", Total: 3},
		{Actor: "alice", Project: "repoZ", Total: 1},
		{Actor: "alice", Project: "repoA", Total: 3},
		{Actor: "alice", Project: "repoB", Total: 3},
		{Actor: "carol", Project: "repoA", Total: 5},
	}

	report := Assemble(testWindow, groups, schema.RunMeta{})

	wantOrder := []string{
		"carol/repoA", // highest total
		"alice/repoA", // total tie: actor, then project
		"alice/repoB",
		"bob/repoA",
		"alice/repoZ", // lowest total
	}
	var gotOrder []string
	for _, g := range report.Groups {
		gotOrder = append(gotOrder, g.Actor+"/"+g.Project)
	}
	assert.Equal(t, wantOrder, gotOrder)
}

func TestAssembleDeterminismUnderPermutation(t *testing.T) {
	events := []schema.ActivityEvent{
		mkEvent(schema.GitHubSource, "1", "alice", "repoA", schema.CommitKind, windowStart.Add(1*time.Hour)),
		mkEvent(schema.GitHubSource, "2", "alice", "repoA", schema.PullRequestKind, windowStart.Add(2*time.Hour)),
		mkEvent(schema.GitHubSource, "2", "alice", "repoA", schema.CommentKind, windowStart.Add(4*time.Hour)), // duplicate id, disagreeing fields
		mkEvent(schema.GitHubSource, "3", "bob", "repoA", schema.CommitKind, windowStart.Add(3*time.Hour)),
		mkEvent(schema.BugzillaSource, "bug-7", "alice", "Firefox", schema.BugFiledKind, windowStart.Add(5*time.Hour)),
		mkEvent(schema.BugzillaSource, "bug-8", "bob", "Firefox", schema.BugResolvedKind, windowStart.Add(6*time.Hour)),
		mkEvent(schema.GitHubSource, "9", "carol", "repoB", schema.CommitKind, windowEnd.Add(time.Hour)), // outside window
	}

	pipeline := func(input []schema.ActivityEvent) schema.Report {
		return Assemble(testWindow, Aggregate(FilterWindow(input, testWindow)), schema.RunMeta{})
	}
	baseline := pipeline(events)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 25; i++ {
		shuffled := make([]schema.ActivityEvent, len(events))
		copy(shuffled, events)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.Equal(t, baseline, pipeline(shuffled))
	}
}

func TestTwoSourcePipeline(t *testing.T) {
	// 1. Two sources contribute to the same actor and project
	events := []schema.ActivityEvent{
		mkEvent(schema.GitHubSource, "1", "alice", "repo", schema.CommitKind, time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)),
		mkEvent(schema.BugzillaSource, "7", "alice", "repo", schema.BugResolvedKind, time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)),
	}

	// 2. Run the synchronous pipeline stages
	report := Assemble(testWindow, Aggregate(FilterWindow(events, testWindow)), schema.RunMeta{})

	// 3. One merged group with both kinds counted
	require.Len(t, report.Groups, 1)
	g := report.Groups[0]
	assert.Equal(t, "alice", g.Actor)
	assert.Equal(t, "repo", g.Project)
	assert.Equal(t, 2, g.Total)
	assert.Equal(t, 1, g.KindCounts[schema.CommitKind])
	assert.Equal(t, 1, g.KindCounts[schema.BugResolvedKind])

	// 4. Samples are newest first
	require.Len(t, g.SampleEvents, 2)
	assert.Equal(t, "7", g.SampleEvents[0].NativeID)
	assert.Equal(t, 2, report.TotalEvents())
}

func TestAggregateEmptyInput(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
	report := Assemble(testWindow, nil, schema.RunMeta{})
	assert.Empty(t, report.Groups)
	assert.Equal(t, testWindow, report.Window)
}
