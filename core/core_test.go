package core

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/internal/iocache"
	"github.com/huangsam/recap/schema"
)

var coreWindow = schema.ReportingWindow{
	Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
}

// coreConfig returns a config wired for two sources and one member.
func coreConfig() *contract.Config {
	return &contract.Config{
		Window: coreWindow,
		Members: []contract.Member{
			{Name: "Alice Example", GitHub: "alice", Bugzilla: "alice@example.org"},
		},
		Sources: []schema.SourceID{schema.GitHubSource, schema.BugzillaSource},
		Workers: 2,
		Quiet:   true,
	}
}

// pushRecord builds a GitHub push event carrying one commit.
func pushRecord(id, sha string) schema.RawRecord {
	payload := fmt.Sprintf(`{
		"id": %q,
		"type": "PushEvent",
		"created_at": "2024-01-05T10:00:00Z",
		"repo": {"name": "octo-org/widgets"},
		"payload": {"commits": [{"sha": %q, "message": "Fix crash"}]}
	}`, id, sha)
	return schema.RawRecord{Source: schema.GitHubSource, Form: schema.EventForm, Payload: json.RawMessage(payload)}
}

// bugRecord builds a Bugzilla filed-bug record.
func bugRecord(t *testing.T, id int) schema.RawRecord {
	t.Helper()
	payload, err := json.Marshal(schema.BugzillaBugPayload{
		ID:           id,
		Summary:      "Crash on startup",
		Product:      "Widgets",
		CreationTime: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return schema.RawRecord{Source: schema.BugzillaSource, Form: schema.BugForm, Payload: payload}
}

// mockAdapter builds an adapter whose every fetch yields the same outcome.
func mockAdapter(name schema.SourceID, result schema.FetchResult, err error) *contract.MockSourceAdapter {
	adapter := &contract.MockSourceAdapter{}
	adapter.On("Name").Return(name)
	adapter.On("Fetch", mock.Anything, mock.Anything, coreWindow).Return(result, err)
	return adapter
}

// noStoreManager builds a cache manager with no stores configured.
func noStoreManager() *iocache.MockCacheManager {
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetFetchStore").Return(nil)
	mgr.On("GetLedgerStore").Return(nil)
	return mgr
}

func TestRunReportCoreSuccess(t *testing.T) {
	ctx := context.Background()
	cfg := coreConfig()

	github := mockAdapter(schema.GitHubSource, schema.FetchResult{
		Records: []schema.RawRecord{pushRecord("11", "a1b2c3")},
		Stats:   schema.FetchStats{Requests: 1, Pages: 1},
	}, nil)
	bugzilla := mockAdapter(schema.BugzillaSource, schema.FetchResult{
		Records: []schema.RawRecord{bugRecord(t, 101)},
		Stats:   schema.FetchStats{Requests: 3, Pages: 1},
	}, nil)

	report, err := runReportCore(ctx, cfg, []contract.SourceAdapter{github, bugzilla}, noStoreManager())

	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, 2, report.TotalEvents())
	assert.Equal(t, []string{"Alice Example"}, report.Meta.Actors)
	assert.Zero(t, report.Meta.MalformedTotal)

	// Source statuses come back in adapter order.
	require.Len(t, report.Meta.Sources, 2)
	assert.Equal(t, schema.GitHubSource, report.Meta.Sources[0].Source)
	assert.Equal(t, schema.SourceOK, report.Meta.Sources[0].Status)
	assert.Equal(t, 1, report.Meta.Sources[0].Records)
	assert.Equal(t, schema.BugzillaSource, report.Meta.Sources[1].Source)
	assert.Equal(t, schema.SourceOK, report.Meta.Sources[1].Status)
	assert.Equal(t, 3, report.Meta.Sources[1].Requests)

	github.AssertExpectations(t)
	bugzilla.AssertExpectations(t)
}

// A failing source never blocks the others; its status degrades while
// healthy sources still deliver their events.
func TestRunReportCorePartialFailureIsolation(t *testing.T) {
	ctx := context.Background()
	cfg := coreConfig()

	github := mockAdapter(schema.GitHubSource, schema.FetchResult{
		Stats: schema.FetchStats{Requests: 4},
	}, fmt.Errorf("github: %w: status 503", contract.ErrSourceUnavailable))
	bugzilla := mockAdapter(schema.BugzillaSource, schema.FetchResult{
		Records: []schema.RawRecord{bugRecord(t, 101)},
		Stats:   schema.FetchStats{Requests: 3},
	}, nil)

	report, err := runReportCore(ctx, cfg, []contract.SourceAdapter{github, bugzilla}, noStoreManager())

	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.TotalEvents())

	require.Len(t, report.Meta.Sources, 2)
	assert.Equal(t, schema.SourceUnavailable, report.Meta.Sources[0].Status)
	assert.Contains(t, report.Meta.Sources[0].Detail, "503")
	assert.Equal(t, schema.SourceOK, report.Meta.Sources[1].Status)

	// The surviving event is the Bugzilla one.
	require.Len(t, report.Groups, 1)
	assert.Equal(t, "Alice Example", report.Groups[0].Actor)
	assert.Equal(t, "Widgets", report.Groups[0].Project)
}

func TestRunReportCoreAllUnavailable(t *testing.T) {
	ctx := context.Background()
	cfg := coreConfig()

	down := fmt.Errorf("%w: connection refused", contract.ErrSourceUnavailable)
	github := mockAdapter(schema.GitHubSource, schema.FetchResult{}, down)
	bugzilla := mockAdapter(schema.BugzillaSource, schema.FetchResult{}, down)

	report, err := runReportCore(ctx, cfg, []contract.SourceAdapter{github, bugzilla}, noStoreManager())

	assert.Nil(t, report)
	require.Error(t, err)
	assert.ErrorIs(t, err, contract.ErrNoData)
}

func TestRunReportCoreTruncationIsPartial(t *testing.T) {
	ctx := context.Background()
	cfg := coreConfig()
	cfg.Sources = []schema.SourceID{schema.GitHubSource}

	github := mockAdapter(schema.GitHubSource, schema.FetchResult{
		Records: []schema.RawRecord{pushRecord("11", "a1b2c3")},
		Stats:   schema.FetchStats{Requests: 10, Pages: 10, Truncated: true},
	}, nil)

	report, err := runReportCore(ctx, cfg, []contract.SourceAdapter{github}, noStoreManager())

	require.NoError(t, err)
	require.Len(t, report.Meta.Sources, 1)
	assert.Equal(t, schema.SourcePartial, report.Meta.Sources[0].Status)
	assert.Equal(t, "history may be truncated", report.Meta.Sources[0].Detail)
	assert.Equal(t, 1, report.TotalEvents())
}

// Malformed records are dropped and counted without failing the source.
func TestRunReportCoreMalformedCounting(t *testing.T) {
	ctx := context.Background()
	cfg := coreConfig()
	cfg.Sources = []schema.SourceID{schema.GitHubSource}

	malformed := schema.RawRecord{
		Source:  schema.GitHubSource,
		Form:    schema.EventForm,
		Payload: json.RawMessage(`{"type": "PushEvent"}`),
	}
	github := mockAdapter(schema.GitHubSource, schema.FetchResult{
		Records: []schema.RawRecord{pushRecord("11", "a1b2c3"), malformed},
		Stats:   schema.FetchStats{Requests: 1},
	}, nil)

	report, err := runReportCore(ctx, cfg, []contract.SourceAdapter{github}, noStoreManager())

	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalEvents())
	assert.Equal(t, 1, report.Meta.MalformedTotal)

	require.Len(t, report.Meta.Sources, 1)
	assert.Equal(t, schema.SourceOK, report.Meta.Sources[0].Status)
	assert.Equal(t, 1, report.Meta.Sources[0].Records)
	assert.Equal(t, 1, report.Meta.Sources[0].Dropped)
}

func TestRunReportCoreWithRunTracking(t *testing.T) {
	ctx := context.Background()
	cfg := coreConfig()
	cfg.Sources = []schema.SourceID{schema.GitHubSource}

	github := mockAdapter(schema.GitHubSource, schema.FetchResult{
		Records: []schema.RawRecord{pushRecord("11", "a1b2c3")},
		Stats:   schema.FetchStats{Requests: 1},
	}, nil)

	ledger := &iocache.MockLedgerStore{}
	ledger.On("BeginRun", mock.AnythingOfType("time.Time"), coreWindow, mock.Anything).Return(int64(7), nil)
	ledger.On("RecordFetch", int64(7), mock.AnythingOfType("schema.RunRecord")).Return(nil)
	ledger.On("EndRun", int64(7), mock.AnythingOfType("time.Time"), 1).Return(nil)

	mgr := &iocache.MockCacheManager{}
	mgr.On("GetFetchStore").Return(nil)
	mgr.On("GetLedgerStore").Return(ledger)

	report, err := runReportCore(ctx, cfg, []contract.SourceAdapter{github}, mgr)

	require.NoError(t, err)
	require.NotNil(t, report)
	ledger.AssertExpectations(t)
	mgr.AssertExpectations(t)
}

// Ledger failures degrade to warnings; the report must still come out.
func TestRunReportCoreLedgerFailureNeverFatal(t *testing.T) {
	ctx := context.Background()
	cfg := coreConfig()
	cfg.Sources = []schema.SourceID{schema.GitHubSource}

	github := mockAdapter(schema.GitHubSource, schema.FetchResult{
		Records: []schema.RawRecord{pushRecord("11", "a1b2c3")},
		Stats:   schema.FetchStats{Requests: 1},
	}, nil)

	ledger := &iocache.MockLedgerStore{}
	ledger.On("BeginRun", mock.AnythingOfType("time.Time"), coreWindow, mock.Anything).Return(int64(0), assert.AnError)

	mgr := &iocache.MockCacheManager{}
	mgr.On("GetFetchStore").Return(nil)
	mgr.On("GetLedgerStore").Return(ledger)

	report, err := runReportCore(ctx, cfg, []contract.SourceAdapter{github}, mgr)

	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalEvents())
	ledger.AssertNotCalled(t, "EndRun", mock.Anything, mock.Anything, mock.Anything)
	ledger.AssertNotCalled(t, "RecordFetch", mock.Anything, mock.Anything)
}

func TestAllUnavailable(t *testing.T) {
	cases := []struct {
		name string
		runs []schema.SourceRun
		want bool
	}{
		{
			name: "no runs",
			runs: nil,
			want: true,
		},
		{
			name: "all down",
			runs: []schema.SourceRun{
				{Source: schema.GitHubSource, Status: schema.SourceUnavailable},
				{Source: schema.BugzillaSource, Status: schema.SourceUnavailable},
			},
			want: true,
		},
		{
			name: "one partial survives",
			runs: []schema.SourceRun{
				{Source: schema.GitHubSource, Status: schema.SourceUnavailable},
				{Source: schema.BugzillaSource, Status: schema.SourcePartial},
			},
			want: false,
		},
		{
			name: "all ok",
			runs: []schema.SourceRun{
				{Source: schema.GitHubSource, Status: schema.SourceOK},
			},
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, allUnavailable(tc.runs))
		})
	}
}
