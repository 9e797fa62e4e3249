package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/schema"
)

// probeConfig wires both sources against local test servers.
func probeConfig(githubURL, bugzillaURL string) *contract.Config {
	return &contract.Config{
		Window: coreWindow,
		Members: []contract.Member{
			{Name: "Alice Example", GitHub: "alice", Bugzilla: "alice@example.org"},
		},
		Sources:        []schema.SourceID{schema.GitHubSource, schema.BugzillaSource},
		Workers:        2,
		RetryLimit:     1,
		Timeout:        5 * time.Second,
		GitHubURL:      githubURL,
		GitHubToken:    "gh-token",
		BugzillaURL:    bugzillaURL,
		BugzillaAPIKey: "s3cret",
		Quiet:          true,
	}
}

func TestProbeSourcesAllReachable(t *testing.T) {
	github := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rate_limit", r.URL.Path)
		_, _ = w.Write([]byte(`{"resources": {"core": {"limit": 5000}}}`))
	}))
	defer github.Close()

	bugzilla := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/version", r.URL.Path)
		_, _ = w.Write([]byte(`{"version": "5.0.4"}`))
	}))
	defer bugzilla.Close()

	results := ProbeSources(context.Background(), probeConfig(github.URL, bugzilla.URL))

	// Results come back in source order regardless of probe timing.
	require.Len(t, results, 2)
	assert.Equal(t, schema.GitHubSource, results[0].Source)
	assert.True(t, results[0].Reachable)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, schema.BugzillaSource, results[1].Source)
	assert.True(t, results[1].Reachable)
}

func TestProbeSourcesOneDown(t *testing.T) {
	github := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer github.Close()

	bugzilla := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version": "5.0.4"}`))
	}))
	defer bugzilla.Close()

	results := ProbeSources(context.Background(), probeConfig(github.URL, bugzilla.URL))

	require.Len(t, results, 2)
	assert.False(t, results[0].Reachable)
	assert.Contains(t, results[0].Error, "github")
	assert.True(t, results[1].Reachable)
}

func TestExecuteSourceCheck(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version": "5.0.4", "resources": {}}`))
	}))
	defer healthy.Close()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	// All sources healthy: no error
	err := ExecuteSourceCheck(context.Background(), probeConfig(healthy.URL, healthy.URL))
	assert.NoError(t, err)

	// One source down: the check fails
	err = ExecuteSourceCheck(context.Background(), probeConfig(down.URL, healthy.URL))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 source(s) unreachable")
}
