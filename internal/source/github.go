package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/schema"
)

const (
	githubPerPage = 100
	githubRate    = 2.0 // requests per second through the local limiter
)

// githubEventPeek is the minimal slice of an event needed to page and
// window the feed. The full payload still travels as-is.
type githubEventPeek struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// GitHubAdapter reads a user's public activity feed.
type GitHubAdapter struct {
	client  *client
	baseURL string
}

var _ contract.SourceAdapter = &GitHubAdapter{} // Compile-time check

// NewGitHub creates an adapter for the GitHub events API.
func NewGitHub(cfg *contract.Config) *GitHubAdapter {
	headers := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
	if cfg.GitHubToken != "" {
		headers["Authorization"] = "Bearer " + cfg.GitHubToken
	}
	return &GitHubAdapter{
		client:  newClient(cfg, githubRate, headers),
		baseURL: cfg.GitHubURL,
	}
}

// Name implements the contract.SourceAdapter interface.
func (a *GitHubAdapter) Name() schema.SourceID {
	return schema.GitHubSource
}

// Probe implements the contract.SourceAdapter interface. The rate limit
// endpoint is free to call and also validates the token when one is set.
func (a *GitHubAdapter) Probe(ctx context.Context) error {
	var stats schema.FetchStats
	var payload struct {
		Resources map[string]json.RawMessage `json:"resources"`
	}
	endpoint := a.baseURL + "/rate_limit"
	if _, err := a.client.getJSON(ctx, endpoint, &stats, &payload); err != nil {
		return wrapFetchErr(schema.GitHubSource, err)
	}
	return nil
}

// Fetch implements the contract.SourceAdapter interface. The events feed
// arrives newest first, so paging stops at the first event older than
// the window. GitHub only retains the most recent events per user, so a
// feed that runs out before reaching the window start is flagged
// truncated.
func (a *GitHubAdapter) Fetch(ctx context.Context, actor string, window schema.ReportingWindow) (schema.FetchResult, error) {
	var result schema.FetchResult

	nextURL := fmt.Sprintf("%s/users/%s/events?per_page=%d", a.baseURL, url.PathEscape(actor), githubPerPage)
	var oldestSeen time.Time
	sawOlder := false

	for nextURL != "" && !sawOlder {
		var page []json.RawMessage
		header, err := a.client.getJSON(ctx, nextURL, &result.Stats, &page)
		if err != nil {
			return result, wrapFetchErr(schema.GitHubSource, err)
		}
		result.Stats.Pages++

		for _, raw := range page {
			var peek githubEventPeek
			if err := json.Unmarshal(raw, &peek); err != nil || peek.CreatedAt.IsZero() {
				// Keep it; the normalizer decides what malformed means.
				result.Records = append(result.Records, schema.RawRecord{
					Source: schema.GitHubSource, Form: schema.EventForm, Payload: raw,
				})
				continue
			}

			ts := peek.CreatedAt.UTC()
			if oldestSeen.IsZero() || ts.Before(oldestSeen) {
				oldestSeen = ts
			}
			if ts.Before(window.Start) {
				sawOlder = true
				break
			}
			if !ts.Before(window.End) {
				// Newer than the window; keep paging back in time.
				continue
			}
			result.Records = append(result.Records, schema.RawRecord{
				Source: schema.GitHubSource, Form: schema.EventForm, Payload: raw,
			})
		}

		nextURL = extractNextLink(header.Get("Link"))
	}

	// The feed ran out before reaching anything older than the window,
	// so earlier in-window activity may already be gone.
	if !sawOlder && !oldestSeen.IsZero() && !oldestSeen.Before(window.Start) {
		result.Stats.Truncated = true
	}

	return result, nil
}
