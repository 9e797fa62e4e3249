package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/schema"
)

const (
	bugzillaPerPage = 100
	bugzillaRate    = 4.0
)

// Bugzilla REST wire shapes.
type bzBug struct {
	ID           int       `json:"id"`
	Summary      string    `json:"summary"`
	Product      string    `json:"product"`
	CreationTime time.Time `json:"creation_time"`
	Status       string    `json:"status"`
	Resolution   string    `json:"resolution"`
}

type bzBugList struct {
	Bugs []bzBug `json:"bugs"`
}

type bzHistoryResponse struct {
	Bugs []struct {
		ID      int `json:"id"`
		History []struct {
			When    time.Time `json:"when"`
			Who     string    `json:"who"`
			Changes []struct {
				FieldName string `json:"field_name"`
				Added     string `json:"added"`
				Removed   string `json:"removed"`
			} `json:"changes"`
		} `json:"history"`
	} `json:"bugs"`
}

type bzCommentsResponse struct {
	Bugs map[string]struct {
		Comments []struct {
			ID           int       `json:"id"`
			Count        int       `json:"count"`
			Creator      string    `json:"creator"`
			CreationTime time.Time `json:"creation_time"`
		} `json:"comments"`
	} `json:"bugs"`
}

// BugzillaAdapter reads a user's bug activity over the Bugzilla REST API.
// Bug activity is scattered across the search, history and comment
// endpoints, so one fetch joins all three into composed records.
type BugzillaAdapter struct {
	client  *client
	baseURL string
}

var _ contract.SourceAdapter = &BugzillaAdapter{} // Compile-time check

// NewBugzilla creates an adapter for the Bugzilla REST API.
func NewBugzilla(cfg *contract.Config) *BugzillaAdapter {
	headers := map[string]string{
		// Header auth keeps the key out of request logs.
		"X-BUGZILLA-API-KEY": cfg.BugzillaAPIKey,
	}
	return &BugzillaAdapter{
		client:  newClient(cfg, bugzillaRate, headers),
		baseURL: cfg.BugzillaURL,
	}
}

// Name implements the contract.SourceAdapter interface.
func (a *BugzillaAdapter) Name() schema.SourceID {
	return schema.BugzillaSource
}

// Probe implements the contract.SourceAdapter interface.
func (a *BugzillaAdapter) Probe(ctx context.Context) error {
	var stats schema.FetchStats
	var payload struct {
		Version string `json:"version"`
	}
	if _, err := a.client.getJSON(ctx, a.baseURL+"/rest/version", &stats, &payload); err != nil {
		return wrapFetchErr(schema.BugzillaSource, err)
	}
	return nil
}

// Fetch implements the contract.SourceAdapter interface. The actor here
// is the user's Bugzilla login email.
func (a *BugzillaAdapter) Fetch(ctx context.Context, actor string, window schema.ReportingWindow) (schema.FetchResult, error) {
	var result schema.FetchResult

	if err := a.fetchFiledBugs(ctx, actor, window, &result); err != nil {
		return result, wrapFetchErr(schema.BugzillaSource, err)
	}

	touched, err := a.fetchTouchedBugs(ctx, actor, window, &result.Stats)
	if err != nil {
		return result, wrapFetchErr(schema.BugzillaSource, err)
	}

	for _, bug := range touched {
		if err := a.fetchBugHistory(ctx, actor, bug, window, &result); err != nil {
			return result, wrapFetchErr(schema.BugzillaSource, err)
		}
		if err := a.fetchBugComments(ctx, actor, bug, window, &result); err != nil {
			return result, wrapFetchErr(schema.BugzillaSource, err)
		}
	}

	return result, nil
}

// fetchFiledBugs pages through bugs the actor reported within the window
// and emits one BugForm record per bug.
func (a *BugzillaAdapter) fetchFiledBugs(ctx context.Context, actor string, window schema.ReportingWindow, result *schema.FetchResult) error {
	offset := 0
	for {
		params := url.Values{}
		params.Set("creator", actor)
		params.Set("creation_time", window.Start.UTC().Format(time.RFC3339))
		params.Set("include_fields", "id,summary,product,creation_time,status,resolution")
		params.Set("limit", strconv.Itoa(bugzillaPerPage))
		params.Set("offset", strconv.Itoa(offset))

		var page bzBugList
		if _, err := a.client.getJSON(ctx, a.baseURL+"/rest/bug?"+params.Encode(), &result.Stats, &page); err != nil {
			return err
		}
		result.Stats.Pages++

		for _, bug := range page.Bugs {
			// creation_time only bounds the lower side; trim the upper.
			if !bug.CreationTime.Before(window.End) {
				continue
			}
			payload, err := json.Marshal(bugPayload(bug))
			if err != nil {
				continue
			}
			result.Records = append(result.Records, schema.RawRecord{
				Source: schema.BugzillaSource, Form: schema.BugForm, Payload: payload,
			})
		}

		if len(page.Bugs) < bugzillaPerPage {
			return nil
		}
		offset += bugzillaPerPage
	}
}

// fetchTouchedBugs pages through bugs the actor is involved in (as
// assignee, reporter, CC or commenter) that changed during the window.
// These are the candidates for history and comment activity.
func (a *BugzillaAdapter) fetchTouchedBugs(ctx context.Context, actor string, window schema.ReportingWindow, stats *schema.FetchStats) ([]bzBug, error) {
	seen := make(map[int]struct{})
	var touched []bzBug

	offset := 0
	for {
		params := url.Values{}
		params.Set("email1", actor)
		params.Set("emailtype1", "equals")
		params.Set("emailassigned_to1", "1")
		params.Set("emailreporter1", "1")
		params.Set("emailcc1", "1")
		params.Set("emaillongdesc1", "1")
		params.Set("last_change_time", window.Start.UTC().Format(time.RFC3339))
		params.Set("include_fields", "id,summary,product,creation_time,status,resolution")
		params.Set("limit", strconv.Itoa(bugzillaPerPage))
		params.Set("offset", strconv.Itoa(offset))

		var page bzBugList
		if _, err := a.client.getJSON(ctx, a.baseURL+"/rest/bug?"+params.Encode(), stats, &page); err != nil {
			return touched, err
		}
		stats.Pages++

		for _, bug := range page.Bugs {
			if _, dup := seen[bug.ID]; dup {
				continue
			}
			seen[bug.ID] = struct{}{}
			touched = append(touched, bug)
		}

		if len(page.Bugs) < bugzillaPerPage {
			return touched, nil
		}
		offset += bugzillaPerPage
	}
}

// fetchBugHistory emits one HistoryForm record per field change the
// actor made to the bug within the window.
func (a *BugzillaAdapter) fetchBugHistory(ctx context.Context, actor string, bug bzBug, window schema.ReportingWindow, result *schema.FetchResult) error {
	endpoint := fmt.Sprintf("%s/rest/bug/%d/history?new_since=%s",
		a.baseURL, bug.ID, url.QueryEscape(window.Start.UTC().Format(time.RFC3339)))

	var resp bzHistoryResponse
	if _, err := a.client.getJSON(ctx, endpoint, &result.Stats, &resp); err != nil {
		return err
	}

	for _, entry := range resp.Bugs {
		for _, h := range entry.History {
			if h.Who != actor || !window.Contains(h.When) {
				continue
			}
			for _, change := range h.Changes {
				payload, err := json.Marshal(schema.BugzillaChangePayload{
					Bug:     bugPayload(bug),
					When:    h.When.UTC(),
					Who:     h.Who,
					Field:   change.FieldName,
					Added:   change.Added,
					Removed: change.Removed,
				})
				if err != nil {
					continue
				}
				result.Records = append(result.Records, schema.RawRecord{
					Source: schema.BugzillaSource, Form: schema.HistoryForm, Payload: payload,
				})
			}
		}
	}
	return nil
}

// fetchBugComments emits one CommentForm record per comment the actor
// left on the bug within the window. Comment zero is the bug's
// description and already covered by the filed record.
func (a *BugzillaAdapter) fetchBugComments(ctx context.Context, actor string, bug bzBug, window schema.ReportingWindow, result *schema.FetchResult) error {
	endpoint := fmt.Sprintf("%s/rest/bug/%d/comment?new_since=%s",
		a.baseURL, bug.ID, url.QueryEscape(window.Start.UTC().Format(time.RFC3339)))

	var resp bzCommentsResponse
	if _, err := a.client.getJSON(ctx, endpoint, &result.Stats, &resp); err != nil {
		return err
	}

	entry, ok := resp.Bugs[strconv.Itoa(bug.ID)]
	if !ok {
		return nil
	}
	for _, comment := range entry.Comments {
		if comment.Creator != actor || comment.Count == 0 || !window.Contains(comment.CreationTime) {
			continue
		}
		payload, err := json.Marshal(schema.BugzillaCommentPayload{
			Bug:          bugPayload(bug),
			CommentID:    comment.ID,
			Creator:      comment.Creator,
			CreationTime: comment.CreationTime.UTC(),
		})
		if err != nil {
			continue
		}
		result.Records = append(result.Records, schema.RawRecord{
			Source: schema.BugzillaSource, Form: schema.CommentForm, Payload: payload,
		})
	}
	return nil
}

func bugPayload(bug bzBug) schema.BugzillaBugPayload {
	return schema.BugzillaBugPayload{
		ID:           bug.ID,
		Summary:      bug.Summary,
		Product:      bug.Product,
		CreationTime: bug.CreationTime.UTC(),
		Status:       bug.Status,
		Resolution:   bug.Resolution,
	}
}
