// Package norm converts raw source records into the common activity schema.
package norm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/schema"
)

// resolvedStatuses are the Bugzilla status values that close out a bug.
var resolvedStatuses = map[string]struct{}{
	"RESOLVED": {},
	"VERIFIED": {},
	"CLOSED":   {},
}

// Normalizer maps one member's raw records onto normalized events. Every
// event carries the member's canonical name as Actor, so the same
// person's activity lands in the same groups no matter which source
// identity produced it.
type Normalizer struct {
	member      contract.Member
	bugzillaURL string

	warnedTypes map[string]struct{}
}

// New creates a normalizer for one member. The Bugzilla base URL is used
// to build canonical bug links; it may be empty when the source is off.
func New(member contract.Member, bugzillaURL string) *Normalizer {
	return &Normalizer{
		member:      member,
		bugzillaURL: bugzillaURL,
		warnedTypes: make(map[string]struct{}),
	}
}

// Events converts one raw record into zero or more activity events. A
// record missing its id or timestamp fails with a
// *contract.MalformedRecordError; the caller drops it and continues with
// the rest of the batch.
func (n *Normalizer) Events(rec schema.RawRecord) ([]schema.ActivityEvent, error) {
	switch {
	case rec.Source == schema.GitHubSource && rec.Form == schema.EventForm:
		return n.githubEvents(rec)
	case rec.Source == schema.BugzillaSource && rec.Form == schema.BugForm:
		return n.bugzillaBug(rec)
	case rec.Source == schema.BugzillaSource && rec.Form == schema.HistoryForm:
		return n.bugzillaChange(rec)
	case rec.Source == schema.BugzillaSource && rec.Form == schema.CommentForm:
		return n.bugzillaComment(rec)
	default:
		return nil, malformed(rec, "unknown record form")
	}
}

// Batch converts a record slice, dropping malformed records. It returns
// the normalized events and the number of records dropped.
func (n *Normalizer) Batch(records []schema.RawRecord) ([]schema.ActivityEvent, int) {
	var events []schema.ActivityEvent
	dropped := 0
	for _, rec := range records {
		evs, err := n.Events(rec)
		if err != nil {
			dropped++
			contract.LogWarn("Dropping record", err)
			continue
		}
		events = append(events, evs...)
	}
	return events, dropped
}

func malformed(rec schema.RawRecord, reason string) *contract.MalformedRecordError {
	return &contract.MalformedRecordError{Source: rec.Source, Form: rec.Form, Reason: reason}
}

// githubEvent is the slice of the events API wire shape the normalizer
// reads. Payload fields are populated per event type; absent ones decode
// to zero values and are simply not consulted.
type githubEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Repo      struct {
		Name string `json:"name"`
	} `json:"repo"`
	Payload struct {
		Action  string `json:"action"`
		Commits []struct {
			SHA     string `json:"sha"`
			Message string `json:"message"`
		} `json:"commits"`
		PullRequest struct {
			Number  int    `json:"number"`
			Title   string `json:"title"`
			HTMLURL string `json:"html_url"`
			Merged  bool   `json:"merged"`
		} `json:"pull_request"`
		Issue struct {
			Number  int    `json:"number"`
			Title   string `json:"title"`
			HTMLURL string `json:"html_url"`
		} `json:"issue"`
		Comment struct {
			HTMLURL string `json:"html_url"`
		} `json:"comment"`
	} `json:"payload"`
}

func (n *Normalizer) githubEvents(rec schema.RawRecord) ([]schema.ActivityEvent, error) {
	var ev githubEvent
	if err := json.Unmarshal(rec.Payload, &ev); err != nil {
		return nil, malformed(rec, fmt.Sprintf("undecodable payload: %v", err))
	}
	if ev.ID == "" {
		return nil, malformed(rec, "missing id")
	}
	if ev.CreatedAt.IsZero() {
		return nil, malformed(rec, "missing created_at")
	}

	base := schema.ActivityEvent{
		Source:    schema.GitHubSource,
		NativeID:  ev.ID,
		Actor:     n.member.Name,
		Project:   ev.Repo.Name,
		Timestamp: ev.CreatedAt.UTC(),
	}

	switch ev.Type {
	case "PushEvent":
		return n.pushEvents(ev, base), nil
	case "PullRequestEvent":
		base.Kind = schema.PullRequestKind
		action := ev.Payload.Action
		if action == "closed" && ev.Payload.PullRequest.Merged {
			action = "merged"
		}
		base.Title = fmt.Sprintf("%s #%d: %s", action, ev.Payload.PullRequest.Number, ev.Payload.PullRequest.Title)
		base.URL = ev.Payload.PullRequest.HTMLURL
	case "IssuesEvent":
		switch ev.Payload.Action {
		case "opened":
			base.Kind = schema.IssueOpenedKind
		case "closed":
			base.Kind = schema.IssueClosedKind
		default:
			base.Kind = schema.OtherKind
		}
		base.Title = fmt.Sprintf("%s #%d: %s", ev.Payload.Action, ev.Payload.Issue.Number, ev.Payload.Issue.Title)
		base.URL = ev.Payload.Issue.HTMLURL
	case "IssueCommentEvent":
		base.Kind = schema.CommentKind
		base.Title = fmt.Sprintf("Commented on #%d: %s", ev.Payload.Issue.Number, ev.Payload.Issue.Title)
		base.URL = ev.Payload.Comment.HTMLURL
	case "PullRequestReviewCommentEvent":
		base.Kind = schema.CommentKind
		base.Title = fmt.Sprintf("Reviewed #%d: %s", ev.Payload.PullRequest.Number, ev.Payload.PullRequest.Title)
		base.URL = ev.Payload.Comment.HTMLURL
	case "CommitCommentEvent":
		base.Kind = schema.CommentKind
		base.Title = "Commented on a commit"
		base.URL = ev.Payload.Comment.HTMLURL
	default:
		n.warnOnce(ev.Type)
		base.Kind = schema.OtherKind
		base.Title = strings.TrimSuffix(ev.Type, "Event")
	}
	return []schema.ActivityEvent{base}, nil
}

// pushEvents expands one push into one commit event per commit in the
// payload. The commit sha becomes the native id, so the same commit
// pushed to two branches still collapses in deduplication.
func (n *Normalizer) pushEvents(ev githubEvent, base schema.ActivityEvent) []schema.ActivityEvent {
	events := make([]schema.ActivityEvent, 0, len(ev.Payload.Commits))
	for _, commit := range ev.Payload.Commits {
		if commit.SHA == "" {
			continue
		}
		e := base
		e.Kind = schema.CommitKind
		e.NativeID = commit.SHA
		e.Title = strings.TrimSpace(schema.FirstLine(commit.Message))
		e.URL = fmt.Sprintf("https://github.com/%s/commit/%s", ev.Repo.Name, commit.SHA)
		events = append(events, e)
	}
	return events
}

// warnOnce logs one warning per unfamiliar event type per run.
func (n *Normalizer) warnOnce(eventType string) {
	if _, seen := n.warnedTypes[eventType]; seen {
		return
	}
	n.warnedTypes[eventType] = struct{}{}
	contract.LogWarn(fmt.Sprintf("Unfamiliar github event type %q", eventType), errors.New("counting as other"))
}

func (n *Normalizer) bugzillaBug(rec schema.RawRecord) ([]schema.ActivityEvent, error) {
	var bug schema.BugzillaBugPayload
	if err := json.Unmarshal(rec.Payload, &bug); err != nil {
		return nil, malformed(rec, fmt.Sprintf("undecodable payload: %v", err))
	}
	if bug.ID == 0 {
		return nil, malformed(rec, "missing bug id")
	}
	if bug.CreationTime.IsZero() {
		return nil, malformed(rec, "missing creation_time")
	}
	return []schema.ActivityEvent{{
		Source:    schema.BugzillaSource,
		NativeID:  fmt.Sprintf("bug-%d", bug.ID),
		Actor:     n.member.Name,
		Project:   bug.Product,
		Kind:      schema.BugFiledKind,
		Timestamp: bug.CreationTime.UTC(),
		Title:     bug.Summary,
		URL:       n.bugURL(bug.ID),
	}}, nil
}

func (n *Normalizer) bugzillaChange(rec schema.RawRecord) ([]schema.ActivityEvent, error) {
	var change schema.BugzillaChangePayload
	if err := json.Unmarshal(rec.Payload, &change); err != nil {
		return nil, malformed(rec, fmt.Sprintf("undecodable payload: %v", err))
	}
	if change.Bug.ID == 0 {
		return nil, malformed(rec, "missing bug id")
	}
	if change.When.IsZero() {
		return nil, malformed(rec, "missing change time")
	}

	e := schema.ActivityEvent{
		Source:    schema.BugzillaSource,
		Actor:     n.member.Name,
		Project:   change.Bug.Product,
		Timestamp: change.When.UTC(),
		URL:       n.bugURL(change.Bug.ID),
	}
	if change.Field == "status" && isResolvedStatus(change.Added) {
		e.Kind = schema.BugResolvedKind
		e.NativeID = fmt.Sprintf("bug-%d-resolved-%d", change.Bug.ID, change.When.Unix())
		e.Title = fmt.Sprintf("%s: %s", change.Added, change.Bug.Summary)
	} else {
		e.Kind = schema.OtherKind
		e.NativeID = fmt.Sprintf("bug-%d-%s-%d", change.Bug.ID, change.Field, change.When.Unix())
		e.Title = fmt.Sprintf("Changed %s: %s", change.Field, change.Bug.Summary)
	}
	return []schema.ActivityEvent{e}, nil
}

func (n *Normalizer) bugzillaComment(rec schema.RawRecord) ([]schema.ActivityEvent, error) {
	var comment schema.BugzillaCommentPayload
	if err := json.Unmarshal(rec.Payload, &comment); err != nil {
		return nil, malformed(rec, fmt.Sprintf("undecodable payload: %v", err))
	}
	if comment.CommentID == 0 {
		return nil, malformed(rec, "missing comment id")
	}
	if comment.CreationTime.IsZero() {
		return nil, malformed(rec, "missing creation_time")
	}
	return []schema.ActivityEvent{{
		Source:    schema.BugzillaSource,
		NativeID:  fmt.Sprintf("comment-%d", comment.CommentID),
		Actor:     n.member.Name,
		Project:   comment.Bug.Product,
		Kind:      schema.CommentKind,
		Timestamp: comment.CreationTime.UTC(),
		Title:     fmt.Sprintf("Commented on: %s", comment.Bug.Summary),
		URL:       n.bugURL(comment.Bug.ID),
	}}, nil
}

// isResolvedStatus reports whether a status value closes out a bug.
func isResolvedStatus(status string) bool {
	_, ok := resolvedStatuses[strings.ToUpper(strings.TrimSpace(status))]
	return ok
}

// bugURL builds the canonical link for a bug.
func (n *Normalizer) bugURL(id int) string {
	if n.bugzillaURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/show_bug.cgi?id=%d", n.bugzillaURL, id)
}
