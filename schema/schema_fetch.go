package schema

import (
	"encoding/json"
	"time"
)

// RawRecord is one raw activity record emitted by a source adapter before
// normalization. The payload keeps the source's wire shape; Form tells the
// normalizer which shape to expect.
type RawRecord struct {
	Source  SourceID        `json:"source"`
	Form    RecordForm      `json:"form"`
	Payload json.RawMessage `json:"payload"`
}

// FetchStats counts what one adapter fetch actually did on the wire.
type FetchStats struct {
	Requests  int  `json:"requests"`   // HTTP requests issued
	Pages     int  `json:"pages"`      // Pages consumed
	RateWaits int  `json:"rate_waits"` // Times the adapter waited out a rate limit
	Truncated bool `json:"truncated"`  // Source history may not cover the full window
}

// FetchResult is the unit returned by one adapter fetch and the unit
// stored in the fetch cache.
type FetchResult struct {
	Records []RawRecord `json:"records"`
	Stats   FetchStats  `json:"stats"`
}

// GitHub event records pass through with the API's own wire shape, so no
// payload struct is declared for them here. Bugzilla activity is joined
// from several endpoints, so its adapter composes the payloads below.

// BugzillaBugPayload is the payload of a BugForm record.
type BugzillaBugPayload struct {
	ID           int       `json:"id"`
	Summary      string    `json:"summary"`
	Product      string    `json:"product"`
	CreationTime time.Time `json:"creation_time"`
	Status       string    `json:"status"`
	Resolution   string    `json:"resolution"`
}

// BugzillaChangePayload is the payload of a HistoryForm record: one field
// change the user made to a bug.
type BugzillaChangePayload struct {
	Bug     BugzillaBugPayload `json:"bug"`
	When    time.Time          `json:"when"`
	Who     string             `json:"who"`
	Field   string             `json:"field"`
	Added   string             `json:"added"`
	Removed string             `json:"removed"`
}

// BugzillaCommentPayload is the payload of a CommentForm record.
type BugzillaCommentPayload struct {
	Bug          BugzillaBugPayload `json:"bug"`
	CommentID    int                `json:"comment_id"`
	Creator      string             `json:"creator"`
	CreationTime time.Time          `json:"creation_time"`
}
