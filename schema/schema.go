// Package schema has the models and constants shared by all parts of recap.
package schema

import (
	"fmt"
	"time"
)

// ActivityEvent is one normalized unit of activity in the common schema.
// Events are immutable once created; aggregation produces derived summary
// objects instead of mutating them.
type ActivityEvent struct {
	Source    SourceID  `json:"source"`     // Adapter that produced the event
	NativeID  string    `json:"native_id"`  // Unique within Source; deduplication key
	Actor     string    `json:"actor"`      // Person credited with the activity
	Project   string    `json:"project"`    // Repository or product name
	Kind      EventKind `json:"kind"`       // Classification of the activity
	Timestamp time.Time `json:"timestamp"`  // Always UTC before entering the pipeline
	Title     string    `json:"title,omitempty"`
	URL       string    `json:"url,omitempty"`
}

// DedupKey returns the identity used for deduplication across the
// aggregated event set.
func (e ActivityEvent) DedupKey() string {
	return fmt.Sprintf("%s::%s", e.Source, e.NativeID)
}

// ReportingWindow is a half-open UTC time interval [Start, End) that
// defines the scope of one report.
type ReportingWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Valid reports whether the window is well formed.
func (w ReportingWindow) Valid() bool {
	return !w.Start.IsZero() && !w.End.IsZero() && w.Start.Before(w.End)
}

// Contains reports whether ts falls within the window. The start bound is
// inclusive and the end bound is exclusive.
func (w ReportingWindow) Contains(ts time.Time) bool {
	return !ts.Before(w.Start) && ts.Before(w.End)
}

// Label renders the window for display. A window that covers exactly one
// calendar quarter renders as "2024Q2"; anything else renders as a plain
// date range.
func (w ReportingWindow) Label() string {
	if q, ok := w.quarter(); ok {
		return q
	}
	return fmt.Sprintf("%s to %s", w.Start.UTC().Format("2006-01-02"), w.End.UTC().Format("2006-01-02"))
}

// quarter returns the "2024Q2" form when the window aligns to a calendar
// quarter in UTC.
func (w ReportingWindow) quarter() (string, bool) {
	s := w.Start.UTC()
	if s.Day() != 1 || s.Hour() != 0 || s.Minute() != 0 || s.Second() != 0 || s.Nanosecond() != 0 {
		return "", false
	}
	var q int
	switch s.Month() {
	case time.January:
		q = 1
	case time.April:
		q = 2
	case time.July:
		q = 3
	case time.October:
		q = 4
	default:
		return "", false
	}
	if !w.End.UTC().Equal(s.AddDate(0, 3, 0)) {
		return "", false
	}
	return fmt.Sprintf("%dQ%d", s.Year(), q), true
}
