package schema

// Custom string types for type safety.
type (
	// SourceID identifies which adapter produced a record or event.
	SourceID string

	// EventKind classifies a normalized activity event.
	EventKind string

	// RecordForm discriminates raw payload shapes within one source.
	RecordForm string

	// SourceState summarizes one source's outcome for a single run.
	SourceState string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string
)

// All activity sources supported.
const (
	GitHubSource   SourceID = "github"
	BugzillaSource SourceID = "bugzilla"
)

// All event kinds supported.
const (
	CommitKind      EventKind = "commit"
	PullRequestKind EventKind = "pull_request"
	IssueOpenedKind EventKind = "issue_opened"
	IssueClosedKind EventKind = "issue_closed"
	BugFiledKind    EventKind = "bug_filed"
	BugResolvedKind EventKind = "bug_resolved"
	CommentKind     EventKind = "comment"
	OtherKind       EventKind = "other"
)

// Raw record forms emitted by the adapters.
const (
	EventForm   RecordForm = "event"   // GitHub wire event
	BugForm     RecordForm = "bug"     // Bugzilla bug filed by the actor
	HistoryForm RecordForm = "history" // Bugzilla field-change group
	CommentForm RecordForm = "comment" // Bugzilla comment
)

// Per-source run outcomes.
const (
	SourceOK          SourceState = "ok"
	SourcePartial     SourceState = "partial"
	SourceUnavailable SourceState = "unavailable"
)

// All output modes supported.
const (
	TextOut     OutputMode = "text" // default
	MarkdownOut OutputMode = "markdown"
	CSVOut      OutputMode = "csv"
	JSONOut     OutputMode = "json"
	ParquetOut  OutputMode = "parquet"
	XLSXOut     OutputMode = "xlsx"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// SampleEventCap bounds the number of sample events retained per group.
const SampleEventCap = 5

// AllEventKinds lists every kind in display order.
var AllEventKinds = []EventKind{
	CommitKind,
	PullRequestKind,
	IssueOpenedKind,
	IssueClosedKind,
	BugFiledKind,
	BugResolvedKind,
	CommentKind,
	OtherKind,
}

// AllSources lists every source in display order.
var AllSources = []SourceID{GitHubSource, BugzillaSource}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:     {},
	MarkdownOut: {},
	CSVOut:      {},
	JSONOut:     {},
	ParquetOut:  {},
	XLSXOut:     {},
}

// ValidCacheBackends lists all valid cache backends.
var ValidCacheBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidSources lists all valid activity sources.
var ValidSources = map[SourceID]struct{}{
	GitHubSource:   {},
	BugzillaSource: {},
}
