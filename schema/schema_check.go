package schema

// ProbeResult holds one source's reachability outcome from a probe run.
type ProbeResult struct {
	Source     SourceID `json:"source"`
	Reachable  bool     `json:"reachable"`
	DurationMs int64    `json:"duration_ms"`
	Error      string   `json:"error,omitempty"`
}
