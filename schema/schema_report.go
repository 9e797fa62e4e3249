package schema

// ActivityGroup aggregates events for one (actor, project) pair. Groups
// are created fresh per run and carry no identity across runs.
type ActivityGroup struct {
	Actor        string            `json:"actor"`
	Project      string            `json:"project"`
	KindCounts   map[EventKind]int `json:"kind_counts"`
	SampleEvents []ActivityEvent   `json:"sample_events,omitempty"` // Most recent first, capped at SampleEventCap
	Total        int               `json:"total"`
}

// Report is the final assembled output of one pipeline run. It is handed
// to the output layer and not retained by the core afterward.
type Report struct {
	Window ReportingWindow `json:"window"`
	Groups []ActivityGroup `json:"groups"`
	Meta   RunMeta         `json:"meta"`
}

// TotalEvents sums event counts across all groups.
func (r Report) TotalEvents() int {
	total := 0
	for _, g := range r.Groups {
		total += g.Total
	}
	return total
}

// GroupsForActor returns the groups credited to one actor, preserving
// report order.
func (r Report) GroupsForActor(actor string) []ActivityGroup {
	var out []ActivityGroup
	for _, g := range r.Groups {
		if g.Actor == actor {
			out = append(out, g)
		}
	}
	return out
}
