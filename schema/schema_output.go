package schema

// EnrichedGroup adds presentation data to an ActivityGroup.
type EnrichedGroup struct {
	Rank int `json:"rank"`
	ActivityGroup
}

// PlainStatusLabel returns a plain text label for a per-source outcome.
func PlainStatusLabel(s SourceState) string {
	switch s {
	case SourceOK:
		return "OK"
	case SourcePartial:
		return "Partial"
	case SourceUnavailable:
		return "Unavailable"
	default:
		return "Unknown"
	}
}

// EnrichGroups adds rank to an already-ordered list of groups.
func EnrichGroups(groups []ActivityGroup) []EnrichedGroup {
	output := make([]EnrichedGroup, len(groups))
	for i, g := range groups {
		output[i] = EnrichedGroup{
			Rank:          i + 1,
			ActivityGroup: g,
		}
	}
	return output
}
