package schema

import (
	"strings"
)

// FirstLine returns the first line of a possibly multi-line message.
// Commit messages routinely carry a body; only the subject is useful in
// report output.
func FirstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return s[:i]
	}
	return s
}

// Ellipsize shortens s to at most max runes, appending an ellipsis when
// something was cut. A max below 4 returns the bare truncation.
func Ellipsize(s string, max int) string {
	rr := []rune(s)
	if len(rr) <= max {
		return s
	}
	if max < 4 {
		return string(rr[:max])
	}
	return string(rr[:max-3]) + "..."
}

// CleanTitle normalizes a raw title for display: first line only,
// surrounding whitespace trimmed, inner runs of whitespace collapsed.
func CleanTitle(s string) string {
	line := strings.TrimSpace(FirstLine(s))
	if line == "" {
		return ""
	}
	return strings.Join(strings.Fields(line), " ")
}

// ActorsEqual compares two slices of actor names, considering them equal
// if they contain the same names regardless of order.
func ActorsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, name := range a {
		seen[name]++
	}
	for _, name := range b {
		seen[name]--
		if seen[name] < 0 {
			return false
		}
	}
	return true
}
