package contract

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/recap/schema"
)

// Define the regular expression to capture "N [units] ago"
// e.g., "2 years ago", "3 months ago", "1 week ago".
var relativeTimeRe = regexp.MustCompile(`^(\d+)\s+(year|month|week|day|hour|minute)s?\s+ago$`)

// Define the regular expression to capture "2024Q2" style quarters.
var quarterRe = regexp.MustCompile(`^(\d{4})q([1-4])$`)

// ParseRelativeTime converts strings like "2 years ago" into a time.Time in the past.
func ParseRelativeTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	matches := relativeTimeRe.FindStringSubmatch(s)

	if len(matches) == 0 {
		return time.Time{}, fmt.Errorf("invalid relative time format: %s", s)
	}

	// 1: Value (e.g., "2")
	// 2: Unit (e.g., "year" or "month")
	value, _ := strconv.Atoi(matches[1])
	unit := matches[2]

	switch unit {
	case "year":
		return now.AddDate(-value, 0, 0), nil
	case "month":
		return now.AddDate(0, -value, 0), nil
	case "week":
		return now.Add(time.Duration(-value) * 7 * 24 * time.Hour), nil
	case "day":
		return now.Add(time.Duration(-value) * 24 * time.Hour), nil
	case "hour":
		return now.Add(time.Duration(-value) * time.Hour), nil
	case "minute":
		return now.Add(time.Duration(-value) * time.Minute), nil
	default:
		// Should be caught by the regex, but good for safety
		return time.Time{}, fmt.Errorf("unsupported time unit: %s", unit)
	}
}

// Define the regular expression to capture "N [units]".
var lookbackDurationRe = regexp.MustCompile(`^(\d+)\s+(year|month|week|day|hour|minute)s?$`)

// ParseLookbackDuration converts strings like "3 months" or "720h" into a single time.Duration.
// It first tries Go's built-in time.ParseDuration for standard formats, then falls back
// to custom parsing for human-readable formats.
func ParseLookbackDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	// Try Go's built-in duration parsing first (e.g., "720h", "168h", "30m")
	if duration, err := time.ParseDuration(s); err == nil {
		if duration == 0 {
			return 0, errors.New("zero duration is not useful")
		}
		return duration, nil
	}

	// Fall back to custom parsing for human-readable formats (e.g., "30 days", "2 weeks")
	s = strings.ToLower(s)
	matches := lookbackDurationRe.FindStringSubmatch(s)

	if len(matches) == 0 {
		return 0, fmt.Errorf("invalid lookback duration format: %s", s)
	}

	// 1: Value (e.g., "2")
	// 2: Unit (e.g., "year" or "month")
	value, _ := strconv.Atoi(matches[1])
	unit := matches[2]

	var totalDuration time.Duration

	switch unit {
	case "year":
		// Approximation: 1 year = 365 days
		totalDuration = time.Duration(value) * 365 * 24 * time.Hour
	case "month":
		// Approximation: 1 month = 30 days
		totalDuration = time.Duration(value) * 30 * 24 * time.Hour
	case "week":
		totalDuration = time.Duration(value) * 7 * 24 * time.Hour
	case "day":
		totalDuration = time.Duration(value) * 24 * time.Hour
	case "hour":
		totalDuration = time.Duration(value) * time.Hour
	case "minute":
		totalDuration = time.Duration(value) * time.Minute
	default:
		// Should be caught by the regex
		return 0, errors.New("unsupported time unit")
	}

	if totalDuration == 0 {
		return 0, errors.New("zero duration is not useful")
	}

	return totalDuration, nil
}

// QuarterWindow returns the half-open UTC window covering one calendar
// quarter.
func QuarterWindow(year, quarter int) (schema.ReportingWindow, error) {
	if quarter < 1 || quarter > 4 {
		return schema.ReportingWindow{}, fmt.Errorf("quarter must be between 1 and 4 (received %d)", quarter)
	}
	start := time.Date(year, time.Month(3*(quarter-1)+1), 1, 0, 0, 0, 0, time.UTC)
	return schema.ReportingWindow{Start: start, End: start.AddDate(0, 3, 0)}, nil
}

// quarterOf returns the year and quarter containing t, in UTC.
func quarterOf(t time.Time) (int, int) {
	u := t.UTC()
	return u.Year(), (int(u.Month())-1)/3 + 1
}

// ParseQuarter converts quarter expressions into a reporting window.
// Accepted forms: "2024Q2", "current" or "this quarter" (the quarter
// containing now) and "last" or "last quarter" (the most recently
// completed quarter).
func ParseQuarter(s string, now time.Time) (schema.ReportingWindow, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimSpace(strings.TrimSuffix(s, "quarter"))

	switch s {
	case "current", "this":
		year, q := quarterOf(now)
		return QuarterWindow(year, q)
	case "last", "previous":
		year, q := quarterOf(now)
		q--
		if q < 1 {
			q = 4
			year--
		}
		return QuarterWindow(year, q)
	}

	matches := quarterRe.FindStringSubmatch(s)
	if len(matches) == 0 {
		return schema.ReportingWindow{}, fmt.Errorf("invalid quarter format: %s (expected e.g. 2024Q2, current, last)", s)
	}

	year, _ := strconv.Atoi(matches[1])
	quarter, _ := strconv.Atoi(matches[2])
	return QuarterWindow(year, quarter)
}

// CalculateDaysBetween computes the whole days between two times.
// Returns 0 when end is not after start.
func CalculateDaysBetween(start, end time.Time) int {
	if !end.After(start) {
		return 0
	}
	return int(end.Sub(start).Hours() / 24)
}

// ParseWindowTime parses one window boundary. Accepted forms: RFC3339,
// a plain UTC date like 2024-01-01, and relative "N [units] ago".
func ParseWindowTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil // already midnight UTC
	}
	t, err := ParseRelativeTime(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (expected RFC3339, YYYY-MM-DD or 'N units ago')", s)
	}
	return t.UTC(), nil
}
