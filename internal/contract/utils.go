package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/huangsam/recap/schema"
)

// Color variables for console output.
var (
	OKColor          = color.New(color.FgGreen)              // fully successful source
	PartialColor     = color.New(color.FgYellow, color.Bold) // source with incomplete data
	UnavailableColor = color.New(color.FgRed, color.Bold)    // source that contributed nothing
)

// GetColorStatusLabel returns a colored text label for console output.
// It uses schema.PlainStatusLabel to determine the string, and then
// applies the appropriate color.
func GetColorStatusLabel(state schema.SourceState) string {
	text := schema.PlainStatusLabel(state)

	switch state {
	case schema.SourceOK:
		return OKColor.Sprint(text)
	case schema.SourcePartial:
		return PartialColor.Sprint(text)
	case schema.SourceUnavailable:
		return UnavailableColor.Sprint(text)
	default:
		return text
	}
}

// SelectOutputFile returns the appropriate file handle for output, based
// on the provided file path. It falls back to os.Stdout when no path is
// given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// ShouldIgnore returns true if the given project matches any of the exclude patterns.
// It supports simple glob patterns (using filepath.Match) when the pattern
// contains wildcard characters (*, ?, [ ]). Patterns ending with '/' are treated
// as prefixes. Patterns starting with '.' are treated as suffix matches.
// A user can provide patterns like "sandbox/", "archived-*", "*-fork".
func ShouldIgnore(project string, excludes []string) bool {
	for _, ex := range excludes {
		ex = strings.TrimSpace(ex)
		if ex == "" {
			continue
		}

		// If the pattern contains glob characters, try filepath.Match.
		if strings.ContainsAny(ex, "*?[") || strings.Contains(ex, "**") {
			pat := strings.ReplaceAll(ex, "**", "*")
			if ok, err := filepath.Match(pat, project); err == nil && ok {
				return true
			}
			// Also try matching against the repo name without its owner
			if ok, err := filepath.Match(pat, filepath.Base(project)); err == nil && ok {
				return true
			}
			continue
		}

		// Handle prefix, suffix, or substring matches
		switch {
		case strings.HasSuffix(ex, "/"):
			if strings.HasPrefix(project, ex) {
				return true
			}
		case strings.HasPrefix(ex, "."):
			if strings.HasSuffix(project, ex) {
				return true
			}
		case strings.Contains(project, ex):
			return true
		}
	}
	return false
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for fetch cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".recap_cache.db"
	}
	return filepath.Join(homeDir, ".recap_cache.db")
}

// GetLedgerDBFilePath returns the path to the SQLite DB file for run ledger storage.
func GetLedgerDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".recap_ledger.db"
	}
	return filepath.Join(homeDir, ".recap_ledger.db")
}

// TruncateCell truncates a table cell to a maximum width with an ellipsis prefix,
// keeping the tail of the value since the distinguishing part of project and
// reference names tends to sit at the end.
// Requires maxWidth > 3 to ensure there's space for both the "..." prefix and
// at least one character of content.
func TruncateCell(value string, maxWidth int) string {
	runes := []rune(value)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return value
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
