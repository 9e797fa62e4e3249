package outwriter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/schema"
)

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// groupSource infers which source produced a group. Project names are
// native to one source, so the first sample event settles it; groups
// that lost their samples across a serialization boundary fall back to
// kind inference.
func groupSource(g schema.ActivityGroup) schema.SourceID {
	if len(g.SampleEvents) > 0 {
		return g.SampleEvents[0].Source
	}
	if g.KindCounts[schema.BugFiledKind] > 0 || g.KindCounts[schema.BugResolvedKind] > 0 {
		return schema.BugzillaSource
	}
	return schema.GitHubSource
}

// sourceDisplayName maps a source ID to its section heading.
func sourceDisplayName(id schema.SourceID) string {
	switch id {
	case schema.GitHubSource:
		return "GitHub"
	case schema.BugzillaSource:
		return "Bugzilla"
	default:
		return string(id)
	}
}
