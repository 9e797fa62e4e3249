package outwriter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/schema"
)

// writeMarkdownReports renders one markdown section per actor. With a
// report directory configured each actor gets their own file; otherwise
// all sections stream to the selected output.
func writeMarkdownReports(report *schema.Report, cfg *contract.Config) error {
	if cfg.ReportDir == "" {
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			for _, actor := range report.Meta.Actors {
				if _, err := io.WriteString(w, RenderActorMarkdown(report, actor)); err != nil {
					return err
				}
			}
			return nil
		}, "Wrote Markdown")
	}

	if err := os.MkdirAll(cfg.ReportDir, 0o755); err != nil {
		return fmt.Errorf("cannot create report dir: %w", err)
	}
	for _, actor := range report.Meta.Actors {
		path := filepath.Join(cfg.ReportDir, "report-"+sanitizeActorFile(actor)+".md")
		if err := os.WriteFile(path, []byte(RenderActorMarkdown(report, actor)), 0o644); err != nil {
			return fmt.Errorf("cannot write %s: %w", path, err)
		}
		fmt.Fprintf(os.Stderr, "💾 Wrote Markdown to %s\n", path)
	}
	return nil
}

// RenderActorMarkdown renders one actor's quarterly activity section:
// an actor heading, one heading per source, and per-project tallies
// followed by linked sample events.
func RenderActorMarkdown(report *schema.Report, actor string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s's %s Activity\n\n", actor, report.Window.Label())

	groups := report.GroupsForActor(actor)
	if len(groups) == 0 {
		b.WriteString("No recorded activity in this window.\n")
		return b.String()
	}

	for _, sourceID := range schema.AllSources {
		var sourceGroups []schema.ActivityGroup
		for _, g := range groups {
			if groupSource(g) == sourceID {
				sourceGroups = append(sourceGroups, g)
			}
		}
		if len(sourceGroups) == 0 {
			continue
		}

		fmt.Fprintf(&b, "### %s\n\n", sourceDisplayName(sourceID))
		for _, g := range sourceGroups {
			fmt.Fprintf(&b, "#### %s\n\n", g.Project)
			for _, kind := range schema.AllEventKinds {
				if count := g.KindCounts[kind]; count > 0 {
					fmt.Fprintf(&b, "* %s\n", describeKindCount(kind, count))
				}
			}
			b.WriteString("\n")

			if len(g.SampleEvents) > 0 {
				b.WriteString("Recent highlights:\n\n")
				for _, ev := range g.SampleEvents {
					b.WriteString("* " + formatSampleLink(ev) + "\n")
				}
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

// describeKindCount phrases one kind tally the way the final report reads.
func describeKindCount(kind schema.EventKind, count int) string {
	switch kind {
	case schema.CommitKind:
		return fmt.Sprintf("Pushed %d %s", count, pluralize("commit", count))
	case schema.PullRequestKind:
		return fmt.Sprintf("Opened %d pull %s", count, pluralize("request", count))
	case schema.IssueOpenedKind:
		return fmt.Sprintf("Opened %d %s", count, pluralize("issue", count))
	case schema.IssueClosedKind:
		return fmt.Sprintf("Closed %d %s", count, pluralize("issue", count))
	case schema.BugFiledKind:
		return fmt.Sprintf("Filed %d %s", count, pluralize("bug", count))
	case schema.BugResolvedKind:
		return fmt.Sprintf("Resolved %d %s", count, pluralize("bug", count))
	case schema.CommentKind:
		return fmt.Sprintf("Left %d %s", count, pluralize("comment", count))
	default:
		return fmt.Sprintf("%d other %s", count, pluralize("interaction", count))
	}
}

// formatSampleLink renders one sample event as a markdown bullet body.
// Square brackets in titles would break the link syntax, so they are
// escaped.
func formatSampleLink(ev schema.ActivityEvent) string {
	title := ev.Title
	if title == "" {
		title = string(ev.Kind)
	}
	title = strings.NewReplacer("[", "\\[", "]", "\\]").Replace(title)
	if ev.URL == "" {
		return title
	}
	return fmt.Sprintf("[%s](%s)", title, ev.URL)
}

// sanitizeActorFile makes an actor name safe for a file name.
func sanitizeActorFile(actor string) string {
	replacer := strings.NewReplacer(" ", "-", "/", "-", "\\", "-", ":", "-")
	return replacer.Replace(actor)
}

func pluralize(noun string, count int) string {
	if count == 1 {
		return noun
	}
	return noun + "s"
}
