// Package history renders the compacted timeline of one work item for
// inspection.
package history

import (
	"fmt"
	"io"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/model"
)

const timeLayout = "2006-01-02 15:04:05"

// Find returns the issue or board topic with the given source id.
func Find(doc *model.Document, id string) (model.Issue, bool) {
	if issue, ok := doc.Issues[id]; ok {
		return issue, true
	}
	for _, bid := range model.SortedIDs(doc.Boards) {
		if topic, ok := doc.Boards[bid].Issues[id]; ok {
			return topic, true
		}
	}
	return model.Issue{}, false
}

// Write prints the baseline of issue followed by every action. Description
// changes are shown as unified diffs against the previous description.
func Write(w io.Writer, id string, issue model.Issue) error {
	p := &printer{w: w}
	p.printf("#%s %s\n", id, issue.Title)
	p.printf("created %s by %s\n", issue.CreatedAt.UTC().Format(timeLayout), issue.Author)

	baseline := issue.Baseline()
	for _, k := range baseline.Keys() {
		if k == model.AttrTitle || k == model.AttrDescription {
			continue
		}
		p.printf("  %s: %s\n", k, value(&baseline, k))
	}
	description := deref(issue.Description)
	if description != "" {
		p.printf("  description:\n%s", indent(description, "    "))
	}
	for _, rel := range issue.Relations {
		p.printf("  relation: %s #%s\n", rel.Verb, rel.ID)
	}
	if len(issue.Watchers) > 0 {
		p.printf("  watchers: %s\n", strings.Join(issue.Watchers, ", "))
	}

	for i := range issue.Actions {
		a := &issue.Actions[i]
		p.printf("\n%s %s\n", a.CreatedAt.UTC().Format(timeLayout), a.Author)
		for _, k := range a.Keys() {
			if k != model.AttrDescription {
				p.printf("  %s: %s\n", k, value(a, k))
				continue
			}
			next := deref(a.Description.Value)
			diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
				A:        difflib.SplitLines(description),
				B:        difflib.SplitLines(next),
				FromFile: "before",
				ToFile:   "after",
				Context:  3,
			})
			if err != nil {
				return fmt.Errorf("diffing description: %w", err)
			}
			p.printf("  description:\n%s", indent(diff, "    "))
			description = next
		}
		for _, att := range a.Attachments {
			p.printf("  attachment: %s (%s)\n", att.File, att.Description)
		}
	}
	return p.err
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func value(a *model.Action, k model.Attr) string {
	switch k {
	case model.AttrTitle:
		return quote(a.Title.Value)
	case model.AttrAssignee:
		return orNone(a.AssigneeID.Value)
	case model.AttrMilestone:
		return orNone(a.MilestoneID.Value)
	case model.AttrLabels:
		return "[" + strings.Join(a.Labels.Value, ", ") + "]"
	case model.AttrClosed:
		return fmt.Sprint(a.IsClosed.Value)
	case model.AttrStartDate:
		return dateOrNone(a.StartDate.Value)
	case model.AttrDueDate:
		return dateOrNone(a.DueDate.Value)
	case model.AttrNotes:
		return quote(a.Notes.Value)
	case model.AttrDescription:
		return quote(deref(a.Description.Value))
	}
	return ""
}

func quote(s string) string {
	return fmt.Sprintf("%q", s)
}

func orNone(s *string) string {
	if s == nil {
		return "none"
	}
	return *s
}

func dateOrNone(d *model.Date) string {
	if d == nil {
		return "none"
	}
	return d.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func indent(text, prefix string) string {
	var b strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		b.WriteString(prefix)
		b.WriteString(line)
	}
	if !strings.HasSuffix(text, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}
