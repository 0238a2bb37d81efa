package replay

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/model"
)

// renderVerb turns a relation verb into prose. Inverse verbs such as
// "blocks_inv" read as "blocked by".
func renderVerb(verb string) string {
	base, inverse := strings.CutSuffix(verb, model.InverseSuffix)
	if !inverse {
		return base
	}
	base = strings.TrimSuffix(base, "s")
	if strings.HasSuffix(base, "e") {
		return base + "d by"
	}
	return base + "ed by"
}

// relationLines renders one line per relation. Related issues that were
// not migrated are referenced by their source number.
func relationLines(relations []model.Relation, created map[string]Ref) []string {
	lines := make([]string, 0, len(relations))
	for _, rel := range relations {
		num := rel.ID
		if ref, ok := created[rel.ID]; ok {
			num = strconv.FormatInt(ref.IID, 10)
		}
		lines = append(lines, fmt.Sprintf("%s #%s", renderVerb(rel.Verb), num))
	}
	return lines
}

// addRelations appends a relations block to every issue that has
// relations. It runs after all issues exist so references resolve.
func (r *Replayer) addRelations(ctx context.Context, issues map[string]model.Issue, created map[string]Ref) error {
	updated := 0
	for _, id := range model.SortedIDs(issues) {
		issue := issues[id]
		if len(issue.Relations) == 0 {
			continue
		}
		ref, ok := created[id]
		if !ok {
			continue
		}

		current, err := r.target.GetDescription(ctx, ref)
		if err != nil {
			return fmt.Errorf("reading issue #%d: %w", ref.IID, err)
		}
		desc := current + block(relationsHeading, relationLines(issue.Relations, created))
		if err := r.target.UpdateIssue(ctx, 0, ref, UpdateIssueParams{Description: &desc}); err != nil {
			return fmt.Errorf("adding relations to issue #%d: %w", ref.IID, err)
		}
		updated++
	}
	slog.InfoContext(ctx, "added relations", "issues", updated)
	return nil
}
