package extract

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/journal"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/model"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/store"
)

func (r *run) extractIssues(ctx context.Context, doc *model.Document) error {
	revs, err := r.src.ListWorkPackageRevisions(ctx, r.projectID)
	if err != nil {
		return err
	}

	opts := journal.Options{SuppressStartDate: r.rules.SuppressStartDateHistory}
	trackers := map[int64]*journal.Tracker{}
	var order []int64
	// the hierarchy is not journaled, the last revision holds the current parent
	parents := map[int64]*int64{}

	for _, rev := range revs {
		t, ok := trackers[rev.ID]
		if !ok {
			t = journal.NewTracker(opts)
			trackers[rev.ID] = t
			order = append(order, rev.ID)
		}
		t.Track(r.revisionAction(ctx, rev))
		parents[rev.ID] = rev.ParentID
	}

	for _, id := range order {
		t := trackers[id]
		issue := model.IssueFromBaseline(t.Baseline())
		issue.Actions = t.Actions()
		issue.Watchers = []string{}
		issue.Relations = []model.Relation{}
		issue.Attachments = []model.Attachment{}
		doc.Issues[idString(id)] = issue
	}

	if err := r.attachWatchers(ctx, doc.Issues); err != nil {
		return err
	}
	if err := r.attachRelations(ctx, doc.Issues, order, parents); err != nil {
		return err
	}
	if err := r.attachAttachments(ctx, store.ContainerWorkPackage, func(id string, a model.Attachment) {
		if issue, ok := doc.Issues[id]; ok {
			issue.Attachments = append(issue.Attachments, a)
			doc.Issues[id] = issue
		}
	}); err != nil {
		return err
	}

	for _, id := range order {
		slog.DebugContext(ctx, "issue", "id", id, "title", doc.Issues[idString(id)].Title,
			"actions", len(doc.Issues[idString(id)].Actions))
	}
	slog.InfoContext(ctx, "extracted issues", "count", len(order), "revisions", len(revs))
	return nil
}

// revisionAction converts one journal row into a full-state action.
func (r *run) revisionAction(ctx context.Context, rev store.WorkPackageRevision) model.Action {
	a := model.Action{
		Author:      r.login(ctx, rev.AuthorID),
		CreatedAt:   rev.CreatedAt,
		Title:       model.Some(rev.Subject),
		Description: model.Some(rev.Description),
		AssigneeID:  model.Some[*string](nil),
		MilestoneID: model.Some(idPtr(rev.VersionID)),
		Labels:      model.Some(r.labels(rev)),
		IsClosed:    model.Some(r.statuses[rev.StatusID].IsClosed),
		StartDate:   model.Some(model.DatePtr(rev.StartDate)),
		DueDate:     model.Some(model.DatePtr(rev.DueDate)),
		Notes:       model.Some(deref(rev.Notes)),
	}
	if rev.AssigneeID != nil {
		login := r.login(ctx, *rev.AssigneeID)
		a.AssigneeID = model.Some(&login)
	}
	return a
}

// labels derives the label set from type, category and status.
func (r *run) labels(rev store.WorkPackageRevision) []string {
	labels := []string{}
	if name, ok := r.types[rev.TypeID]; ok {
		labels = append(labels, strings.ToLower(name))
	}
	if rev.CategoryID != nil {
		if name, ok := r.categories[*rev.CategoryID]; ok {
			labels = append(labels, name)
		}
	}
	if status, ok := r.statuses[rev.StatusID]; ok {
		if label, ok := r.rules.StatusLabel(status.Name); ok {
			labels = append(labels, label)
		}
	}
	return labels
}

func (r *run) attachWatchers(ctx context.Context, issues map[string]model.Issue) error {
	rows, err := r.src.ListWorkPackageWatchers(ctx)
	if err != nil {
		return err
	}
	for _, w := range rows {
		id := idString(w.WatchableID)
		issue, ok := issues[id]
		if !ok {
			continue
		}
		u, ok := r.users[w.UserID]
		if !ok {
			continue
		}
		issue.Watchers = append(issue.Watchers, u.Login)
		issues[id] = issue
	}
	return nil
}

// attachRelations mirrors every relation row whose ends are in the result
// set and synthesizes parent/child pairs from the hierarchy pointers.
func (r *run) attachRelations(ctx context.Context, issues map[string]model.Issue, order []int64, parents map[int64]*int64) error {
	rows, err := r.src.ListRelations(ctx)
	if err != nil {
		return err
	}

	add := func(id string, rel model.Relation) {
		issue, ok := issues[id]
		if !ok {
			return
		}
		issue.Relations = append(issue.Relations, rel)
		issues[id] = issue
	}

	for _, row := range rows {
		from, to := idString(row.FromID), idString(row.ToID)
		forward := model.Relation{Verb: row.Type, ID: to}
		add(from, forward)
		add(to, forward.Inverse(from))
	}

	ids := slices.Clone(order)
	slices.Sort(ids)
	for _, id := range ids {
		parent := parents[id]
		if parent == nil {
			continue
		}
		child, p := idString(id), idString(*parent)
		add(child, model.Relation{Verb: "parent", ID: p})
		add(p, model.Relation{Verb: "child", ID: child})
	}
	return nil
}

func (r *run) attachAttachments(ctx context.Context, containerType string, attach func(id string, a model.Attachment)) error {
	rows, err := r.src.ListAttachments(ctx, containerType)
	if err != nil {
		return err
	}
	for _, row := range rows {
		attach(idString(row.ContainerID), model.Attachment{
			AttachmentID: idString(row.ID),
			ContainerID:  idString(row.ContainerID),
			Description:  deref(row.Description),
			File:         row.File,
		})
	}
	return nil
}
