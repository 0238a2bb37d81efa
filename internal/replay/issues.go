package replay

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"go.opentelemetry.io/otel/attribute"

	"github.com/MichaelEischer/openproject-gitlab-migrator/common/logger"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/identity"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/model"
)

// Result summarizes an issues run.
type Result struct {
	// Created maps source issue ids to the created target issues.
	Created      map[string]Ref
	Placeholders int
	BoardIssues  int
	// UnknownUsers lists logins that were replaced by the default user.
	UnknownUsers []string
}

// Issues creates all project issues with their source numbers, writes the
// relation blocks, and then creates the board topics. The target project
// must not contain any issue.
func (r *Replayer) Issues(ctx context.Context, doc *model.Document) (*Result, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Phase: logger.Ptr("issues"), Component: "migrator.replay"})
	if err := r.loadUsers(ctx); err != nil {
		return nil, err
	}
	r.warnUnknown(ctx, identity.Referenced(doc))

	milestones, err := r.syncMilestones(ctx, doc.Milestones)
	if err != nil {
		return nil, err
	}

	seq := NewSequencer(r.target)
	res := &Result{Created: map[string]Ref{}}
	ids := model.SortedIDs(doc.Issues)
	for _, id := range ids {
		n, err := parseIID(id)
		if err != nil {
			return nil, err
		}
		ictx := logger.WithLogFields(ctx, logger.LogFields{ItemID: logger.Ptr(id)})
		if err := seq.Advance(ictx, n); err != nil {
			return nil, err
		}
		ref, err := r.replayIssue(ictx, id, doc.Issues[id], milestones)
		if err != nil {
			return nil, fmt.Errorf("issue %s: %w", id, err)
		}
		if err := seq.Commit(n, ref); err != nil {
			return nil, err
		}
		res.Created[id] = ref
	}
	res.Placeholders = seq.Placeholders()
	slog.InfoContext(ctx, "created issues", "count", len(ids), "placeholders", res.Placeholders)

	if err := r.addRelations(ctx, doc.Issues, res.Created); err != nil {
		return nil, err
	}

	if res.BoardIssues, err = r.boards(ctx, doc.Boards); err != nil {
		return nil, err
	}

	r.reportMisses(ctx)
	res.UnknownUsers = r.users.Misses()
	return res, nil
}

func parseIID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("issue id %q is not a positive number", id)
	}
	return n, nil
}

// syncMilestones optionally creates missing milestones and maps every
// source milestone onto the target by title.
func (r *Replayer) syncMilestones(ctx context.Context, source map[string]model.Milestone) (*identity.Milestones, error) {
	existing, err := r.target.ListMilestones(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing milestones: %w", err)
	}

	if r.opts.CreateMilestones {
		for _, id := range model.SortedIDs(source) {
			m := source[id]
			if _, ok := existing[m.Title]; ok {
				continue
			}
			tid, err := r.target.CreateMilestone(ctx, m)
			if err != nil {
				return nil, fmt.Errorf("creating milestone %q: %w", m.Title, err)
			}
			existing[m.Title] = tid
			slog.InfoContext(ctx, "created milestone", "title", m.Title, "closed", m.IsClosed)
		}
	}

	mapped, missing := identity.MapMilestones(source, existing)
	for _, title := range missing {
		slog.WarnContext(ctx, "milestone missing on target", "title", title)
	}
	return mapped, nil
}

// replayIssue creates one issue and replays its history.
func (r *Replayer) replayIssue(ctx context.Context, id string, issue model.Issue, milestones *identity.Milestones) (Ref, error) {
	sc := logger.StartSpan(ctx, "replay.issue", attribute.String("source.id", id))
	defer sc.End()
	ctx = sc.Context()

	ref, err := r.createIssue(ctx, issue, milestones)
	sc.RecordError(err)
	return ref, err
}

func (r *Replayer) createIssue(ctx context.Context, issue model.Issue, milestones *identity.Milestones) (Ref, error) {
	attachments, err := r.uploadAttachments(ctx, issue.Attachments)
	if err != nil {
		return Ref{}, err
	}
	startDate := startDateBlock(issue.StartDate)
	lastDescription := deref(issue.Description)

	params := CreateIssueParams{
		Title:       issue.Title,
		Description: lastDescription + startDate + attachments,
		Labels:      issue.Labels,
		CreatedAt:   &issue.CreatedAt,
		DueDate:     issue.DueDate,
	}
	if issue.AssigneeID != nil {
		params.AssigneeID = ptr(r.users.Lookup(*issue.AssigneeID))
	}
	if issue.MilestoneID != nil {
		if mid, ok := milestones.Lookup(*issue.MilestoneID); ok {
			params.MilestoneID = &mid
		}
	}

	author := r.users.Lookup(issue.Author)
	ref, err := r.target.CreateIssue(ctx, author, params)
	if err != nil {
		return Ref{}, fmt.Errorf("creating issue: %w", err)
	}
	slog.InfoContext(ctx, "created issue", "iid", ref.IID, "title", logger.Truncate(issue.Title, 60))

	// the create call has no state; items closed from the start are closed here
	if issue.IsClosed {
		upd := UpdateIssueParams{StateEvent: "close", UpdatedAt: &issue.CreatedAt}
		if err := r.target.UpdateIssue(ctx, author, ref, upd); err != nil {
			return Ref{}, fmt.Errorf("closing issue #%d: %w", ref.IID, err)
		}
	}

	for i := range issue.Actions {
		a := &issue.Actions[i]
		sudo := r.users.Lookup(a.Author)

		if len(a.Keys()) > 0 && !a.OnlyNotes() {
			upd := r.updateParams(a, milestones)
			if a.StartDate.Set {
				startDate = startDateBlock(a.StartDate.Value)
				upd.Description = ptr(lastDescription + startDate + attachments)
			}
			if a.Description.Set {
				lastDescription = deref(a.Description.Value)
				upd.Description = ptr(lastDescription + startDate + attachments)
			}
			if !upd.empty() {
				upd.UpdatedAt = &a.CreatedAt
				if err := r.target.UpdateIssue(ctx, sudo, ref, upd); err != nil {
					return Ref{}, fmt.Errorf("updating issue #%d: %w", ref.IID, err)
				}
			}
		}

		if a.Notes.Set || len(a.Attachments) > 0 {
			suffix, err := r.uploadAttachments(ctx, a.Attachments)
			if err != nil {
				return Ref{}, err
			}
			body := a.Notes.Value + suffix
			if body == "" {
				continue
			}
			if err := r.target.CreateNote(ctx, sudo, ref, NoteParams{Body: body, CreatedAt: a.CreatedAt}); err != nil {
				return Ref{}, fmt.Errorf("commenting on issue #%d: %w", ref.IID, err)
			}
		}
	}

	r.subscribeWatchers(ctx, ref, issue.Watchers)
	return ref, nil
}

func (r *Replayer) updateParams(a *model.Action, milestones *identity.Milestones) UpdateIssueParams {
	var p UpdateIssueParams
	if a.Title.Set {
		p.Title = ptr(a.Title.Value)
	}
	if a.AssigneeID.Set {
		if a.AssigneeID.Value == nil {
			p.AssigneeID = ptr(int64(0))
		} else {
			p.AssigneeID = ptr(r.users.Lookup(*a.AssigneeID.Value))
		}
	}
	if a.MilestoneID.Set {
		if a.MilestoneID.Value == nil {
			p.MilestoneID = ptr(int64(0))
		} else if mid, ok := milestones.Lookup(*a.MilestoneID.Value); ok {
			p.MilestoneID = &mid
		}
	}
	if a.Labels.Set {
		labels := append([]string{}, a.Labels.Value...)
		p.Labels = &labels
	}
	if a.IsClosed.Set {
		p.StateEvent = "reopen"
		if a.IsClosed.Value {
			p.StateEvent = "close"
		}
	}
	if a.DueDate.Set && a.DueDate.Value != nil {
		p.DueDate = a.DueDate.Value
	}
	return p
}

// subscribeWatchers subscribes each known watcher. Failures are logged and
// otherwise ignored.
func (r *Replayer) subscribeWatchers(ctx context.Context, ref Ref, watchers []string) {
	logins := append([]string(nil), watchers...)
	sort.Strings(logins)
	for _, login := range logins {
		uid, ok := r.users.Known(login)
		if !ok {
			continue
		}
		if err := r.target.Subscribe(ctx, uid, ref); err != nil {
			slog.DebugContext(ctx, "subscribing watcher failed", "login", login, "iid", ref.IID, "error", err)
		}
	}
}

func ptr[T any](v T) *T {
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
