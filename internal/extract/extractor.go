// Package extract reads one OpenProject project into a migration document.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/MichaelEischer/openproject-gitlab-migrator/common/logger"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/model"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/rules"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/store"
)

type Extractor struct {
	src   store.SourceStore
	rules rules.Rules
}

func New(src store.SourceStore, r rules.Rules) *Extractor {
	return &Extractor{src: src, rules: r}
}

// run carries the lookup tables of one extraction.
type run struct {
	*Extractor
	projectID  int64
	users      map[int64]model.User
	types      map[int64]string
	categories map[int64]string
	statuses   map[int64]store.StatusRow
	ghosts     map[int64]bool
}

// Extract builds the document for the project with the given identifier.
func (e *Extractor) Extract(ctx context.Context, identifier string) (*model.Document, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Project:   logger.Ptr(identifier),
		Phase:     logger.Ptr("extract"),
		Component: "migrator.extract",
	})

	r := &run{Extractor: e, ghosts: map[int64]bool{}}
	doc := model.NewDocument()

	var err error
	if doc.Users, err = r.loadUsers(ctx); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "found users", "count", len(doc.Users))

	if r.projectID, err = e.src.GetProjectID(ctx, identifier); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "resolved project", "project_id", r.projectID)

	if doc.Milestones, err = r.loadMilestones(ctx); err != nil {
		return nil, err
	}
	if err := r.loadLookups(ctx); err != nil {
		return nil, err
	}

	steps := []struct {
		name string
		fn   func(context.Context, *model.Document) error
	}{
		{"issues", r.extractIssues},
		{"boards", r.extractBoards},
		{"wiki", r.extractWiki},
		{"meetings", r.extractMeetings},
	}
	for _, step := range steps {
		sc := logger.StartSpan(ctx, "extract."+step.name)
		err := step.fn(sc.Context(), doc)
		sc.RecordError(err)
		sc.End()
		if err != nil {
			return nil, fmt.Errorf("extracting %s: %w", step.name, err)
		}
	}

	slog.InfoContext(ctx, "extraction finished",
		"issues", len(doc.Issues),
		"boards", len(doc.Boards),
		"wiki_pages", len(doc.Wiki),
		"unknown_users", len(r.ghosts))
	return doc, nil
}

func (r *run) loadUsers(ctx context.Context) (map[string]model.User, error) {
	rows, err := r.src.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	r.users = make(map[int64]model.User, len(rows))
	out := make(map[string]model.User, len(rows))
	for _, row := range rows {
		if !r.userMigrated(row.Status) {
			continue
		}
		u := model.User{
			Login:    row.Login,
			Name:     row.FirstName + " " + row.LastName,
			Mail:     row.Mail,
			IsLocked: r.rules.Locked(row.Status),
		}
		r.users[row.ID] = u
		out[idString(row.ID)] = u
	}
	return out, nil
}

func (r *run) userMigrated(status int) bool {
	for _, s := range r.rules.UserStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// login returns the login of a migrated user. References to users that
// were filtered out or deleted are replaced by the ghost login.
func (r *run) login(ctx context.Context, id int64) string {
	if u, ok := r.users[id]; ok {
		return u.Login
	}
	if !r.ghosts[id] {
		r.ghosts[id] = true
		slog.WarnContext(ctx, "reference to user that is not migrated",
			"user_id", id, "replacement", r.rules.GhostLogin)
	}
	return r.rules.GhostLogin
}

func (r *run) loadMilestones(ctx context.Context) (map[string]model.Milestone, error) {
	rows, err := r.src.ListVersions(ctx, r.projectID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.Milestone, len(rows))
	for _, v := range rows {
		out[idString(v.ID)] = model.Milestone{
			Title:       v.Name,
			Description: deref(v.Description),
			StartDate:   model.DatePtr(v.StartDate),
			DueDate:     model.DatePtr(v.EffectiveDate),
			IsClosed:    v.Status == "closed",
		}
		slog.DebugContext(ctx, "milestone", "title", v.Name)
	}
	return out, nil
}

func (r *run) loadLookups(ctx context.Context) error {
	types, err := r.src.ListTypes(ctx)
	if err != nil {
		return err
	}
	r.types = map[int64]string{}
	for _, t := range types {
		if r.rules.TypeExcluded(t.Name) {
			continue
		}
		r.types[t.ID] = t.Name
	}

	categories, err := r.src.ListCategories(ctx, r.projectID)
	if err != nil {
		return err
	}
	r.categories = map[int64]string{}
	for _, c := range categories {
		r.categories[c.ID] = c.Name
	}

	statuses, err := r.src.ListStatuses(ctx)
	if err != nil {
		return err
	}
	r.statuses = map[int64]store.StatusRow{}
	for _, s := range statuses {
		r.statuses[s.ID] = s
	}

	slog.DebugContext(ctx, "loaded lookup tables",
		"types", len(r.types), "categories", len(r.categories), "statuses", len(r.statuses))
	return nil
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}

func idPtr(id *int64) *string {
	if id == nil {
		return nil
	}
	s := idString(*id)
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
