package issue_tracker

import (
	"context"
	"fmt"
	"io"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/model"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/replay"
)

const perPage = 100

func requestOptions(ctx context.Context, sudo int64) []gitlab.RequestOptionFunc {
	opts := []gitlab.RequestOptionFunc{gitlab.WithContext(ctx)}
	if sudo != 0 {
		opts = append(opts, gitlab.WithSudo(sudo))
	}
	return opts
}

func isoDate(d *model.Date) *gitlab.ISOTime {
	if d == nil {
		return nil
	}
	t := gitlab.ISOTime(d.Time())
	return &t
}

func (g *GitLab) CreatePlaceholder(ctx context.Context, title string) (replay.Ref, error) {
	issue, _, err := g.client.Issues.CreateIssue(g.project, &gitlab.CreateIssueOptions{
		Title: gitlab.Ptr(title),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return replay.Ref{}, fmt.Errorf("creating placeholder issue: %w", err)
	}
	return replay.Ref{ID: issue.ID, IID: issue.IID}, nil
}

func (g *GitLab) DeleteIssue(ctx context.Context, ref replay.Ref) error {
	if _, err := g.client.Issues.DeleteIssue(g.project, ref.IID, gitlab.WithContext(ctx)); err != nil {
		return fmt.Errorf("deleting issue #%d: %w", ref.IID, err)
	}
	return nil
}

func (g *GitLab) CreateIssue(ctx context.Context, sudo int64, p replay.CreateIssueParams) (replay.Ref, error) {
	opts := &gitlab.CreateIssueOptions{
		Title:       gitlab.Ptr(p.Title),
		Description: gitlab.Ptr(p.Description),
		MilestoneID: p.MilestoneID,
		CreatedAt:   p.CreatedAt,
		DueDate:     isoDate(p.DueDate),
	}
	if p.AssigneeID != nil {
		opts.AssigneeIDs = &[]int64{*p.AssigneeID}
	}
	if len(p.Labels) > 0 {
		labels := gitlab.LabelOptions(p.Labels)
		opts.Labels = &labels
	}

	issue, _, err := g.client.Issues.CreateIssue(g.project, opts, requestOptions(ctx, sudo)...)
	if err != nil {
		return replay.Ref{}, fmt.Errorf("creating issue: %w", err)
	}
	return replay.Ref{ID: issue.ID, IID: issue.IID}, nil
}

func (g *GitLab) UpdateIssue(ctx context.Context, sudo int64, ref replay.Ref, p replay.UpdateIssueParams) error {
	opts := &gitlab.UpdateIssueOptions{
		Title:       p.Title,
		Description: p.Description,
		MilestoneID: p.MilestoneID,
		DueDate:     isoDate(p.DueDate),
		UpdatedAt:   p.UpdatedAt,
	}
	if p.AssigneeID != nil {
		opts.AssigneeIDs = &[]int64{*p.AssigneeID}
	}
	if p.Labels != nil {
		labels := gitlab.LabelOptions(*p.Labels)
		opts.Labels = &labels
	}
	if p.StateEvent != "" {
		opts.StateEvent = gitlab.Ptr(p.StateEvent)
	}

	if _, _, err := g.client.Issues.UpdateIssue(g.project, ref.IID, opts, requestOptions(ctx, sudo)...); err != nil {
		return fmt.Errorf("updating issue #%d: %w", ref.IID, err)
	}
	return nil
}

func (g *GitLab) CreateNote(ctx context.Context, sudo int64, ref replay.Ref, p replay.NoteParams) error {
	createdAt := p.CreatedAt
	_, _, err := g.client.Notes.CreateIssueNote(g.project, ref.IID, &gitlab.CreateIssueNoteOptions{
		Body:      gitlab.Ptr(p.Body),
		CreatedAt: &createdAt,
	}, requestOptions(ctx, sudo)...)
	if err != nil {
		return fmt.Errorf("creating note on issue #%d: %w", ref.IID, err)
	}
	return nil
}

func (g *GitLab) Subscribe(ctx context.Context, sudo int64, ref replay.Ref) error {
	if _, _, err := g.client.Issues.SubscribeToIssue(g.project, ref.IID, requestOptions(ctx, sudo)...); err != nil {
		return fmt.Errorf("subscribing to issue #%d: %w", ref.IID, err)
	}
	return nil
}

func (g *GitLab) GetDescription(ctx context.Context, ref replay.Ref) (string, error) {
	issue, _, err := g.client.Issues.GetIssue(g.project, ref.IID, nil, gitlab.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("fetching issue #%d: %w", ref.IID, err)
	}
	return issue.Description, nil
}

func (g *GitLab) ListMilestones(ctx context.Context) (map[string]int64, error) {
	opts := &gitlab.ListMilestonesOptions{
		ListOptions: gitlab.ListOptions{Page: 1, PerPage: perPage},
	}
	out := map[string]int64{}
	for {
		page, resp, err := g.client.Milestones.ListMilestones(g.project, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("listing milestones: %w", err)
		}
		for _, m := range page {
			out[m.Title] = m.ID
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

func (g *GitLab) CreateMilestone(ctx context.Context, m model.Milestone) (int64, error) {
	created, _, err := g.client.Milestones.CreateMilestone(g.project, &gitlab.CreateMilestoneOptions{
		Title:       gitlab.Ptr(m.Title),
		Description: gitlab.Ptr(m.Description),
		StartDate:   isoDate(m.StartDate),
		DueDate:     isoDate(m.DueDate),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("creating milestone %q: %w", m.Title, err)
	}
	if m.IsClosed {
		_, _, err := g.client.Milestones.UpdateMilestone(g.project, created.ID, &gitlab.UpdateMilestoneOptions{
			StateEvent: gitlab.Ptr("close"),
		}, gitlab.WithContext(ctx))
		if err != nil {
			return 0, fmt.Errorf("closing milestone %q: %w", m.Title, err)
		}
	}
	return created.ID, nil
}

func (g *GitLab) ListUsers(ctx context.Context) (map[string]int64, error) {
	opts := &gitlab.ListUsersOptions{
		ListOptions: gitlab.ListOptions{Page: 1, PerPage: perPage},
	}
	out := map[string]int64{}
	for {
		page, resp, err := g.client.Users.ListUsers(opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("listing users: %w", err)
		}
		for _, u := range page {
			out[u.Username] = u.ID
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

func (g *GitLab) UploadFile(ctx context.Context, name string, content io.Reader) (string, error) {
	file, _, err := g.client.ProjectMarkdownUploads.UploadProjectMarkdown(g.project, content, name, gitlab.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", name, err)
	}
	return file.Markdown, nil
}

func (g *GitLab) CreateWikiPage(ctx context.Context, sudo int64, slug, content string) error {
	_, _, err := g.client.Wikis.CreateWikiPage(g.project, &gitlab.CreateWikiPageOptions{
		Title:   gitlab.Ptr(slug),
		Content: gitlab.Ptr(content),
		Format:  gitlab.Ptr(gitlab.WikiFormatMarkdown),
	}, requestOptions(ctx, sudo)...)
	if err != nil {
		return fmt.Errorf("creating wiki page %s: %w", slug, err)
	}
	return nil
}

func (g *GitLab) EditWikiPage(ctx context.Context, sudo int64, slug, content string) error {
	_, _, err := g.client.Wikis.EditWikiPage(g.project, slug, &gitlab.EditWikiPageOptions{
		Content: gitlab.Ptr(content),
		Format:  gitlab.Ptr(gitlab.WikiFormatMarkdown),
	}, requestOptions(ctx, sudo)...)
	if err != nil {
		return fmt.Errorf("editing wiki page %s: %w", slug, err)
	}
	return nil
}
