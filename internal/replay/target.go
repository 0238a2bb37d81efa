package replay

import (
	"context"
	"io"
	"time"

	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/model"
)

// Ref identifies an issue on the target: ID is the instance-wide id, IID
// the project-scoped sequence number shown to users.
type Ref struct {
	ID  int64
	IID int64
}

type CreateIssueParams struct {
	Title       string
	Description string
	AssigneeID  *int64
	MilestoneID *int64
	Labels      []string
	CreatedAt   *time.Time
	DueDate     *model.Date
}

// UpdateIssueParams carries only the fields to change. A zero AssigneeID
// unassigns, a zero MilestoneID clears the milestone.
type UpdateIssueParams struct {
	Title       *string
	Description *string
	AssigneeID  *int64
	MilestoneID *int64
	Labels      *[]string
	StateEvent  string
	DueDate     *model.Date
	UpdatedAt   *time.Time
}

func (p UpdateIssueParams) empty() bool {
	return p.Title == nil && p.Description == nil && p.AssigneeID == nil &&
		p.MilestoneID == nil && p.Labels == nil && p.StateEvent == "" && p.DueDate == nil
}

type NoteParams struct {
	Body      string
	CreatedAt time.Time
}

// Sequence is the part of the target the padding protocol needs.
type Sequence interface {
	CreatePlaceholder(ctx context.Context, title string) (Ref, error)
	DeleteIssue(ctx context.Context, ref Ref) error
}

// Issues writes issues. A sudo of 0 performs the call as the token owner.
type Issues interface {
	Sequence
	CreateIssue(ctx context.Context, sudo int64, p CreateIssueParams) (Ref, error)
	UpdateIssue(ctx context.Context, sudo int64, ref Ref, p UpdateIssueParams) error
	CreateNote(ctx context.Context, sudo int64, ref Ref, p NoteParams) error
	Subscribe(ctx context.Context, sudo int64, ref Ref) error
	GetDescription(ctx context.Context, ref Ref) (string, error)
}

type Milestones interface {
	// ListMilestones returns every milestone of the project by title.
	ListMilestones(ctx context.Context) (map[string]int64, error)
	// CreateMilestone creates m and closes it if m.IsClosed.
	CreateMilestone(ctx context.Context, m model.Milestone) (int64, error)
}

type Users interface {
	// ListUsers returns every target account by username.
	ListUsers(ctx context.Context) (map[string]int64, error)
}

type Uploads interface {
	// UploadFile stores a file in the project and returns its markdown link.
	UploadFile(ctx context.Context, name string, content io.Reader) (string, error)
}

type Wiki interface {
	CreateWikiPage(ctx context.Context, sudo int64, slug, content string) error
	EditWikiPage(ctx context.Context, sudo int64, slug, content string) error
}

// Target is everything a replay run talks to.
type Target interface {
	Issues
	Milestones
	Users
	Uploads
	Wiki
}
