package store

import "time"

type UserRow struct {
	ID        int64
	Login     string
	FirstName string
	LastName  string
	Mail      string
	Status    int
}

type NamedRow struct {
	ID   int64
	Name string
}

type StatusRow struct {
	ID       int64
	Name     string
	IsClosed bool
}

type VersionRow struct {
	ID            int64
	Name          string
	Description   *string
	StartDate     *time.Time
	EffectiveDate *time.Time
	Status        string
}

type AttachmentRow struct {
	ID          int64
	ContainerID int64
	Description *string
	File        string
}

// WorkPackageRevision is the full state of a work package as recorded by
// one journal entry.
type WorkPackageRevision struct {
	ID          int64
	Subject     string
	Description *string
	AssigneeID  *int64
	VersionID   *int64
	CategoryID  *int64
	TypeID      int64
	StatusID    int64
	AuthorID    int64
	CreatedAt   time.Time
	StartDate   *time.Time
	DueDate     *time.Time
	Notes       *string
	ParentID    *int64
}

type WatcherRow struct {
	WatchableID int64
	UserID      int64
}

type RelationRow struct {
	FromID int64
	ToID   int64
	Type   string
}

type MessageRow struct {
	ID        int64
	ParentID  *int64
	Subject   string
	Content   *string
	AuthorID  int64
	CreatedAt time.Time
	Locked    bool
}

type RedirectRow struct {
	Title       string
	RedirectsTo string
}

type WikiRevisionRow struct {
	PageID    int64
	Slug      string
	Title     string
	Text      *string
	AuthorID  int64
	CreatedAt time.Time
}

type MeetingRevisionRow struct {
	MeetingID int64
	Title     string
	AuthorID  int64
	StartTime time.Time
	Duration  float64
	Type      string
	Text      *string
	CreatedAt time.Time
}
