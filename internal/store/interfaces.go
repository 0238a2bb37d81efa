package store

import (
	"context"
	"errors"
)

var (
	// ErrUnknownProject is returned when no project has the requested identifier.
	ErrUnknownProject = errors.New("unknown project identifier")
	// ErrNoWiki is returned when the project has no wiki.
	ErrNoWiki = errors.New("project has no wiki")
)

// Container types of the attachments table.
const (
	ContainerWorkPackage = "WorkPackage"
	ContainerMessage     = "Message"
	ContainerWikiPage    = "WikiPage"
)

// SourceStore is the read-only view of an OpenProject database. Rows are
// returned in the order the extraction relies on.
type SourceStore interface {
	ListUsers(ctx context.Context) ([]UserRow, error)
	GetProjectID(ctx context.Context, identifier string) (int64, error)
	ListAttachments(ctx context.Context, containerType string) ([]AttachmentRow, error)
	ListVersions(ctx context.Context, projectID int64) ([]VersionRow, error)
	ListTypes(ctx context.Context) ([]NamedRow, error)
	ListCategories(ctx context.Context, projectID int64) ([]NamedRow, error)
	ListStatuses(ctx context.Context) ([]StatusRow, error)
	// ListWorkPackageRevisions returns one row per journal entry ordered by
	// work package id, then journal time.
	ListWorkPackageRevisions(ctx context.Context, projectID int64) ([]WorkPackageRevision, error)
	ListWorkPackageWatchers(ctx context.Context) ([]WatcherRow, error)
	ListRelations(ctx context.Context) ([]RelationRow, error)
	ListBoards(ctx context.Context, projectID int64) ([]NamedRow, error)
	ListMessages(ctx context.Context, boardID int64) ([]MessageRow, error)
	GetWikiID(ctx context.Context, projectID int64) (int64, error)
	ListWikiRedirects(ctx context.Context, wikiID int64) ([]RedirectRow, error)
	ListWikiRevisions(ctx context.Context, wikiID int64) ([]WikiRevisionRow, error)
	ListMeetingRevisions(ctx context.Context, projectID int64) ([]MeetingRevisionRow, error)
}
