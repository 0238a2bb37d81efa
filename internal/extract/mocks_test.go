package extract

import (
	"context"

	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/store"
)

// fakeSource serves canned rows. Unset slices behave like empty tables.
type fakeSource struct {
	users       []store.UserRow
	projects    map[string]int64
	attachments map[string][]store.AttachmentRow
	versions    []store.VersionRow
	types       []store.NamedRow
	categories  []store.NamedRow
	statuses    []store.StatusRow
	revisions   []store.WorkPackageRevision
	watchers    []store.WatcherRow
	relations   []store.RelationRow
	boards      []store.NamedRow
	messages    map[int64][]store.MessageRow
	wikiID      *int64
	redirects   []store.RedirectRow
	wikiRevs    []store.WikiRevisionRow
	meetings    []store.MeetingRevisionRow
}

func (f *fakeSource) ListUsers(context.Context) ([]store.UserRow, error) { return f.users, nil }

func (f *fakeSource) GetProjectID(_ context.Context, identifier string) (int64, error) {
	id, ok := f.projects[identifier]
	if !ok {
		return 0, store.ErrUnknownProject
	}
	return id, nil
}

func (f *fakeSource) ListAttachments(_ context.Context, containerType string) ([]store.AttachmentRow, error) {
	return f.attachments[containerType], nil
}

func (f *fakeSource) ListVersions(context.Context, int64) ([]store.VersionRow, error) {
	return f.versions, nil
}
func (f *fakeSource) ListTypes(context.Context) ([]store.NamedRow, error) { return f.types, nil }
func (f *fakeSource) ListCategories(context.Context, int64) ([]store.NamedRow, error) {
	return f.categories, nil
}
func (f *fakeSource) ListStatuses(context.Context) ([]store.StatusRow, error) { return f.statuses, nil }
func (f *fakeSource) ListWorkPackageRevisions(context.Context, int64) ([]store.WorkPackageRevision, error) {
	return f.revisions, nil
}
func (f *fakeSource) ListWorkPackageWatchers(context.Context) ([]store.WatcherRow, error) {
	return f.watchers, nil
}
func (f *fakeSource) ListRelations(context.Context) ([]store.RelationRow, error) {
	return f.relations, nil
}
func (f *fakeSource) ListBoards(context.Context, int64) ([]store.NamedRow, error) {
	return f.boards, nil
}
func (f *fakeSource) ListMessages(_ context.Context, boardID int64) ([]store.MessageRow, error) {
	return f.messages[boardID], nil
}

func (f *fakeSource) GetWikiID(context.Context, int64) (int64, error) {
	if f.wikiID == nil {
		return 0, store.ErrNoWiki
	}
	return *f.wikiID, nil
}

func (f *fakeSource) ListWikiRedirects(context.Context, int64) ([]store.RedirectRow, error) {
	return f.redirects, nil
}
func (f *fakeSource) ListWikiRevisions(context.Context, int64) ([]store.WikiRevisionRow, error) {
	return f.wikiRevs, nil
}
func (f *fakeSource) ListMeetingRevisions(context.Context, int64) ([]store.MeetingRevisionRow, error) {
	return f.meetings, nil
}
