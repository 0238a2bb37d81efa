package store

import (
	"context"
	"fmt"

	"github.com/MichaelEischer/openproject-gitlab-migrator/core/db"
)

// Store implements SourceStore with plain SQL that runs unchanged on
// MySQL and PostgreSQL.
type Store struct {
	q db.Querier
}

func New(q db.Querier) *Store {
	return &Store{q: q}
}

func queryAll[T any](ctx context.Context, q db.Querier, query string, scan func(db.Rows) (T, error), args ...any) ([]T, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// --- Users & projects --------------------------------------------------------

func (s *Store) ListUsers(ctx context.Context) ([]UserRow, error) {
	users, err := queryAll(ctx, s.q,
		"SELECT id, login, firstname, lastname, mail, status FROM users ORDER BY id",
		func(r db.Rows) (UserRow, error) {
			var u UserRow
			err := r.Scan(&u.ID, &u.Login, &u.FirstName, &u.LastName, &u.Mail, &u.Status)
			return u, err
		})
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

func (s *Store) GetProjectID(ctx context.Context, identifier string) (int64, error) {
	ids, err := queryAll(ctx, s.q,
		"SELECT id FROM projects WHERE identifier = ?",
		scanID, identifier)
	if err != nil {
		return 0, fmt.Errorf("looking up project: %w", err)
	}
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnknownProject, identifier)
	}
	return ids[0], nil
}

func scanID(r db.Rows) (int64, error) {
	var id int64
	err := r.Scan(&id)
	return id, err
}

func scanNamed(r db.Rows) (NamedRow, error) {
	var n NamedRow
	err := r.Scan(&n.ID, &n.Name)
	return n, err
}

// --- Work packages -----------------------------------------------------------

// ListAttachments returns every attachment of a container type. The table
// has no project column, so callers join by container id.
func (s *Store) ListAttachments(ctx context.Context, containerType string) ([]AttachmentRow, error) {
	rows, err := queryAll(ctx, s.q,
		"SELECT id, container_id, description, file FROM attachments WHERE container_type = ? ORDER BY id",
		func(r db.Rows) (AttachmentRow, error) {
			var a AttachmentRow
			err := r.Scan(&a.ID, &a.ContainerID, &a.Description, &a.File)
			return a, err
		}, containerType)
	if err != nil {
		return nil, fmt.Errorf("listing %s attachments: %w", containerType, err)
	}
	return rows, nil
}

func (s *Store) ListVersions(ctx context.Context, projectID int64) ([]VersionRow, error) {
	rows, err := queryAll(ctx, s.q,
		"SELECT id, name, description, start_date, effective_date, status FROM versions WHERE project_id = ? ORDER BY id",
		func(r db.Rows) (VersionRow, error) {
			var v VersionRow
			err := r.Scan(&v.ID, &v.Name, &v.Description, &v.StartDate, &v.EffectiveDate, &v.Status)
			return v, err
		}, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing versions: %w", err)
	}
	return rows, nil
}

func (s *Store) ListTypes(ctx context.Context) ([]NamedRow, error) {
	rows, err := queryAll(ctx, s.q, "SELECT id, name FROM types ORDER BY id", scanNamed)
	if err != nil {
		return nil, fmt.Errorf("listing types: %w", err)
	}
	return rows, nil
}

func (s *Store) ListCategories(ctx context.Context, projectID int64) ([]NamedRow, error) {
	rows, err := queryAll(ctx, s.q,
		"SELECT id, name FROM categories WHERE project_id = ? ORDER BY id",
		scanNamed, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return rows, nil
}

func (s *Store) ListStatuses(ctx context.Context) ([]StatusRow, error) {
	rows, err := queryAll(ctx, s.q,
		"SELECT id, name, is_closed FROM statuses ORDER BY id",
		func(r db.Rows) (StatusRow, error) {
			var st StatusRow
			err := r.Scan(&st.ID, &st.Name, &st.IsClosed)
			return st, err
		})
	if err != nil {
		return nil, fmt.Errorf("listing statuses: %w", err)
	}
	return rows, nil
}

const workPackageRevisionsQuery = `SELECT j.journable_id, w.subject, w.description, w.assigned_to_id,
	w.fixed_version_id, w.category_id, w.type_id, w.status_id, j.user_id,
	j.created_at, w.start_date, w.due_date, j.notes, w.parent_id
FROM work_package_journals w
INNER JOIN journals j ON w.journal_id = j.id
WHERE w.project_id = ?
ORDER BY j.journable_id ASC, j.created_at ASC, j.id ASC`

func (s *Store) ListWorkPackageRevisions(ctx context.Context, projectID int64) ([]WorkPackageRevision, error) {
	rows, err := queryAll(ctx, s.q, workPackageRevisionsQuery,
		func(r db.Rows) (WorkPackageRevision, error) {
			var w WorkPackageRevision
			err := r.Scan(&w.ID, &w.Subject, &w.Description, &w.AssigneeID,
				&w.VersionID, &w.CategoryID, &w.TypeID, &w.StatusID, &w.AuthorID,
				&w.CreatedAt, &w.StartDate, &w.DueDate, &w.Notes, &w.ParentID)
			return w, err
		}, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing work package journals: %w", err)
	}
	return rows, nil
}

func (s *Store) ListWorkPackageWatchers(ctx context.Context) ([]WatcherRow, error) {
	rows, err := queryAll(ctx, s.q,
		"SELECT watchable_id, user_id FROM watchers WHERE watchable_type = 'WorkPackage' ORDER BY id",
		func(r db.Rows) (WatcherRow, error) {
			var w WatcherRow
			err := r.Scan(&w.WatchableID, &w.UserID)
			return w, err
		})
	if err != nil {
		return nil, fmt.Errorf("listing watchers: %w", err)
	}
	return rows, nil
}

func (s *Store) ListRelations(ctx context.Context) ([]RelationRow, error) {
	rows, err := queryAll(ctx, s.q,
		"SELECT from_id, to_id, relation_type FROM relations ORDER BY id",
		func(r db.Rows) (RelationRow, error) {
			var rel RelationRow
			err := r.Scan(&rel.FromID, &rel.ToID, &rel.Type)
			return rel, err
		})
	if err != nil {
		return nil, fmt.Errorf("listing relations: %w", err)
	}
	return rows, nil
}

// --- Boards ------------------------------------------------------------------

func (s *Store) ListBoards(ctx context.Context, projectID int64) ([]NamedRow, error) {
	rows, err := queryAll(ctx, s.q,
		"SELECT id, name FROM boards WHERE project_id = ? ORDER BY id",
		scanNamed, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing boards: %w", err)
	}
	return rows, nil
}

func (s *Store) ListMessages(ctx context.Context, boardID int64) ([]MessageRow, error) {
	rows, err := queryAll(ctx, s.q,
		"SELECT id, parent_id, subject, content, author_id, created_on, locked FROM messages WHERE board_id = ? ORDER BY id",
		func(r db.Rows) (MessageRow, error) {
			var m MessageRow
			err := r.Scan(&m.ID, &m.ParentID, &m.Subject, &m.Content, &m.AuthorID, &m.CreatedAt, &m.Locked)
			return m, err
		}, boardID)
	if err != nil {
		return nil, fmt.Errorf("listing messages of board %d: %w", boardID, err)
	}
	return rows, nil
}

// --- Wiki & meetings ---------------------------------------------------------

func (s *Store) GetWikiID(ctx context.Context, projectID int64) (int64, error) {
	ids, err := queryAll(ctx, s.q, "SELECT id FROM wikis WHERE project_id = ?", scanID, projectID)
	if err != nil {
		return 0, fmt.Errorf("looking up wiki: %w", err)
	}
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: project %d", ErrNoWiki, projectID)
	}
	return ids[0], nil
}

func (s *Store) ListWikiRedirects(ctx context.Context, wikiID int64) ([]RedirectRow, error) {
	rows, err := queryAll(ctx, s.q,
		"SELECT title, redirects_to FROM wiki_redirects WHERE wiki_id = ? ORDER BY id",
		func(r db.Rows) (RedirectRow, error) {
			var rd RedirectRow
			err := r.Scan(&rd.Title, &rd.RedirectsTo)
			return rd, err
		}, wikiID)
	if err != nil {
		return nil, fmt.Errorf("listing wiki redirects: %w", err)
	}
	return rows, nil
}

const wikiRevisionsQuery = `SELECT w.page_id, p.slug, p.title, w.text, j.user_id, j.created_at
FROM wiki_content_journals w
INNER JOIN journals j ON w.journal_id = j.id
INNER JOIN wiki_pages p ON w.page_id = p.id
WHERE p.wiki_id = ?
ORDER BY w.id ASC`

func (s *Store) ListWikiRevisions(ctx context.Context, wikiID int64) ([]WikiRevisionRow, error) {
	rows, err := queryAll(ctx, s.q, wikiRevisionsQuery,
		func(r db.Rows) (WikiRevisionRow, error) {
			var w WikiRevisionRow
			err := r.Scan(&w.PageID, &w.Slug, &w.Title, &w.Text, &w.AuthorID, &w.CreatedAt)
			return w, err
		}, wikiID)
	if err != nil {
		return nil, fmt.Errorf("listing wiki journals: %w", err)
	}
	return rows, nil
}

const meetingRevisionsQuery = `SELECT m.id, m.title, m.author_id, m.start_time, m.duration,
	c.type, c.text, c.created_at
FROM meetings m
INNER JOIN meeting_contents c ON m.id = c.meeting_id
WHERE m.project_id = ?
ORDER BY m.id ASC, c.id ASC`

func (s *Store) ListMeetingRevisions(ctx context.Context, projectID int64) ([]MeetingRevisionRow, error) {
	rows, err := queryAll(ctx, s.q, meetingRevisionsQuery,
		func(r db.Rows) (MeetingRevisionRow, error) {
			var m MeetingRevisionRow
			err := r.Scan(&m.MeetingID, &m.Title, &m.AuthorID, &m.StartTime, &m.Duration,
				&m.Type, &m.Text, &m.CreatedAt)
			return m, err
		}, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing meetings: %w", err)
	}
	return rows, nil
}

var _ SourceStore = (*Store)(nil)
