package extract

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/model"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/store"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/wikilink"
)

func (r *run) extractWiki(ctx context.Context, doc *model.Document) error {
	wikiID, err := r.src.GetWikiID(ctx, r.projectID)
	if err != nil {
		return err
	}

	redirectRows, err := r.src.ListWikiRedirects(ctx, wikiID)
	if err != nil {
		return err
	}
	redirects := wikilink.Redirects{}
	for _, rd := range redirectRows {
		redirects.Add(rd.Title, rd.RedirectsTo)
	}

	revs, err := r.src.ListWikiRevisions(ctx, wikiID)
	if err != nil {
		return err
	}

	var order []string
	for _, rev := range revs {
		id := idString(rev.PageID)
		page, ok := doc.Wiki[id]
		if !ok {
			page = model.WikiPage{Slug: rev.Slug, Title: rev.Title, Versions: []model.WikiVersion{}, Attachments: []model.Attachment{}}
			order = append(order, id)
		}
		if rev.Text == nil {
			slog.DebugContext(ctx, "wiki revision without text skipped", "page_id", rev.PageID)
			doc.Wiki[id] = page
			continue
		}
		page.Versions = append(page.Versions, model.WikiVersion{
			Author:    r.login(ctx, rev.AuthorID),
			CreatedAt: rev.CreatedAt,
			Text:      *rev.Text,
		})
		doc.Wiki[id] = page
	}

	// links written against a page title must reach the page's slug
	for _, id := range order {
		page := doc.Wiki[id]
		redirects.Add(page.Title, page.Slug)
	}
	for _, id := range order {
		page := doc.Wiki[id]
		for i := range page.Versions {
			page.Versions[i].Text = redirects.Rewrite(page.Versions[i].Text)
		}
		slog.DebugContext(ctx, "wiki page", "id", id, "slug", page.Slug, "versions", len(page.Versions))
	}

	if err := r.attachAttachments(ctx, store.ContainerWikiPage, func(id string, a model.Attachment) {
		if page, ok := doc.Wiki[id]; ok {
			page.Attachments = append(page.Attachments, a)
			doc.Wiki[id] = page
		}
	}); err != nil {
		return err
	}

	slog.InfoContext(ctx, "extracted wiki", "pages", len(order), "redirects", len(redirects))
	return nil
}

// extractMeetings folds meeting agendas and minutes into wiki pages. Each
// meeting takes the lowest page id not used by the wiki.
func (r *run) extractMeetings(ctx context.Context, doc *model.Document) error {
	revs, err := r.src.ListMeetingRevisions(ctx, r.projectID)
	if err != nil {
		return err
	}

	pages := map[int64]*model.WikiPage{}
	var order []int64
	for _, rev := range revs {
		if rev.Text == nil {
			continue
		}
		page, ok := pages[rev.MeetingID]
		if !ok {
			page = &model.WikiPage{
				Slug:        rev.StartTime.Format(r.rules.MeetingSlugLayout),
				Title:       rev.Title,
				Versions:    []model.WikiVersion{},
				Attachments: []model.Attachment{},
			}
			pages[rev.MeetingID] = page
			order = append(order, rev.MeetingID)
		}
		page.Versions = append(page.Versions, model.WikiVersion{
			Author:    r.login(ctx, rev.AuthorID),
			CreatedAt: rev.CreatedAt,
			Text:      meetingHeader(rev) + *rev.Text,
		})
	}

	next := int64(1)
	for _, mid := range order {
		for {
			if _, used := doc.Wiki[idString(next)]; !used {
				break
			}
			next++
		}
		doc.Wiki[idString(next)] = *pages[mid]
		slog.DebugContext(ctx, "meeting", "meeting_id", mid, "page_id", next, "slug", pages[mid].Slug)
	}

	slog.InfoContext(ctx, "extracted meetings", "count", len(order))
	return nil
}

func meetingHeader(rev store.MeetingRevisionRow) string {
	return "Start time: " + rev.StartTime.Format("2006-01-02 15:04:05") +
		"\nDuration: " + formatHours(rev.Duration) + "\n\n"
}

// formatHours prints whole hours with one decimal, e.g. "1.0" or "1.5".
func formatHours(h float64) string {
	if h == float64(int64(h)) {
		return strconv.FormatFloat(h, 'f', 1, 64)
	}
	return strconv.FormatFloat(h, 'f', -1, 64)
}
