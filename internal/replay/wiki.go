package replay

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/MichaelEischer/openproject-gitlab-migrator/common/logger"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/identity"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/model"
)

type WikiResult struct {
	Pages    int
	Versions int
	// Skipped counts versions whose content matched the previous one.
	Skipped      int
	UnknownUsers []string
}

// Wiki recreates every wiki page version by version under the author of
// each version.
func (r *Replayer) Wiki(ctx context.Context, doc *model.Document) (*WikiResult, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Phase: logger.Ptr("wiki"), Component: "migrator.replay"})
	if err := r.loadUsers(ctx); err != nil {
		return nil, err
	}
	r.warnUnknown(ctx, identity.ReferencedInWiki(doc))

	res := &WikiResult{}
	for _, id := range model.SortedIDs(doc.Wiki) {
		page := doc.Wiki[id]
		pctx := logger.WithLogFields(ctx, logger.LogFields{PageID: logger.Ptr(id)})
		written, skipped, err := r.replayPage(pctx, page)
		if err != nil {
			return nil, fmt.Errorf("wiki page %s (%s): %w", id, page.Slug, err)
		}
		if written > 0 {
			res.Pages++
		}
		res.Versions += written
		res.Skipped += skipped
	}
	slog.InfoContext(ctx, "replayed wiki", "pages", res.Pages, "versions", res.Versions, "skipped", res.Skipped)

	r.reportMisses(ctx)
	res.UnknownUsers = r.users.Misses()
	return res, nil
}

func (r *Replayer) replayPage(ctx context.Context, page model.WikiPage) (written, skipped int, err error) {
	sc := logger.StartSpan(ctx, "replay.wiki_page", attribute.String("wiki.slug", page.Slug))
	defer sc.End()
	ctx = sc.Context()

	suffix, err := r.uploadAttachments(ctx, page.Attachments)
	if err != nil {
		sc.RecordError(err)
		return 0, 0, err
	}

	var previous string
	for _, v := range page.Versions {
		content := v.Text + suffix
		if written > 0 && content == previous {
			skipped++
			continue
		}
		sudo := r.users.Lookup(v.Author)
		if written == 0 {
			err = r.target.CreateWikiPage(ctx, sudo, page.Slug, content)
		} else {
			err = r.target.EditWikiPage(ctx, sudo, page.Slug, content)
		}
		if err != nil {
			sc.RecordError(err)
			return written, skipped, err
		}
		previous = content
		written++
	}
	slog.DebugContext(ctx, "replayed wiki page", "slug", page.Slug, "versions", written)
	return written, skipped, nil
}
