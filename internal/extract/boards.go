package extract

import (
	"context"
	"log/slog"

	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/model"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/store"
)

// extractBoards turns each forum topic into an issue and its replies into
// comments on that issue.
func (r *run) extractBoards(ctx context.Context, doc *model.Document) error {
	boards, err := r.src.ListBoards(ctx, r.projectID)
	if err != nil {
		return err
	}
	if len(boards) == 0 {
		return nil
	}

	attachments := map[string][]model.Attachment{}
	if err := r.attachAttachments(ctx, store.ContainerMessage, func(id string, a model.Attachment) {
		attachments[id] = append(attachments[id], a)
	}); err != nil {
		return err
	}

	for _, b := range boards {
		messages, err := r.src.ListMessages(ctx, b.ID)
		if err != nil {
			return err
		}

		board := model.Board{Name: b.Name, Issues: map[string]model.Issue{}}
		for _, m := range messages {
			id := idString(m.ID)
			if m.ParentID == nil {
				board.Issues[id] = r.topic(ctx, b.ID, m, attachments[id])
				continue
			}

			parent := idString(*m.ParentID)
			topic, ok := board.Issues[parent]
			if !ok {
				slog.WarnContext(ctx, "reply to unknown topic skipped",
					"board_id", b.ID, "message_id", m.ID, "parent_id", *m.ParentID)
				continue
			}
			topic.Actions = append(topic.Actions, model.Action{
				Author:      r.login(ctx, m.AuthorID),
				CreatedAt:   m.CreatedAt,
				Notes:       model.Some(deref(m.Content)),
				Attachments: attachments[id],
			})
			board.Issues[parent] = topic
		}

		doc.Boards[idString(b.ID)] = board
		slog.DebugContext(ctx, "board", "id", b.ID, "name", b.Name, "topics", len(board.Issues))
	}

	slog.InfoContext(ctx, "extracted boards", "count", len(boards))
	return nil
}

func (r *run) topic(ctx context.Context, boardID int64, m store.MessageRow, attachments []model.Attachment) model.Issue {
	board := idString(boardID)
	if attachments == nil {
		attachments = []model.Attachment{}
	}
	return model.Issue{
		Title:       m.Subject,
		Description: m.Content,
		Author:      r.login(ctx, m.AuthorID),
		MilestoneID: &board,
		Labels:      []string{r.rules.DiscussionLabel},
		IsClosed:    m.Locked,
		CreatedAt:   m.CreatedAt,
		Actions:     []model.Action{},
		Watchers:    []string{},
		Relations:   []model.Relation{},
		Attachments: attachments,
	}
}
