package replay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MichaelEischer/openproject-gitlab-migrator/common/logger"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/model"
)

// boards creates every board topic as an issue after the project issues.
// Topic numbers are not preserved. Each board is represented by a
// milestone named after it.
func (r *Replayer) boards(ctx context.Context, boards map[string]model.Board) (int, error) {
	if len(boards) == 0 {
		return 0, nil
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{Phase: logger.Ptr("boards")})

	byBoard := make(map[string]model.Milestone, len(boards))
	for id, b := range boards {
		byBoard[id] = model.Milestone{Title: r.opts.Rules.BoardMilestone(b.Name)}
	}
	milestones, err := r.syncMilestones(ctx, byBoard)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, bid := range model.SortedIDs(boards) {
		board := boards[bid]
		for _, tid := range model.SortedIDs(board.Issues) {
			tctx := logger.WithLogFields(ctx, logger.LogFields{ItemID: logger.Ptr(tid)})
			ref, err := r.replayIssue(tctx, tid, board.Issues[tid], milestones)
			if err != nil {
				return count, fmt.Errorf("board %q topic %s: %w", board.Name, tid, err)
			}
			slog.DebugContext(tctx, "created board topic", "board", board.Name, "iid", ref.IID)
			count++
		}
	}
	slog.InfoContext(ctx, "created board topics", "count", count)
	return count, nil
}
