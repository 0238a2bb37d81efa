// Package replay recreates a migration document on the target tracker.
// Issues keep their source numbers, history is replayed action by action
// under each author's identity, and cross references are written once
// every issue exists.
package replay

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/MichaelEischer/openproject-gitlab-migrator/common/logger"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/identity"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/model"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/rules"
)

type Options struct {
	// DefaultUserID stands in for logins without a target account.
	DefaultUserID int64
	// Attachments holds files as <attachment id>/<file name>.
	Attachments fs.FS
	// CreateMilestones creates source milestones missing on the target.
	CreateMilestones bool
	Rules            rules.Rules
}

type Replayer struct {
	target Target
	opts   Options
	users  *identity.Users
}

func New(target Target, opts Options) *Replayer {
	return &Replayer{target: target, opts: opts}
}

// loadUsers fetches the target's accounts once per run.
func (r *Replayer) loadUsers(ctx context.Context) error {
	if r.users != nil {
		return nil
	}
	ids, err := r.target.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("listing target users: %w", err)
	}
	r.users = identity.NewUsers(ids, r.opts.DefaultUserID)
	slog.InfoContext(ctx, "loaded target users", "count", len(ids))
	return nil
}

// CheckUsers returns the logins referenced by doc that have no account on
// the target. Nothing is written.
func (r *Replayer) CheckUsers(ctx context.Context, doc *model.Document) ([]string, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Phase: logger.Ptr("check-users")})
	if err := r.loadUsers(ctx); err != nil {
		return nil, err
	}

	referenced := identity.Referenced(doc)
	referenced = append(referenced, identity.ReferencedInWiki(doc)...)
	unknown := r.warnUnknown(ctx, referenced)
	slog.InfoContext(ctx, "checked users", "referenced", len(dedup(referenced)), "unknown", len(unknown))
	return unknown, nil
}

// warnUnknown logs every referenced login without a target account before
// anything is written, and returns them sorted.
func (r *Replayer) warnUnknown(ctx context.Context, referenced []string) []string {
	unknown := r.users.Unknown(dedup(referenced))
	for _, login := range unknown {
		slog.WarnContext(ctx, "unknown user", "login", login, "user_id", r.opts.DefaultUserID)
	}
	return unknown
}

func dedup(logins []string) []string {
	seen := make(map[string]bool, len(logins))
	out := make([]string, 0, len(logins))
	for _, l := range logins {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}

func (r *Replayer) reportMisses(ctx context.Context) {
	if r.users == nil {
		return
	}
	if misses := r.users.Misses(); len(misses) > 0 {
		slog.InfoContext(ctx, "logins replaced by default user", "logins", misses, "user_id", r.opts.DefaultUserID)
	}
}
