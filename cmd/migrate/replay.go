package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/document"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/model"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/replay"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/service/issue_tracker"
)

func newReplayCmd(a *app) *cobra.Command {
	var noMilestones bool

	cmd := &cobra.Command{
		Use:         "replay",
		Short:       "Recreate an extracted document in a GitLab project",
		Annotations: map[string]string{projectAnnotation: "project-url"},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.cfg.Source.AttachmentsDir, "attachments", a.cfg.Source.AttachmentsDir, "Directory holding <attachment id>/<file> (overrides ATTACHMENTS_DIR)")
	flags.Int64Var(&a.cfg.Target.DefaultUserID, "default-user", a.cfg.Target.DefaultUserID, "GitLab user id for logins without an account")
	flags.BoolVar(&noMilestones, "no-create-milestones", false, "Only map milestones that already exist on GitLab")

	// open loads the document and connects to the project named by args.
	open := func(args []string) (*replay.Replayer, *model.Document, error) {
		projectURL, token, path := args[0], args[1], args[2]
		doc, err := document.Load(path)
		if err != nil {
			return nil, nil, err
		}
		target, err := issue_tracker.NewFromProjectURL(projectURL, token)
		if err != nil {
			return nil, nil, err
		}
		r := replay.New(target, replay.Options{
			DefaultUserID:    a.cfg.Target.DefaultUserID,
			Attachments:      os.DirFS(a.cfg.Source.AttachmentsDir),
			CreateMilestones: !noMilestones,
			Rules:            a.rules,
		})
		return r, doc, nil
	}

	const usageArgs = " <project-url> <token> <document>"

	cmd.AddCommand(&cobra.Command{
		Use:   "check-users" + usageArgs,
		Short: "List referenced logins that have no GitLab account",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, doc, err := open(args)
			if err != nil {
				return err
			}
			unknown, err := r.CheckUsers(cmd.Context(), doc)
			if err != nil {
				return err
			}
			for _, login := range unknown {
				fmt.Fprintln(cmd.OutOrStdout(), login)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "issues" + usageArgs,
		Short: "Create issues with their history, relations and board topics",
		Long: `issues recreates every work package with its original number. The
target project must not contain any issue, including deleted ones.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, doc, err := open(args)
			if err != nil {
				return err
			}
			res, err := r.Issues(cmd.Context(), doc)
			if err != nil {
				return err
			}
			slog.InfoContext(cmd.Context(), "issues replayed",
				"issues", len(res.Created),
				"placeholders", res.Placeholders,
				"board_topics", res.BoardIssues,
				"unknown_users", len(res.UnknownUsers))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "wiki" + usageArgs,
		Short: "Recreate wiki pages version by version",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, doc, err := open(args)
			if err != nil {
				return err
			}
			res, err := r.Wiki(cmd.Context(), doc)
			if err != nil {
				return err
			}
			slog.InfoContext(cmd.Context(), "wiki replayed",
				"pages", res.Pages,
				"versions", res.Versions,
				"skipped", res.Skipped,
				"unknown_users", len(res.UnknownUsers))
			return nil
		},
	})

	return cmd
}
