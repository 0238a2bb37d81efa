package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/MichaelEischer/openproject-gitlab-migrator/core/db"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/document"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/extract"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/model"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/store"
)

func newExtractCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:         "extract <project-identifier>",
		Short:       "Read one project from the OpenProject database into a JSON document",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{projectAnnotation: "identifier"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			identifier := args[0]
			if output == "" {
				output = identifier + ".json"
			}
			if a.cfg.Source.DB.DSN == "" {
				return fmt.Errorf("no source database configured: set SOURCE_DATABASE_URL or --database-url")
			}

			database, err := db.New(ctx, a.cfg.Source.DB)
			if err != nil {
				return fmt.Errorf("connecting to source database: %w", err)
			}
			defer database.Close()

			var doc *model.Document
			err = database.Snapshot(ctx, func(q db.Querier) error {
				doc, err = extract.New(store.New(q), a.rules).Extract(ctx, identifier)
				return err
			})
			if err != nil {
				return err
			}

			if err := document.Save(output, doc); err != nil {
				return err
			}
			var size string
			if info, err := os.Stat(output); err == nil {
				size = humanize.Bytes(uint64(info.Size()))
			}
			slog.InfoContext(ctx, "wrote document", "path", output, "size", size)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&output, "output", "o", "", "Output file (default <project-identifier>.json)")
	flags.StringVar(&a.cfg.Source.DB.DSN, "database-url", a.cfg.Source.DB.DSN, "Source database DSN (overrides SOURCE_DATABASE_URL)")
	flags.StringVar(&a.cfg.Source.DB.Driver, "driver", a.cfg.Source.DB.Driver, "Source database driver: mysql or postgres")
	return cmd
}
