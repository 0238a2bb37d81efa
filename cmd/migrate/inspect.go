package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/document"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/history"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/model"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the migration document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(model.Schema())
		},
	}
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <document> <issue-id>",
		Short: "Print the compacted timeline of one issue or board topic",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := document.Load(args[0])
			if err != nil {
				return err
			}
			issue, ok := history.Find(doc, args[1])
			if !ok {
				return fmt.Errorf("no issue %s in %s", args[1], args[0])
			}
			return history.Write(cmd.OutOrStdout(), args[1], issue)
		},
	}
}
