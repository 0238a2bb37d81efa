package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MichaelEischer/openproject-gitlab-migrator/common/id"
	"github.com/MichaelEischer/openproject-gitlab-migrator/common/logger"
	"github.com/MichaelEischer/openproject-gitlab-migrator/common/otel"
	"github.com/MichaelEischer/openproject-gitlab-migrator/core/config"
	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/rules"
)

// app holds what every command shares once flags are parsed.
type app struct {
	cfg       config.Config
	rules     rules.Rules
	runID     string
	project   string
	telemetry flusher
}

type flusher interface {
	Shutdown(ctx context.Context) error
}

func (a *app) ctx(ctx context.Context) context.Context {
	if a.runID == "" {
		return ctx
	}
	fields := logger.LogFields{RunID: logger.Ptr(a.runID)}
	if a.project != "" {
		fields.Project = logger.Ptr(a.project)
	}
	return logger.WithLogFields(ctx, fields)
}

// projectAnnotation marks commands whose first argument names the project
// being migrated. Subcommands inherit it.
const projectAnnotation = "migrator/project-arg"

// describeRun names the invocation for telemetry: the command path below the
// root and, for project commands, the project argument.
func describeRun(cmd *cobra.Command, args []string) otel.Run {
	run := otel.Run{Command: strings.TrimPrefix(cmd.CommandPath(), cmd.Root().Name()+" ")}
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[projectAnnotation] != "" && len(args) > 0 {
			run.Project = args[0]
			break
		}
	}
	return run
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	if err := id.Init(1); err != nil {
		return fmt.Errorf("initializing id generator: %w", err)
	}
	a.runID = id.NewRun()

	run := describeRun(cmd, args)
	run.ID = a.runID
	telemetry, err := otel.Setup(cmd.Context(), a.cfg.OTel, run)
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}
	if telemetry != nil {
		a.telemetry = telemetry
	}
	// the otelslog bridge picks up the global provider set above
	logger.Setup(a.cfg)
	a.project = run.Project

	a.rules = rules.Default()
	if a.cfg.Source.RulesFile != "" {
		if a.rules, err = rules.Load(a.cfg.Source.RulesFile); err != nil {
			return err
		}
	}

	cmd.SetContext(a.ctx(cmd.Context()))
	slog.DebugContext(cmd.Context(), "migrator starting", "env", a.cfg.Env, "command", cmd.CommandPath())
	return nil
}

func (a *app) shutdown(ctx context.Context) {
	if a.telemetry == nil {
		return
	}
	if err := a.telemetry.Shutdown(ctx); err != nil {
		slog.WarnContext(ctx, "telemetry shutdown failed", "error", err)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate an OpenProject project to GitLab",
		Long: `migrate copies work packages, boards and wiki pages from an OpenProject
database into a GitLab project. Extraction writes a JSON document; replay
phases read it and recreate its content through the GitLab API, keeping
issue numbers, authors and timestamps.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, args)
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVarP(&a.cfg.Verbose, "verbose", "v", a.cfg.Verbose, "Log debug output")
	flags.StringVar(&a.cfg.Source.RulesFile, "rules", a.cfg.Source.RulesFile, "YAML file with migration rules (overrides RULES_FILE)")

	root.AddCommand(
		newExtractCmd(a),
		newReplayCmd(a),
		newSchemaCmd(),
		newHistoryCmd(),
	)
	root.SetOut(os.Stdout)
	return root
}
