package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MichaelEischer/openproject-gitlab-migrator/core/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	a := &app{cfg: cfg}
	code := a.finish(ctx, newRootCmd(a).ExecuteContext(ctx))
	stop()
	os.Exit(code)
}

// finish reports the command's outcome and flushes telemetry afterwards so
// the failure record is exported with the rest of the run.
func (a *app) finish(ctx context.Context, err error) int {
	code := 0
	if err != nil {
		slog.ErrorContext(a.ctx(ctx), "migration failed", "error", err)
		code = 1
	}
	a.shutdown(ctx)
	return code
}
