package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/emx/internal/shared"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

func main() {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	logger := shared.NewLogger(nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(NewRunner(RunnerOpts{Logger: logger}))

	if err := app.Run(ctx, os.Args); err != nil {
		logger.Error("application error", "error", err)
		stop()
		os.Exit(1)
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "emx",
		Usage:     "Migrate custom emoji between Slack workspaces",
		Version:   "0.1.0",
		Flags:     rootFlags(),
		Before:    r.Before,
		Action:    r.Root,
		Commands:  r.register(),
		Writer:    r.output,
		ErrWriter: r.output,
	}
}
