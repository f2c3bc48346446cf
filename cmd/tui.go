package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/emx/internal/shared"
	"github.com/desertthunder/emx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for browsing and migrating the catalog.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/emx-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	engine, done, err := r.newEngine(ctx, cmd, engineNeeds{directory: true, publisher: true, output: io.Discard})
	if err != nil {
		return err
	}
	defer done()

	model := ui.NewModel(ctx, engine, ui.Options{
		ListPath:    r.config.Paths.ListFile,
		OutputDir:   shared.FirstNonEmpty(cmd.String("output-dir"), r.config.Paths.OutputDir),
		Destination: r.destination(cmd).TeamID,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return model.Err()
}
