package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/emx/internal/models"
	"github.com/desertthunder/emx/internal/repositories"
	"github.com/desertthunder/emx/internal/shared"
	"github.com/urfave/cli/v3"
)

type runView struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	Status      string     `json:"status"`
	Source      string     `json:"source"`
	Destination string     `json:"destination"`
	Total       int        `json:"total"`
	Succeeded   int        `json:"succeeded"`
	Failed      int        `json:"failed"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type runItemView struct {
	Name     string `json:"name"`
	Stage    string `json:"stage"`
	Outcome  string `json:"outcome"`
	Attempts int    `json:"attempts"`
	File     string `json:"file,omitempty"`
	Error    string `json:"error,omitempty"`
}

func newRunView(run *models.Run) runView {
	return runView{
		ID:          run.ID,
		Kind:        string(run.Kind),
		Status:      string(run.Status),
		Source:      run.Source,
		Destination: run.Destination,
		Total:       run.Total,
		Succeeded:   run.Succeeded,
		Failed:      run.Failed,
		Error:       run.ErrorMessage,
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
	}
}

// History lists recent runs from the ledger, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	ledger, closeDB, err := r.historyLedger()
	if err != nil {
		return err
	}
	defer closeDB()

	runs, err := ledger.Runs.List(int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if cmd.Bool("json") {
		views := make([]runView, 0, len(runs))
		for _, run := range runs {
			views = append(views, newRunView(run))
		}
		return r.writeJSON(views, true)
	}

	if len(runs) == 0 {
		r.writePlain("No runs recorded yet\n")
		return nil
	}

	r.writePlain("%-8s  %-8s  %-9s  %5s  %5s  %5s  %-19s  %s\n", "ID", "KIND", "STATUS", "TOTAL", "OK", "FAIL", "STARTED", "DURATION")
	for _, run := range runs {
		r.writePlain("%-8s  %-8s  %-9s  %5d  %5d  %5d  %-19s  %s\n",
			shortID(run.ID), run.Kind, run.Status, run.Total, run.Succeeded, run.Failed,
			run.StartedAt.Local().Format(time.DateTime), run.Duration().Round(time.Second))
	}
	return nil
}

// HistoryShow prints one run and its per-emoji outcomes.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: run id", shared.ErrMissingArgument)
	}

	ledger, closeDB, err := r.historyLedger()
	if err != nil {
		return err
	}
	defer closeDB()

	run, err := ledger.Runs.Find(id)
	if err != nil {
		return err
	}

	items, err := ledger.Items.ListByRun(run.ID)
	if err != nil {
		return fmt.Errorf("failed to list run items: %w", err)
	}

	if cmd.Bool("json") {
		views := make([]runItemView, 0, len(items))
		for _, item := range items {
			views = append(views, runItemView{
				Name:     item.Name,
				Stage:    string(item.Stage),
				Outcome:  string(item.Outcome),
				Attempts: item.Attempts,
				File:     item.FilePath,
				Error:    item.ErrorMessage,
			})
		}
		return r.writeJSON(struct {
			Run   runView       `json:"run"`
			Items []runItemView `json:"items"`
		}{newRunView(run), views}, true)
	}

	r.writePlainHeader(fmt.Sprintf("Run %s (%s)", run.ID, run.Kind))
	r.writePlain("Status:      %s\n", run.Status)
	r.writePlain("Source:      %s\n", run.Source)
	r.writePlain("Destination: %s\n", run.Destination)
	r.writePlain("Started:     %s\n", run.StartedAt.Local().Format(time.DateTime))
	r.writePlain("Duration:    %s\n", run.Duration().Round(time.Second))
	r.writePlain("Result:      %d succeeded, %d failed (of %d)\n", run.Succeeded, run.Failed, run.Total)
	if run.ErrorMessage != "" {
		r.writePlain("Error:       %s\n", run.ErrorMessage)
	}

	if len(items) == 0 {
		return nil
	}

	r.writePlainln("Items:")
	for _, item := range items {
		mark := "✓"
		if item.Outcome == models.OutcomeFailed {
			mark = "✗"
		}
		line := fmt.Sprintf("%s %-8s %-32s %d %s", mark, item.Stage, item.Name, item.Attempts,
			shared.Pluralize(item.Attempts, "attempt", "attempts"))
		if item.ErrorMessage != "" {
			line += ": " + item.ErrorMessage
		}
		r.writePlain("%s\n", line)
	}
	return nil
}

// historyLedger opens the ledger for reading. Unlike migrations, history commands fail without it.
func (r *Runner) historyLedger() (*repositories.Ledger, func(), error) {
	if !r.config.Database.Enabled {
		return nil, nil, fmt.Errorf("%w: run history is disabled ([database] enabled = false)", shared.ErrServiceUnavailable)
	}

	db, err := shared.OpenLedger(r.config.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return repositories.NewLedger(db), func() { db.Close() }, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
