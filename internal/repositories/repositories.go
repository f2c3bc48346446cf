// package repositories persists migration runs and their per-emoji outcomes.
package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/emx/internal/models"
	"github.com/desertthunder/emx/internal/shared"
)

// Ledger records migration runs as they happen.
type Ledger struct {
	Runs  *RunRepository
	Items *RunItemRepository
}

// NewLedger creates a [Ledger] backed by db. Migrations must already be applied.
func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{
		Runs:  NewRunRepository(db),
		Items: NewRunItemRepository(db),
	}
}

// StartRun inserts a running run and assigns its ID.
func (l *Ledger) StartRun(run *models.Run) error {
	return l.Runs.Create(run)
}

// RecordItem inserts one per-emoji outcome.
func (l *Ledger) RecordItem(item *models.RunItem) error {
	return l.Items.Create(item)
}

// FinishRun stores the final status and totals.
func (l *Ledger) FinishRun(run *models.Run) error {
	return l.Runs.Update(run)
}

// checkAffected returns an error when a write touched no rows.
func checkAffected(result sql.Result, what, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s %s", shared.ErrNotFound, what, id)
	}
	return nil
}
