package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/emx/internal/models"
	"github.com/desertthunder/emx/internal/shared"
)

const runItemColumns = `id, run_id, name, stage, outcome, attempts, file_path, error_message, created_at`

// RunItemRepository stores the per-emoji outcomes of runs.
type RunItemRepository struct {
	db *sql.DB
}

// NewRunItemRepository creates a new RunItemRepository with the given database connection
func NewRunItemRepository(db *sql.DB) *RunItemRepository {
	return &RunItemRepository{db: db}
}

// Create inserts a new item with a generated ID
func (r *RunItemRepository) Create(item *models.RunItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	item.ID = shared.GenerateID()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO run_items (` + runItemColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		item.ID,
		item.RunID,
		item.Name,
		item.Stage,
		item.Outcome,
		item.Attempts,
		item.FilePath,
		item.ErrorMessage,
		item.CreatedAt,
	)
	if err != nil {
		item.ID = ""
		return fmt.Errorf("failed to insert run item: %w", err)
	}
	return nil
}

// Get retrieves an item by ID
func (r *RunItemRepository) Get(id string) (*models.RunItem, error) {
	query := `SELECT ` + runItemColumns + ` FROM run_items WHERE id = ?`
	return scanRunItem(r.db.QueryRow(query, id))
}

// ListByRun retrieves every item of a run in insertion order
func (r *RunItemRepository) ListByRun(runID string) ([]*models.RunItem, error) {
	query := `SELECT ` + runItemColumns + ` FROM run_items WHERE run_id = ? ORDER BY rowid ASC`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run items: %w", err)
	}
	defer rows.Close()

	var items []*models.RunItem
	for rows.Next() {
		item, err := scanRunItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

// CountByOutcome returns how many items of a run ended in each outcome
func (r *RunItemRepository) CountByOutcome(runID string) (map[models.Outcome]int, error) {
	rows, err := r.db.Query(`SELECT outcome, COUNT(*) FROM run_items WHERE run_id = ? GROUP BY outcome`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to count run items: %w", err)
	}
	defer rows.Close()

	counts := map[models.Outcome]int{}
	for rows.Next() {
		var (
			outcome string
			n       int
		)
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[models.Outcome(outcome)] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return counts, nil
}

// scanRunItem scans a single row into a [models.RunItem]
func scanRunItem(s scanner) (*models.RunItem, error) {
	var (
		item     models.RunItem
		stage    string
		outcome  string
		filePath sql.NullString
		errMsg   sql.NullString
	)

	err := s.Scan(&item.ID, &item.RunID, &item.Name, &stage, &outcome, &item.Attempts, &filePath, &errMsg, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run item", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run item: %w", err)
	}

	item.Stage = models.Stage(stage)
	item.Outcome = models.Outcome(outcome)
	item.FilePath = filePath.String
	item.ErrorMessage = errMsg.String
	return &item, nil
}
