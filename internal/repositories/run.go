package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/emx/internal/models"
	"github.com/desertthunder/emx/internal/shared"
)

var _ models.Repository[*models.Run] = (*RunRepository)(nil)

const runColumns = `id, kind, status, source, destination, total, succeeded, failed, error_message, started_at, completed_at`

// RunRepository implements models.Repository[*models.Run].
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run with a generated ID
func (r *RunRepository) Create(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	run.ID = shared.GenerateID()

	query := `INSERT INTO runs (` + runColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		run.ID,
		run.Kind,
		run.Status,
		run.Source,
		run.Destination,
		run.Total,
		run.Succeeded,
		run.Failed,
		run.ErrorMessage,
		run.StartedAt,
		nullTime(run.CompletedAt),
	)
	if err != nil {
		run.ID = ""
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID
func (r *RunRepository) Get(id string) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ?`
	return scanRun(r.db.QueryRow(query, id))
}

// Find retrieves a run by its full ID or a unique ID prefix
func (r *RunRepository) Find(idOrPrefix string) (*models.Run, error) {
	if idOrPrefix == "" {
		return nil, fmt.Errorf("%w: run id", shared.ErrMissingArgument)
	}

	query := `SELECT ` + runColumns + ` FROM runs WHERE substr(id, 1, ?) = ? ORDER BY started_at DESC LIMIT 2`
	runs, err := r.query(query, len(idOrPrefix), idOrPrefix)
	if err != nil {
		return nil, err
	}

	switch len(runs) {
	case 0:
		return nil, fmt.Errorf("%w: run %s", shared.ErrNotFound, idOrPrefix)
	case 1:
		return runs[0], nil
	default:
		return nil, fmt.Errorf("%w: run id prefix %q is ambiguous", shared.ErrInvalidArgument, idOrPrefix)
	}
}

// Update stores the status, totals and completion time of an existing run
func (r *RunRepository) Update(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		UPDATE runs
		SET status = ?, total = ?, succeeded = ?, failed = ?, error_message = ?, completed_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		run.Status,
		run.Total,
		run.Succeeded,
		run.Failed,
		run.ErrorMessage,
		nullTime(run.CompletedAt),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return checkAffected(result, "run", run.ID)
}

// List retrieves the most recent runs, newest first. A limit <= 0 returns all runs.
func (r *RunRepository) List(limit int) ([]*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return r.query(query, args...)
}

func (r *RunRepository) query(query string, args ...any) ([]*models.Run, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

// scanner is satisfied by both [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans a single row into a [models.Run]
func scanRun(s scanner) (*models.Run, error) {
	var (
		run         models.Run
		kind        string
		status      string
		source      sql.NullString
		destination sql.NullString
		errMsg      sql.NullString
		completedAt sql.NullTime
	)

	err := s.Scan(
		&run.ID, &kind, &status, &source, &destination,
		&run.Total, &run.Succeeded, &run.Failed, &errMsg,
		&run.StartedAt, &completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.Kind = models.RunKind(kind)
	run.Status = models.RunStatus(status)
	run.Source = source.String
	run.Destination = destination.String
	run.ErrorMessage = errMsg.String
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return &run, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
