package models

import (
	"fmt"
	"time"
)

// RunKind names the orchestrator operation a [Run] records.
type RunKind string

const (
	RunKindList     RunKind = "list"
	RunKindDownload RunKind = "download"
	RunKindUpload   RunKind = "upload"
	RunKindExport   RunKind = "export"
)

// RunStatus is the lifecycle state of a [Run].
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run records one invocation of a migration step.
type Run struct {
	ID           string
	Kind         RunKind
	Status       RunStatus
	Source       string // Source list file or directory
	Destination  string // Destination directory or workspace
	Total        int
	Succeeded    int
	Failed       int
	ErrorMessage string
	StartedAt    time.Time
	CompletedAt  *time.Time
}

// NewRun creates a running [Run] started now. The ID is assigned on insert.
func NewRun(kind RunKind, source, destination string) *Run {
	return &Run{
		Kind:        kind,
		Status:      RunStatusRunning,
		Source:      source,
		Destination: destination,
		StartedAt:   time.Now().UTC(),
	}
}

func (r *Run) Key() string { return r.ID }

// Validate checks the kind, status and counters.
func (r *Run) Validate() error {
	switch r.Kind {
	case RunKindList, RunKindDownload, RunKindUpload, RunKindExport:
	default:
		return fmt.Errorf("invalid run kind %q", r.Kind)
	}
	switch r.Status {
	case RunStatusRunning, RunStatusCompleted, RunStatusFailed:
	default:
		return fmt.Errorf("invalid run status %q", r.Status)
	}
	if r.Total < 0 || r.Succeeded < 0 || r.Failed < 0 {
		return fmt.Errorf("run counters cannot be negative")
	}
	if r.StartedAt.IsZero() {
		return fmt.Errorf("run start time is required")
	}
	return nil
}

// Complete marks the run finished with the given counts. A non-nil err marks it failed.
func (r *Run) Complete(total, succeeded, failed int, err error) {
	now := time.Now().UTC()
	r.Total, r.Succeeded, r.Failed = total, succeeded, failed
	r.CompletedAt = &now
	r.Status = RunStatusCompleted
	if err != nil {
		r.Status = RunStatusFailed
		r.ErrorMessage = err.Error()
	}
}

// Duration returns how long the run took, or how long it has been running.
func (r *Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return time.Since(r.StartedAt)
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Stage identifies the pipeline step a [RunItem] belongs to.
type Stage string

const (
	StageDownload Stage = "download"
	StageUpload   Stage = "upload"
)

// Outcome is the final state of a single emoji in a stage.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// RunItem records the outcome of one emoji within a [Run].
type RunItem struct {
	ID           string
	RunID        string
	Name         string
	Stage        Stage
	Outcome      Outcome
	Attempts     int
	FilePath     string
	ErrorMessage string
	CreatedAt    time.Time
}

func (i *RunItem) Key() string { return i.ID }

// Validate checks the required fields.
func (i *RunItem) Validate() error {
	switch {
	case i.RunID == "":
		return fmt.Errorf("run item requires a run id")
	case i.Name == "":
		return fmt.Errorf("run item requires an emoji name")
	case i.Stage != StageDownload && i.Stage != StageUpload:
		return fmt.Errorf("invalid run item stage %q", i.Stage)
	case i.Outcome != OutcomeSucceeded && i.Outcome != OutcomeFailed:
		return fmt.Errorf("invalid run item outcome %q", i.Outcome)
	}
	return nil
}
