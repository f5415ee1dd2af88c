// Package state records the history of script runs in SQLite.
// Each run stores its collection, iteration method and outcome, plus one
// row per visited entry in iteration order.
package state

import (
	"context"
	"time"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// Run is one iteration of a script over a collection.
type Run struct {
	ID          string     `json:"id"`
	Collection  string     `json:"collection"`
	Method      string     `json:"method"`
	Script      string     `json:"script"`
	Env         string     `json:"env"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	Entries     int        `json:"entries"`
	Skipped     int        `json:"skipped"`
}

// Duration returns how long the run took, or zero while it is running.
func (r *Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// EntryResult is the outcome of the worker for a single entry.
type EntryResult struct {
	Position int    `json:"position"`
	Key      string `json:"key"`
	Value    any    `json:"value,omitempty"`
	Skipped  bool   `json:"skipped,omitempty"`
}

// Store persists run history.
type Store interface {
	CreateRun(ctx context.Context, run *Run) error
	RecordResult(ctx context.Context, runID string, result EntryResult) error
	CompleteRun(ctx context.Context, id string, status RunStatus, errMsg string) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]*Run, error)
	ListCollectionRuns(ctx context.Context, collection string, limit int) ([]*Run, error)
	ListCollections(ctx context.Context) ([]string, error)
	GetResults(ctx context.Context, runID string) ([]EntryResult, error)
	Close() error
}
