package runlog

import (
	"context"
	"time"
)

// Status is the lifecycle state of an extraction run.
type Status string

const (
	// StatusRunning indicates the run is still in progress.
	StatusRunning Status = "running"
	// StatusCompleted indicates the run finished normally (including by
	// exhausting its model call budget).
	StatusCompleted Status = "completed"
	// StatusFailed indicates the run aborted, e.g. the mailbox listing failed.
	StatusFailed Status = "failed"
)

// Run is the record of one extraction run. Runs are synchronous; this record
// exists purely as history for the read endpoints.
type Run struct {
	// RunID is the unique identifier for this run.
	RunID string `json:"run_id"`

	// Status is the current lifecycle state.
	Status Status `json:"status"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run ended (success or failure).
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Listed is how many messages the mailbox listing returned.
	Listed int `json:"listed"`

	// CallsUsed is how many model calls the run consumed.
	CallsUsed int `json:"calls_used"`

	// Saved is how many transaction records were persisted.
	Saved int `json:"saved"`

	// Error contains failure details when Status is failed.
	Error string `json:"error,omitempty"`
}

// Filter defines criteria for listing runs.
type Filter struct {
	// Status filters runs by lifecycle state.
	Status Status

	// Limit caps the number of results (0 = no cap).
	Limit int
}

// Store records run history.
type Store interface {
	// SaveRun saves or updates a run record.
	SaveRun(ctx context.Context, run *Run) error

	// GetRun retrieves a run by id.
	GetRun(ctx context.Context, runID string) (*Run, error)

	// ListRuns retrieves runs, newest first, with optional filtering.
	ListRuns(ctx context.Context, filter Filter) ([]*Run, error)
}
