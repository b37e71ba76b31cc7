// ABOUTME: Store interface and data types for automation-console persistence
// ABOUTME: Defines saved view query strings and the history of awaited tasks

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ViewRecord is the last query string of a list view, keyed by view id
// (e.g. "eda/credentials").
type ViewRecord struct {
	ViewID    string
	Query     string
	UpdatedAt time.Time
}

// TaskRecord is one awaited server-side task and how it ended.
type TaskRecord struct {
	ID         string
	TaskID     string
	Action     string // what started the task, e.g. "delete remote community"
	State      string // terminal task state, or "timeout" / "error"
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Store persists view state and task history.
type Store interface {
	SaveViewState(ctx context.Context, rec *ViewRecord) error
	GetViewState(ctx context.Context, viewID string) (*ViewRecord, error)
	ListViewStates(ctx context.Context) ([]*ViewRecord, error)
	DeleteViewState(ctx context.Context, viewID string) error

	RecordTask(ctx context.Context, rec *TaskRecord) error
	ListTaskRecords(ctx context.Context, limit int) ([]*TaskRecord, error)

	Close() error
}
