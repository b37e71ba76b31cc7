// ABOUTME: Task Poller waiting for asynchronous hub tasks to reach a terminal state
// ABOUTME: Poll retries and network retries are budgeted separately

package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/2389/automation-console/internal/api"
)

// State is the lifecycle state of a task.
type State string

const (
	StateWaiting   State = "waiting"
	StateRunning   State = "running"
	StateCanceling State = "canceling"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateSkipped   State = "skipped"
	StateCanceled  State = "canceled"
)

// Terminal reports whether no further transitions will happen.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateSkipped, StateCanceled:
		return true
	}
	return false
}

// Task is a server-side asynchronous unit of work.
type Task struct {
	ID       string     `json:"-"`
	Href     string     `json:"pulp_href"`
	Name     string     `json:"name"`
	State    State      `json:"state"`
	Error    *TaskError `json:"error"`
	Started  *time.Time `json:"started_at"`
	Finished *time.Time `json:"finished_at"`
}

// TaskError is the failure detail of a failed task.
type TaskError struct {
	Description string `json:"description"`
}

// Description returns the server supplied failure description, or "".
func (t *Task) Description() string {
	if t == nil || t.Error == nil {
		return ""
	}
	return t.Error.Description
}

var (
	// ErrTimeout is returned when the poll budget runs out before the task
	// reaches a terminal state.
	ErrTimeout = errors.New("task did not finish in time")

	// ErrFailed matches every *FailedError.
	ErrFailed = errors.New("task failed")
)

// FailedError is returned when a task ends in the failed state.
type FailedError struct {
	ID          string
	Description string
}

func (e *FailedError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("task %s failed", e.ID)
	}
	return fmt.Sprintf("task %s failed: %s", e.ID, e.Description)
}

func (e *FailedError) Is(target error) bool {
	return target == ErrFailed
}

// Default budgets.
const (
	DefaultPollDelay         = 100 * time.Millisecond
	DefaultMaxRetries        = 10
	DefaultMaxNetworkRetries = 3
)

// Getter fetches and decodes a JSON resource. *api.Client satisfies it.
type Getter interface {
	Get(ctx context.Context, path string, out any) error
}

// Options configures a Poller.
type Options struct {
	PollDelay         time.Duration
	MaxRetries        int // polls that may see a non-terminal state
	MaxNetworkRetries int // failed polls that are retried; 0 disables retrying
	Logger            *slog.Logger
}

// Poller waits for tasks on one hub server.
type Poller struct {
	getter            Getter
	paths             api.Paths
	delay             time.Duration
	maxRetries        int
	maxNetworkRetries int
	logger            *slog.Logger
}

// NewPoller creates a Poller. Zero PollDelay and MaxRetries take the
// defaults; MaxNetworkRetries is used as given.
func NewPoller(getter Getter, paths api.Paths, opts Options) *Poller {
	p := &Poller{
		getter:            getter,
		paths:             paths,
		delay:             opts.PollDelay,
		maxRetries:        opts.MaxRetries,
		maxNetworkRetries: opts.MaxNetworkRetries,
		logger:            opts.Logger,
	}
	if p.delay <= 0 {
		p.delay = DefaultPollDelay
	}
	if p.maxRetries <= 0 {
		p.maxRetries = DefaultMaxRetries
	}
	if p.maxNetworkRetries < 0 {
		p.maxNetworkRetries = 0
	}
	if p.logger == nil {
		p.logger = slog.Default().With("component", "task")
	}
	return p
}

// Wait polls task id until it reaches a terminal state.
//
// A completed, skipped or canceled task is returned without error; callers
// inspect State. A failed task is returned with a *FailedError. ErrTimeout is
// returned once MaxRetries polls have seen the task unfinished. Network
// errors and 5xx replies are retried up to MaxNetworkRetries times without
// spending a poll; other HTTP errors end the wait immediately.
func (p *Poller) Wait(ctx context.Context, id string) (*Task, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty task id", api.ErrInvalidInput)
	}
	// uuid.Parse also accepts braced, urn: and bare hex forms; only the
	// hyphenated form is a valid path segment for the tasks endpoint.
	if _, err := uuid.Parse(id); err != nil || len(id) != 36 {
		return nil, fmt.Errorf("%w: task id %q is not a UUID", api.ErrInvalidInput, id)
	}

	path := p.paths.Pulp("/tasks/{}/", id)
	retries := p.maxRetries
	networkRetries := p.maxNetworkRetries

	for {
		var t Task
		err := p.getter.Get(ctx, path, &t)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if !api.IsTransient(err) || networkRetries == 0 {
				return nil, fmt.Errorf("polling task %s: %w", id, err)
			}
			networkRetries--
			p.logger.Warn("task poll failed, retrying", "task", id, "error", err, "network_retries_left", networkRetries)
			if err := sleep(ctx, p.delay); err != nil {
				return nil, err
			}
			continue
		}
		t.ID = id

		switch t.State {
		case StateFailed:
			return &t, &FailedError{ID: id, Description: t.Description()}
		case StateCompleted, StateSkipped, StateCanceled:
			p.logger.Debug("task finished", "task", id, "state", t.State)
			return &t, nil
		}

		retries--
		if retries <= 0 {
			return &t, fmt.Errorf("task %s still %s: %w", id, t.State, ErrTimeout)
		}
		if err := sleep(ctx, p.delay); err != nil {
			return nil, err
		}
	}
}

// WaitHref waits for the task referenced by a deferred reply.
func (p *Poller) WaitHref(ctx context.Context, href string) (*Task, error) {
	return p.Wait(ctx, TaskRef(href))
}

// TaskRef extracts the task id from the {"task": ...} value of a 202 reply,
// which is either a task href or a bare id.
func TaskRef(href string) string {
	if id := api.ParsePulpIDFromURL(href); id != "" {
		return id
	}
	return href
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
