// ABOUTME: Persists a list view's query string so later invocations restore page, sort and filters
// ABOUTME: Adapts a Store to the view.Location interface

package store

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Location is a view.Location backed by a Store record. Errors are logged
// rather than returned since the view treats the location as best effort.
type Location struct {
	store   Store
	viewID  string
	timeout time.Duration
	logger  *slog.Logger
}

// NewLocation returns the location of viewID.
func NewLocation(s Store, viewID string) *Location {
	return &Location{
		store:   s,
		viewID:  viewID,
		timeout: 5 * time.Second,
		logger:  slog.Default().With("component", "store", "view", viewID),
	}
}

// Query returns the saved query string, or "" when none was saved.
func (l *Location) Query() string {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	rec, err := l.store.GetViewState(ctx, l.viewID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			l.logger.Warn("failed to load view state", "error", err)
		}
		return ""
	}
	return rec.Query
}

// Push saves query as the view's current state.
func (l *Location) Push(query string) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	if err := l.store.SaveViewState(ctx, &ViewRecord{ViewID: l.viewID, Query: query}); err != nil {
		l.logger.Warn("failed to save view state", "error", err)
	}
}
