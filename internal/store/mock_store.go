// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu    sync.RWMutex
	views map[string]*ViewRecord // keyed by view ID
	tasks []*TaskRecord
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		views: make(map[string]*ViewRecord),
	}
}

// SaveViewState inserts or replaces a view's query string.
func (m *MockStore) SaveViewState(ctx context.Context, rec *ViewRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	stored := *rec
	m.views[rec.ViewID] = &stored
	return nil
}

// GetViewState retrieves a view's query string.
func (m *MockStore) GetViewState(ctx context.Context, viewID string) (*ViewRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.views[viewID]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy
	result := *rec
	return &result, nil
}

// ListViewStates returns every saved view ordered by view id.
func (m *MockStore) ListViewStates(ctx context.Context) ([]*ViewRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*ViewRecord, 0, len(m.views))
	for _, rec := range m.views {
		c := *rec
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ViewID < result[j].ViewID
	})
	return result, nil
}

// DeleteViewState forgets a view.
func (m *MockStore) DeleteViewState(ctx context.Context, viewID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.views[viewID]; !ok {
		return ErrNotFound
	}
	delete(m.views, viewID)
	return nil
}

// RecordTask appends a task record.
func (m *MockStore) RecordTask(ctx context.Context, rec *TaskRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if rec.StartedAt.IsZero() {
		rec.StartedAt = now
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = now
	}
	stored := *rec
	m.tasks = append(m.tasks, &stored)
	return nil
}

// ListTaskRecords returns the most recently finished records first.
func (m *MockStore) ListTaskRecords(ctx context.Context, limit int) ([]*TaskRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*TaskRecord, 0, len(m.tasks))
	for _, rec := range m.tasks {
		c := *rec
		result = append(result, &c)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].FinishedAt.After(result[j].FinishedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}
