// ABOUTME: Tests for the SQLite and mock stores
// ABOUTME: Both implementations run the same behavioral checks

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/automation-console/internal/view"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"sqlite": setupTestStore(t),
		"mock":   NewMockStore(),
	}
}

func TestStore_ViewState(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.GetViewState(ctx, "eda/users")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.SaveViewState(ctx, &ViewRecord{ViewID: "eda/users", Query: "page=2&perPage=10"}))
			require.NoError(t, s.SaveViewState(ctx, &ViewRecord{ViewID: "eda/users", Query: "page=3&perPage=10"}))
			require.NoError(t, s.SaveViewState(ctx, &ViewRecord{ViewID: "hub/remotes", Query: "page=1&perPage=20"}))

			rec, err := s.GetViewState(ctx, "eda/users")
			require.NoError(t, err)
			assert.Equal(t, "page=3&perPage=10", rec.Query)
			assert.False(t, rec.UpdatedAt.IsZero())

			all, err := s.ListViewStates(ctx)
			require.NoError(t, err)
			require.Len(t, all, 2)
			assert.Equal(t, "eda/users", all[0].ViewID)
			assert.Equal(t, "hub/remotes", all[1].ViewID)

			require.NoError(t, s.DeleteViewState(ctx, "eda/users"))
			assert.ErrorIs(t, s.DeleteViewState(ctx, "eda/users"), ErrNotFound)
			_, err = s.GetViewState(ctx, "eda/users")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_TaskRecords(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

			for i, state := range []string{"completed", "failed", "timeout"} {
				rec := &TaskRecord{
					TaskID:     "0187a4f1-1bd1-7c2e-b3c4-5d6e7f809a1b",
					Action:     "delete remote r" + state,
					State:      state,
					StartedAt:  base.Add(time.Duration(i) * time.Minute),
					FinishedAt: base.Add(time.Duration(i)*time.Minute + 500*time.Millisecond),
				}
				if state == "failed" {
					rec.Error = "disk full"
				}
				require.NoError(t, s.RecordTask(ctx, rec))
				assert.NotEmpty(t, rec.ID)
			}

			records, err := s.ListTaskRecords(ctx, 0)
			require.NoError(t, err)
			require.Len(t, records, 3)
			assert.Equal(t, "timeout", records[0].State, "most recent first")
			assert.Equal(t, "disk full", records[1].Error)
			assert.Equal(t, "", records[2].Error)
			assert.True(t, records[2].FinishedAt.Equal(base.Add(500*time.Millisecond)))

			limited, err := s.ListTaskRecords(ctx, 1)
			require.NoError(t, err)
			assert.Len(t, limited, 1)
		})
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "console.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveViewState(ctx, &ViewRecord{ViewID: "v", Query: "page=4&perPage=10"}))
	require.NoError(t, s.Close())

	// Schema creation and migrations are idempotent
	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	rec, err := s.GetViewState(ctx, "v")
	require.NoError(t, err)
	assert.Equal(t, "page=4&perPage=10", rec.Query)
}

func TestLocation_RestoresViewStore(t *testing.T) {
	s := setupTestStore(t)

	first := view.NewStore(view.Options{Location: NewLocation(s, "eda/credentials")})
	first.SetPage(3)
	first.SetSort("name", view.Desc)

	// A later invocation of the same view starts where the first left off
	second := view.NewStore(view.Options{Location: NewLocation(s, "eda/credentials")})
	st := second.State()
	assert.Equal(t, 3, st.Page)
	assert.Equal(t, "name", st.Sort)
	assert.Equal(t, view.Desc, st.SortDirection)

	other := view.NewStore(view.Options{Location: NewLocation(s, "eda/users")})
	assert.Equal(t, 1, other.State().Page)
}

func TestLocation_EmptyWhenUnsaved(t *testing.T) {
	loc := NewLocation(NewMockStore(), "nothing")
	assert.Equal(t, "", loc.Query())

	loc.Push("page=2&perPage=10")
	assert.Equal(t, "page=2&perPage=10", loc.Query())
}
