// Package store provides persistent storage for the console using SQLite.
//
// Two kinds of records are kept:
//
//   - ViewRecord: the last query string of each list view, so a later
//     invocation restores its page, page size, sort and filters
//   - TaskRecord: the outcome of every awaited server-side task
//
// SQLiteStore implements Store with modernc.org/sqlite in WAL mode. Location
// adapts a Store to view.Location for one view id.
//
// Database file locations:
//
//   - Default: ~/.local/share/automation-console/console.db
//   - Testing: t.TempDir() or :memory:
//
// # Error Handling
//
// ErrNotFound is returned when a view has no saved state. All methods accept
// context.Context for cancellation support.
//
// # Testing
//
// Use NewMockStore() for unit tests that do not need SQLite.
package store
