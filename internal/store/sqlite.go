// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides view state and task history persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// timeFormat is fixed width so stored timestamps sort lexically
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Debug("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS view_states (
			view_id    TEXT PRIMARY KEY,
			query      TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS task_runs (
			id          TEXT PRIMARY KEY,
			task_id     TEXT NOT NULL,
			action      TEXT NOT NULL,
			state       TEXT NOT NULL,
			started_at  TEXT NOT NULL,
			finished_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_task_runs_finished ON task_runs(finished_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// runMigrations applies schema migrations for existing databases.
// These are idempotent - safe to run multiple times.
func (s *SQLiteStore) runMigrations() error {
	// SQLite doesn't support ADD COLUMN IF NOT EXISTS, so we check first
	migrations := []struct {
		check  string // Query to check if migration is needed
		apply  string // Query to apply the migration
		table  string
		column string
	}{
		{
			check:  `SELECT 1 FROM pragma_table_info('task_runs') WHERE name = 'error'`,
			apply:  `ALTER TABLE task_runs ADD COLUMN error TEXT`,
			table:  "task_runs",
			column: "error",
		},
	}

	for _, m := range migrations {
		var exists int
		err := s.db.QueryRow(m.check).Scan(&exists)
		if err == nil {
			continue
		}
		if _, err := s.db.Exec(m.apply); err != nil {
			return fmt.Errorf("adding %s column to %s: %w", m.column, m.table, err)
		}
		s.logger.Debug("applied migration", "column", m.column, "table", m.table)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveViewState inserts or replaces the query string of a view.
// A zero UpdatedAt is set to the current time.
func (s *SQLiteStore) SaveViewState(ctx context.Context, rec *ViewRecord) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO view_states (view_id, query, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(view_id) DO UPDATE SET
			query = excluded.query,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ViewID,
		rec.Query,
		rec.UpdatedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("saving view state: %w", err)
	}

	s.logger.Debug("saved view state", "view", rec.ViewID, "query", rec.Query)
	return nil
}

// GetViewState retrieves the saved query string of a view.
// Returns ErrNotFound if the view has never been saved.
func (s *SQLiteStore) GetViewState(ctx context.Context, viewID string) (*ViewRecord, error) {
	query := `
		SELECT view_id, query, updated_at
		FROM view_states
		WHERE view_id = ?
	`

	var rec ViewRecord
	var updatedAtStr string
	err := s.db.QueryRowContext(ctx, query, viewID).Scan(&rec.ViewID, &rec.Query, &updatedAtStr)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying view state: %w", err)
	}

	rec.UpdatedAt, err = time.Parse(timeFormat, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &rec, nil
}

// ListViewStates returns every saved view ordered by view id.
func (s *SQLiteStore) ListViewStates(ctx context.Context) ([]*ViewRecord, error) {
	query := `
		SELECT view_id, query, updated_at
		FROM view_states
		ORDER BY view_id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying view states: %w", err)
	}
	defer rows.Close()

	var records []*ViewRecord
	for rows.Next() {
		var rec ViewRecord
		var updatedAtStr string
		if err := rows.Scan(&rec.ViewID, &rec.Query, &updatedAtStr); err != nil {
			return nil, fmt.Errorf("scanning view state: %w", err)
		}
		rec.UpdatedAt, err = time.Parse(timeFormat, updatedAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing updated_at: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating view states: %w", err)
	}
	return records, nil
}

// DeleteViewState forgets a view's saved state.
// Returns ErrNotFound if the view has never been saved.
func (s *SQLiteStore) DeleteViewState(ctx context.Context, viewID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM view_states WHERE view_id = ?`, viewID)
	if err != nil {
		return fmt.Errorf("deleting view state: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted view state", "view", viewID)
	return nil
}

// RecordTask stores the outcome of an awaited task. An empty ID is
// generated; zero times are set to the current time.
func (s *SQLiteStore) RecordTask(ctx context.Context, rec *TaskRecord) error {
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

	query := `
		INSERT INTO task_runs (id, task_id, action, state, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.TaskID,
		rec.Action,
		rec.State,
		nullString(rec.Error),
		rec.StartedAt.UTC().Format(timeFormat),
		rec.FinishedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting task record: %w", err)
	}

	s.logger.Debug("recorded task", "task", rec.TaskID, "state", rec.State)
	return nil
}

// nullString converts empty strings to NULL for database storage
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// ListTaskRecords returns the most recently finished task records first.
// A limit <= 0 returns all records.
func (s *SQLiteStore) ListTaskRecords(ctx context.Context, limit int) ([]*TaskRecord, error) {
	query := `
		SELECT id, task_id, action, state, error, started_at, finished_at
		FROM task_runs
		ORDER BY finished_at DESC, id
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying task records: %w", err)
	}
	defer rows.Close()

	var records []*TaskRecord
	for rows.Next() {
		var rec TaskRecord
		var errText sql.NullString
		var startedAtStr, finishedAtStr string
		if err := rows.Scan(&rec.ID, &rec.TaskID, &rec.Action, &rec.State, &errText, &startedAtStr, &finishedAtStr); err != nil {
			return nil, fmt.Errorf("scanning task record: %w", err)
		}
		rec.Error = errText.String

		rec.StartedAt, err = time.Parse(timeFormat, startedAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing started_at: %w", err)
		}
		rec.FinishedAt, err = time.Parse(timeFormat, finishedAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing finished_at: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating task records: %w", err)
	}
	return records, nil
}
