// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides record persistence with automatic schema creation and WAL mode

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists (skip for in-memory databases)
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

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Wait for locks instead of failing with SQLITE_BUSY
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// SQLite allows a single writer; one connection keeps transactions
	// serialized and makes every mutation linearizable
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist.
// Records keep their implicit rowid so lists can preserve insertion order.
// Lifecycle events have no foreign key to records: the audit trail must
// survive a hard delete.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS records (
			id         TEXT PRIMARY KEY,
			deleted    INTEGER NOT NULL DEFAULT 0,
			payload    TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,

			CHECK (deleted IN (0, 1))
		);

		CREATE INDEX IF NOT EXISTS idx_records_deleted ON records(deleted);

		CREATE TABLE IF NOT EXISTS lifecycle_events (
			event_id  TEXT PRIMARY KEY,
			record_id TEXT NOT NULL,
			action    TEXT NOT NULL,
			ts        TEXT NOT NULL,

			CHECK (action IN ('created', 'soft_deleted', 'restored', 'purged'))
		);

		CREATE INDEX IF NOT EXISTS idx_lifecycle_record ON lifecycle_events(record_id, ts);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Create stores a new record with a generated UUID and Deleted=false.
func (s *SQLiteStore) Create(ctx context.Context, payload json.RawMessage) (*Record, error) {
	rec := &Record{
		ID:        uuid.New().String(),
		Deleted:   false,
		Payload:   payload,
		CreatedAt: now(),
	}
	rec.UpdatedAt = rec.CreatedAt

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO records (id, deleted, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err = tx.ExecContext(ctx, query,
		rec.ID,
		boolToInt(rec.Deleted),
		string(rec.Payload),
		rec.CreatedAt.Format(time.RFC3339),
		rec.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting record: %w", err)
	}

	if err := appendLifecycleEvent(ctx, tx, rec.ID, ActionCreated, rec.CreatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing record: %w", err)
	}

	s.logger.Debug("created record", "id", rec.ID)
	return rec, nil
}

// Get retrieves a record by ID, subject to the visibility mode.
// Returns ErrNotFound when the record is absent or filtered out by the mode.
func (s *SQLiteStore) Get(ctx context.Context, id string, mode Mode) (*Record, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, deleted, payload, created_at, updated_at
		FROM records
		WHERE id = ? AND %s
	`, mode.whereClause())

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying record: %w", err)
	}

	return rec, nil
}

// List retrieves records passing the visibility mode, in insertion order.
// If limit is 0 or negative, a default limit of 100 is used.
func (s *SQLiteStore) List(ctx context.Context, mode Mode, limit int) ([]*Record, error) {
	limit = normalizeLimit(limit)

	query := fmt.Sprintf(`
		SELECT id, deleted, payload, created_at, updated_at
		FROM records
		WHERE %s
		ORDER BY rowid ASC
		LIMIT ?
	`, mode.whereClause())

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record row: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating record rows: %w", err)
	}

	return records, nil
}

// SoftDelete marks a record deleted and returns its post-state.
// Deleting an already-deleted record succeeds and returns it unchanged,
// without appending a lifecycle event.
func (s *SQLiteStore) SoftDelete(ctx context.Context, id string) (*Record, error) {
	return s.setDeleted(ctx, id, true, ActionSoftDeleted)
}

// Restore clears the deleted flag and returns the post-state.
// Restoring an active record succeeds and returns it unchanged.
func (s *SQLiteStore) Restore(ctx context.Context, id string) (*Record, error) {
	return s.setDeleted(ctx, id, false, ActionRestored)
}

// setDeleted flips the lifecycle flag inside a single transaction so the
// flag write and the audit event land atomically. A concurrent reader sees
// either the old state or the new one, never a torn update.
func (s *SQLiteStore) setDeleted(ctx context.Context, id string, deleted bool, action LifecycleAction) (*Record, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rec, err := scanRecord(tx.QueryRowContext(ctx, `
		SELECT id, deleted, payload, created_at, updated_at
		FROM records
		WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying record: %w", err)
	}

	// Idempotent: already in the requested state
	if rec.Deleted == deleted {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("committing: %w", err)
		}
		return rec, nil
	}

	ts := now()
	_, err = tx.ExecContext(ctx, `
		UPDATE records SET deleted = ?, updated_at = ? WHERE id = ?
	`, boolToInt(deleted), ts.Format(time.RFC3339), id)
	if err != nil {
		return nil, fmt.Errorf("updating record: %w", err)
	}

	if err := appendLifecycleEvent(ctx, tx, id, action, ts); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing record update: %w", err)
	}

	rec.Deleted = deleted
	rec.UpdatedAt = ts
	s.logger.Debug("updated record lifecycle", "id", id, "action", action)
	return rec, nil
}

// HardDelete physically removes a record. The lifecycle trail is kept.
func (s *SQLiteStore) HardDelete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	if err := appendLifecycleEvent(ctx, tx, id, ActionPurged, now()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing record deletion: %w", err)
	}

	s.logger.Debug("purged record", "id", id)
	return nil
}

// ListLifecycleEvents returns a record's audit trail, oldest first.
// If limit is 0 or negative, a default limit of 100 is used.
func (s *SQLiteStore) ListLifecycleEvents(ctx context.Context, recordID string, limit int) ([]*LifecycleEvent, error) {
	if err := validateID(recordID); err != nil {
		return nil, err
	}
	limit = normalizeLimit(limit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, record_id, action, ts
		FROM lifecycle_events
		WHERE record_id = ?
		ORDER BY ts ASC, rowid ASC
		LIMIT ?
	`, recordID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying lifecycle events: %w", err)
	}
	defer rows.Close()

	var events []*LifecycleEvent
	for rows.Next() {
		var e LifecycleEvent
		var actionStr, tsStr string
		if err := rows.Scan(&e.ID, &e.RecordID, &actionStr, &tsStr); err != nil {
			return nil, fmt.Errorf("scanning lifecycle event: %w", err)
		}
		e.Action = LifecycleAction(actionStr)
		e.Timestamp, err = time.Parse(time.RFC3339, tsStr)
		if err != nil {
			return nil, fmt.Errorf("parsing event timestamp: %w", err)
		}
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lifecycle events: %w", err)
	}

	return events, nil
}

// appendLifecycleEvent inserts an audit entry within the caller's transaction.
func appendLifecycleEvent(ctx context.Context, tx *sql.Tx, recordID string, action LifecycleAction, ts time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO lifecycle_events (event_id, record_id, action, ts)
		VALUES (?, ?, ?, ?)
	`, uuid.New().String(), recordID, string(action), ts.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting lifecycle event: %w", err)
	}
	return nil
}

// scanRecord scans a row into a Record.
func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var rec Record
	var deletedInt int
	var payload, createdAtStr, updatedAtStr string

	if err := scanner.Scan(&rec.ID, &deletedInt, &payload, &createdAtStr, &updatedAtStr); err != nil {
		return nil, err
	}

	rec.Deleted = deletedInt != 0
	rec.Payload = json.RawMessage(payload)

	var err error
	rec.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	rec.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &rec, nil
}

// boolToInt converts a bool to the 0/1 representation stored in SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
