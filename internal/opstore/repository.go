package opstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const (
	appDir = "worldctl"
	dbFile = "worldctl.db"
)

// pathOverride, when non-empty, replaces the default database path.
// Intended for testing. Use SetPath / ResetPath to manage.
var pathOverride string

// SetPath overrides the database path. Intended for testing.
func SetPath(p string) { pathOverride = p }

// ResetPath clears the path override. Intended for testing.
func ResetPath() { pathOverride = "" }

// SQLiteRepository implements Repository backed by a local SQLite
// database.
type SQLiteRepository struct {
	db *sql.DB
}

// DefaultPath returns the default database path.
func DefaultPath() (string, error) {
	if pathOverride != "" {
		return pathOverride, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("ops: unable to determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, dbFile), nil
}

// Open creates or opens the operation repository at the default path.
func Open() (*SQLiteRepository, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return OpenAt(path)
}

// OpenAt creates or opens a SQLite database at the given path,
// creating the parent directory if needed.
func OpenAt(path string) (*SQLiteRepository, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ops: failed to create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("ops: failed to open database: %w", err)
	}

	r := &SQLiteRepository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return r, nil
}

func (r *SQLiteRepository) migrate() error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS operations (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			world         TEXT    NOT NULL,
			operation     TEXT    NOT NULL,
			status        TEXT    NOT NULL DEFAULT 'running',
			detail        TEXT    NOT NULL DEFAULT '',
			error_message TEXT    NOT NULL DEFAULT '',
			created_at    TEXT    NOT NULL DEFAULT (datetime('now')),
			updated_at    TEXT    NOT NULL DEFAULT (datetime('now'))
		);
		CREATE INDEX IF NOT EXISTS idx_operations_status ON operations(status);
	`
	if _, err := r.db.Exec(ddl); err != nil {
		return fmt.Errorf("ops: migration failed: %w", err)
	}
	return nil
}

// Save inserts a new record (ID == 0) or updates an existing one.
func (r *SQLiteRepository) Save(record *Record) error {
	record.UpdatedAt = time.Now().UTC()

	if record.ID == 0 {
		if record.CreatedAt.IsZero() {
			record.CreatedAt = record.UpdatedAt
		}
		if record.Status == "" {
			record.Status = StatusRunning
		}
		result, err := r.db.Exec(`
			INSERT INTO operations (world, operation, status, detail, error_message, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			record.World, record.Operation, record.Status, record.Detail, record.ErrorMessage,
			record.CreatedAt.Format(time.RFC3339Nano), record.UpdatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("ops: insert failed: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("ops: failed to get last insert ID: %w", err)
		}
		record.ID = id
		return nil
	}

	result, err := r.db.Exec(`
		UPDATE operations SET world=?, operation=?, status=?, detail=?, error_message=?, updated_at=?
		WHERE id=?`,
		record.World, record.Operation, record.Status, record.Detail, record.ErrorMessage,
		record.UpdatedAt.Format(time.RFC3339Nano), record.ID,
	)
	if err != nil {
		return fmt.Errorf("ops: update failed: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("ops: operation with ID %d not found", record.ID)
	}
	return nil
}

// ListRunning returns records still marked running, newest first.
func (r *SQLiteRepository) ListRunning() ([]Record, error) {
	rows, err := r.db.Query(`
		SELECT id, world, operation, status, detail, error_message, created_at, updated_at
		FROM operations WHERE status = 'running' ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("ops: query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// ListRecent returns the most recent n records regardless of status.
func (r *SQLiteRepository) ListRecent(n int) ([]Record, error) {
	rows, err := r.db.Query(`
		SELECT id, world, operation, status, detail, error_message, created_at, updated_at
		FROM operations ORDER BY created_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("ops: query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// DeleteOlderThan removes finished records older than d.
func (r *SQLiteRepository) DeleteOlderThan(d time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-d).Format(time.RFC3339Nano)
	result, err := r.db.Exec(`
		DELETE FROM operations WHERE status != 'running' AND updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("ops: delete failed: %w", err)
	}
	return result.RowsAffected()
}

// Close releases database resources.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func scanRows(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var record Record
		var createdStr, updatedStr string
		if err := rows.Scan(
			&record.ID, &record.World, &record.Operation, &record.Status,
			&record.Detail, &record.ErrorMessage, &createdStr, &updatedStr,
		); err != nil {
			return nil, fmt.Errorf("ops: scan failed: %w", err)
		}
		record.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		record.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedStr)
		records = append(records, record)
	}
	return records, rows.Err()
}
