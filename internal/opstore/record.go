// Package opstore keeps a local history of lifecycle operations.
//
// Every start/stop/restart/backup/update is recorded before it runs
// and finalized with its outcome. An operation still marked running on
// the next invocation was interrupted (Ctrl+C, crash, power loss);
// `worldctl world ops` surfaces those so the operator knows a world
// may have been left mid-transition.
//
// Storage is a SQLite database at ~/.config/worldctl/worldctl.db (or
// the platform equivalent from os.UserConfigDir).
package opstore

import "time"

// Operation outcome states.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusError   = "error"
)

// Record is one persisted lifecycle operation.
type Record struct {
	// ID is the auto-increment primary key (assigned on insert).
	ID int64

	// World is the name of the world acted upon.
	World string

	// Operation is the verb: "start", "stop", "restart", "backup",
	// "update".
	Operation string

	// Status is StatusRunning, StatusSuccess, or StatusError.
	Status string

	// Detail carries operation-specific context, such as the target
	// version of an update or the degraded-path note of a forced stop.
	Detail string

	// ErrorMessage explains the failure when Status is StatusError.
	ErrorMessage string

	// CreatedAt is when the operation was first recorded.
	CreatedAt time.Time

	// UpdatedAt is the last time the record was modified.
	UpdatedAt time.Time
}

// Repository is the persistence interface for operation records.
type Repository interface {
	// Save inserts (ID == 0, assigning an ID) or updates a record.
	Save(record *Record) error

	// ListRunning returns records still marked running, newest first.
	ListRunning() ([]Record, error)

	// ListRecent returns the most recent n records regardless of
	// status, newest first.
	ListRecent(n int) ([]Record, error)

	// DeleteOlderThan removes finished records older than d and
	// returns how many were removed.
	DeleteOlderThan(d time.Duration) (int64, error)

	// Close releases database resources.
	Close() error
}
