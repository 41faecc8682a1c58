// ABOUTME: Store interface, Record model, and visibility modes for shelf persistence
// ABOUTME: Defines the lifecycle-flag semantics shared by the SQLite and memory backends

package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested record does not exist, or exists
// but is filtered out by the requested visibility mode. The two cases are
// deliberately indistinguishable so deletion state does not leak to callers
// that asked for active records only.
var ErrNotFound = errors.New("not found")

// ErrInvalidID is returned when a record ID is empty or not a valid UUID.
var ErrInvalidID = errors.New("invalid record id")

// Record is a stored data item with a soft-delete lifecycle flag.
// The payload is an opaque JSON document; the store never inspects it.
type Record struct {
	ID        string
	Deleted   bool
	Payload   json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Mode selects which records a read operation can see.
type Mode int

const (
	// ActiveOnly hides soft-deleted records. This is the default: the zero
	// value and any unrecognized mode behave as ActiveOnly.
	ActiveOnly Mode = iota
	// IncludeDeleted returns every record regardless of lifecycle state.
	IncludeDeleted
	// DeletedOnly returns only soft-deleted records (the trash view).
	DeletedOnly
)

// String returns the mode name for logging.
func (m Mode) String() string {
	switch m {
	case IncludeDeleted:
		return "include_deleted"
	case DeletedOnly:
		return "deleted_only"
	default:
		return "active_only"
	}
}

// Visible reports whether a record passes the filter for this mode.
// The same predicate governs single-record gets and bulk lists.
func (m Mode) Visible(r *Record) bool {
	switch m {
	case IncludeDeleted:
		return true
	case DeletedOnly:
		return r.Deleted
	default:
		return !r.Deleted
	}
}

// whereClause returns the SQL predicate enforcing this mode, so the SQLite
// backend filters in the engine while Visible serves the memory backend.
// Both must agree for every record and mode.
func (m Mode) whereClause() string {
	switch m {
	case IncludeDeleted:
		return "1 = 1"
	case DeletedOnly:
		return "deleted = 1"
	default:
		return "deleted = 0"
	}
}

// Store defines the interface for record persistence with soft-delete
// semantics. Soft-deleting never removes a row; only HardDelete does.
// SoftDelete and Restore are idempotent: repeating them returns the record
// unchanged rather than an error.
type Store interface {
	// Create stores a new record with a generated ID and Deleted=false.
	Create(ctx context.Context, payload json.RawMessage) (*Record, error)

	// Get returns the record only if it passes the visibility mode.
	// Returns ErrNotFound otherwise, even if the record physically exists.
	Get(ctx context.Context, id string, mode Mode) (*Record, error)

	// List returns records passing the mode, in insertion order.
	// If limit is 0 or negative, a default limit of 100 is used.
	List(ctx context.Context, mode Mode, limit int) ([]*Record, error)

	// SoftDelete marks the record deleted and returns its post-state.
	// Returns ErrNotFound only if no record with the ID exists at all.
	SoftDelete(ctx context.Context, id string) (*Record, error)

	// Restore clears the deleted flag and returns the post-state.
	Restore(ctx context.Context, id string) (*Record, error)

	// HardDelete physically removes the record. Irreversible.
	HardDelete(ctx context.Context, id string) error

	// ListLifecycleEvents returns the audit trail for a record, oldest
	// first. The trail outlives the record after a hard delete.
	ListLifecycleEvents(ctx context.Context, recordID string, limit int) ([]*LifecycleEvent, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// validateID checks that an ID is a well-formed UUID before it reaches the
// backend, so malformed input fails with ErrInvalidID rather than a silent
// not-found.
func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

// normalizeLimit applies the default (100) and cap (1000) to list limits.
func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return 100
	case limit > 1000:
		return 1000
	default:
		return limit
	}
}

// now returns the current UTC time at second precision, matching the RFC3339
// resolution used by the SQLite backend so both backends stamp identically.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
