// ABOUTME: Package documentation for the shelf store
// ABOUTME: Describes backends, visibility modes, and error conventions

// Package store provides persistent storage for records with soft-delete
// semantics.
//
// # Architecture
//
// A single Store interface with two implementations:
//
//   - SQLiteStore: durable backend using modernc.org/sqlite
//   - MemoryStore: map-backed store for tests and ephemeral deployments
//
// Soft-deleting a record flips its lifecycle flag; the row stays in place
// until an explicit HardDelete. Every read takes an explicit visibility Mode
// rather than toggling shared filter state, so one caller's view of deleted
// records can never leak into another's.
//
// # Visibility Modes
//
//   - ActiveOnly (default): hides soft-deleted records
//   - IncludeDeleted: returns everything
//   - DeletedOnly: the trash view
//
// A record filtered out by the mode is reported as ErrNotFound, identical to
// a record that never existed.
//
// # SQLite Configuration
//
// The SQLite backend uses WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Lifecycle flag changes and their audit events are committed in a single
// transaction. Timestamps are stored as RFC3339 text at second precision.
//
// # Error Handling
//
//   - ErrNotFound: record does not exist or is hidden by the mode
//   - ErrInvalidID: malformed (non-UUID) record ID
//
// Any other error is a wrapped storage fault; callers should treat it as the
// backend being unavailable. All methods accept context.Context.
//
// # Testing
//
// Use NewMemoryStore() for unit tests and NewSQLiteStore(":memory:") for
// integration tests with real SQLite.
package store
