// ABOUTME: In-memory Store implementation backed by maps and a RWMutex
// ABOUTME: Used for tests and ephemeral deployments where no database file is wanted

package store

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store implementation. A store-wide mutex makes
// every operation linearizable: a soft-delete and a concurrent get never
// interleave to produce a torn read.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record           // keyed by record ID
	order   []string                     // record IDs in insertion order
	events  map[string][]*LifecycleEvent // keyed by record ID; survives purge
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
		events:  make(map[string][]*LifecycleEvent),
	}
}

// Create stores a new record with a generated UUID and Deleted=false.
func (m *MemoryStore) Create(ctx context.Context, payload json.RawMessage) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := &Record{
		ID:        uuid.New().String(),
		Deleted:   false,
		Payload:   slices.Clone(payload),
		CreatedAt: now(),
	}
	rec.UpdatedAt = rec.CreatedAt

	m.records[rec.ID] = rec
	m.order = append(m.order, rec.ID)
	m.appendEvent(rec.ID, ActionCreated)

	result := copyRecord(rec)
	return result, nil
}

// Get retrieves a record by ID, subject to the visibility mode.
func (m *MemoryStore) Get(ctx context.Context, id string, mode Mode) (*Record, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok || !mode.Visible(rec) {
		return nil, ErrNotFound
	}

	return copyRecord(rec), nil
}

// List retrieves records passing the visibility mode, in insertion order.
func (m *MemoryStore) List(ctx context.Context, mode Mode, limit int) ([]*Record, error) {
	limit = normalizeLimit(limit)

	m.mu.RLock()
	defer m.mu.RUnlock()

	var records []*Record
	for _, id := range m.order {
		rec, ok := m.records[id]
		if !ok || !mode.Visible(rec) {
			continue
		}
		records = append(records, copyRecord(rec))
		if len(records) == limit {
			break
		}
	}

	return records, nil
}

// SoftDelete marks a record deleted and returns its post-state. Idempotent.
func (m *MemoryStore) SoftDelete(ctx context.Context, id string) (*Record, error) {
	return m.setDeleted(id, true, ActionSoftDeleted)
}

// Restore clears the deleted flag and returns the post-state. Idempotent.
func (m *MemoryStore) Restore(ctx context.Context, id string) (*Record, error) {
	return m.setDeleted(id, false, ActionRestored)
}

func (m *MemoryStore) setDeleted(id string, deleted bool, action LifecycleAction) (*Record, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}

	// Idempotent: already in the requested state
	if rec.Deleted != deleted {
		rec.Deleted = deleted
		rec.UpdatedAt = now()
		m.appendEvent(id, action)
	}

	return copyRecord(rec), nil
}

// HardDelete physically removes a record. The lifecycle trail is kept.
func (m *MemoryStore) HardDelete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return ErrNotFound
	}

	delete(m.records, id)
	m.order = slices.DeleteFunc(m.order, func(s string) bool { return s == id })
	m.appendEvent(id, ActionPurged)

	return nil
}

// ListLifecycleEvents returns a record's audit trail, oldest first.
func (m *MemoryStore) ListLifecycleEvents(ctx context.Context, recordID string, limit int) ([]*LifecycleEvent, error) {
	if err := validateID(recordID); err != nil {
		return nil, err
	}
	limit = normalizeLimit(limit)

	m.mu.RLock()
	defer m.mu.RUnlock()

	events := m.events[recordID]
	if len(events) > limit {
		events = events[:limit]
	}

	result := make([]*LifecycleEvent, len(events))
	for i, e := range events {
		copied := *e
		result[i] = &copied
	}
	return result, nil
}

// Ping always succeeds for the in-memory backend.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory backend.
func (m *MemoryStore) Close() error {
	return nil
}

// appendEvent records a lifecycle transition. Caller must hold the lock.
func (m *MemoryStore) appendEvent(recordID string, action LifecycleAction) {
	m.events[recordID] = append(m.events[recordID], &LifecycleEvent{
		ID:        uuid.New().String(),
		RecordID:  recordID,
		Action:    action,
		Timestamp: now(),
	})
}

// copyRecord returns a deep copy so callers can't mutate the stored record.
func copyRecord(rec *Record) *Record {
	result := *rec
	result.Payload = slices.Clone(rec.Payload)
	return &result
}
