// ABOUTME: Lifecycle event entity for auditing record state transitions
// ABOUTME: Records when a record was created, soft-deleted, restored, or purged

package store

import "time"

// LifecycleAction identifies a record state transition.
type LifecycleAction string

const (
	ActionCreated     LifecycleAction = "created"
	ActionSoftDeleted LifecycleAction = "soft_deleted"
	ActionRestored    LifecycleAction = "restored"
	ActionPurged      LifecycleAction = "purged"
)

// ValidLifecycleActions lists all lifecycle actions a backend may record.
var ValidLifecycleActions = []LifecycleAction{
	ActionCreated,
	ActionSoftDeleted,
	ActionRestored,
	ActionPurged,
}

// LifecycleEvent is one entry in a record's audit trail. Events are appended
// in the same transaction as the mutation they describe; idempotent no-op
// mutations (re-deleting an already-deleted record) append nothing.
type LifecycleEvent struct {
	ID        string
	RecordID  string
	Action    LifecycleAction
	Timestamp time.Time
}
