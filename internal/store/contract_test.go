// ABOUTME: Shared contract tests run against every Store implementation
// ABOUTME: Covers lifecycle transitions, visibility filtering, idempotence, and concurrency

package store

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behavior every Store backend must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		rec, err := s.Create(ctx, json.RawMessage(`{"name":"A"}`))
		require.NoError(t, err)
		require.NotEmpty(t, rec.ID)
		assert.False(t, rec.Deleted)
		assert.JSONEq(t, `{"name":"A"}`, string(rec.Payload))
		assert.False(t, rec.CreatedAt.IsZero())
		assert.Equal(t, rec.CreatedAt, rec.UpdatedAt)

		got, err := s.Get(ctx, rec.ID, ActiveOnly)
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		assert.False(t, got.Deleted)
		assert.JSONEq(t, string(rec.Payload), string(got.Payload))
		assert.True(t, got.CreatedAt.Equal(rec.CreatedAt))
	})

	t.Run("GetUnknownID", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		_, err := s.Get(ctx, "11111111-2222-3333-4444-555555555555", ActiveOnly)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("GetMalformedID", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		_, err := s.Get(ctx, "not-a-uuid", ActiveOnly)
		assert.ErrorIs(t, err, ErrInvalidID)

		_, err = s.Get(ctx, "", ActiveOnly)
		assert.ErrorIs(t, err, ErrInvalidID)
	})

	t.Run("SoftDeleteHidesRecord", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		rec, err := s.Create(ctx, json.RawMessage(`{"name":"A"}`))
		require.NoError(t, err)

		deleted, err := s.SoftDelete(ctx, rec.ID)
		require.NoError(t, err)
		assert.True(t, deleted.Deleted)

		// Invisible under the default mode, indistinguishable from absent
		_, err = s.Get(ctx, rec.ID, ActiveOnly)
		assert.ErrorIs(t, err, ErrNotFound)

		// Still physically present
		got, err := s.Get(ctx, rec.ID, IncludeDeleted)
		require.NoError(t, err)
		assert.True(t, got.Deleted)
		assert.JSONEq(t, `{"name":"A"}`, string(got.Payload))
	})

	t.Run("SoftDeleteIdempotent", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		rec, err := s.Create(ctx, json.RawMessage(`{"n":1}`))
		require.NoError(t, err)

		first, err := s.SoftDelete(ctx, rec.ID)
		require.NoError(t, err)

		second, err := s.SoftDelete(ctx, rec.ID)
		require.NoError(t, err)
		assert.True(t, second.Deleted)
		assert.True(t, second.UpdatedAt.Equal(first.UpdatedAt), "repeat delete must not touch the record")

		events, err := s.ListLifecycleEvents(ctx, rec.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, countActions(events, ActionSoftDeleted), "repeat delete must not append an event")
	})

	t.Run("SoftDeleteUnknownID", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		_, err := s.SoftDelete(ctx, "11111111-2222-3333-4444-555555555555")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("RestoreUndoesSoftDelete", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		rec, err := s.Create(ctx, json.RawMessage(`{"name":"keep me"}`))
		require.NoError(t, err)

		_, err = s.SoftDelete(ctx, rec.ID)
		require.NoError(t, err)

		restored, err := s.Restore(ctx, rec.ID)
		require.NoError(t, err)
		assert.False(t, restored.Deleted)
		assert.JSONEq(t, string(rec.Payload), string(restored.Payload))
		assert.True(t, restored.CreatedAt.Equal(rec.CreatedAt))

		got, err := s.Get(ctx, rec.ID, ActiveOnly)
		require.NoError(t, err)
		assert.False(t, got.Deleted)
	})

	t.Run("RestoreIdempotent", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		rec, err := s.Create(ctx, json.RawMessage(`{}`))
		require.NoError(t, err)

		// Restoring an active record is a no-op, not an error
		restored, err := s.Restore(ctx, rec.ID)
		require.NoError(t, err)
		assert.False(t, restored.Deleted)

		events, err := s.ListLifecycleEvents(ctx, rec.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, countActions(events, ActionRestored))
	})

	t.Run("ListVisibilityModes", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		a, err := s.Create(ctx, json.RawMessage(`{"name":"a"}`))
		require.NoError(t, err)
		b, err := s.Create(ctx, json.RawMessage(`{"name":"b"}`))
		require.NoError(t, err)
		c, err := s.Create(ctx, json.RawMessage(`{"name":"c"}`))
		require.NoError(t, err)

		_, err = s.SoftDelete(ctx, b.ID)
		require.NoError(t, err)

		active, err := s.List(ctx, ActiveOnly, 0)
		require.NoError(t, err)
		require.Len(t, active, 2)
		// Insertion order preserved
		assert.Equal(t, a.ID, active[0].ID)
		assert.Equal(t, c.ID, active[1].ID)

		all, err := s.List(ctx, IncludeDeleted, 0)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{a.ID, b.ID, c.ID}, recordIDs(all))

		trash, err := s.List(ctx, DeletedOnly, 0)
		require.NoError(t, err)
		require.Len(t, trash, 1)
		assert.Equal(t, b.ID, trash[0].ID)
		assert.True(t, trash[0].Deleted)

		// Active listing is always a subset of the full listing
		assert.Subset(t, recordIDs(all), recordIDs(active))
	})

	t.Run("ListLimit", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		for i := 0; i < 5; i++ {
			_, err := s.Create(ctx, json.RawMessage(`{}`))
			require.NoError(t, err)
		}

		records, err := s.List(ctx, ActiveOnly, 2)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("HardDelete", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		rec, err := s.Create(ctx, json.RawMessage(`{"name":"gone"}`))
		require.NoError(t, err)

		require.NoError(t, s.HardDelete(ctx, rec.ID))

		// Gone under every mode
		_, err = s.Get(ctx, rec.ID, IncludeDeleted)
		assert.ErrorIs(t, err, ErrNotFound)

		err = s.HardDelete(ctx, rec.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		// Audit trail survives the purge
		events, err := s.ListLifecycleEvents(ctx, rec.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, countActions(events, ActionPurged))
	})

	t.Run("LifecycleTrail", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		rec, err := s.Create(ctx, json.RawMessage(`{}`))
		require.NoError(t, err)
		_, err = s.SoftDelete(ctx, rec.ID)
		require.NoError(t, err)
		_, err = s.Restore(ctx, rec.ID)
		require.NoError(t, err)

		events, err := s.ListLifecycleEvents(ctx, rec.ID, 0)
		require.NoError(t, err)
		require.Len(t, events, 3)
		assert.Equal(t, ActionCreated, events[0].Action)
		assert.Equal(t, ActionSoftDeleted, events[1].Action)
		assert.Equal(t, ActionRestored, events[2].Action)
		for _, e := range events {
			assert.Equal(t, rec.ID, e.RecordID)
			assert.NotEmpty(t, e.ID)
		}
	})

	t.Run("ConcurrentSoftDelete", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		rec, err := s.Create(ctx, json.RawMessage(`{"name":"contested"}`))
		require.NoError(t, err)

		const workers = 16
		errs := make([]error, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = s.SoftDelete(ctx, rec.ID)
			}(i)
		}
		wg.Wait()

		for i, err := range errs {
			assert.NoError(t, err, "worker %d", i)
		}

		got, err := s.Get(ctx, rec.ID, IncludeDeleted)
		require.NoError(t, err)
		assert.True(t, got.Deleted)

		events, err := s.ListLifecycleEvents(ctx, rec.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, countActions(events, ActionSoftDeleted), "exactly one transition must win")
	})
}

// countActions counts events with the given action.
func countActions(events []*LifecycleEvent, action LifecycleAction) int {
	n := 0
	for _, e := range events {
		if e.Action == action {
			n++
		}
	}
	return n
}

// recordIDs extracts IDs in order.
func recordIDs(records []*Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}
