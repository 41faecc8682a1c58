// ABOUTME: Tests for the in-memory store implementation
// ABOUTME: Runs the shared lifecycle contract plus copy-isolation checks

package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		t.Helper()
		return NewMemoryStore()
	})
}

func TestMemoryStore_CopyIsolation(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	rec, err := s.Create(ctx, json.RawMessage(`{"name":"original"}`))
	require.NoError(t, err)

	// Mutating the returned record must not affect the stored copy
	rec.Deleted = true
	for i := range rec.Payload {
		rec.Payload[i] = 'x'
	}

	got, err := s.Get(ctx, rec.ID, ActiveOnly)
	require.NoError(t, err)
	assert.False(t, got.Deleted)
	assert.JSONEq(t, `{"name":"original"}`, string(got.Payload))
}

func TestMemoryStore_PingAndClose(t *testing.T) {
	s := NewMemoryStore()
	assert.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, s.Close())
}
