// ABOUTME: Tests for the visibility policy and shared helpers
// ABOUTME: Covers mode predicates, SQL clauses, ID validation, and limit normalization

package store

import (
	"testing"
)

func TestModeVisible(t *testing.T) {
	active := &Record{ID: "a", Deleted: false}
	deleted := &Record{ID: "d", Deleted: true}

	tests := []struct {
		name        string
		mode        Mode
		wantActive  bool
		wantDeleted bool
	}{
		{"ActiveOnly", ActiveOnly, true, false},
		{"IncludeDeleted", IncludeDeleted, true, true},
		{"DeletedOnly", DeletedOnly, false, true},
		{"UnknownModeDefaultsToActiveOnly", Mode(99), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mode.Visible(active); got != tt.wantActive {
				t.Errorf("Visible(active) = %v, want %v", got, tt.wantActive)
			}
			if got := tt.mode.Visible(deleted); got != tt.wantDeleted {
				t.Errorf("Visible(deleted) = %v, want %v", got, tt.wantDeleted)
			}
		})
	}
}

func TestModeString(t *testing.T) {
	if ActiveOnly.String() != "active_only" {
		t.Errorf("ActiveOnly.String() = %q", ActiveOnly.String())
	}
	if IncludeDeleted.String() != "include_deleted" {
		t.Errorf("IncludeDeleted.String() = %q", IncludeDeleted.String())
	}
	if DeletedOnly.String() != "deleted_only" {
		t.Errorf("DeletedOnly.String() = %q", DeletedOnly.String())
	}
}

func TestModeWhereClause(t *testing.T) {
	// The SQL predicate and the pure predicate must agree for every mode
	tests := []struct {
		mode Mode
		want string
	}{
		{ActiveOnly, "deleted = 0"},
		{IncludeDeleted, "1 = 1"},
		{DeletedOnly, "deleted = 1"},
		{Mode(99), "deleted = 0"},
	}

	for _, tt := range tests {
		if got := tt.mode.whereClause(); got != tt.want {
			t.Errorf("%s.whereClause() = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestValidateID(t *testing.T) {
	if err := validateID("8c1f9a2e-0b34-4c7d-9f6a-1b2c3d4e5f60"); err != nil {
		t.Errorf("valid UUID rejected: %v", err)
	}
	if err := validateID(""); err != ErrInvalidID {
		t.Errorf("empty ID: got %v, want ErrInvalidID", err)
	}
	if err := validateID("123"); err != ErrInvalidID {
		t.Errorf("malformed ID: got %v, want ErrInvalidID", err)
	}
}

func TestNormalizeLimit(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, 100},
		{-5, 100},
		{50, 50},
		{1000, 1000},
		{5000, 1000},
	}

	for _, tt := range tests {
		if got := normalizeLimit(tt.in); got != tt.want {
			t.Errorf("normalizeLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
