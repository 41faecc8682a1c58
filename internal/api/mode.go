// ABOUTME: Query mode resolution for the showDeleted request parameter
// ABOUTME: Maps untrusted boolean-like input to a store visibility mode

package api

import (
	"strings"

	"github.com/2389/shelf/internal/store"
)

// ResolveMode maps the raw showDeleted request parameter to a visibility
// mode. Boolean-true tokens are accepted case-insensitively; an absent
// parameter or any unrecognized value falls back to hiding deleted records.
// This is deliberately permissive: bad input narrows visibility, never
// widens it.
func ResolveMode(raw string) store.Mode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes":
		return store.IncludeDeleted
	}
	return store.ActiveOnly
}
