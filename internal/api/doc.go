// ABOUTME: Package documentation for the shelf HTTP API
// ABOUTME: Describes routes, visibility resolution, and error mapping

// Package api exposes the record store over HTTP.
//
// # Routes
//
//	POST   /api/records               create a record
//	GET    /api/records               list records (?showDeleted=true, ?limit=N)
//	GET    /api/records/trash         list soft-deleted records only
//	GET    /api/records/{id}          fetch one record (?showDeleted=true)
//	DELETE /api/records/{id}          soft-delete (idempotent)
//	POST   /api/records/{id}/restore  undo a soft-delete (idempotent)
//	DELETE /api/records/{id}/purge    physically remove the record
//	GET    /api/records/{id}/events   lifecycle audit trail
//	GET    /healthz                   liveness and storage ping
//
// # Visibility
//
// Reads never toggle any shared state: the showDeleted parameter is resolved
// per request by ResolveMode and passed to the store as an explicit mode.
// Unrecognized values fall back to hiding deleted records.
//
// # Errors
//
// Errors are returned as {"error": "..."} JSON bodies: 404 for missing or
// hidden records, 400 for malformed IDs or bodies, 401 when bearer auth is
// enabled and fails, 503 when the storage backend is unreachable.
package api
