// ABOUTME: HTTP handlers for record CRUD, soft-delete, restore, purge, and trash
// ABOUTME: Maps store errors to JSON responses with conventional status codes

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/2389/shelf/internal/store"
)

// maxPayloadBytes bounds the opaque payload document accepted on create.
const maxPayloadBytes = 64 * 1024

// CreateRecordRequest is the JSON request body for POST /api/records.
type CreateRecordRequest struct {
	Payload json.RawMessage `json:"payload"`
}

// Validate checks the create request fields.
func (r CreateRecordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Payload,
			validation.Required.Error("payload is required"),
			validation.Length(0, maxPayloadBytes),
			validation.By(checkJSONDocument),
		),
	)
}

// checkJSONDocument verifies the payload is a well-formed JSON value.
func checkJSONDocument(value interface{}) error {
	raw, ok := value.(json.RawMessage)
	if !ok {
		return errors.New("must be a JSON document")
	}
	if !json.Valid(raw) {
		return errors.New("must be valid JSON")
	}
	return nil
}

// RecordResponse is the JSON representation of a record.
type RecordResponse struct {
	ID        string          `json:"id"`
	Deleted   bool            `json:"deleted"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

// RecordListResponse is the JSON response for record listings.
type RecordListResponse struct {
	Records []RecordResponse `json:"records"`
}

// LifecycleEventResponse is one entry of a record's audit trail.
type LifecycleEventResponse struct {
	ID        string `json:"id"`
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
}

// LifecycleEventsResponse is the JSON response for GET /api/records/{id}/events.
type LifecycleEventsResponse struct {
	RecordID string                   `json:"record_id"`
	Events   []LifecycleEventResponse `json:"events"`
}

// toRecordResponse converts a store record to its wire form.
func toRecordResponse(rec *store.Record) RecordResponse {
	return RecordResponse{
		ID:        rec.ID,
		Deleted:   rec.Deleted,
		Payload:   rec.Payload,
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt: rec.UpdatedAt.Format(time.RFC3339),
	}
}

// handleRecords handles /api/records: POST creates, GET lists.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateRecord(w, r)
	case http.MethodGet:
		s.handleListRecords(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleCreateRecord handles POST /api/records.
func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	var req CreateRecordRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPayloadBytes+1024)).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := req.Validate(); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.store.Create(r.Context(), req.Payload)
	if err != nil {
		s.storeError(w, err)
		return
	}

	s.logger.Info("record created", "id", rec.ID)
	s.writeJSON(w, http.StatusCreated, toRecordResponse(rec))
}

// handleListRecords handles GET /api/records.
// The showDeleted parameter widens visibility; limit caps the result size.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	mode := ResolveMode(r.URL.Query().Get("showDeleted"))
	limit := parseLimit(r.URL.Query().Get("limit"))

	records, err := s.store.List(r.Context(), mode, limit)
	if err != nil {
		s.storeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toListResponse(records))
}

// handleTrash handles GET /api/records/trash: soft-deleted records only.
func (s *Server) handleTrash(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"))

	records, err := s.store.List(r.Context(), store.DeletedOnly, limit)
	if err != nil {
		s.storeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toListResponse(records))
}

// handleRecordRoutes dispatches /api/records/{id} and its sub-resources.
func (s *Server) handleRecordRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/records/")

	if rest == "trash" {
		s.handleTrash(w, r)
		return
	}

	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		s.sendJSONError(w, http.StatusNotFound, "record id required")
		return
	}

	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			s.handleGetRecord(w, r, id)
		case http.MethodDelete:
			s.handleSoftDelete(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case "restore":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.handleRestore(w, r, id)
	case "purge":
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.handlePurge(w, r, id)
	case "events":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		s.handleEvents(w, r, id)
	default:
		s.sendJSONError(w, http.StatusNotFound, fmt.Sprintf("unknown resource %q", sub))
	}
}

// handleGetRecord handles GET /api/records/{id}.
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request, id string) {
	mode := ResolveMode(r.URL.Query().Get("showDeleted"))

	rec, err := s.store.Get(r.Context(), id, mode)
	if err != nil {
		s.storeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, toRecordResponse(rec))
}

// handleSoftDelete handles DELETE /api/records/{id}.
// Deleting an already-deleted record succeeds; the row is never removed.
func (s *Server) handleSoftDelete(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := s.store.SoftDelete(r.Context(), id)
	if err != nil {
		s.storeError(w, err)
		return
	}

	s.logger.Info("record soft-deleted", "id", id)
	s.writeJSON(w, http.StatusOK, toRecordResponse(rec))
}

// handleRestore handles POST /api/records/{id}/restore.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := s.store.Restore(r.Context(), id)
	if err != nil {
		s.storeError(w, err)
		return
	}

	s.logger.Info("record restored", "id", id)
	s.writeJSON(w, http.StatusOK, toRecordResponse(rec))
}

// handlePurge handles DELETE /api/records/{id}/purge. Irreversible.
func (s *Server) handlePurge(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.store.HardDelete(r.Context(), id); err != nil {
		s.storeError(w, err)
		return
	}

	s.logger.Info("record purged", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleEvents handles GET /api/records/{id}/events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request, id string) {
	limit := parseLimit(r.URL.Query().Get("limit"))

	events, err := s.store.ListLifecycleEvents(r.Context(), id, limit)
	if err != nil {
		s.storeError(w, err)
		return
	}

	resp := LifecycleEventsResponse{
		RecordID: id,
		Events:   make([]LifecycleEventResponse, 0, len(events)),
	}
	for _, e := range events {
		resp.Events = append(resp.Events, LifecycleEventResponse{
			ID:        e.ID,
			Action:    string(e.Action),
			Timestamp: e.Timestamp.Format(time.RFC3339),
		})
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// handleHealthz handles GET /healthz: liveness plus a storage ping.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Error("health check failed", "error", err)
		s.sendJSONError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// storeError maps store errors to HTTP responses. Anything that is not a
// known sentinel is treated as the storage layer being unavailable.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.sendJSONError(w, http.StatusNotFound, "record not found")
	case errors.Is(err, store.ErrInvalidID):
		s.sendJSONError(w, http.StatusBadRequest, "invalid record id")
	default:
		s.logger.Error("storage failure", "error", err)
		s.sendJSONError(w, http.StatusServiceUnavailable, "storage unavailable")
	}
}

// toListResponse converts records to the wire form, never null.
func toListResponse(records []*store.Record) RecordListResponse {
	resp := RecordListResponse{Records: make([]RecordResponse, 0, len(records))}
	for _, rec := range records {
		resp.Records = append(resp.Records, toRecordResponse(rec))
	}
	return resp
}

// parseLimit parses the limit query parameter; bad input means "use default".
func parseLimit(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

// sendJSONError writes a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeJSON writes a JSON response with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", "error", err)
	}
}
