package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eccker/photoboth/internal/store"
)

// SessionHandler handles HTTP requests for session resources.
type SessionHandler struct {
	store *store.Store
}

// NewSessionHandler creates a new SessionHandler with the given store.
func NewSessionHandler(s *store.Store) *SessionHandler {
	return &SessionHandler{store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/sessions, /api/sessions/{id},
	// /api/sessions/{id}/end and /api/sessions/{id}/captures
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if id, ok := strings.CutSuffix(path, "/end"); ok {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.end(w, r, id)
		return
	}

	if id, ok := strings.CutSuffix(path, "/captures"); ok {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.captures(w, r, id)
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type createSessionRequest struct {
	Name string `json:"name"`
}

type sessionResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	EndedAt   string `json:"ended_at,omitempty"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

// sessionToResponse converts a store.Session to a sessionResponse.
func sessionToResponse(s *store.Session) sessionResponse {
	resp := sessionResponse{
		ID:        s.ID,
		Name:      s.Name,
		CreatedAt: s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if s.EndedAt != nil {
		resp.EndedAt = s.EndedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

// list handles GET /api/sessions and returns all sessions.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.Sessions().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	response := listSessionsResponse{
		Sessions: make([]sessionResponse, 0, len(sessions)),
	}
	for _, s := range sessions {
		response.Sessions = append(response.Sessions, sessionToResponse(s))
	}

	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/sessions and starts a new session.
func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name := req.Name
	if name == "" {
		name = "Session " + time.Now().Format("2006-01-02 15:04")
	}

	session := &store.Session{
		ID:   uuid.New().String(),
		Name: name,
	}
	if err := h.store.Sessions().Create(session); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	created, err := h.store.Sessions().GetByID(session.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read back session")
		return
	}

	writeJSON(w, http.StatusCreated, sessionToResponse(created))
}

// get handles GET /api/sessions/{id} and returns a single session.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	session, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	writeJSON(w, http.StatusOK, sessionToResponse(session))
}

// end handles POST /api/sessions/{id}/end and marks the session ended.
// Ending an already-ended session is a 404, matching the store semantics.
func (h *SessionHandler) end(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Sessions().End(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found or already ended")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to end session")
		return
	}

	session, err := h.store.Sessions().GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read back session")
		return
	}

	writeJSON(w, http.StatusOK, sessionToResponse(session))
}

// captures handles GET /api/sessions/{id}/captures.
func (h *SessionHandler) captures(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.store.Sessions().GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	captures, err := h.store.Captures().ListBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list captures")
		return
	}

	response := listCapturesResponse{
		Captures: make([]captureResponse, 0, len(captures)),
	}
	for _, c := range captures {
		response.Captures = append(response.Captures, captureToResponse(c))
	}

	writeJSON(w, http.StatusOK, response)
}

// delete handles DELETE /api/sessions/{id}. Captures taken within the
// session are removed by the foreign key cascade.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Sessions().Delete(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
