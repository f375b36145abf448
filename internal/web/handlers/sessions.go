package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/session"
)

// SessionsHandler exposes the session lifecycle over HTTP.
type SessionsHandler struct {
	manager *session.Manager
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(manager *session.Manager) *SessionsHandler {
	return &SessionsHandler{manager: manager}
}

// Start handles POST /classes/{id}/session/start.
func (h *SessionsHandler) Start(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "id")

	snapshot, err := h.manager.StartSession(r.Context(), classID)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			respondError(w, http.StatusNotFound, "class not found")
		case errors.Is(err, session.ErrInvalidSessionState):
			respondError(w, http.StatusConflict, "class already has an active session")
		default:
			log.Printf("Failed to start session for class %s: %v", sanitizeForLog(classID), err)
			respondError(w, http.StatusInternalServerError, "failed to start session")
		}
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

// Stop handles POST /classes/{id}/session/stop. The response carries the
// summary rows computed on close; a session aborted before the professor
// was recognized closes with an empty summary.
func (h *SessionsHandler) Stop(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "id")

	rows, err := h.manager.StopSession(r.Context(), classID)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidSessionState):
			respondError(w, http.StatusConflict, "class has no active session")
		case errors.Is(err, ledger.ErrPersistenceUnavailable):
			log.Printf("Summary write failed for class %s: %v", sanitizeForLog(classID), err)
			respondError(w, http.StatusServiceUnavailable, "session closed but summary write failed")
		default:
			log.Printf("Failed to stop session for class %s: %v", sanitizeForLog(classID), err)
			respondError(w, http.StatusInternalServerError, "failed to stop session")
		}
		return
	}

	if rows == nil {
		rows = []database.SummaryRow{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"class_id": classID,
		"summary":  rows,
	})
}

// Status handles GET /classes/{id}/session.
func (h *SessionsHandler) Status(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "id")

	snapshot, ok := h.manager.Session(classID)
	if !ok {
		respondError(w, http.StatusNotFound, "class has no active session")
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

// Active handles GET /sessions.
func (h *SessionsHandler) Active(w http.ResponseWriter, r *http.Request) {
	sessions := h.manager.ActiveSessions()
	respondJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"count":    len(sessions),
	})
}
