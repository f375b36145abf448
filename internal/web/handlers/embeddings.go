package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/ledger"
	"github.com/kozaktomas/face-attendance/internal/session"
)

// EmbeddingsHandler accepts face embeddings from the capture pipeline and
// routes them to the class's active session.
type EmbeddingsHandler struct {
	manager *session.Manager
	dim     int
}

// NewEmbeddingsHandler creates a new embeddings handler.
func NewEmbeddingsHandler(manager *session.Manager, dim int) *EmbeddingsHandler {
	return &EmbeddingsHandler{manager: manager, dim: dim}
}

type submitRequest struct {
	Embedding []float32 `json:"embedding"`
	Timestamp time.Time `json:"timestamp"`
}

type submitResponse struct {
	Known      bool           `json:"known"`
	IdentityID string         `json:"identity_id,omitempty"`
	Distance   float64        `json:"distance"`
	Outcome    ledger.Outcome `json:"outcome,omitempty"`
	Role       database.Role  `json:"role,omitempty"`
	State      session.State  `json:"state"`
}

// Submit handles POST /classes/{id}/embeddings. An unknown face is a normal
// response, not an error; only submitting outside an active session or
// losing the store mid-write fails the request.
func (h *EmbeddingsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "id")

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Embedding) != h.dim {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("embedding must have %d dimensions, got %d", h.dim, len(req.Embedding)))
		return
	}
	ts := req.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	result, err := h.manager.Submit(r.Context(), classID, req.Embedding, ts)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidSessionState):
			respondError(w, http.StatusConflict, "class has no session accepting embeddings")
		case errors.Is(err, ledger.ErrPersistenceUnavailable):
			log.Printf("Check-in lost for class %s: %v", sanitizeForLog(classID), err)
			respondError(w, http.StatusServiceUnavailable, "attendance store unavailable, retry the submit")
		default:
			log.Printf("Failed to process embedding for class %s: %v", sanitizeForLog(classID), err)
			respondError(w, http.StatusInternalServerError, "failed to process embedding")
		}
		return
	}

	respondJSON(w, http.StatusOK, submitResponse{
		Known:      result.Match.Known(),
		IdentityID: result.Match.IdentityID,
		Distance:   result.Match.Distance,
		Outcome:    result.Outcome,
		Role:       result.Role,
		State:      result.State,
	})
}
