package handlers

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/ledger"
)

// SummaryHandler serves per-class attendance summaries.
type SummaryHandler struct {
	store database.Store
}

// NewSummaryHandler creates a new summary handler.
func NewSummaryHandler(store database.Store) *SummaryHandler {
	return &SummaryHandler{store: store}
}

// Get handles GET /classes/{id}/summary. By default it returns the rows
// written on the last session close. With ?recompute=true the summary is
// replayed from the full event log, persisted, and returned; the replay is
// idempotent, so recomputing is always safe.
func (h *SummaryHandler) Get(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "id")

	class, err := h.store.GetClass(r.Context(), classID)
	if err != nil {
		log.Printf("Failed to get class %s: %v", sanitizeForLog(classID), err)
		respondError(w, http.StatusInternalServerError, "failed to get class")
		return
	}
	if class == nil {
		respondError(w, http.StatusNotFound, "class not found")
		return
	}

	var rows []database.SummaryRow
	if r.URL.Query().Get("recompute") == "true" {
		rows, err = h.recompute(r, classID)
		if err != nil {
			log.Printf("Failed to recompute summary for class %s: %v", sanitizeForLog(classID), err)
			respondError(w, http.StatusInternalServerError, "failed to recompute summary")
			return
		}
	} else {
		rows, err = h.store.GetSummary(r.Context(), classID)
		if err != nil {
			log.Printf("Failed to get summary for class %s: %v", sanitizeForLog(classID), err)
			respondError(w, http.StatusInternalServerError, "failed to get summary")
			return
		}
	}

	if rows == nil {
		rows = []database.SummaryRow{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"class_id": classID,
		"summary":  rows,
	})
}

func (h *SummaryHandler) recompute(r *http.Request, classID string) ([]database.SummaryRow, error) {
	events, err := h.store.LoadLedger(r.Context(), classID)
	if err != nil {
		return nil, err
	}
	roster, err := h.store.GetRoster(r.Context(), classID)
	if err != nil {
		return nil, err
	}

	rows := ledger.BuildSummary(events, roster)
	if err := h.store.WriteSummary(r.Context(), classID, rows); err != nil {
		return nil, err
	}
	return rows, nil
}
