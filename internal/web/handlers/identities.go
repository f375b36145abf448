package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// IdentitiesHandler manages enrolled identities and their centroids.
type IdentitiesHandler struct {
	store database.IdentityWriter
	index *database.CentroidIndex
	dim   int
}

// NewIdentitiesHandler creates a new identities handler.
func NewIdentitiesHandler(store database.IdentityWriter, index *database.CentroidIndex, dim int) *IdentitiesHandler {
	return &IdentitiesHandler{store: store, index: index, dim: dim}
}

type identityResponse struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Dim         int       `json:"dim"`
	SampleCount int       `json:"sample_count"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

func toIdentityResponse(identity database.StoredIdentity) identityResponse {
	return identityResponse{
		ID:          identity.ID,
		DisplayName: identity.DisplayName,
		Dim:         identity.Dim,
		SampleCount: identity.SampleCount,
		CreatedAt:   identity.CreatedAt,
		UpdatedAt:   identity.UpdatedAt,
	}
}

// List handles GET /identities. Centroids are omitted from the listing;
// they are large and only the engine needs them.
func (h *IdentitiesHandler) List(w http.ResponseWriter, r *http.Request) {
	identities, err := h.store.ListIdentities(r.Context())
	if err != nil {
		log.Printf("Failed to list identities: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list identities")
		return
	}

	result := make([]identityResponse, 0, len(identities))
	for _, identity := range identities {
		result = append(result, toIdentityResponse(identity))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"identities": result,
		"count":      len(result),
	})
}

// Get handles GET /identities/{id}.
func (h *IdentitiesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	identity, err := h.store.GetIdentity(r.Context(), id)
	if err != nil {
		log.Printf("Failed to get identity %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to get identity")
		return
	}
	if identity == nil {
		respondError(w, http.StatusNotFound, "identity not found")
		return
	}
	respondJSON(w, http.StatusOK, toIdentityResponse(*identity))
}

type enrollRequest struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Centroid    []float32 `json:"centroid"`
	SampleCount int       `json:"sample_count"`
}

// Enroll handles POST /identities. The centroid is the caller's mean
// embedding over enrollment photos; the engine never averages here.
func (h *IdentitiesHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req enrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.ID == "" || req.DisplayName == "" {
		respondError(w, http.StatusBadRequest, "id and display_name are required")
		return
	}
	if len(req.Centroid) != h.dim {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("centroid must have %d dimensions, got %d", h.dim, len(req.Centroid)))
		return
	}
	if req.SampleCount < 1 {
		req.SampleCount = 1
	}

	identity := database.StoredIdentity{
		ID:          req.ID,
		DisplayName: req.DisplayName,
		Centroid:    req.Centroid,
		Dim:         len(req.Centroid),
		SampleCount: req.SampleCount,
	}
	if err := h.store.UpsertIdentity(r.Context(), identity); err != nil {
		log.Printf("Failed to enroll identity %s: %v", sanitizeForLog(req.ID), err)
		respondError(w, http.StatusInternalServerError, "failed to enroll identity")
		return
	}

	h.index.Add(&identity)
	log.Printf("Enrolled identity %s (%d samples)", sanitizeForLog(req.ID), req.SampleCount)
	respondJSON(w, http.StatusCreated, toIdentityResponse(identity))
}

// Delete handles DELETE /identities/{id}.
func (h *IdentitiesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.store.DeleteIdentity(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "identity not found")
			return
		}
		log.Printf("Failed to delete identity %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to delete identity")
		return
	}

	h.index.Remove(id)
	respondJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

type similarIdentity struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Distance    float64 `json:"distance"`
}

// Similar handles GET /identities/{id}/similar. It surfaces enrolled
// identities whose centroids sit close to the given one, which usually
// means two enrollments of the same person or a threshold set too loose.
func (h *IdentitiesHandler) Similar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	limit := 5
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 50 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 50")
			return
		}
		limit = parsed
	}

	identity := h.index.GetIdentity(id)
	if identity == nil {
		respondError(w, http.StatusNotFound, "identity not found in index")
		return
	}

	// Ask for one extra neighbor since the identity itself is its own
	// nearest match.
	ids, distances, err := h.index.Search(identity.Centroid, limit+1)
	if err != nil {
		log.Printf("Failed to search similar identities for %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to search similar identities")
		return
	}

	similar := make([]similarIdentity, 0, limit)
	for i, matchID := range ids {
		if matchID == id {
			continue
		}
		entry := similarIdentity{ID: matchID, Distance: distances[i]}
		if neighbor := h.index.GetIdentity(matchID); neighbor != nil {
			entry.DisplayName = neighbor.DisplayName
		}
		similar = append(similar, entry)
		if len(similar) == limit {
			break
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"identity": id,
		"similar":  similar,
	})
}
