package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// ClassesHandler manages classes and their rosters.
type ClassesHandler struct {
	store database.Store
}

// NewClassesHandler creates a new classes handler.
func NewClassesHandler(store database.Store) *ClassesHandler {
	return &ClassesHandler{store: store}
}

type classResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ProfessorID string    `json:"professor_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toClassResponse(class database.Class) classResponse {
	return classResponse{
		ID:          class.ID,
		Name:        class.Name,
		ProfessorID: class.ProfessorID,
		CreatedAt:   class.CreatedAt,
	}
}

// List handles GET /classes.
func (h *ClassesHandler) List(w http.ResponseWriter, r *http.Request) {
	classes, err := h.store.ListClasses(r.Context())
	if err != nil {
		log.Printf("Failed to list classes: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to list classes")
		return
	}

	result := make([]classResponse, 0, len(classes))
	for _, class := range classes {
		result = append(result, toClassResponse(class))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"classes": result,
		"count":   len(result),
	})
}

// Get handles GET /classes/{id}.
func (h *ClassesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	class, err := h.store.GetClass(r.Context(), id)
	if err != nil {
		log.Printf("Failed to get class %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to get class")
		return
	}
	if class == nil {
		respondError(w, http.StatusNotFound, "class not found")
		return
	}
	respondJSON(w, http.StatusOK, toClassResponse(*class))
}

type createClassRequest struct {
	Name        string `json:"name"`
	ProfessorID string `json:"professor_id"`
}

// Create handles POST /classes. When a professor is given it must be an
// enrolled identity and is seeded onto the roster, so the closing summary
// covers them even if they never appear on camera.
func (h *ClassesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createClassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	class := database.Class{
		ID:          uuid.NewString(),
		Name:        req.Name,
		ProfessorID: req.ProfessorID,
	}

	if req.ProfessorID != "" {
		professor, err := h.store.GetIdentity(r.Context(), req.ProfessorID)
		if err != nil {
			log.Printf("Failed to look up professor %s: %v", sanitizeForLog(req.ProfessorID), err)
			respondError(w, http.StatusInternalServerError, "failed to look up professor")
			return
		}
		if professor == nil {
			respondError(w, http.StatusBadRequest, "professor identity not found")
			return
		}
	}

	if err := h.store.CreateClass(r.Context(), class); err != nil {
		log.Printf("Failed to create class: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to create class")
		return
	}

	if req.ProfessorID != "" {
		member := database.RosterMember{
			ClassID:    class.ID,
			IdentityID: req.ProfessorID,
			Role:       database.RoleProfessor,
		}
		if professor, err := h.store.GetIdentity(r.Context(), req.ProfessorID); err == nil && professor != nil {
			member.DisplayName = professor.DisplayName
		}
		if err := h.store.AddRosterMember(r.Context(), member); err != nil {
			log.Printf("Failed to add professor %s to roster of class %s: %v",
				sanitizeForLog(req.ProfessorID), class.ID, err)
		}
	}

	log.Printf("Created class %s (%s)", class.ID, sanitizeForLog(req.Name))
	respondJSON(w, http.StatusCreated, toClassResponse(class))
}

type rosterMemberResponse struct {
	IdentityID  string        `json:"identity_id"`
	DisplayName string        `json:"display_name"`
	Role        database.Role `json:"role"`
	AddedAt     time.Time     `json:"added_at"`
}

// Roster handles GET /classes/{id}/roster.
func (h *ClassesHandler) Roster(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	class, err := h.store.GetClass(r.Context(), id)
	if err != nil {
		log.Printf("Failed to get class %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to get class")
		return
	}
	if class == nil {
		respondError(w, http.StatusNotFound, "class not found")
		return
	}

	roster, err := h.store.GetRoster(r.Context(), id)
	if err != nil {
		log.Printf("Failed to get roster for class %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to get roster")
		return
	}

	result := make([]rosterMemberResponse, 0, len(roster))
	for _, member := range roster {
		result = append(result, rosterMemberResponse{
			IdentityID:  member.IdentityID,
			DisplayName: member.DisplayName,
			Role:        member.Role,
			AddedAt:     member.AddedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"class_id": id,
		"roster":   result,
		"count":    len(result),
	})
}

type addRosterRequest struct {
	IdentityID string `json:"identity_id"`
}

// AddRosterMember handles POST /classes/{id}/roster. Adding an identity
// that is already on the roster is a no-op.
func (h *ClassesHandler) AddRosterMember(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req addRosterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.IdentityID == "" {
		respondError(w, http.StatusBadRequest, "identity_id is required")
		return
	}

	class, err := h.store.GetClass(r.Context(), id)
	if err != nil {
		log.Printf("Failed to get class %s: %v", sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to get class")
		return
	}
	if class == nil {
		respondError(w, http.StatusNotFound, "class not found")
		return
	}

	identity, err := h.store.GetIdentity(r.Context(), req.IdentityID)
	if err != nil {
		log.Printf("Failed to get identity %s: %v", sanitizeForLog(req.IdentityID), err)
		respondError(w, http.StatusInternalServerError, "failed to get identity")
		return
	}
	if identity == nil {
		respondError(w, http.StatusBadRequest, "identity not found")
		return
	}

	member := database.RosterMember{
		ClassID:     id,
		IdentityID:  identity.ID,
		DisplayName: identity.DisplayName,
		Role:        database.RoleStudent,
	}
	if err := h.store.AddRosterMember(r.Context(), member); err != nil {
		log.Printf("Failed to add %s to roster of class %s: %v",
			sanitizeForLog(req.IdentityID), sanitizeForLog(id), err)
		respondError(w, http.StatusInternalServerError, "failed to add roster member")
		return
	}

	respondJSON(w, http.StatusCreated, rosterMemberResponse{
		IdentityID:  member.IdentityID,
		DisplayName: member.DisplayName,
		Role:        member.Role,
	})
}
