package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civicdesk/complaint-server/internal/middleware"
	"github.com/civicdesk/complaint-server/internal/models"
	"github.com/civicdesk/complaint-server/internal/services"
)

// ComplaintService is the complaint lifecycle surface the handlers need.
type ComplaintService interface {
	Create(ctx context.Context, userID uuid.UUID, req *models.CreateComplaintRequest) (*models.Complaint, error)
	ListForAdmin(ctx context.Context) ([]models.ComplaintDetail, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.ComplaintDetail, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.Status) (*models.Complaint, error)
	AssignAuthority(ctx context.Context, id uuid.UUID, authorityID *uuid.UUID) (*models.Complaint, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

// ComplaintHandler handles the complaint endpoints on both the admin and
// citizen surfaces.
type ComplaintHandler struct {
	complaints ComplaintService
	validate   *validator.Validate
	logger     *zap.SugaredLogger
}

// NewComplaintHandler creates a new complaint handler
func NewComplaintHandler(complaints ComplaintService, logger *zap.SugaredLogger) *ComplaintHandler {
	return &ComplaintHandler{
		complaints: complaints,
		validate:   validator.New(),
		logger:     logger,
	}
}

// AdminList handles GET /api/admin/complaints
func (h *ComplaintHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	complaints, err := h.complaints.ListForAdmin(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to list complaints", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, complaints)
}

// UpdateStatus handles PATCH /api/admin/complaints/{id}/status
func (h *ComplaintHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Complaint not found")
		return
	}

	var req models.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Status == "" {
		respondError(w, http.StatusBadRequest, "Status is required")
		return
	}

	complaint, err := h.complaints.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidStatus):
			respondError(w, http.StatusBadRequest, "Invalid status")
		case errors.Is(err, services.ErrNotFound):
			respondError(w, http.StatusNotFound, "Complaint not found")
		default:
			h.logger.Errorw("Failed to update status", "error", err, "complaint_id", id)
			respondError(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondJSON(w, http.StatusOK, complaint)
}

// Assign handles PATCH /api/admin/complaints/{id}/assign. A null
// authorityId clears the assignment and resets the complaint to PENDING.
func (h *ComplaintHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Complaint not found")
		return
	}

	var req models.AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	complaint, err := h.complaints.AssignAuthority(r.Context(), id, req.AuthorityID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Complaint not found")
			return
		}
		h.logger.Errorw("Failed to assign authority", "error", err, "complaint_id", id)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, complaint)
}

// Stats handles GET /api/admin/stats
func (h *ComplaintHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.complaints.Stats(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to fetch stats", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// UserList handles GET /api/user/complaints
func (h *ComplaintHandler) UserList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	complaints, err := h.complaints.ListForUser(r.Context(), user.ID)
	if err != nil {
		h.logger.Errorw("Failed to list user complaints", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, complaints)
}

// UserCreate handles POST /api/user/complaints
func (h *ComplaintHandler) UserCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.CreateComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	if !req.Priority.Valid() {
		respondError(w, http.StatusBadRequest, "Invalid priority")
		return
	}

	complaint, err := h.complaints.Create(r.Context(), user.ID, &req)
	if err != nil {
		h.logger.Errorw("Failed to create complaint", "error", err, "user_id", user.ID)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusCreated, complaint)
}

// Helper: respond with JSON
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Helper: respond with error
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
