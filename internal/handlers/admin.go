// Package handlers contains HTTP request handlers for the complaint API.
// Handlers parse requests, call services, and return JSON responses.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/civicdesk/complaint-server/internal/middleware"
	"github.com/civicdesk/complaint-server/internal/models"
	"github.com/civicdesk/complaint-server/internal/services"
)

// AdminAuthenticator verifies admin login credentials.
type AdminAuthenticator interface {
	Authenticate(ctx context.Context, email, password string) (*models.Admin, error)
}

// TokenIssuer mints the admin bearer credential and its cookie.
type TokenIssuer interface {
	Issue(admin *models.Admin) (string, error)
	SetCookie(w http.ResponseWriter, credential string)
}

// AuthorityService manages department handler accounts.
type AuthorityService interface {
	Create(ctx context.Context, req *models.CreateAuthorityRequest) (*models.Authority, error)
	List(ctx context.Context) ([]models.AuthorityWithCount, error)
}

// AdminHandler handles admin login, verification and authority management.
type AdminHandler struct {
	admins      AdminAuthenticator
	tokens      TokenIssuer
	authorities AuthorityService
	validate    *validator.Validate
	logger      *zap.SugaredLogger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(admins AdminAuthenticator, tokens TokenIssuer, authorities AuthorityService, logger *zap.SugaredLogger) *AdminHandler {
	return &AdminHandler{
		admins:      admins,
		tokens:      tokens,
		authorities: authorities,
		validate:    validator.New(),
		logger:      logger,
	}
}

// Login handles POST /api/admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	admin, err := h.admins.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.logger.Errorw("Admin login failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	token, err := h.tokens.Issue(admin)
	if err != nil {
		h.logger.Errorw("Failed to issue admin token", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.tokens.SetCookie(w, token)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"admin": admin.Profile(),
	})
}

// Verify handles GET /api/admin/verify. The gate has already validated the
// credential; this just echoes the admin profile back.
func (h *AdminHandler) Verify(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"admin": admin.Profile()})
}

// ListAuthorities handles GET /api/admin/authorities
func (h *AdminHandler) ListAuthorities(w http.ResponseWriter, r *http.Request) {
	authorities, err := h.authorities.List(r.Context())
	if err != nil {
		h.logger.Errorw("Failed to list authorities", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, authorities)
}

// CreateAuthority handles POST /api/admin/authorities
func (h *AdminHandler) CreateAuthority(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAuthorityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Name, email, and department are required")
		return
	}

	authority, err := h.authorities.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateEmail) {
			respondError(w, http.StatusConflict, "Authority with this email already exists")
			return
		}
		h.logger.Errorw("Failed to create authority", "error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusCreated, authority)
}
