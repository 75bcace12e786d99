package handler

import (
	"net/http"

	"github.com/Rrens/teamspace/internal/api/response"
	"github.com/Rrens/teamspace/internal/domain"
	"github.com/Rrens/teamspace/internal/rbac"
	"github.com/Rrens/teamspace/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
	registry    *rbac.Registry
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, registry *rbac.Registry) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		registry:    registry,
	}
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input domain.UserCreate
	if !decode(w, r, &input) {
		return
	}

	user, err := h.authService.Register(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, user)
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input domain.UserLogin
	if !decode(w, r, &input) {
		return
	}

	tokens, err := h.authService.Login(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, tokens)
}

// Refresh handles token refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var input struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	if !decode(w, r, &input) {
		return
	}

	tokens, err := h.authService.Refresh(r.Context(), input.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, tokens)
}

type roleView struct {
	Role        rbac.Role         `json:"role"`
	Description string            `json:"description"`
	Permissions []rbac.Permission `json:"permissions"`
}

func (h *AuthHandler) roleView(role rbac.Role) *roleView {
	if role == rbac.RoleUnknown {
		return nil
	}
	return &roleView{
		Role:        role,
		Description: h.registry.Description(role),
		Permissions: h.registry.Permissions(role),
	}
}

// Me returns the current authenticated user with what their roles allow
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	body := map[string]any{
		"user":   user,
		"system": h.roleView(user.SystemRole),
	}
	if user.OrganizationID != nil {
		body["organization"] = h.roleView(user.OrganizationRole)
	}

	response.OK(w, body)
}
