package handler

import (
	"net/http"

	"github.com/Rrens/teamspace/internal/api/response"
	"github.com/Rrens/teamspace/internal/domain"
	"github.com/Rrens/teamspace/internal/service"
)

// AdminHandler handles system administration endpoints
type AdminHandler struct {
	adminService *service.AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// ListUsers lists every user in the system
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	users, err := h.adminService.ListUsers(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, users)
}

// UpdateUserRole changes a user's system role
func (h *AdminHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUser(w, r)
	if !ok {
		return
	}
	targetID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	var input domain.RoleChange
	if !decode(w, r, &input) {
		return
	}

	user, err := h.adminService.UpdateUserRole(r.Context(), actorID, targetID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, user)
}

// UpdateUserStatus activates or deactivates any user
func (h *AdminHandler) UpdateUserStatus(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUser(w, r)
	if !ok {
		return
	}
	targetID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	var input domain.StatusChange
	if !decode(w, r, &input) {
		return
	}

	user, err := h.adminService.UpdateUserStatus(r.Context(), actorID, targetID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, user)
}
