package handler

import (
	"net/http"

	"github.com/Rrens/teamspace/internal/api/response"
	"github.com/Rrens/teamspace/internal/domain"
	"github.com/Rrens/teamspace/internal/service"
)

// WorkspaceHandler handles workspace endpoints
type WorkspaceHandler struct {
	workspaceService *service.WorkspaceService
}

// NewWorkspaceHandler creates a new workspace handler
func NewWorkspaceHandler(workspaceService *service.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{workspaceService: workspaceService}
}

// Create handles workspace creation
func (h *WorkspaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	orgID, ok := currentOrganization(w, r)
	if !ok {
		return
	}

	var input domain.WorkspaceCreate
	if !decode(w, r, &input) {
		return
	}

	workspace, err := h.workspaceService.Create(r.Context(), userID, orgID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, workspace)
}

// List handles listing user's workspaces
func (h *WorkspaceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	workspaces, err := h.workspaceService.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, workspaces)
}

// Get handles getting a workspace by ID
func (h *WorkspaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := currentWorkspace(w, r)
	if !ok {
		return
	}

	workspace, err := h.workspaceService.GetByID(r.Context(), workspaceID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, workspace)
}

// Update handles updating a workspace
func (h *WorkspaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := currentWorkspace(w, r)
	if !ok {
		return
	}

	var input domain.WorkspaceUpdate
	if !decode(w, r, &input) {
		return
	}

	workspace, err := h.workspaceService.Update(r.Context(), workspaceID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, workspace)
}

// Delete handles deleting a workspace
func (h *WorkspaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID, ok := currentOrganization(w, r)
	if !ok {
		return
	}
	workspaceID, ok := pathID(w, r, "workspaceID")
	if !ok {
		return
	}

	if err := h.workspaceService.Delete(r.Context(), orgID, workspaceID); err != nil {
		writeError(w, err)
		return
	}

	response.NoContent(w)
}

// ListMembers lists a workspace's member rows
func (h *WorkspaceHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := currentWorkspace(w, r)
	if !ok {
		return
	}

	members, err := h.workspaceService.ListMembers(r.Context(), workspaceID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, members)
}

// UpdateMemberRole changes a member's workspace role
func (h *WorkspaceHandler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUser(w, r)
	if !ok {
		return
	}
	workspaceID, ok := currentWorkspace(w, r)
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

	member, err := h.workspaceService.UpdateMemberRole(r.Context(), actorID, workspaceID, targetID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, member)
}

// RemoveMember removes a member from a workspace
func (h *WorkspaceHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUser(w, r)
	if !ok {
		return
	}
	workspaceID, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	targetID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	if err := h.workspaceService.RemoveMember(r.Context(), actorID, workspaceID, targetID); err != nil {
		writeError(w, err)
		return
	}

	response.NoContent(w)
}

// Leave removes the caller from a workspace
func (h *WorkspaceHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	workspaceID, ok := currentWorkspace(w, r)
	if !ok {
		return
	}

	if err := h.workspaceService.RemoveMember(r.Context(), userID, workspaceID, userID); err != nil {
		writeError(w, err)
		return
	}

	response.NoContent(w)
}
