package handler

import (
	"context"
	"net/http"

	"github.com/Rrens/teamspace/internal/api/response"
	"github.com/Rrens/teamspace/internal/domain"
	"github.com/Rrens/teamspace/internal/service"
	"github.com/google/uuid"
)

// InvitationHandler handles invitation endpoints
type InvitationHandler struct {
	invitationService *service.InvitationService
}

// NewInvitationHandler creates a new invitation handler
func NewInvitationHandler(invitationService *service.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitationService: invitationService}
}

// InviteToOrganization invites an email address into the caller's organization
func (h *InvitationHandler) InviteToOrganization(w http.ResponseWriter, r *http.Request) {
	inviterID, ok := currentUser(w, r)
	if !ok {
		return
	}
	orgID, ok := currentOrganization(w, r)
	if !ok {
		return
	}

	var input domain.InvitationCreate
	if !decode(w, r, &input) {
		return
	}

	inv, err := h.invitationService.InviteToOrganization(r.Context(), inviterID, orgID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, inv)
}

// ListForOrganization lists the organization's invitations
func (h *InvitationHandler) ListForOrganization(w http.ResponseWriter, r *http.Request) {
	orgID, ok := currentOrganization(w, r)
	if !ok {
		return
	}

	invitations, err := h.invitationService.ListForOrganization(r.Context(), orgID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, invitations)
}

// InviteToWorkspace invites an organization member into a workspace
func (h *InvitationHandler) InviteToWorkspace(w http.ResponseWriter, r *http.Request) {
	inviterID, ok := currentUser(w, r)
	if !ok {
		return
	}
	workspaceID, ok := currentWorkspace(w, r)
	if !ok {
		return
	}

	var input domain.InvitationCreate
	if !decode(w, r, &input) {
		return
	}

	inv, err := h.invitationService.InviteToWorkspace(r.Context(), inviterID, workspaceID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, inv)
}

// ListMine lists invitations addressed to the caller
func (h *InvitationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	invitations, err := h.invitationService.ListForUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, invitations)
}

// Accept accepts an invitation addressed to the caller
func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.invitationService.Accept)
}

// Decline declines an invitation addressed to the caller
func (h *InvitationHandler) Decline(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.invitationService.Decline)
}

func (h *InvitationHandler) respond(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, userID, invitationID uuid.UUID) (*domain.Invitation, error),
) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	invitationID, ok := pathID(w, r, "invitationID")
	if !ok {
		return
	}

	inv, err := action(r.Context(), userID, invitationID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, inv)
}
