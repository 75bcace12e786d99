package handler

import (
	"net/http"

	"github.com/Rrens/teamspace/internal/api/response"
	"github.com/Rrens/teamspace/internal/domain"
	"github.com/Rrens/teamspace/internal/service"
)

// OrganizationHandler handles organization endpoints
type OrganizationHandler struct {
	orgService *service.OrganizationService
}

// NewOrganizationHandler creates a new organization handler
func NewOrganizationHandler(orgService *service.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService}
}

// Create handles organization creation. The caller becomes its owner.
func (h *OrganizationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input domain.OrganizationCreate
	if !decode(w, r, &input) {
		return
	}

	org, err := h.orgService.Create(r.Context(), userID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, org)
}

// Get returns the caller's organization
func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID, ok := currentOrganization(w, r)
	if !ok {
		return
	}

	org, err := h.orgService.Get(r.Context(), orgID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, org)
}

// Update handles updating the caller's organization
func (h *OrganizationHandler) Update(w http.ResponseWriter, r *http.Request) {
	orgID, ok := currentOrganization(w, r)
	if !ok {
		return
	}

	var input domain.OrganizationUpdate
	if !decode(w, r, &input) {
		return
	}

	org, err := h.orgService.Update(r.Context(), orgID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, org)
}

// ListMembers lists the organization's members
func (h *OrganizationHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	orgID, ok := currentOrganization(w, r)
	if !ok {
		return
	}

	members, err := h.orgService.ListMembers(r.Context(), orgID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, members)
}

// UpdateMemberRole changes a member's organization role
func (h *OrganizationHandler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUser(w, r)
	if !ok {
		return
	}
	orgID, ok := currentOrganization(w, r)
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

	user, err := h.orgService.UpdateMemberRole(r.Context(), actorID, orgID, targetID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, user)
}

// UpdateMemberStatus activates or deactivates a member
func (h *OrganizationHandler) UpdateMemberStatus(w http.ResponseWriter, r *http.Request) {
	actorID, ok := currentUser(w, r)
	if !ok {
		return
	}
	orgID, ok := currentOrganization(w, r)
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

	user, err := h.orgService.UpdateMemberStatus(r.Context(), actorID, orgID, targetID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, user)
}

// ListAuditLogs returns a page of the organization's audit trail
func (h *OrganizationHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	orgID, ok := currentOrganization(w, r)
	if !ok {
		return
	}

	limit, offset := pagination(r)
	entries, err := h.orgService.ListAuditLogs(r.Context(), orgID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, entries)
}
