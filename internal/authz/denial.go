package authz

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Rrens/teamspace/internal/rbac"
	"github.com/google/uuid"
)

// Denial reasons surfaced to clients
const (
	ReasonUnauthenticated              = "authentication required"
	ReasonAccountDeactivated           = "account deactivated"
	ReasonInsufficientPermissions      = "insufficient permissions"
	ReasonNoOrganization               = "no organization membership"
	ReasonInsufficientOrgPermissions   = "insufficient organization permissions"
	ReasonWorkspaceIDRequired          = "workspace id required"
	ReasonInvalidWorkspaceID           = "invalid workspace id"
	ReasonNotWorkspaceMember           = "not a workspace member"
	ReasonInsufficientWorkspacePerms   = "insufficient workspace permissions"
	ReasonInvalidRole                  = "invalid role"
	ReasonRoleTooHigh                  = "cannot assign a role at or above your own level"
	ReasonCannotManageUser             = "cannot manage a user with an equal or higher role"
	ReasonDifferentOrganization        = "user is not in your organization"
	ReasonOwnerRoleProtected           = "cannot change organization owner role"
	ReasonOwnerDeactivationProtected   = "cannot deactivate organization owner"
	ReasonOwnerNotAssignable           = "organization owner role cannot be assigned"
	ReasonPublicWorkspacesDisabled     = "public workspaces are disabled for this organization"
	ReasonWorkspaceOutsideOrganization = "workspace does not belong to your organization"
	ReasonInviteeOutsideOrganization   = "invitee is not in the workspace's organization"
)

// Denial is returned by the gate when a request must not proceed. It
// carries everything needed to render the client-facing error body.
type Denial struct {
	Status      int
	Reason      string
	Required    rbac.Permission
	UserRole    rbac.Role
	WorkspaceID string
}

func (d *Denial) Error() string {
	return d.Reason
}

// AsDenial extracts a Denial from err
func AsDenial(err error) (*Denial, bool) {
	var d *Denial
	if errors.As(err, &d) {
		return d, true
	}
	return nil, false
}

func unauthenticated() *Denial {
	return &Denial{Status: http.StatusUnauthorized, Reason: ReasonUnauthenticated}
}

func forbidden(reason string) *Denial {
	return &Denial{Status: http.StatusForbidden, Reason: reason}
}

func badRequest(reason string) *Denial {
	return &Denial{Status: http.StatusBadRequest, Reason: reason}
}

// Forbidden builds a 403 denial for checks made outside the gate
func Forbidden(reason string) *Denial {
	return forbidden(reason)
}

// ParseRequestedRole validates a role string from a request body. Unknown
// roles are rejected with a 400 denial and never reach storage.
func ParseRequestedRole(s string) (rbac.Role, error) {
	role, err := rbac.ParseRole(s)
	if err != nil {
		return rbac.RoleUnknown, badRequest(ReasonInvalidRole)
	}
	return role, nil
}

// ParseWorkspaceID validates a workspace id taken from a request
func ParseWorkspaceID(s string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, badRequest(ReasonWorkspaceIDRequired)
	}
	id, err := uuid.Parse(s)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, badRequest(ReasonInvalidWorkspaceID)
	}
	return id, nil
}
