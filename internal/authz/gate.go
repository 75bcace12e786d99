package authz

import (
	"context"

	"github.com/Rrens/teamspace/internal/rbac"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Grant describes why a request was admitted
type Grant struct {
	UserID         uuid.UUID
	Role           rbac.Role
	OrganizationID *uuid.UUID
	WorkspaceID    *uuid.UUID
	ViaOwnership   bool
}

// Gate decides whether a user may perform an action. Every method either
// returns a Grant or an error; a *Denial for a refusal, anything else for
// a failure to decide. Callers must treat both as "do not proceed".
type Gate struct {
	registry *rbac.Registry
	resolver *Resolver
}

// NewGate creates a new authorization gate
func NewGate(registry *rbac.Registry, resolver *Resolver) *Gate {
	return &Gate{
		registry: registry,
		resolver: resolver,
	}
}

// Registry returns the role registry the gate evaluates against
func (g *Gate) Registry() *rbac.Registry {
	return g.registry
}

// Resolver returns the identity resolver the gate reads through
func (g *Gate) Resolver() *Resolver {
	return g.resolver
}

func (g *Gate) identity(ctx context.Context, userID uuid.UUID) (Identity, error) {
	if userID == uuid.Nil {
		return Identity{}, unauthenticated()
	}

	id, err := g.resolver.Identity(ctx, userID)
	if err != nil {
		return Identity{}, err
	}
	if !id.Active {
		return Identity{}, forbidden(ReasonAccountDeactivated)
	}
	return id, nil
}

// RequireActive admits any authenticated user whose account is active. It
// guards routes that need no permission beyond being signed in.
func (g *Gate) RequireActive(ctx context.Context, userID uuid.UUID) error {
	_, err := g.identity(ctx, userID)
	return err
}

// RequirePermission admits userID when their system role holds permission
func (g *Gate) RequirePermission(ctx context.Context, userID uuid.UUID, permission rbac.Permission) (*Grant, error) {
	id, err := g.identity(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !g.registry.HasPermission(id.SystemRole, permission) {
		d := forbidden(ReasonInsufficientPermissions)
		d.Required = permission
		d.UserRole = id.SystemRole
		logDenial(userID, d)
		return nil, d
	}

	return &Grant{
		UserID:         userID,
		Role:           id.SystemRole,
		OrganizationID: id.OrganizationID,
	}, nil
}

// RequireOrganizationPermission admits userID when they belong to an
// organization and their organization role holds permission
func (g *Gate) RequireOrganizationPermission(ctx context.Context, userID uuid.UUID, permission rbac.Permission) (*Grant, error) {
	id, err := g.identity(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !id.InOrganization() {
		d := forbidden(ReasonNoOrganization)
		d.Required = permission
		logDenial(userID, d)
		return nil, d
	}

	if !g.registry.HasPermission(id.OrganizationRole, permission) {
		d := forbidden(ReasonInsufficientOrgPermissions)
		d.Required = permission
		d.UserRole = id.OrganizationRole
		logDenial(userID, d)
		return nil, d
	}

	return &Grant{
		UserID:         userID,
		Role:           id.OrganizationRole,
		OrganizationID: id.OrganizationID,
	}, nil
}

// RequireWorkspacePermission admits userID when they own or are a member
// of workspaceID and their workspace role holds permission
func (g *Gate) RequireWorkspacePermission(ctx context.Context, userID, workspaceID uuid.UUID, permission rbac.Permission) (*Grant, error) {
	id, err := g.identity(ctx, userID)
	if err != nil {
		return nil, err
	}

	if workspaceID == uuid.Nil {
		return nil, badRequest(ReasonWorkspaceIDRequired)
	}

	role, member, err := g.resolver.UserWorkspaceRole(ctx, userID, workspaceID)
	if err != nil {
		return nil, err
	}

	if !member {
		d := forbidden(ReasonNotWorkspaceMember)
		d.Required = permission
		d.WorkspaceID = workspaceID.String()
		logDenial(userID, d)
		return nil, d
	}

	if !g.registry.HasPermission(role, permission) {
		d := forbidden(ReasonInsufficientWorkspacePerms)
		d.Required = permission
		d.UserRole = role
		d.WorkspaceID = workspaceID.String()
		logDenial(userID, d)
		return nil, d
	}

	return &Grant{
		UserID:         userID,
		Role:           role,
		OrganizationID: id.OrganizationID,
		WorkspaceID:    &workspaceID,
	}, nil
}

// RequireOwnershipOrRole admits userID when they are one of owners, or
// otherwise when their system role is at least minRole
func (g *Gate) RequireOwnershipOrRole(ctx context.Context, userID uuid.UUID, owners []uuid.UUID, minRole rbac.Role) (*Grant, error) {
	id, err := g.identity(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, owner := range owners {
		if owner == userID {
			return &Grant{
				UserID:         userID,
				Role:           id.SystemRole,
				OrganizationID: id.OrganizationID,
				ViaOwnership:   true,
			}, nil
		}
	}

	if rbac.Level(id.SystemRole) < rbac.Level(minRole) {
		d := forbidden(ReasonInsufficientPermissions)
		d.UserRole = id.SystemRole
		logDenial(userID, d)
		return nil, d
	}

	return &Grant{
		UserID:         userID,
		Role:           id.SystemRole,
		OrganizationID: id.OrganizationID,
	}, nil
}

func logDenial(userID uuid.UUID, d *Denial) {
	log.Debug().
		Str("user_id", userID.String()).
		Str("reason", d.Reason).
		Str("required", string(d.Required)).
		Str("user_role", d.UserRole.String()).
		Str("workspace_id", d.WorkspaceID).
		Msg("authorization denied")
}
