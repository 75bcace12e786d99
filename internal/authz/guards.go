package authz

import (
	"context"

	"github.com/Rrens/teamspace/internal/rbac"
	"github.com/google/uuid"
)

// MemberChange describes a privileged change to another user's
// organization membership
type MemberChange struct {
	// NewRole is set for role changes
	NewRole *rbac.Role
	// StatusChange marks an activation or deactivation
	StatusChange bool
}

// effectiveRole is the role an actor manages other members with. A system
// super_admin outranks everyone regardless of organization role.
func effectiveRole(id Identity) rbac.Role {
	if id.SystemRole == rbac.RoleSuperAdmin {
		return rbac.RoleSuperAdmin
	}
	if id.OrganizationRole.Valid() {
		return id.OrganizationRole
	}
	return id.SystemRole
}

// ManagingRole is the role the identity manages other members and hands
// out invitations with
func (i Identity) ManagingRole() rbac.Role {
	return effectiveRole(i)
}

// CanManageUser reports whether actorID may manage targetID: both must be
// in the same organization and the actor must strictly outrank the target.
func (g *Gate) CanManageUser(ctx context.Context, actorID, targetID uuid.UUID) (bool, error) {
	actor, err := g.resolver.Identity(ctx, actorID)
	if err != nil {
		return false, err
	}
	target, err := g.resolver.Identity(ctx, targetID)
	if err != nil {
		return false, err
	}
	return canManage(actor, target), nil
}

func canManage(actor, target Identity) bool {
	if !sameOrganization(actor, target) {
		return false
	}
	return rbac.Outranks(effectiveRole(actor), effectiveRole(target))
}

// AuthorizeMemberChange runs every check that guards changing another
// member's organization role or status, in order: same organization, the
// organization owner guard, rank, then the assignable role ceiling.
// Ownership only moves with the organization, so org_owner is never
// assignable here.
func (g *Gate) AuthorizeMemberChange(ctx context.Context, actorID, targetID uuid.UUID, change MemberChange) error {
	actor, err := g.identity(ctx, actorID)
	if err != nil {
		return err
	}
	target, err := g.resolver.Identity(ctx, targetID)
	if err != nil {
		return err
	}

	superAdmin := actor.SystemRole == rbac.RoleSuperAdmin

	if !superAdmin && !sameOrganization(actor, target) {
		d := forbidden(ReasonDifferentOrganization)
		logDenial(actorID, d)
		return d
	}

	if target.OrganizationRole == rbac.RoleOrgOwner && !superAdmin {
		reason := ReasonOwnerRoleProtected
		if change.StatusChange {
			reason = ReasonOwnerDeactivationProtected
		}
		d := forbidden(reason)
		d.UserRole = effectiveRole(actor)
		logDenial(actorID, d)
		return d
	}

	if !rbac.Outranks(effectiveRole(actor), effectiveRole(target)) {
		d := forbidden(ReasonCannotManageUser)
		d.UserRole = effectiveRole(actor)
		logDenial(actorID, d)
		return d
	}

	if change.NewRole == nil {
		return nil
	}
	if *change.NewRole == rbac.RoleOrgOwner {
		d := forbidden(ReasonOwnerNotAssignable)
		d.UserRole = effectiveRole(actor)
		logDenial(actorID, d)
		return d
	}
	if !rbac.CanAssignRole(effectiveRole(actor), *change.NewRole) {
		d := forbidden(ReasonRoleTooHigh)
		d.UserRole = effectiveRole(actor)
		logDenial(actorID, d)
		return d
	}

	return nil
}

// AuthorizeRoleGrant checks that a holder of acting may hand out target,
// for invitations and workspace role changes
func AuthorizeRoleGrant(acting, target rbac.Role) error {
	if !rbac.CanAssignRole(acting, target) {
		d := forbidden(ReasonRoleTooHigh)
		d.UserRole = acting
		return d
	}
	return nil
}

// AuthorizeOutrank checks that acting strictly outranks the current role
// of the member being managed
func AuthorizeOutrank(acting, current rbac.Role) error {
	if !rbac.Outranks(acting, current) {
		d := forbidden(ReasonCannotManageUser)
		d.UserRole = acting
		return d
	}
	return nil
}
