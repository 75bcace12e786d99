package authz

import (
	"context"
	"fmt"

	"github.com/Rrens/teamspace/internal/domain"
	"github.com/Rrens/teamspace/internal/rbac"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// UserStore is the subset of user storage the resolver reads
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// WorkspaceStore is the subset of workspace storage the resolver reads
type WorkspaceStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Workspace, error)
	GetMember(ctx context.Context, workspaceID, userID uuid.UUID) (*domain.WorkspaceMember, error)
}

// IdentityCache holds short-lived user snapshots. Get returns nil, nil on
// a miss.
type IdentityCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	Set(ctx context.Context, user *domain.User) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// Identity is the resolved authorization view of a user
type Identity struct {
	UserID           uuid.UUID
	Exists           bool
	Active           bool
	SystemRole       rbac.Role
	OrganizationID   *uuid.UUID
	OrganizationRole rbac.Role
}

// InOrganization reports whether the identity belongs to any organization
func (i Identity) InOrganization() bool {
	return i.OrganizationID != nil
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithIdentityCache puts cache in front of the user store
func WithIdentityCache(cache IdentityCache) ResolverOption {
	return func(r *Resolver) {
		r.cache = cache
	}
}

// WithStrictRoles makes missing or unrecognized role data resolve to no
// role at all instead of member
func WithStrictRoles(strict bool) ResolverOption {
	return func(r *Resolver) {
		r.strict = strict
	}
}

// Resolver maps a user id to roles and memberships. Absent data resolves
// to the least privileged answer; only storage failures are errors.
type Resolver struct {
	users      UserStore
	workspaces WorkspaceStore
	cache      IdentityCache
	strict     bool
}

// NewResolver creates a new resolver
func NewResolver(users UserStore, workspaces WorkspaceStore, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		users:      users,
		workspaces: workspaces,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) fallbackRole() rbac.Role {
	if r.strict {
		return rbac.RoleUnknown
	}
	return rbac.RoleMember
}

func (r *Resolver) loadUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if r.cache != nil {
		user, err := r.cache.Get(ctx, userID)
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID.String()).Msg("identity cache read failed")
		} else if user != nil {
			return user, nil
		}
	}

	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user != nil && r.cache != nil {
		if err := r.cache.Set(ctx, user); err != nil {
			log.Warn().Err(err).Str("user_id", userID.String()).Msg("identity cache write failed")
		}
	}

	return user, nil
}

// Identity resolves every organization-level attribute of userID at once.
// A user without a record resolves to an active identity holding the
// fallback role and no organization.
func (r *Resolver) Identity(ctx context.Context, userID uuid.UUID) (Identity, error) {
	id := Identity{
		UserID:     userID,
		Active:     true,
		SystemRole: r.fallbackRole(),
	}

	user, err := r.loadUser(ctx, userID)
	if err != nil {
		return Identity{}, err
	}
	if user == nil {
		return id, nil
	}

	id.Exists = true
	id.Active = user.IsActive
	if user.SystemRole.Valid() {
		id.SystemRole = user.SystemRole
	}

	id.OrganizationID = user.OrganizationID
	switch {
	case user.OrganizationID == nil:
		id.OrganizationRole = rbac.RoleUnknown
	case user.OrganizationRole.Valid():
		id.OrganizationRole = user.OrganizationRole
	default:
		id.OrganizationRole = id.SystemRole
	}

	return id, nil
}

// UserSystemRole returns the system role of userID
func (r *Resolver) UserSystemRole(ctx context.Context, userID uuid.UUID) (rbac.Role, error) {
	id, err := r.Identity(ctx, userID)
	if err != nil {
		return rbac.RoleUnknown, err
	}
	return id.SystemRole, nil
}

// UserOrganizationID returns the organization of userID, or nil
func (r *Resolver) UserOrganizationID(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	id, err := r.Identity(ctx, userID)
	if err != nil {
		return nil, err
	}
	return id.OrganizationID, nil
}

// UserOrganizationRole returns the organization role of userID. It falls
// back to the system role, then to the default role, when no organization
// role is recorded.
func (r *Resolver) UserOrganizationRole(ctx context.Context, userID uuid.UUID) (rbac.Role, error) {
	id, err := r.Identity(ctx, userID)
	if err != nil {
		return rbac.RoleUnknown, err
	}
	if id.OrganizationRole.Valid() {
		return id.OrganizationRole, nil
	}
	return id.SystemRole, nil
}

// UserWorkspaceRole returns the role userID holds in workspaceID and
// whether they hold one at all. The owner is always workspace_admin.
func (r *Resolver) UserWorkspaceRole(ctx context.Context, userID, workspaceID uuid.UUID) (rbac.Role, bool, error) {
	ws, err := r.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return rbac.RoleUnknown, false, fmt.Errorf("failed to load workspace: %w", err)
	}
	if ws == nil {
		return rbac.RoleUnknown, false, nil
	}
	if ws.OwnerID == userID {
		return rbac.RoleWorkspaceAdmin, true, nil
	}

	member, err := r.workspaces.GetMember(ctx, workspaceID, userID)
	if err != nil {
		return rbac.RoleUnknown, false, fmt.Errorf("failed to load workspace member: %w", err)
	}
	if member == nil {
		return rbac.RoleUnknown, false, nil
	}
	if !member.Role.Valid() {
		return r.fallbackRole(), true, nil
	}
	return member.Role, true, nil
}

// AreInSameOrganization reports whether both users belong to the same
// organization. Users without an organization are never in the same one.
func (r *Resolver) AreInSameOrganization(ctx context.Context, a, b uuid.UUID) (bool, error) {
	ida, err := r.Identity(ctx, a)
	if err != nil {
		return false, err
	}
	idb, err := r.Identity(ctx, b)
	if err != nil {
		return false, err
	}
	return sameOrganization(ida, idb), nil
}

// Invalidate drops any cached snapshot of userID
func (r *Resolver) Invalidate(ctx context.Context, userID uuid.UUID) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, userID); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("identity cache invalidation failed")
	}
}

func sameOrganization(a, b Identity) bool {
	return a.OrganizationID != nil && b.OrganizationID != nil && *a.OrganizationID == *b.OrganizationID
}
