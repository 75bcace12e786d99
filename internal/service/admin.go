package service

import (
	"context"
	"fmt"

	"github.com/Rrens/teamspace/internal/audit"
	"github.com/Rrens/teamspace/internal/authz"
	"github.com/Rrens/teamspace/internal/domain"
	"github.com/Rrens/teamspace/internal/rbac"
	"github.com/google/uuid"
)

// AdminService handles system-wide user administration
type AdminService struct {
	userRepo domain.UserRepository
	gate     *authz.Gate
	audit    *audit.Recorder
}

// NewAdminService creates a new admin service
func NewAdminService(userRepo domain.UserRepository, gate *authz.Gate, recorder *audit.Recorder) *AdminService {
	return &AdminService{
		userRepo: userRepo,
		gate:     gate,
		audit:    recorder,
	}
}

// ListUsers lists every user
func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// target loads targetID and checks the actor's system role outranks it
func (s *AdminService) target(ctx context.Context, actorID, targetID uuid.UUID) (*domain.User, rbac.Role, error) {
	if actorID == targetID {
		return nil, rbac.RoleUnknown, authz.Forbidden(authz.ReasonCannotManageUser)
	}

	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, rbac.RoleUnknown, fmt.Errorf("failed to get user: %w", err)
	}
	if target == nil {
		return nil, rbac.RoleUnknown, fmt.Errorf("user: %w", domain.ErrNotFound)
	}

	actorRole, err := s.gate.Resolver().UserSystemRole(ctx, actorID)
	if err != nil {
		return nil, rbac.RoleUnknown, err
	}
	if err := authz.AuthorizeOutrank(actorRole, target.SystemRole); err != nil {
		return nil, rbac.RoleUnknown, err
	}

	return target, actorRole, nil
}

func orgScope(u *domain.User) *uuid.UUID {
	if u.OrganizationID == nil {
		return nil
	}
	id := *u.OrganizationID
	return &id
}

// UpdateUserRole changes the system role of targetID
func (s *AdminService) UpdateUserRole(ctx context.Context, actorID, targetID uuid.UUID, input domain.RoleChange) (*domain.User, error) {
	role, err := authz.ParseRequestedRole(input.Role)
	if err != nil {
		return nil, err
	}

	target, actorRole, err := s.target(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}
	if err := authz.AuthorizeRoleGrant(actorRole, role); err != nil {
		return nil, err
	}

	before := target.SystemRole
	if err := s.userRepo.UpdateSystemRole(ctx, targetID, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	s.gate.Resolver().Invalidate(ctx, targetID)

	s.audit.Record(ctx, audit.Event{
		Type:           domain.AuditRoleChange,
		OrganizationID: orgScope(target),
		ActorID:        actorID,
		TargetID:       targetID,
		Before:         before.String(),
		After:          role.String(),
		Reason:         input.Reason,
	})

	target.SystemRole = role
	return target, nil
}

// UpdateUserStatus activates or deactivates targetID. Organization owners
// can only be deactivated by a super admin.
func (s *AdminService) UpdateUserStatus(ctx context.Context, actorID, targetID uuid.UUID, input domain.StatusChange) (*domain.User, error) {
	if input.IsActive == nil {
		return nil, fmt.Errorf("%w: is_active is required", domain.ErrInvalidInput)
	}
	active := *input.IsActive

	target, actorRole, err := s.target(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}
	if target.OrganizationRole == rbac.RoleOrgOwner && actorRole != rbac.RoleSuperAdmin {
		return nil, authz.Forbidden(authz.ReasonOwnerDeactivationProtected)
	}

	before := target.IsActive
	if err := s.userRepo.UpdateStatus(ctx, targetID, active); err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	s.gate.Resolver().Invalidate(ctx, targetID)

	s.audit.Record(ctx, audit.Event{
		Type:           domain.AuditStatusChange,
		OrganizationID: orgScope(target),
		ActorID:        actorID,
		TargetID:       targetID,
		Before:         statusLabel(before),
		After:          statusLabel(active),
		Reason:         input.Reason,
	})

	target.IsActive = active
	return target, nil
}
