package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Rrens/teamspace/internal/audit"
	"github.com/Rrens/teamspace/internal/authz"
	"github.com/Rrens/teamspace/internal/domain"
	"github.com/google/uuid"
)

// errOwnerHasNoMemberRow is returned when a member operation targets the
// workspace owner, whose access comes from ownership
var errOwnerHasNoMemberRow = fmt.Errorf("%w: the workspace owner is not a member record", domain.ErrConflict)

// WorkspaceService handles workspace operations
type WorkspaceService struct {
	workspaceRepo domain.WorkspaceRepository
	orgRepo       domain.OrganizationRepository
	gate          *authz.Gate
	audit         *audit.Recorder
	now           func() time.Time
}

// NewWorkspaceService creates a new workspace service
func NewWorkspaceService(
	workspaceRepo domain.WorkspaceRepository,
	orgRepo domain.OrganizationRepository,
	gate *authz.Gate,
	recorder *audit.Recorder,
) *WorkspaceService {
	return &WorkspaceService{
		workspaceRepo: workspaceRepo,
		orgRepo:       orgRepo,
		gate:          gate,
		audit:         recorder,
		now:           time.Now,
	}
}

// Create creates a workspace in orgID owned by userID. Workspaces are
// private unless asked otherwise, and public ones need the organization
// to allow them.
func (s *WorkspaceService) Create(ctx context.Context, userID, orgID uuid.UUID, input domain.WorkspaceCreate) (*domain.Workspace, error) {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	if org == nil {
		return nil, fmt.Errorf("organization: %w", domain.ErrNotFound)
	}

	isPrivate := true
	if input.IsPrivate != nil {
		isPrivate = *input.IsPrivate
	}
	if !isPrivate && !org.Settings.AllowPublicWorkspaces {
		return nil, authz.Forbidden(authz.ReasonPublicWorkspacesDisabled)
	}

	now := s.now().UTC()
	workspace := &domain.Workspace{
		ID:             uuid.New(),
		Name:           strings.TrimSpace(input.Name),
		Description:    input.Description,
		OwnerID:        userID,
		OrganizationID: orgID,
		IsPrivate:      isPrivate,
		MemberCount:    1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.workspaceRepo.Create(ctx, workspace); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	return workspace, nil
}

// GetByID retrieves a workspace by ID
func (s *WorkspaceService) GetByID(ctx context.Context, workspaceID uuid.UUID) (*domain.Workspace, error) {
	workspace, err := s.workspaceRepo.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}
	if workspace == nil {
		return nil, fmt.Errorf("workspace: %w", domain.ErrNotFound)
	}
	return workspace, nil
}

// ListByUser retrieves the workspaces a user owns or belongs to
func (s *WorkspaceService) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Workspace, error) {
	workspaces, err := s.workspaceRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	return workspaces, nil
}

// Update updates a workspace
func (s *WorkspaceService) Update(ctx context.Context, workspaceID uuid.UUID, input domain.WorkspaceUpdate) (*domain.Workspace, error) {
	workspace, err := s.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	if input.IsPrivate != nil && !*input.IsPrivate && workspace.IsPrivate {
		org, err := s.orgRepo.GetByID(ctx, workspace.OrganizationID)
		if err != nil {
			return nil, fmt.Errorf("failed to get organization: %w", err)
		}
		if org == nil || !org.Settings.AllowPublicWorkspaces {
			return nil, authz.Forbidden(authz.ReasonPublicWorkspacesDisabled)
		}
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		input.Name = &name
	}

	if err := s.workspaceRepo.Update(ctx, workspaceID, &input); err != nil {
		return nil, err
	}

	return s.GetByID(ctx, workspaceID)
}

// Delete deletes a workspace of the caller's organization
func (s *WorkspaceService) Delete(ctx context.Context, orgID, workspaceID uuid.UUID) error {
	workspace, err := s.GetByID(ctx, workspaceID)
	if err != nil {
		return err
	}
	if workspace.OrganizationID != orgID {
		return authz.Forbidden(authz.ReasonWorkspaceOutsideOrganization)
	}

	return s.workspaceRepo.Delete(ctx, workspaceID)
}

// ListMembers lists the member records of a workspace
func (s *WorkspaceService) ListMembers(ctx context.Context, workspaceID uuid.UUID) ([]domain.WorkspaceMember, error) {
	members, err := s.workspaceRepo.ListMembers(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// managedMember loads the member record of targetID and checks that
// actorID outranks it
func (s *WorkspaceService) managedMember(ctx context.Context, actorID, targetID uuid.UUID, workspace *domain.Workspace) (*domain.WorkspaceMember, error) {
	if targetID == workspace.OwnerID {
		return nil, errOwnerHasNoMemberRow
	}

	member, err := s.workspaceRepo.GetMember(ctx, workspace.ID, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	if member == nil {
		return nil, fmt.Errorf("workspace member: %w", domain.ErrNotFound)
	}

	if actorID == targetID {
		return member, nil
	}

	actorRole, _, err := s.gate.Resolver().UserWorkspaceRole(ctx, actorID, workspace.ID)
	if err != nil {
		return nil, err
	}
	if err := authz.AuthorizeOutrank(actorRole, member.Role); err != nil {
		return nil, err
	}

	return member, nil
}

// UpdateMemberRole changes the workspace role of targetID. The caller must
// outrank the member's current role and may only grant roles below their own.
func (s *WorkspaceService) UpdateMemberRole(ctx context.Context, actorID, workspaceID, targetID uuid.UUID, input domain.RoleChange) (*domain.WorkspaceMember, error) {
	role, err := authz.ParseRequestedRole(input.Role)
	if err != nil {
		return nil, err
	}

	workspace, err := s.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	if actorID == targetID {
		return nil, authz.Forbidden(authz.ReasonCannotManageUser)
	}
	member, err := s.managedMember(ctx, actorID, targetID, workspace)
	if err != nil {
		return nil, err
	}

	actorRole, _, err := s.gate.Resolver().UserWorkspaceRole(ctx, actorID, workspaceID)
	if err != nil {
		return nil, err
	}
	if err := authz.AuthorizeRoleGrant(actorRole, role); err != nil {
		return nil, err
	}

	if err := s.workspaceRepo.UpdateMemberRole(ctx, workspaceID, targetID, role); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Event{
		Type:           domain.AuditRoleChange,
		OrganizationID: &workspace.OrganizationID,
		WorkspaceID:    &workspace.ID,
		ActorID:        actorID,
		TargetID:       targetID,
		Before:         member.Role.String(),
		After:          role.String(),
		Reason:         input.Reason,
	})

	member.Role = role
	return member, nil
}

// RemoveMember removes targetID from a workspace. Members may always
// remove themselves.
func (s *WorkspaceService) RemoveMember(ctx context.Context, actorID, workspaceID, targetID uuid.UUID) error {
	workspace, err := s.GetByID(ctx, workspaceID)
	if err != nil {
		return err
	}

	member, err := s.managedMember(ctx, actorID, targetID, workspace)
	if err != nil {
		return err
	}

	if err := s.workspaceRepo.RemoveMember(ctx, workspaceID, targetID); err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Event{
		Type:           domain.AuditMemberRemoved,
		OrganizationID: &workspace.OrganizationID,
		WorkspaceID:    &workspace.ID,
		ActorID:        actorID,
		TargetID:       targetID,
		Before:         member.Role.String(),
	})

	return nil
}
