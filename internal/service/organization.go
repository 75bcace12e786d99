package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rrens/teamspace/internal/audit"
	"github.com/Rrens/teamspace/internal/authz"
	"github.com/Rrens/teamspace/internal/domain"
	"github.com/Rrens/teamspace/internal/rbac"
	"github.com/google/uuid"
)

// OrganizationService handles organization and organization member operations
type OrganizationService struct {
	orgRepo  domain.OrganizationRepository
	userRepo domain.UserRepository
	gate     *authz.Gate
	audit    *audit.Recorder
	now      func() time.Time
}

// NewOrganizationService creates a new organization service
func NewOrganizationService(
	orgRepo domain.OrganizationRepository,
	userRepo domain.UserRepository,
	gate *authz.Gate,
	recorder *audit.Recorder,
) *OrganizationService {
	return &OrganizationService{
		orgRepo:  orgRepo,
		userRepo: userRepo,
		gate:     gate,
		audit:    recorder,
		now:      time.Now,
	}
}

// Create creates an organization owned by userID. The caller's
// organization fields are written once; a caller that already belongs to
// an organization is rejected.
func (s *OrganizationService) Create(ctx context.Context, userID uuid.UUID, input domain.OrganizationCreate) (*domain.Organization, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
	}
	if !user.IsActive {
		return nil, domain.ErrAccountDeactivated
	}
	if user.OrganizationID != nil {
		return nil, domain.ErrAlreadyInOrganization
	}

	settings := domain.DefaultOrganizationSettings()
	if input.Settings != nil {
		settings = *input.Settings
	}

	now := s.now().UTC()
	org := &domain.Organization{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		OwnerID:     userID,
		MemberCount: 1,
		Settings:    settings,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.orgRepo.CreateWithOwner(ctx, org); err != nil {
		if errors.Is(err, domain.ErrAlreadyInOrganization) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}
	s.gate.Resolver().Invalidate(ctx, userID)

	s.audit.Record(ctx, audit.Event{
		Type:           domain.AuditOrganizationCreated,
		OrganizationID: &org.ID,
		ActorID:        userID,
		TargetID:       org.ID,
		After:          rbac.RoleOrgOwner.String(),
		Reason:         "Organization created",
	})

	return org, nil
}

// Get retrieves an organization by ID
func (s *OrganizationService) Get(ctx context.Context, orgID uuid.UUID) (*domain.Organization, error) {
	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	if org == nil {
		return nil, fmt.Errorf("organization: %w", domain.ErrNotFound)
	}
	return org, nil
}

// Update updates an organization's name, description or settings
func (s *OrganizationService) Update(ctx context.Context, orgID uuid.UUID, input domain.OrganizationUpdate) (*domain.Organization, error) {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		input.Name = &name
	}

	if err := s.orgRepo.Update(ctx, orgID, &input); err != nil {
		return nil, err
	}
	return s.Get(ctx, orgID)
}

// ListMembers lists the users of an organization
func (s *OrganizationService) ListMembers(ctx context.Context, orgID uuid.UUID) ([]domain.User, error) {
	members, err := s.userRepo.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// member loads targetID and checks actorID may apply change to it
func (s *OrganizationService) member(ctx context.Context, actorID, orgID, targetID uuid.UUID, change authz.MemberChange) (*domain.User, error) {
	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if target == nil {
		return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
	}

	// users outside the organization look the same whatever their role
	if !target.InOrganization(orgID) {
		return nil, fmt.Errorf("organization member: %w", domain.ErrNotFound)
	}

	if err := s.gate.AuthorizeMemberChange(ctx, actorID, targetID, change); err != nil {
		return nil, err
	}

	return target, nil
}

// UpdateMemberRole changes the organization role of targetID
func (s *OrganizationService) UpdateMemberRole(ctx context.Context, actorID, orgID, targetID uuid.UUID, input domain.RoleChange) (*domain.User, error) {
	role, err := authz.ParseRequestedRole(input.Role)
	if err != nil {
		return nil, err
	}

	target, err := s.member(ctx, actorID, orgID, targetID, authz.MemberChange{NewRole: &role})
	if err != nil {
		return nil, err
	}

	before := target.OrganizationRole
	if !before.Valid() {
		before = target.SystemRole
	}

	if err := s.userRepo.UpdateOrganizationRole(ctx, targetID, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	s.gate.Resolver().Invalidate(ctx, targetID)

	s.audit.Record(ctx, audit.Event{
		Type:           domain.AuditRoleChange,
		OrganizationID: &orgID,
		ActorID:        actorID,
		TargetID:       targetID,
		Before:         before.String(),
		After:          role.String(),
		Reason:         input.Reason,
	})

	target.OrganizationRole = role
	return target, nil
}

// UpdateMemberStatus activates or deactivates targetID
func (s *OrganizationService) UpdateMemberStatus(ctx context.Context, actorID, orgID, targetID uuid.UUID, input domain.StatusChange) (*domain.User, error) {
	if input.IsActive == nil {
		return nil, fmt.Errorf("%w: is_active is required", domain.ErrInvalidInput)
	}
	active := *input.IsActive

	target, err := s.member(ctx, actorID, orgID, targetID, authz.MemberChange{StatusChange: true})
	if err != nil {
		return nil, err
	}

	before := target.IsActive
	if err := s.userRepo.UpdateStatus(ctx, targetID, active); err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	s.gate.Resolver().Invalidate(ctx, targetID)

	s.audit.Record(ctx, audit.Event{
		Type:           domain.AuditStatusChange,
		OrganizationID: &orgID,
		ActorID:        actorID,
		TargetID:       targetID,
		Before:         statusLabel(before),
		After:          statusLabel(active),
		Reason:         input.Reason,
	})

	target.IsActive = active
	return target, nil
}

// ListAuditLogs returns a page of the organization's audit trail
func (s *OrganizationService) ListAuditLogs(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]domain.AuditEntry, error) {
	return s.audit.List(ctx, orgID, limit, offset)
}

func statusLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}
