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

// DefaultInvitationTTL is used when no positive TTL is configured
const DefaultInvitationTTL = 7 * 24 * time.Hour

// InvitationService issues invitations and applies their responses
type InvitationService struct {
	invitationRepo domain.InvitationRepository
	userRepo       domain.UserRepository
	workspaceRepo  domain.WorkspaceRepository
	gate           *authz.Gate
	audit          *audit.Recorder
	ttl            time.Duration
	now            func() time.Time
}

// NewInvitationService creates a new invitation service
func NewInvitationService(
	invitationRepo domain.InvitationRepository,
	userRepo domain.UserRepository,
	workspaceRepo domain.WorkspaceRepository,
	gate *authz.Gate,
	recorder *audit.Recorder,
	ttl time.Duration,
) *InvitationService {
	if ttl <= 0 {
		ttl = DefaultInvitationTTL
	}
	return &InvitationService{
		invitationRepo: invitationRepo,
		userRepo:       userRepo,
		workspaceRepo:  workspaceRepo,
		gate:           gate,
		audit:          recorder,
		ttl:            ttl,
		now:            time.Now,
	}
}

// InviteToOrganization invites an email into orgID. The inviter may only
// offer roles below their own organization role.
func (s *InvitationService) InviteToOrganization(ctx context.Context, inviterID, orgID uuid.UUID, input domain.InvitationCreate) (*domain.Invitation, error) {
	role, err := authz.ParseRequestedRole(input.Role)
	if err != nil {
		return nil, err
	}

	inviter, err := s.gate.Resolver().Identity(ctx, inviterID)
	if err != nil {
		return nil, err
	}
	if err := authz.AuthorizeRoleGrant(inviter.ManagingRole(), role); err != nil {
		return nil, err
	}

	email := normalizeEmail(input.Email)
	invitee, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get invitee: %w", err)
	}
	if invitee != nil && invitee.OrganizationID != nil {
		return nil, domain.ErrAlreadyInOrganization
	}

	inv := s.newInvitation(domain.ScopeOrganization, orgID, nil, email, role, inviterID)
	if invitee != nil {
		inv.InviteeID = &invitee.ID
	}

	if err := s.create(ctx, inv); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Event{
		Type:           domain.AuditInvitationCreated,
		OrganizationID: &orgID,
		ActorID:        inviterID,
		TargetID:       inv.ID,
		After:          role.String(),
		Reason:         "Invited " + email,
	})

	return inv, nil
}

// InviteToWorkspace invites a member of the workspace's organization into
// workspaceID. The inviter may only offer roles below their workspace role.
func (s *InvitationService) InviteToWorkspace(ctx context.Context, inviterID, workspaceID uuid.UUID, input domain.InvitationCreate) (*domain.Invitation, error) {
	role, err := authz.ParseRequestedRole(input.Role)
	if err != nil {
		return nil, err
	}

	ws, err := s.workspaceRepo.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}
	if ws == nil {
		return nil, fmt.Errorf("workspace: %w", domain.ErrNotFound)
	}

	inviterRole, _, err := s.gate.Resolver().UserWorkspaceRole(ctx, inviterID, workspaceID)
	if err != nil {
		return nil, err
	}
	if err := authz.AuthorizeRoleGrant(inviterRole, role); err != nil {
		return nil, err
	}

	email := normalizeEmail(input.Email)
	invitee, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get invitee: %w", err)
	}
	if invitee == nil || !invitee.InOrganization(ws.OrganizationID) {
		return nil, authz.Forbidden(authz.ReasonInviteeOutsideOrganization)
	}

	if invitee.ID == ws.OwnerID {
		return nil, domain.ErrAlreadyMember
	}
	member, err := s.workspaceRepo.GetMember(ctx, workspaceID, invitee.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	if member != nil {
		return nil, domain.ErrAlreadyMember
	}

	inv := s.newInvitation(domain.ScopeWorkspace, ws.OrganizationID, &ws.ID, email, role, inviterID)
	inv.InviteeID = &invitee.ID

	if err := s.create(ctx, inv); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Event{
		Type:           domain.AuditInvitationCreated,
		OrganizationID: &ws.OrganizationID,
		WorkspaceID:    &ws.ID,
		ActorID:        inviterID,
		TargetID:       inv.ID,
		After:          role.String(),
		Reason:         "Invited " + email,
	})

	return inv, nil
}

func (s *InvitationService) newInvitation(scope domain.InvitationScope, orgID uuid.UUID, workspaceID *uuid.UUID, email string, role rbac.Role, inviterID uuid.UUID) *domain.Invitation {
	now := s.now().UTC()
	return &domain.Invitation{
		ID:             uuid.New(),
		Scope:          scope,
		OrganizationID: orgID,
		WorkspaceID:    workspaceID,
		Email:          email,
		Role:           role,
		InvitedBy:      inviterID,
		Status:         domain.InvitationPending,
		ExpiresAt:      now.Add(s.ttl),
		CreatedAt:      now,
	}
}

// create stores inv unless a live pending invitation already covers the
// same target and email. A stale one is expired first.
func (s *InvitationService) create(ctx context.Context, inv *domain.Invitation) error {
	existing, err := s.invitationRepo.FindPending(ctx, inv.Scope, inv.TargetID(), inv.Email)
	if err != nil {
		return fmt.Errorf("failed to check pending invitations: %w", err)
	}
	if existing != nil {
		expired, err := s.expire(ctx, existing)
		if err != nil {
			return err
		}
		if !expired {
			return domain.ErrPendingInvitationExists
		}
	}

	if err := s.invitationRepo.Create(ctx, inv); err != nil {
		if errors.Is(err, domain.ErrPendingInvitationExists) {
			return err
		}
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

// expire lazily moves a pending invitation past its expiry to expired
func (s *InvitationService) expire(ctx context.Context, inv *domain.Invitation) (bool, error) {
	if !inv.ExpireIfDue(s.now()) {
		return false, nil
	}
	if _, err := s.invitationRepo.UpdateStatus(ctx, inv.ID, domain.InvitationPending, domain.InvitationExpired, s.now().UTC()); err != nil {
		return false, fmt.Errorf("failed to expire invitation: %w", err)
	}
	return true, nil
}

func (s *InvitationService) expireAll(ctx context.Context, invitations []domain.Invitation) error {
	for i := range invitations {
		if _, err := s.expire(ctx, &invitations[i]); err != nil {
			return err
		}
	}
	return nil
}

// ListForOrganization lists the invitations issued within orgID
func (s *InvitationService) ListForOrganization(ctx context.Context, orgID uuid.UUID) ([]domain.Invitation, error) {
	invitations, err := s.invitationRepo.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	if err := s.expireAll(ctx, invitations); err != nil {
		return nil, err
	}
	return invitations, nil
}

// ListForUser lists the invitations addressed to userID
func (s *InvitationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Invitation, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return []domain.Invitation{}, nil
	}

	invitations, err := s.invitationRepo.ListByEmail(ctx, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	if err := s.expireAll(ctx, invitations); err != nil {
		return nil, err
	}
	return invitations, nil
}

// respondable loads an invitation addressed to userID and checks it can
// still be answered
func (s *InvitationService) respondable(ctx context.Context, userID, invitationID uuid.UUID) (*domain.Invitation, error) {
	inv, err := s.invitationRepo.GetByID(ctx, invitationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	if inv == nil {
		return nil, fmt.Errorf("invitation: %w", domain.ErrNotFound)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	addressed := user != nil && (normalizeEmail(user.Email) == inv.Email ||
		(inv.InviteeID != nil && *inv.InviteeID == userID))
	if !addressed {
		return nil, fmt.Errorf("invitation: %w", domain.ErrNotFound)
	}
	if !user.IsActive {
		return nil, domain.ErrAccountDeactivated
	}

	expired, err := s.expire(ctx, inv)
	if err != nil {
		return nil, err
	}
	if expired || inv.Status == domain.InvitationExpired {
		return nil, domain.ErrInvitationExpired
	}
	if inv.Status != domain.InvitationPending {
		return nil, domain.ErrInvitationNotPending
	}

	return inv, nil
}

// Accept accepts an invitation on behalf of userID and grants its role.
// A second accept fails with ErrInvitationNotPending and changes nothing.
func (s *InvitationService) Accept(ctx context.Context, userID, invitationID uuid.UUID) (*domain.Invitation, error) {
	inv, err := s.respondable(ctx, userID, invitationID)
	if err != nil {
		return nil, err
	}

	at := s.now().UTC()
	if err := s.invitationRepo.Accept(ctx, inv, userID, at); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvitationNotPending),
			errors.Is(err, domain.ErrAlreadyInOrganization),
			errors.Is(err, domain.ErrAlreadyMember):
			return nil, err
		}
		return nil, fmt.Errorf("failed to accept invitation: %w", err)
	}
	if err := inv.Transition(domain.InvitationAccepted, at); err != nil {
		return nil, err
	}
	inv.InviteeID = &userID

	if inv.Scope == domain.ScopeOrganization {
		s.gate.Resolver().Invalidate(ctx, userID)
	}

	s.audit.Record(ctx, audit.Event{
		Type:           domain.AuditMemberJoined,
		OrganizationID: &inv.OrganizationID,
		WorkspaceID:    inv.WorkspaceID,
		ActorID:        userID,
		TargetID:       userID,
		After:          inv.Role.String(),
		Reason:         "Accepted invitation",
	})

	return inv, nil
}

// Decline declines an invitation on behalf of userID
func (s *InvitationService) Decline(ctx context.Context, userID, invitationID uuid.UUID) (*domain.Invitation, error) {
	inv, err := s.respondable(ctx, userID, invitationID)
	if err != nil {
		return nil, err
	}

	at := s.now().UTC()
	changed, err := s.invitationRepo.UpdateStatus(ctx, inv.ID, domain.InvitationPending, domain.InvitationDeclined, at)
	if err != nil {
		return nil, fmt.Errorf("failed to decline invitation: %w", err)
	}
	if !changed {
		return nil, domain.ErrInvitationNotPending
	}
	if err := inv.Transition(domain.InvitationDeclined, at); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Event{
		Type:           domain.AuditInvitationDeclined,
		OrganizationID: &inv.OrganizationID,
		WorkspaceID:    inv.WorkspaceID,
		ActorID:        userID,
		TargetID:       inv.ID,
		Before:         string(domain.InvitationPending),
		After:          string(domain.InvitationDeclined),
		Reason:         "Declined invitation",
	})

	return inv, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
