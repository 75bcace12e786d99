package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/Rrens/teamspace/internal/rbac"
	"github.com/google/uuid"
)

// InvitationScope tells which membership an invitation grants
type InvitationScope string

const (
	ScopeOrganization InvitationScope = "organization"
	ScopeWorkspace    InvitationScope = "workspace"
)

// InvitationStatus is the lifecycle state of an invitation
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationExpired  InvitationStatus = "expired"
)

// Terminal reports whether no further transition is allowed from s
func (s InvitationStatus) Terminal() bool {
	return s == InvitationAccepted || s == InvitationDeclined || s == InvitationExpired
}

// Invitation offers a role in an organization or one of its workspaces
type Invitation struct {
	ID             uuid.UUID        `json:"id"`
	Scope          InvitationScope  `json:"scope"`
	OrganizationID uuid.UUID        `json:"organization_id"`
	WorkspaceID    *uuid.UUID       `json:"workspace_id,omitempty"`
	Email          string           `json:"email"`
	InviteeID      *uuid.UUID       `json:"invitee_id,omitempty"`
	Role           rbac.Role        `json:"role"`
	InvitedBy      uuid.UUID        `json:"invited_by"`
	Status         InvitationStatus `json:"status"`
	ExpiresAt      time.Time        `json:"expires_at"`
	RespondedAt    *time.Time       `json:"responded_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// TargetID is the organization or workspace the invitation grants access to
func (i *Invitation) TargetID() uuid.UUID {
	if i.Scope == ScopeWorkspace && i.WorkspaceID != nil {
		return *i.WorkspaceID
	}
	return i.OrganizationID
}

// IsExpired reports whether a pending invitation has passed its expiry
func (i *Invitation) IsExpired(now time.Time) bool {
	return i.Status == InvitationPending && !now.Before(i.ExpiresAt)
}

// Transition moves a pending invitation to a terminal status
func (i *Invitation) Transition(to InvitationStatus, at time.Time) error {
	if !to.Terminal() {
		return fmt.Errorf("invalid invitation transition to %q", to)
	}
	if i.Status != InvitationPending {
		return ErrInvitationNotPending
	}

	i.Status = to
	if to != InvitationExpired {
		i.RespondedAt = &at
	}
	return nil
}

// ExpireIfDue flips a pending invitation past its expiry to expired and
// reports whether it did
func (i *Invitation) ExpireIfDue(now time.Time) bool {
	if !i.IsExpired(now) {
		return false
	}
	i.Status = InvitationExpired
	return true
}

// InvitationCreate represents invitation creation data
type InvitationCreate struct {
	Email string `json:"email" validate:"required,email,max=255"`
	Role  string `json:"role" validate:"required,max=64"`
}

// InvitationRepository defines the interface for invitation storage
type InvitationRepository interface {
	// Create fails with ErrPendingInvitationExists when a pending invitation
	// for the same target and email exists
	Create(ctx context.Context, inv *Invitation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Invitation, error)
	FindPending(ctx context.Context, scope InvitationScope, targetID uuid.UUID, email string) (*Invitation, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]Invitation, error)
	ListByEmail(ctx context.Context, email string) ([]Invitation, error)
	// UpdateStatus moves id from one status to another only if it is still
	// in from; it reports whether a row changed
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to InvitationStatus, at time.Time) (bool, error)
	// Accept transitions a pending invitation to accepted and writes the
	// resulting membership in one transaction. It returns
	// ErrInvitationNotPending when the invitation was already consumed.
	Accept(ctx context.Context, inv *Invitation, userID uuid.UUID, at time.Time) error
}
