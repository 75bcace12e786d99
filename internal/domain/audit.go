package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditEventType classifies audit entries
type AuditEventType string

const (
	AuditOrganizationCreated AuditEventType = "organization_created"
	AuditRoleChange          AuditEventType = "role_change"
	AuditStatusChange        AuditEventType = "status_change"
	AuditMemberJoined        AuditEventType = "member_joined"
	AuditMemberRemoved       AuditEventType = "member_removed"
	AuditInvitationCreated   AuditEventType = "invitation_created"
	AuditInvitationDeclined  AuditEventType = "invitation_declined"
)

// AuditEntry is an immutable record of a privileged change
type AuditEntry struct {
	ID             uuid.UUID      `json:"id"`
	Type           AuditEventType `json:"type"`
	OrganizationID *uuid.UUID     `json:"organization_id,omitempty"`
	WorkspaceID    *uuid.UUID     `json:"workspace_id,omitempty"`
	ActorID        uuid.UUID      `json:"actor_id"`
	TargetID       uuid.UUID      `json:"target_id"`
	Before         string         `json:"before,omitempty"`
	After          string         `json:"after,omitempty"`
	Reason         string         `json:"reason"`
	CreatedAt      time.Time      `json:"created_at"`
}

// AuditRepository is an append-only store of audit entries
type AuditRepository interface {
	Append(ctx context.Context, entry *AuditEntry) error
	// ListByOrganization returns entries newest first
	ListByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]AuditEntry, error)
}
