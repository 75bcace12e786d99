package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OrganizationSettings holds the per-organization policy switches
type OrganizationSettings struct {
	AllowPublicWorkspaces bool `json:"allow_public_workspaces"`
	RequireApproval       bool `json:"require_approval"`
}

// DefaultOrganizationSettings returns the settings new organizations start with
func DefaultOrganizationSettings() OrganizationSettings {
	return OrganizationSettings{
		AllowPublicWorkspaces: true,
		RequireApproval:       false,
	}
}

// Organization is the top-level tenant
type Organization struct {
	ID          uuid.UUID            `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	OwnerID     uuid.UUID            `json:"owner_id"`
	MemberCount int                  `json:"member_count"`
	Settings    OrganizationSettings `json:"settings"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// OrganizationCreate represents organization creation data
type OrganizationCreate struct {
	Name        string                `json:"name" validate:"required,max=255"`
	Description string                `json:"description" validate:"omitempty,max=2000"`
	Settings    *OrganizationSettings `json:"settings,omitempty"`
}

// OrganizationUpdate represents organization update data
type OrganizationUpdate struct {
	Name        *string               `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string               `json:"description,omitempty" validate:"omitempty,max=2000"`
	Settings    *OrganizationSettings `json:"settings,omitempty"`
}

// OrganizationRepository defines the interface for organization storage
type OrganizationRepository interface {
	// CreateWithOwner stores org and makes ownerID its org_owner in one
	// transaction. It fails with ErrAlreadyInOrganization when the owner
	// already has an organization.
	CreateWithOwner(ctx context.Context, org *Organization) error
	GetByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	Update(ctx context.Context, id uuid.UUID, update *OrganizationUpdate) error
}
