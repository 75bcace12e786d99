package domain

import (
	"context"
	"time"

	"github.com/Rrens/teamspace/internal/rbac"
	"github.com/google/uuid"
)

// User represents a platform user
type User struct {
	ID               uuid.UUID  `json:"id"`
	Email            string     `json:"email"`
	DisplayName      string     `json:"display_name"`
	PasswordHash     string     `json:"-"`
	SystemRole       rbac.Role  `json:"system_role"`
	OrganizationID   *uuid.UUID `json:"organization_id,omitempty"`
	OrganizationRole rbac.Role  `json:"organization_role,omitempty"`
	IsActive         bool       `json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// InOrganization reports whether the user belongs to orgID
func (u *User) InOrganization(orgID uuid.UUID) bool {
	return u.OrganizationID != nil && *u.OrganizationID == orgID
}

// UserCreate represents user registration data
type UserCreate struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"display_name" validate:"omitempty,max=255"`
}

// UserLogin represents login credentials
type UserLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenPair represents JWT token pair
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// RoleChange is the payload for changing an organization, workspace or
// system role
type RoleChange struct {
	Role   string `json:"role" validate:"required,max=64"`
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// StatusChange is the payload for activating or deactivating a user
type StatusChange struct {
	IsActive *bool  `json:"is_active" validate:"required"`
	Reason   string `json:"reason" validate:"omitempty,max=500"`
}

// UserRepository defines the interface for user storage.
// Lookups return nil, nil when the user does not exist.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]User, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]User, error)
	UpdateSystemRole(ctx context.Context, id uuid.UUID, role rbac.Role) error
	UpdateOrganizationRole(ctx context.Context, id uuid.UUID, role rbac.Role) error
	UpdateStatus(ctx context.Context, id uuid.UUID, active bool) error
}
