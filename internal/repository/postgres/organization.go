package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Rrens/teamspace/internal/domain"
	"github.com/Rrens/teamspace/internal/rbac"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrganizationRepository handles organization data access
type OrganizationRepository struct {
	db *DB
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// CreateWithOwner inserts org and attaches its owner as org_owner. The
// owner's organization fields are only written while still empty.
func (r *OrganizationRepository) CreateWithOwner(ctx context.Context, org *domain.Organization) error {
	settings, err := json.Marshal(org.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO organizations (id, name, description, owner_id, member_count, settings, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			org.ID,
			org.Name,
			org.Description,
			org.OwnerID,
			org.MemberCount,
			settings,
			org.CreatedAt,
			org.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create organization: %w", err)
		}

		tag, err := tx.Exec(ctx, `
			UPDATE users
			SET organization_id = $2, organization_role = $3, updated_at = NOW()
			WHERE id = $1 AND organization_id IS NULL
		`, org.OwnerID, org.ID, rbac.RoleOrgOwner.String())
		if err != nil {
			return fmt.Errorf("failed to attach owner: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrAlreadyInOrganization
		}

		return nil
	})
}

// GetByID retrieves an organization by ID
func (r *OrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	query := `
		SELECT id, name, description, owner_id, member_count, settings, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`

	var org domain.Organization
	var settingsJSON []byte

	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&org.ID,
		&org.Name,
		&org.Description,
		&org.OwnerID,
		&org.MemberCount,
		&settingsJSON,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	org.Settings = domain.DefaultOrganizationSettings()
	if len(settingsJSON) > 0 {
		if err := json.Unmarshal(settingsJSON, &org.Settings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
		}
	}

	return &org, nil
}

// Update updates an organization's name, description and settings
func (r *OrganizationRepository) Update(ctx context.Context, id uuid.UUID, update *domain.OrganizationUpdate) error {
	var settings []byte
	if update.Settings != nil {
		var err error
		settings, err = json.Marshal(update.Settings)
		if err != nil {
			return fmt.Errorf("failed to marshal settings: %w", err)
		}
	}

	query := `
		UPDATE organizations
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    settings = COALESCE($4, settings),
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, id, update.Name, update.Description, settings)
	if err != nil {
		return fmt.Errorf("failed to update organization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("organization: %w", domain.ErrNotFound)
	}

	return nil
}
