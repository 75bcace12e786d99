package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rrens/teamspace/internal/domain"
	"github.com/Rrens/teamspace/internal/rbac"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const invitationColumns = `id, scope, organization_id, workspace_id, email, invitee_id,
	role, invited_by, status, expires_at, responded_at, created_at`

// InvitationRepository handles invitation data access
type InvitationRepository struct {
	db *DB
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(db *DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

func scanInvitation(row pgx.Row) (*domain.Invitation, error) {
	var inv domain.Invitation
	var scope, role, status string

	if err := row.Scan(
		&inv.ID,
		&scope,
		&inv.OrganizationID,
		&inv.WorkspaceID,
		&inv.Email,
		&inv.InviteeID,
		&role,
		&inv.InvitedBy,
		&status,
		&inv.ExpiresAt,
		&inv.RespondedAt,
		&inv.CreatedAt,
	); err != nil {
		return nil, err
	}

	inv.Scope = domain.InvitationScope(scope)
	inv.Role = rbac.NormalizeRole(role)
	inv.Status = domain.InvitationStatus(status)
	return &inv, nil
}

// Create stores a new pending invitation
func (r *InvitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	query := `
		INSERT INTO invitations (id, scope, organization_id, workspace_id, email, invitee_id,
			role, invited_by, status, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		inv.ID,
		string(inv.Scope),
		inv.OrganizationID,
		inv.WorkspaceID,
		strings.ToLower(inv.Email),
		inv.InviteeID,
		inv.Role.String(),
		inv.InvitedBy,
		string(inv.Status),
		inv.ExpiresAt,
		inv.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrPendingInvitationExists
		}
		return fmt.Errorf("failed to create invitation: %w", err)
	}

	return nil
}

// GetByID retrieves an invitation by ID
func (r *InvitationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE id = $1`

	inv, err := scanInvitation(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	return inv, nil
}

// FindPending returns the pending invitation for a target and email, if any
func (r *InvitationRepository) FindPending(ctx context.Context, scope domain.InvitationScope, targetID uuid.UUID, email string) (*domain.Invitation, error) {
	query := `
		SELECT ` + invitationColumns + `
		FROM invitations
		WHERE scope = $1
		  AND COALESCE(workspace_id, organization_id) = $2
		  AND email = $3
		  AND status = 'pending'
	`

	inv, err := scanInvitation(r.db.Pool.QueryRow(ctx, query, string(scope), targetID, strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find pending invitation: %w", err)
	}

	return inv, nil
}

// ListByOrganization lists every invitation issued within an organization
func (r *InvitationRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]domain.Invitation, error) {
	query := `
		SELECT ` + invitationColumns + `
		FROM invitations
		WHERE organization_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, orgID)
}

// ListByEmail lists the invitations addressed to an email
func (r *InvitationRepository) ListByEmail(ctx context.Context, email string) ([]domain.Invitation, error) {
	query := `
		SELECT ` + invitationColumns + `
		FROM invitations
		WHERE email = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, strings.ToLower(email))
}

func (r *InvitationRepository) list(ctx context.Context, query string, args ...any) ([]domain.Invitation, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	invitations := []domain.Invitation{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		invitations = append(invitations, *inv)
	}

	return invitations, rows.Err()
}

// UpdateStatus performs a conditional status transition
func (r *InvitationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.InvitationStatus, at time.Time) (bool, error) {
	var respondedAt *time.Time
	if to != domain.InvitationExpired {
		respondedAt = &at
	}

	query := `
		UPDATE invitations
		SET status = $3, responded_at = COALESCE($4, responded_at)
		WHERE id = $1 AND status = $2
	`

	tag, err := r.db.Pool.Exec(ctx, query, id, string(from), string(to), respondedAt)
	if err != nil {
		return false, fmt.Errorf("failed to update invitation status: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Accept consumes a pending invitation and grants its membership
func (r *InvitationRepository) Accept(ctx context.Context, inv *domain.Invitation, userID uuid.UUID, at time.Time) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE invitations
			SET status = 'accepted', responded_at = $2, invitee_id = $3
			WHERE id = $1 AND status = 'pending'
		`, inv.ID, at, userID)
		if err != nil {
			return fmt.Errorf("failed to accept invitation: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrInvitationNotPending
		}

		switch inv.Scope {
		case domain.ScopeOrganization:
			return joinOrganization(ctx, tx, inv, userID)
		case domain.ScopeWorkspace:
			return joinWorkspace(ctx, tx, inv, userID, at)
		default:
			return fmt.Errorf("unknown invitation scope %q", inv.Scope)
		}
	})
}

func joinOrganization(ctx context.Context, tx pgx.Tx, inv *domain.Invitation, userID uuid.UUID) error {
	tag, err := tx.Exec(ctx, `
		UPDATE users
		SET organization_id = $2, organization_role = $3, updated_at = NOW()
		WHERE id = $1 AND organization_id IS NULL
	`, userID, inv.OrganizationID, inv.Role.String())
	if err != nil {
		return fmt.Errorf("failed to join organization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyInOrganization
	}

	if _, err := tx.Exec(ctx,
		`UPDATE organizations SET member_count = member_count + 1, updated_at = NOW() WHERE id = $1`,
		inv.OrganizationID,
	); err != nil {
		return fmt.Errorf("failed to update member count: %w", err)
	}

	return nil
}

func joinWorkspace(ctx context.Context, tx pgx.Tx, inv *domain.Invitation, userID uuid.UUID, at time.Time) error {
	tag, err := tx.Exec(ctx, `
		INSERT INTO workspace_members (workspace_id, user_id, role, invited_by, joined_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (workspace_id, user_id) DO NOTHING
	`, inv.WorkspaceID, userID, inv.Role.String(), inv.InvitedBy, at)
	if err != nil {
		return fmt.Errorf("failed to add workspace member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyMember
	}

	if _, err := tx.Exec(ctx,
		`UPDATE workspaces SET member_count = member_count + 1, updated_at = NOW() WHERE id = $1`,
		inv.WorkspaceID,
	); err != nil {
		return fmt.Errorf("failed to update member count: %w", err)
	}

	return nil
}
