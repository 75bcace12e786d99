package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/teamspace/internal/domain"
	"github.com/Rrens/teamspace/internal/rbac"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const workspaceColumns = `w.id, w.name, w.description, w.owner_id, w.organization_id,
	w.is_private, w.member_count, w.created_at, w.updated_at`

// WorkspaceRepository handles workspace data access
type WorkspaceRepository struct {
	db *DB
}

// NewWorkspaceRepository creates a new workspace repository
func NewWorkspaceRepository(db *DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

func scanWorkspace(row pgx.Row) (*domain.Workspace, error) {
	var ws domain.Workspace
	if err := row.Scan(
		&ws.ID,
		&ws.Name,
		&ws.Description,
		&ws.OwnerID,
		&ws.OrganizationID,
		&ws.IsPrivate,
		&ws.MemberCount,
		&ws.CreatedAt,
		&ws.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ws, nil
}

// Create creates a new workspace. The owner is not stored as a member row.
func (r *WorkspaceRepository) Create(ctx context.Context, workspace *domain.Workspace) error {
	query := `
		INSERT INTO workspaces (id, name, description, owner_id, organization_id,
			is_private, member_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		workspace.ID,
		workspace.Name,
		workspace.Description,
		workspace.OwnerID,
		workspace.OrganizationID,
		workspace.IsPrivate,
		workspace.MemberCount,
		workspace.CreatedAt,
		workspace.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}

	return nil
}

// GetByID retrieves a workspace by ID
func (r *WorkspaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workspace, error) {
	query := `SELECT ` + workspaceColumns + ` FROM workspaces w WHERE w.id = $1`

	ws, err := scanWorkspace(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get workspace: %w", err)
	}

	return ws, nil
}

// ListByUserID retrieves all workspaces a user owns or is a member of
func (r *WorkspaceRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Workspace, error) {
	query := `
		SELECT ` + workspaceColumns + `
		FROM workspaces w
		LEFT JOIN workspace_members wm ON w.id = wm.workspace_id AND wm.user_id = $1
		WHERE w.owner_id = $1 OR wm.user_id IS NOT NULL
		ORDER BY w.created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	defer rows.Close()

	workspaces := []domain.Workspace{}
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workspace: %w", err)
		}
		workspaces = append(workspaces, *ws)
	}

	return workspaces, rows.Err()
}

// Update updates a workspace
func (r *WorkspaceRepository) Update(ctx context.Context, id uuid.UUID, update *domain.WorkspaceUpdate) error {
	query := `
		UPDATE workspaces
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    is_private = COALESCE($4, is_private),
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, id, update.Name, update.Description, update.IsPrivate)
	if err != nil {
		return fmt.Errorf("failed to update workspace: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workspace: %w", domain.ErrNotFound)
	}

	return nil
}

// Delete deletes a workspace together with its members and tasks
func (r *WorkspaceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM workspaces WHERE id = $1`

	tag, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workspace: %w", domain.ErrNotFound)
	}

	return nil
}

func scanMember(row pgx.Row) (*domain.WorkspaceMember, error) {
	var m domain.WorkspaceMember
	var role string
	if err := row.Scan(
		&m.WorkspaceID,
		&m.UserID,
		&role,
		&m.InvitedBy,
		&m.JoinedAt,
	); err != nil {
		return nil, err
	}
	m.Role = rbac.NormalizeRole(role)
	return &m, nil
}

// GetMember retrieves a workspace member
func (r *WorkspaceRepository) GetMember(ctx context.Context, workspaceID, userID uuid.UUID) (*domain.WorkspaceMember, error) {
	query := `
		SELECT workspace_id, user_id, role, invited_by, joined_at
		FROM workspace_members
		WHERE workspace_id = $1 AND user_id = $2
	`

	member, err := scanMember(r.db.Pool.QueryRow(ctx, query, workspaceID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}

// ListMembers lists the member rows of a workspace
func (r *WorkspaceRepository) ListMembers(ctx context.Context, workspaceID uuid.UUID) ([]domain.WorkspaceMember, error) {
	query := `
		SELECT workspace_id, user_id, role, invited_by, joined_at
		FROM workspace_members
		WHERE workspace_id = $1
		ORDER BY joined_at ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	members := []domain.WorkspaceMember{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, *m)
	}

	return members, rows.Err()
}

// UpdateMemberRole changes the role of an existing member
func (r *WorkspaceRepository) UpdateMemberRole(ctx context.Context, workspaceID, userID uuid.UUID, role rbac.Role) error {
	query := `UPDATE workspace_members SET role = $3 WHERE workspace_id = $1 AND user_id = $2`

	tag, err := r.db.Pool.Exec(ctx, query, workspaceID, userID, role.String())
	if err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workspace member: %w", domain.ErrNotFound)
	}

	return nil
}

// RemoveMember removes a member from a workspace and decrements its count
func (r *WorkspaceRepository) RemoveMember(ctx context.Context, workspaceID, userID uuid.UUID) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM workspace_members WHERE workspace_id = $1 AND user_id = $2`,
			workspaceID, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("workspace member: %w", domain.ErrNotFound)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE workspaces SET member_count = member_count - 1, updated_at = NOW() WHERE id = $1`,
			workspaceID,
		); err != nil {
			return fmt.Errorf("failed to update member count: %w", err)
		}

		return nil
	})
}
