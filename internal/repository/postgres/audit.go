package postgres

import (
	"context"
	"fmt"

	"github.com/Rrens/teamspace/internal/domain"
	"github.com/google/uuid"
)

// AuditRepository stores audit entries in postgres
type AuditRepository struct {
	db *DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append inserts an audit entry
func (r *AuditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	query := `
		INSERT INTO audit_logs (id, event_type, organization_id, workspace_id, actor_id,
			target_id, before_value, after_value, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		entry.ID,
		string(entry.Type),
		entry.OrganizationID,
		entry.WorkspaceID,
		entry.ActorID,
		entry.TargetID,
		entry.Before,
		entry.After,
		entry.Reason,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	return nil
}

// ListByOrganization returns a page of an organization's entries, newest first
func (r *AuditRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]domain.AuditEntry, error) {
	query := `
		SELECT id, event_type, organization_id, workspace_id, actor_id, target_id,
			before_value, after_value, reason, created_at
		FROM audit_logs
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, orgID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.AuditEntry{}
	for rows.Next() {
		var e domain.AuditEntry
		var eventType string
		if err := rows.Scan(
			&e.ID,
			&eventType,
			&e.OrganizationID,
			&e.WorkspaceID,
			&e.ActorID,
			&e.TargetID,
			&e.Before,
			&e.After,
			&e.Reason,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Type = domain.AuditEventType(eventType)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
