// Package sqlite provides a single-file audit store for deployments that
// keep the audit trail apart from the primary database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Rrens/teamspace/internal/domain"
	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// AuditStore is an append-only audit log backed by SQLite
type AuditStore struct {
	db *sql.DB
}

// Open opens (or creates) the audit database at path. Use ":memory:" for
// a throwaway store.
func Open(ctx context.Context, path string) (*AuditStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	s := &AuditStore{db: db}
	if err := s.ensureTable(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *AuditStore) ensureTable(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id TEXT PRIMARY KEY,
			event_type TEXT NOT NULL,
			organization_id TEXT,
			workspace_id TEXT,
			actor_id TEXT NOT NULL,
			target_id TEXT NOT NULL,
			before_value TEXT NOT NULL DEFAULT '',
			after_value TEXT NOT NULL DEFAULT '',
			reason TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_logs_org_created
			ON audit_logs(organization_id, created_at DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create audit table: %w", err)
		}
	}
	return nil
}

func nullableID(id *uuid.UUID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

func parseNullableID(s sql.NullString) (*uuid.UUID, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s.String)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// Append inserts an audit entry
func (s *AuditStore) Append(ctx context.Context, entry *domain.AuditEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, event_type, organization_id, workspace_id, actor_id,
			target_id, before_value, after_value, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID.String(),
		string(entry.Type),
		nullableID(entry.OrganizationID),
		nullableID(entry.WorkspaceID),
		entry.ActorID.String(),
		entry.TargetID.String(),
		entry.Before,
		entry.After,
		entry.Reason,
		entry.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// ListByOrganization returns a page of an organization's entries, newest first
func (s *AuditStore) ListByOrganization(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]domain.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_type, organization_id, workspace_id, actor_id, target_id,
			before_value, after_value, reason, created_at
		FROM audit_logs
		WHERE organization_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, orgID.String(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.AuditEntry{}
	for rows.Next() {
		var (
			e                 domain.AuditEntry
			id, eventType     string
			actorID, targetID string
			orgCol, wsCol     sql.NullString
			createdAt         int64
		)
		if err := rows.Scan(&id, &eventType, &orgCol, &wsCol, &actorID, &targetID,
			&e.Before, &e.After, &e.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}

		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid audit entry id: %w", err)
		}
		if e.ActorID, err = uuid.Parse(actorID); err != nil {
			return nil, fmt.Errorf("invalid actor id: %w", err)
		}
		if e.TargetID, err = uuid.Parse(targetID); err != nil {
			return nil, fmt.Errorf("invalid target id: %w", err)
		}
		if e.OrganizationID, err = parseNullableID(orgCol); err != nil {
			return nil, fmt.Errorf("invalid organization id: %w", err)
		}
		if e.WorkspaceID, err = parseNullableID(wsCol); err != nil {
			return nil, fmt.Errorf("invalid workspace id: %w", err)
		}
		e.Type = domain.AuditEventType(eventType)
		e.CreatedAt = time.Unix(0, createdAt).UTC()

		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Ping verifies the database is reachable
func (s *AuditStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *AuditStore) Close() error {
	return s.db.Close()
}
