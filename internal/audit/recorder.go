package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/Rrens/teamspace/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultReason is recorded when the caller gives none
const DefaultReason = "Updated by administrator"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Event is a privileged change to be recorded
type Event struct {
	Type           domain.AuditEventType
	OrganizationID *uuid.UUID
	WorkspaceID    *uuid.UUID
	ActorID        uuid.UUID
	TargetID       uuid.UUID
	Before         string
	After          string
	Reason         string
}

// Recorder appends audit entries. Recording is best effort: a failed
// write is logged and never fails the operation being audited.
type Recorder struct {
	store   domain.AuditRepository
	timeout time.Duration
	now     func() time.Time
}

// NewRecorder creates a recorder writing to store. Each write gets at
// most timeout; zero means no limit.
func NewRecorder(store domain.AuditRepository, timeout time.Duration) *Recorder {
	return &Recorder{
		store:   store,
		timeout: timeout,
		now:     time.Now,
	}
}

// Record writes ev and returns the stored entry, or nil if the write
// failed. The write survives cancellation of ctx so a disconnecting
// client cannot drop the trail of a change that already happened.
func (r *Recorder) Record(ctx context.Context, ev Event) *domain.AuditEntry {
	entry := &domain.AuditEntry{
		ID:             uuid.New(),
		Type:           ev.Type,
		OrganizationID: ev.OrganizationID,
		WorkspaceID:    ev.WorkspaceID,
		ActorID:        ev.ActorID,
		TargetID:       ev.TargetID,
		Before:         ev.Before,
		After:          ev.After,
		Reason:         ev.Reason,
		CreatedAt:      r.now().UTC(),
	}
	if entry.Reason == "" {
		entry.Reason = DefaultReason
	}

	writeCtx := context.WithoutCancel(ctx)
	if r.timeout > 0 {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(writeCtx, r.timeout)
		defer cancel()
	}

	if err := r.store.Append(writeCtx, entry); err != nil {
		log.Warn().
			Err(err).
			Str("type", string(entry.Type)).
			Str("actor_id", entry.ActorID.String()).
			Str("target_id", entry.TargetID.String()).
			Msg("failed to write audit entry")
		return nil
	}

	return entry
}

// List returns one page of an organization's audit trail, newest first
func (r *Recorder) List(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := r.store.ListByOrganization(ctx, orgID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	return entries, nil
}
