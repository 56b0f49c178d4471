package postgres

import (
	"context"
	"fmt"

	"github.com/dtroode/identity-server/internal/model"
)

var _ model.AuditSink = (*AuditRepository)(nil)

// AuditRepository appends audit events to audit.audit_log.
type AuditRepository struct {
	db DBTX
}

func NewAuditRepository(db *Connection) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Record(ctx context.Context, event model.AuditEvent) error {
	const query = `
        INSERT INTO audit.audit_log (id, action, actor_id, target_id, meta, occurred_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `

	var meta any
	if len(event.Meta) > 0 {
		meta = event.Meta
	}

	if _, err := r.db.Exec(ctx, query,
		event.ID, event.Action, event.ActorID, event.TargetID, meta, event.OccurredAt,
	); err != nil {
		return fmt.Errorf("failed to insert audit event: %w", err)
	}
	return nil
}
