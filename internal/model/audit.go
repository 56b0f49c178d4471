package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Audit actions emitted by the identity service.
const (
	AuditLoginSuccess     = "auth.login.success"
	AuditLoginFailed      = "auth.login.failed"
	AuditRegistered       = "identity.registered"
	AuditPasswordChanged  = "credential.password.changed"
	AuditPasswordRejected = "credential.password.rejected"
	AuditPromoted         = "identity.role.promoted"
	AuditDemoted          = "identity.role.demoted"
	AuditDeactivated      = "credential.deactivated"
	AuditProfileUpdated   = "credential.profile.updated"
	AuditClientLog        = "client.log"
)

// AuditEvent is one sensitive operation. Meta must already be redacted.
type AuditEvent struct {
	ID         uuid.UUID
	Action     string
	ActorID    *int64
	TargetID   *int64
	Meta       map[string]any
	OccurredAt time.Time
}

// AuditSink consumes audit events.
type AuditSink interface {
	Record(ctx context.Context, event AuditEvent) error
}
