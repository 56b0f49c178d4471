// Package audit records sensitive identity operations.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/identity-server/internal/logger"
	"github.com/dtroode/identity-server/internal/model"
	"github.com/dtroode/identity-server/internal/redact"
)

// NewEvent builds an event with a fresh id. Meta is redacted.
func NewEvent(action string, actorID, targetID *int64, meta map[string]any) model.AuditEvent {
	return model.AuditEvent{
		ID:         uuid.New(),
		Action:     action,
		ActorID:    actorID,
		TargetID:   targetID,
		Meta:       redact.Map(meta),
		OccurredAt: time.Now().UTC(),
	}
}

// ID is a convenience for the optional actor and target fields.
func ID(id int64) *int64 {
	return &id
}

// LogSink writes events to the application log.
type LogSink struct {
	logger *logger.Logger
}

func NewLogSink(l *logger.Logger) *LogSink {
	return &LogSink{logger: l}
}

func (s *LogSink) Record(_ context.Context, event model.AuditEvent) error {
	args := []any{"id", event.ID.String(), "action", event.Action}
	if event.ActorID != nil {
		args = append(args, "actor_id", *event.ActorID)
	}
	if event.TargetID != nil {
		args = append(args, "target_id", *event.TargetID)
	}
	for k, v := range event.Meta {
		args = append(args, k, v)
	}
	s.logger.Info("Audit:", args...)
	return nil
}

// Multi fans an event out to every sink and joins their errors.
type Multi []model.AuditSink

func (m Multi) Record(ctx context.Context, event model.AuditEvent) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
