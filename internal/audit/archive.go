package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/dtroode/identity-server/internal/model"
)

// Archive stores each event as a JSON object keyed by day.
type Archive struct {
	storage model.ObjectStorage
	prefix  string
}

func NewArchive(storage model.ObjectStorage, prefix string) *Archive {
	return &Archive{storage: storage, prefix: prefix}
}

type archivedEvent struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	ActorID    *int64         `json:"actor_id,omitempty"`
	TargetID   *int64         `json:"target_id,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
	OccurredAt string         `json:"occurred_at"`
}

// Key returns the object key for event, e.g. audit/2024/05/01/<id>.json.
func (a *Archive) Key(event model.AuditEvent) string {
	return path.Join(a.prefix, event.OccurredAt.UTC().Format("2006/01/02"), event.ID.String()+".json")
}

func (a *Archive) Record(ctx context.Context, event model.AuditEvent) error {
	body, err := json.Marshal(archivedEvent{
		ID:         event.ID.String(),
		Action:     event.Action,
		ActorID:    event.ActorID,
		TargetID:   event.TargetID,
		Meta:       event.Meta,
		OccurredAt: event.OccurredAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
	if err != nil {
		return fmt.Errorf("failed to encode audit event: %w", err)
	}

	if err := a.storage.Upload(ctx, a.Key(event), bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
		return fmt.Errorf("failed to archive audit event: %w", err)
	}
	return nil
}
