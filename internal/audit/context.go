package audit

import "context"

type actorKey struct{}

// WithActor attaches the acting identity to ctx so events recorded further
// down the call chain carry it.
func WithActor(ctx context.Context, identityID int64) context.Context {
	return context.WithValue(ctx, actorKey{}, identityID)
}

// ActorFrom returns the acting identity attached by WithActor, if any.
func ActorFrom(ctx context.Context) *int64 {
	id, ok := ctx.Value(actorKey{}).(int64)
	if !ok {
		return nil
	}
	return &id
}
