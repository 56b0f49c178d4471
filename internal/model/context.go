package model

import "context"

// ContextManager carries the caller's bearer token through a request context.
type ContextManager interface {
	SetTokenToContext(ctx context.Context, token string) context.Context
	GetTokenFromContext(ctx context.Context) (string, bool)
}
