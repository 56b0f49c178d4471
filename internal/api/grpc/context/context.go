package context

import (
	"context"

	"google.golang.org/grpc/metadata"
)

// tokenKey is the metadata key used to store and retrieve the verified session token.
const (
	tokenKey string = "x-session-token"
)

// Manager represents a gRPC context manager for session token operations.
// It provides methods to set and retrieve tokens from gRPC metadata.
type Manager struct{}

// NewManager creates a new gRPC context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetTokenToContext stores token in the incoming metadata of ctx,
// replacing any value a client may have sent under the same key.
func (m *Manager) SetTokenToContext(ctx context.Context, token string) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		md = metadata.New(map[string]string{tokenKey: token})
	} else {
		md = md.Copy()
		md.Set(tokenKey, token)
	}

	return metadata.NewIncomingContext(ctx, md)
}

// GetTokenFromContext retrieves the session token from gRPC context metadata.
//
// Returns the token and a boolean indicating if a non-empty token was found.
func (m *Manager) GetTokenFromContext(ctx context.Context) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}

	tokens := md.Get(tokenKey)
	if len(tokens) == 0 || tokens[0] == "" {
		return "", false
	}

	return tokens[0], true
}
