package middleware

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/identity-server/internal/guard"
	"github.com/dtroode/identity-server/internal/logger"
	"github.com/dtroode/identity-server/internal/model"
)

// Authenticate validates bearer tokens and injects the token into context.
type Authenticate struct {
	verifier       guard.Verifier
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(verifier guard.Verifier, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{verifier: verifier, contextManager: contextManager, logger: logger}
}

// AuthFunc reads the "authorization: bearer <token>" header, rejects
// missing, malformed or expired tokens and stores the token in context.
func (m *Authenticate) AuthFunc(ctx context.Context) (context.Context, error) {
	token, err := auth.AuthFromMD(ctx, "bearer")
	if err != nil {
		return nil, err
	}

	claims, err := guard.Authenticated(m.verifier, token)
	if err != nil {
		m.logger.Debug("Authenticate middleware: token rejected",
			"error", err.Error())
		return nil, status.Error(codes.Unauthenticated, "invalid authorization token")
	}

	m.logger.Debug("Authenticate middleware: caller authenticated",
		"identity_id", claims.IdentityID)

	return m.contextManager.SetTokenToContext(ctx, token), nil
}
