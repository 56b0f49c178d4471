package router

import (
	"context"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/selector"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/identity-server/internal/api/grpc/handler"
	"github.com/dtroode/identity-server/internal/api/grpc/middleware"
	"github.com/dtroode/identity-server/internal/guard"
	"github.com/dtroode/identity-server/internal/logger"
	"github.com/dtroode/identity-server/internal/model"
)

// Router represents a gRPC router for identity operations.
// It manages gRPC service registration and middleware configuration.
type Router struct {
	identityService handler.IdentityService
	verifier        guard.Verifier
	contextManager  model.ContextManager
	logger          *logger.Logger
	health          *health.Server
}

// New creates new gRPC Router instance.
func New(
	identityService handler.IdentityService,
	verifier guard.Verifier,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Router {
	return &Router{
		identityService: identityService,
		verifier:        verifier,
		contextManager:  contextManager,
		logger:          logger,
		health:          health.NewServer(),
	}
}

// publicMethods are reachable without a bearer token.
var publicMethods = map[string]struct{}{
	handler.MethodRegister:     {},
	handler.MethodAuthenticate: {},
}

func authRequired(_ context.Context, c interceptors.CallMeta) bool {
	if strings.HasPrefix(c.FullMethod(), "/"+healthpb.Health_ServiceDesc.ServiceName+"/") {
		return false
	}
	_, public := publicMethods[c.FullMethod()]
	return !public
}

// Register registers all gRPC services and middleware.
// It sets up the gRPC server with request logging, panic recovery and
// authentication interceptors.
//
// Returns the configured gRPC server instance.
func (r *Router) Register(opts ...grpc.ServerOption) *grpc.Server {
	logging := middleware.NewLogging(r.logger)
	recovered := middleware.NewRecovery(r.logger)
	authenticate := middleware.NewAuthenticate(r.verifier, r.contextManager, r.logger)

	opts = append(opts,
		grpc.ChainUnaryInterceptor(
			logging.HandleGRPC,
			recovery.UnaryServerInterceptor(recovery.WithRecoveryHandlerContext(recovered.HandlePanic)),
			selector.UnaryServerInterceptor(
				auth.UnaryServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(authRequired),
			),
		),
		grpc.ChainStreamInterceptor(
			recovery.StreamServerInterceptor(recovery.WithRecoveryHandlerContext(recovered.HandlePanic)),
			selector.StreamServerInterceptor(
				auth.StreamServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(authRequired),
			),
		),
	)

	s := grpc.NewServer(opts...)
	r.registerIdentityRoutes(s)
	r.registerHealth(s)

	return s
}

// Shutdown marks every service as not serving.
func (r *Router) Shutdown() {
	r.health.Shutdown()
}

func (r *Router) registerIdentityRoutes(server *grpc.Server) {
	identityHandler := handler.NewIdentity(r.identityService, r.contextManager, r.logger)
	handler.RegisterIdentityServer(server, identityHandler)
}

func (r *Router) registerHealth(server *grpc.Server) {
	healthpb.RegisterHealthServer(server, r.health)
	r.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	r.health.SetServingStatus(handler.ServiceName, healthpb.HealthCheckResponse_SERVING)
}
