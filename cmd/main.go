package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc/reflection"

	grpcctx "github.com/dtroode/identity-server/internal/api/grpc/context"
	"github.com/dtroode/identity-server/internal/api/grpc/router"
	grpcServer "github.com/dtroode/identity-server/internal/api/grpc/server"
	"github.com/dtroode/identity-server/internal/audit"
	"github.com/dtroode/identity-server/internal/config"
	"github.com/dtroode/identity-server/internal/logger"
	"github.com/dtroode/identity-server/internal/model"
	"github.com/dtroode/identity-server/internal/password"
	"github.com/dtroode/identity-server/internal/repository/memory"
	"github.com/dtroode/identity-server/internal/repository/postgres"
	"github.com/dtroode/identity-server/internal/server"
	"github.com/dtroode/identity-server/internal/service"
	storage "github.com/dtroode/identity-server/internal/storage/minio"
	"github.com/dtroode/identity-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	sinks := audit.Multi{audit.NewLogSink(logger)}

	var store model.Store
	switch cfg.Database.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		store = memory.NewStore()
	default:
		db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
		if err != nil {
			logger.Fatal("failed to initialize storage", "error", err)
		}
		defer db.Close()

		store = postgres.NewStore(db)
		if cfg.Audit.DatabaseEnabled {
			sinks = append(sinks, postgres.NewAuditRepository(db))
		}
	}

	if cfg.Storage.Enabled {
		storageClient, err := storage.Dial(ctx, storage.Options{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			logger.Fatal("failed to initialize storage client", "error", err)
		}
		sinks = append(sinks, audit.NewArchive(storageClient, cfg.Audit.ArchivePrefix))
	}

	hasher, err := password.NewHasher(cfg.Hash.Iterations, cfg.Hash.SaltBytes)
	if err != nil {
		logger.Fatal("failed to create password hasher", "error", err)
	}
	tokenManager := token.NewJWT(cfg.JWT.Secret, cfg.JWT.TTL)

	identityService := service.NewIdentity(store, hasher, tokenManager, sinks, logger, cfg.Database.Timeout)
	seedAdmin(ctx, logger, identityService, cfg.Bootstrap)

	gateway := service.NewGateway(identityService, tokenManager, logger)

	r := router.New(gateway, tokenManager, grpcctx.NewManager(), logger)
	s := r.Register()
	reflection.Register(s)

	grpcSrv := grpcServer.NewGRPCServer(s, fmt.Sprintf(":%s", cfg.GRPC.Port))
	sl := server.NewSecurityLayer(cfg.GRPC.EnableHTTPS, cfg.GRPC.CertFileName, cfg.GRPC.PrivateKeyFileName)
	if !cfg.GRPC.EnableHTTPS {
		logger.Warn("TLS is disabled, bearer tokens travel in plaintext")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		err := s.Start(sl)
		if err != nil {
			logger.Error("failed to start server", "error", err)
			stop()
		}
	}(grpcSrv)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	r.Shutdown()
	if err := grpcSrv.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", grpcSrv.Address())
	}
	identityService.Wait()

	wg.Wait()
	logger.Info("shutdown complete")
}

// seedAdmin creates the configured admin account when the store is empty.
func seedAdmin(ctx context.Context, logger *logger.Logger, identityService *service.Identity, cfg config.Bootstrap) {
	if !cfg.Enabled() {
		return
	}

	identity, created, err := identityService.SeedAdmin(ctx, service.RegisterParams{
		Username:  cfg.Username,
		Password:  cfg.Password,
		FirstName: cfg.FirstName,
		LastName:  cfg.LastName,
		Role:      model.RoleAdmin,
	})
	if err != nil {
		logger.Fatal("failed to seed admin account", "error", err)
	}
	if created {
		logger.Info("seeded admin account", "username", identity.Username, "id", identity.ID)
		return
	}
	logger.Debug("store already populated, admin seed skipped")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
