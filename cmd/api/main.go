package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/staffdesk/roster-service/internal/api/http"
	"github.com/staffdesk/roster-service/internal/api/http/handlers"
	"github.com/staffdesk/roster-service/internal/auth"
	"github.com/staffdesk/roster-service/internal/config"
	"github.com/staffdesk/roster-service/internal/events"
	"github.com/staffdesk/roster-service/internal/observability"
	"github.com/staffdesk/roster-service/internal/persistence"
	"github.com/staffdesk/roster-service/internal/repository"
	"github.com/staffdesk/roster-service/internal/service"
	"github.com/staffdesk/roster-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var (
		staffRepo repository.StaffRepository
		adminRepo repository.AdminAccountRepository
		auditRepo repository.AuditRepository
	)
	if pool := pg.PoolHandle(); pool != nil {
		staffRepo = repository.NewStaffRepository(pool)
		adminRepo = repository.NewAdminAccountRepository(pool)
		auditRepo = repository.NewAuditRepository(pool)
	} else {
		staffRepo = repository.NewMemoryStaffRepository()
		adminRepo = repository.NewMemoryAdminAccountRepository()
		auditRepo = repository.NewMemoryAuditRepository()
	}

	var (
		revocations auth.Revocations
		throttle    auth.LoginThrottle
	)
	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()
	if redis != nil {
		revocations = auth.NewRedisRevocations(redis.Client)
		throttle = auth.NewRedisLoginThrottle(redis.Client, cfg.Auth.LoginAttemptsPerMinute)
	} else {
		revocations = auth.NewMemoryRevocations()
		throttle = auth.NewMemoryLoginThrottle(cfg.Auth.LoginAttemptsPerMinute)
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(func(e events.Event, err error) {
		logger.Warn("event handler failed",
			zap.String("event_id", e.ID),
			zap.String("event_type", string(e.Type)),
			zap.Error(err))
	})
	auditService := service.NewAuditService(dispatcher, auditRepo, logger, cfg.Audit)
	worker.StartAuditWorker(auditService)

	writeLock := &sync.Mutex{}
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		AdminRepo:   adminRepo,
		StaffRepo:   staffRepo,
		Revocations: revocations,
		Throttle:    throttle,
		Logger:      logger,
	})
	if err := authService.SeedAdmin(ctx, cfg.Admin); err != nil {
		logger.Fatal("failed to seed administrator", zap.Error(err))
	}

	rosterService := service.NewRosterService(service.RosterDependencies{
		StaffRepo:  staffRepo,
		Dispatcher: dispatcher,
		WriteLock:  writeLock,
	})
	ingestService := service.NewIngestService(service.IngestDependencies{
		StaffRepo:  staffRepo,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
		WriteLock:  writeLock,
		MaxRows:    cfg.Ingest.MaxRows,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), staffRepo, revocations)

	app := httptransport.NewApp(*cfg, logger, metrics)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Roster:         handlers.NewRosterHandler(rosterService),
		Ingest:         handlers.NewIngestHandler(ingestService),
		Self:           handlers.NewSelfHandler(rosterService),
		Audit:          handlers.NewAuditHandler(auditService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
