package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/keystone-ppm/keystone/internal/app"
	"github.com/keystone-ppm/keystone/internal/auth"
	"github.com/keystone-ppm/keystone/internal/authz"
	"github.com/keystone-ppm/keystone/internal/importer"
	"github.com/keystone-ppm/keystone/internal/observability"
	"github.com/keystone-ppm/keystone/internal/platform/cache"
	"github.com/keystone-ppm/keystone/internal/platform/db"
	"github.com/keystone-ppm/keystone/internal/portfolios"
	"github.com/keystone-ppm/keystone/internal/projects"
	"github.com/keystone-ppm/keystone/internal/shared"
	"github.com/keystone-ppm/keystone/internal/tasks"
	"github.com/keystone-ppm/keystone/internal/tenants"
	"github.com/keystone-ppm/keystone/internal/users"
	"github.com/keystone-ppm/keystone/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)
	authzMiddleware := authz.Middleware{Logger: logger, Denials: metrics}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	refreshStore := auth.NewRefreshStore(redisClient, cfg.RefreshTokenTTL)
	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, tokens, refreshStore)
	authHandler := auth.NewHandler(logger, authService)

	tenantRepo := tenants.NewRepository(pool)
	tenantService := tenants.NewService(tenantRepo, auditLogger)
	tenantHandler := tenants.NewHandler(logger, tenantService, authzMiddleware)

	userRepo := users.NewRepository(pool)
	userService := users.NewService(userRepo, auditLogger)
	userHandler := users.NewHandler(logger, userService, authzMiddleware)

	portfolioRepo := portfolios.NewRepository(pool)
	portfolioService := portfolios.NewService(portfolioRepo, userRepo, auditLogger)
	portfolioHandler := portfolios.NewHandler(logger, portfolioService, authzMiddleware)

	projectRepo := projects.NewRepository(pool)
	projectService := projects.NewService(projectRepo, userRepo, auditLogger)
	projectHandler := projects.NewHandler(logger, projectService, authzMiddleware)

	taskRepo := tasks.NewRepository(pool)
	taskService := tasks.NewService(taskRepo, projectService, auditLogger)
	taskHandler := tasks.NewHandler(logger, taskService, authzMiddleware)

	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Warn("queue client close", slog.Any("error", err))
		}
	}()

	importService := importer.NewService(queueClient, auditLogger)
	importHandler := importer.NewHandler(logger, importService, authzMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Tokens:           tokens,
		AuthHandler:      authHandler,
		TenantHandler:    tenantHandler,
		UserHandler:      userHandler,
		PortfolioHandler: portfolioHandler,
		ProjectHandler:   projectHandler,
		TaskHandler:      taskHandler,
		ImportHandler:    importHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
