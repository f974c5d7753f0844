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

	"github.com/meridian-shop/meridian-backoffice/internal/app"
	"github.com/meridian-shop/meridian-backoffice/internal/auth"
	"github.com/meridian-shop/meridian-backoffice/internal/authz"
	"github.com/meridian-shop/meridian-backoffice/internal/dashboard"
	"github.com/meridian-shop/meridian-backoffice/internal/observability"
	"github.com/meridian-shop/meridian-backoffice/internal/orders"
	"github.com/meridian-shop/meridian-backoffice/internal/platform/cache"
	"github.com/meridian-shop/meridian-backoffice/internal/platform/db"
	"github.com/meridian-shop/meridian-backoffice/internal/shared"
	"github.com/meridian-shop/meridian-backoffice/internal/shipping"
	"github.com/meridian-shop/meridian-backoffice/internal/users"
	"github.com/meridian-shop/meridian-backoffice/jobs"
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

	sessionManager := shared.NewSessionManager(redisClient, "meridian_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	auditLogger := shared.NewAuditLogger(pool)
	resolver := authz.NewResolver(authz.DefaultCatalog())

	usersRepo := users.NewRepository(pool, logger)
	usersService := users.NewService(usersRepo, resolver, auditLogger, logger)

	authzMW := authz.Middleware{Resolver: resolver, Loader: usersService, Logger: logger}

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	editorHandler := users.NewEditorHandler(logger, usersService, resolver)
	usersHandler := users.NewHandler(logger, usersService, authzMW, editorHandler)

	ordersRepo := orders.NewRepository(pool)
	ordersService := orders.NewService(ordersRepo, auditLogger, logger)
	ordersHandler := orders.NewHandler(logger, ordersService, authzMW)

	shippingRepo := shipping.NewRepository(pool)
	shippingService := shipping.NewService(shippingRepo, auditLogger, logger)
	shippingHandler := shipping.NewHandler(logger, shippingService, authzMW)

	dashboardRepo := dashboard.NewRepository(pool)
	dashboardService := dashboard.NewService(dashboardRepo, redisClient, cfg.DashboardCacheTTL, logger)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, authzMW)

	metrics := observability.NewMetrics()

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
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		Authz:            authzMW,
		AuthHandler:      authHandler,
		UsersHandler:     usersHandler,
		OrdersHandler:    ordersHandler,
		ShippingHandler:  shippingHandler,
		DashboardHandler: dashboardHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
