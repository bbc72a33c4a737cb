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

	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/app"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/audit"
	audithttp "github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/audit/http"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/auth"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/catalog"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/inventory"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/messaging"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/observability"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/orders"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/platform/cache"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/platform/db"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/rbac"
	rbachttp "github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/rbac/http"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/shared"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/users"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/view"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/jobs"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/report"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	auditStore := audit.NewPGStore(dbpool)
	sink := audit.NewSink(auditStore, logger, audit.SinkOptions{
		BufferSize:    cfg.AuditBufferSize,
		BatchSize:     cfg.AuditBatchSize,
		FlushInterval: cfg.AuditFlushInterval,
		OnDrop:        metrics.AuditDropped,
	})

	baseMatrix, err := rbac.NewMatrix()
	if err != nil {
		logger.Error("build permission matrix", slog.Any("error", err))
		os.Exit(1)
	}
	overrideStore := rbac.NewOverrideStore(dbpool)
	snapshot := rbac.NewSnapshot(baseMatrix, overrideStore, logger)
	if err := snapshot.Reload(ctx); err != nil {
		logger.Warn("load permission overrides", slog.Any("error", err))
	}

	authRepo := auth.NewRepository(dbpool)
	resolver := rbac.NewResolver(authRepo, logger)
	decider := rbac.NewDecider(snapshot)
	gate := rbac.NewGate(resolver, decider, sink, metrics, logger)

	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	bindingStore := rbac.NewBindingStore(dbpool)
	adminService := rbac.NewAdminService(bindingStore, sink, logger)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService, adminService, templates, csrfManager)

	permissionsHandler := rbachttp.NewHandler(logger, snapshot, overrideStore, templates, csrfManager)

	auditService := audit.NewService(auditStore)
	auditHandler := audithttp.NewHandler(logger, auditService, templates)

	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(logger, catalogService, templates, csrfManager)

	inventoryRepo := inventory.NewRepository(dbpool)
	inventoryService := inventory.NewService(inventoryRepo, idempotencyStore)
	inventoryHandler := inventory.NewHandler(logger, inventoryService, templates, csrfManager)

	reportClient := report.NewClient(cfg.GotenbergURL)

	ordersRepo := orders.NewRepository(dbpool)
	ordersService := orders.NewService(ordersRepo)
	ordersHandler := orders.NewHandler(logger, ordersService, gate, templates, csrfManager, reportClient)

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
	messagingHandler := messaging.NewHandler(logger, messaging.NewEnqueuer(queueClient), templates, csrfManager)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Templates:          templates,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		Gate:               gate,
		AuthHandler:        authHandler,
		UsersHandler:       usersHandler,
		PermissionsHandler: permissionsHandler,
		AuditHandler:       auditHandler,
		CatalogHandler:     catalogHandler,
		InventoryHandler:   inventoryHandler,
		OrdersHandler:      ordersHandler,
		MessagingHandler:   messagingHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
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
	if err := sink.Close(shutdownCtx); err != nil {
		logger.Error("drain audit sink", slog.Any("error", err))
	}
}
