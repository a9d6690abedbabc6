package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/garystarr-surgi/invoice-lock/internal/app"
	"github.com/garystarr-surgi/invoice-lock/internal/ar"
	"github.com/garystarr-surgi/invoice-lock/internal/auth"
	jobmetrics "github.com/garystarr-surgi/invoice-lock/internal/jobs"
	"github.com/garystarr-surgi/invoice-lock/internal/lock"
	"github.com/garystarr-surgi/invoice-lock/internal/observability"
	"github.com/garystarr-surgi/invoice-lock/internal/platform/cache"
	"github.com/garystarr-surgi/invoice-lock/internal/platform/db"
	"github.com/garystarr-surgi/invoice-lock/internal/platform/otel"
	"github.com/garystarr-surgi/invoice-lock/internal/rbac"
	"github.com/garystarr-surgi/invoice-lock/internal/sales/customers"
	"github.com/garystarr-surgi/invoice-lock/internal/sales/orders"
	"github.com/garystarr-surgi/invoice-lock/internal/sales/quotations"
	"github.com/garystarr-surgi/invoice-lock/internal/shared"
	"github.com/garystarr-surgi/invoice-lock/jobs"
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

	shutdownTracing, err := otel.Setup(ctx, cfg.OTelServiceName, cfg.OTelEndpoint)
	if err != nil {
		logger.Warn("tracing disabled", slog.Any("error", err))
	} else {
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(flushCtx); err != nil {
				logger.Warn("tracing shutdown", slog.Any("error", err))
			}
		}()
	}

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if cfg.DBAutoMigrate {
		if err := db.Migrate(ctx, dbpool, logger); err != nil {
			logger.Error("migrate", slog.Any("error", err))
			os.Exit(1)
		}
	}

	redisClient, err := cache.New(ctx, cfg.RedisOptions())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	redisOpts := cfg.AsynqRedis()
	queue, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	lockMetrics := jobmetrics.NewMetrics(metrics.Registerer())

	sessionManager := shared.NewSessionManager(redisClient, "invoicelock_session", cfg.SessionTTL, cfg.IsProduction())

	authService := auth.NewService(auth.NewRepository(dbpool))
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	rbacService := rbac.NewService(dbpool)
	rbacMiddleware := rbac.Middleware{Loader: rbacService, Logger: logger}
	permissionsHandler := rbac.NewPermissionsHandler(logger, rbacService, rbacMiddleware)

	runner, err := app.NewLockRunner(app.LockDeps{
		Config:  cfg,
		Pool:    dbpool,
		Redis:   redisClient,
		Mail:    queue,
		Metrics: lockMetrics,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("init lock runner", slog.Any("error", err))
		os.Exit(1)
	}
	lockService := runner.Service()
	lockHandler := lock.NewHandler(logger, runner, rbacMiddleware, cfg.RunRateLimit)

	customerService := customers.NewService(customers.NewRepository(dbpool), lockService, logger)
	customerHandler := customers.NewHandler(logger, customerService, rbacMiddleware)
	orderService := orders.NewService(orders.NewRepository(dbpool), lockService)
	orderHandler := orders.NewHandler(logger, orderService, rbacMiddleware)
	quotationService := quotations.NewService(quotations.NewRepository(dbpool), lockService)
	quotationHandler := quotations.NewHandler(logger, quotationService, rbacMiddleware)

	arService := ar.NewService(ar.NewRepository(dbpool))
	arHandler := ar.NewHandler(logger, arService, rbacMiddleware)

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		Pool:               dbpool,
		Redis:              redisClient,
		Metrics:            metrics,
		AuthHandler:        authHandler,
		PermissionsHandler: permissionsHandler,
		CustomerHandler:    customerHandler,
		OrderHandler:       orderHandler,
		QuotationHandler:   quotationHandler,
		LockHandler:        lockHandler,
		ARHandler:          arHandler,
		JobHandler:         jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
