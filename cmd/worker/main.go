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
	jobmetrics "github.com/garystarr-surgi/invoice-lock/internal/jobs"
	"github.com/garystarr-surgi/invoice-lock/internal/notify"
	"github.com/garystarr-surgi/invoice-lock/internal/observability"
	"github.com/garystarr-surgi/invoice-lock/internal/platform/cache"
	"github.com/garystarr-surgi/invoice-lock/internal/platform/db"
	"github.com/garystarr-surgi/invoice-lock/internal/platform/otel"
	"github.com/garystarr-surgi/invoice-lock/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg).With(slog.String("component", "worker"))

	shutdownTracing, err := otel.Setup(ctx, cfg.OTelServiceName+"-worker", cfg.OTelEndpoint)
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	location, err := cfg.Location()
	if err != nil {
		logger.Error("lock timezone", slog.Any("error", err))
		os.Exit(1)
	}

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
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())

	runner, err := app.NewLockRunner(app.LockDeps{
		Config:  cfg,
		Pool:    pool,
		Redis:   redisClient,
		Mail:    queue,
		Metrics: jobMetrics,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("init lock runner", slog.Any("error", err))
		os.Exit(1)
	}

	sender := notify.NewSMTPSender(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		From:     cfg.SMTPFrom,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
	})

	lockJob := jobs.NewLockCheckJob(runner, logger, jobMetrics)
	digestJob := jobs.NewLockDigestJob(runner.Service(), logger, jobMetrics)
	mailJob := jobs.NewSendEmailJob(sender, logger, jobMetrics)

	scheduled := jobs.LockTaskPayload{Trigger: jobs.TriggerCron, RequestedBy: "scheduler"}
	lockTask, err := jobs.NewLockCheckTask(scheduled)
	if err != nil {
		logger.Error("build lock task", slog.Any("error", err))
		os.Exit(1)
	}
	cron := []jobs.CronRegistration{
		{Spec: cfg.LockCron, Task: lockTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
	}
	if cfg.DigestEnabled {
		digestTask, err := jobs.NewLockDigestTask(scheduled)
		if err != nil {
			logger.Error("build digest task", slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{Spec: cfg.DigestCron, Task: digestTask, Options: []asynq.Option{asynq.MaxRetry(3)}})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Location:    location,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLockCheckOverdue, Handler: lockJob.Handle},
			{Type: jobs.TaskLockWeeklyDigest, Handler: digestJob.Handle},
			{Type: jobs.TaskTypeSendEmail, Handler: mailJob.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := &http.Server{
		Addr:              cfg.WorkerMetricsAddr,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("starting metrics server", slog.String("addr", cfg.WorkerMetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
