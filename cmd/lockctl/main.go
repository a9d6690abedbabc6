package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/garystarr-surgi/invoice-lock/internal/app"
	"github.com/garystarr-surgi/invoice-lock/internal/lock"
	"github.com/garystarr-surgi/invoice-lock/internal/platform/db"
	"github.com/garystarr-surgi/invoice-lock/internal/rbac"
	"github.com/garystarr-surgi/invoice-lock/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if err := NewRootCommand(newEnv(cfg, logger)).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "lockctl:", err)
		os.Exit(1)
	}
}

func newEnv(cfg *app.Config, logger *slog.Logger) Env {
	redisOpts := cfg.AsynqRedis()
	openPool := func(ctx context.Context) (*pgxpool.Pool, func(), error) {
		pool, err := db.New(ctx, cfg.PGDSN, 2)
		if err != nil {
			return nil, nil, err
		}
		return pool, pool.Close, nil
	}

	return Env{
		Queue: func(context.Context) (Enqueuer, func(), error) {
			client, err := jobs.NewClient(redisOpts)
			if err != nil {
				return nil, nil, err
			}
			return client, func() {
				if err := client.Close(); err != nil {
					logger.Warn("queue close", slog.Any("error", err))
				}
			}, nil
		},
		Inspector: func(context.Context) (jobs.QueueInspector, func(), error) {
			inspector := asynq.NewInspector(redisOpts)
			return inspector, func() {
				if err := inspector.Close(); err != nil {
					logger.Warn("inspector close", slog.Any("error", err))
				}
			}, nil
		},
		Status: func(ctx context.Context) (StatusReader, func(), error) {
			pool, release, err := openPool(ctx)
			if err != nil {
				return nil, nil, err
			}
			loc, err := cfg.Location()
			if err != nil {
				release()
				return nil, nil, err
			}
			service := lock.NewService(lock.Config{Repo: lock.NewRepository(pool), Logger: logger, Location: loc})
			return service, release, nil
		},
		Roles: func(ctx context.Context) (RoleAssigner, func(), error) {
			pool, release, err := openPool(ctx)
			if err != nil {
				return nil, nil, err
			}
			return rbac.NewService(pool), release, nil
		},
		Migrate: func(ctx context.Context) error {
			pool, release, err := openPool(ctx)
			if err != nil {
				return err
			}
			defer release()
			return db.Migrate(ctx, pool, logger)
		},
	}
}
