package app

import (
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/garystarr-surgi/invoice-lock/internal/ar"
	jobmetrics "github.com/garystarr-surgi/invoice-lock/internal/jobs"
	"github.com/garystarr-surgi/invoice-lock/internal/lock"
	"github.com/garystarr-surgi/invoice-lock/internal/notify"
	"github.com/garystarr-surgi/invoice-lock/internal/platform/cache"
)

// LockDeps collects what the lock runner needs in every process.
type LockDeps struct {
	Config  *Config
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Mail    notify.Enqueuer
	Metrics *jobmetrics.Metrics
	Logger  *slog.Logger
}

// NewLockRunner wires the lock service to Postgres, the Redis status cache,
// the mail queue and the distributed run lock.
func NewLockRunner(deps LockDeps) (*lock.Runner, error) {
	loc, err := deps.Config.Location()
	if err != nil {
		return nil, fmt.Errorf("app: lock runner: %w", err)
	}
	var statusCache lock.StatusCache
	var guard lock.Guard
	if deps.Redis != nil {
		statusCache = cache.NewJSONCache(deps.Redis, "invoicelock:status", deps.Config.StatusCacheTTL)
		guard = cache.NewMutex(deps.Redis)
	}
	cfg := lock.Config{
		Invoices: ar.NewRepository(deps.Pool),
		Repo:     lock.NewRepository(deps.Pool),
		Notifier: notify.NewNotifier(deps.Mail, deps.Logger),
		Cache:    statusCache,
		Logger:   deps.Logger,
		Location: loc,
	}
	if deps.Metrics != nil {
		cfg.Metrics = deps.Metrics
	}
	return lock.NewRunner(lock.NewService(cfg), guard, deps.Config.LockRunTTL), nil
}
