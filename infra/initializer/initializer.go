package initializer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/entuziaz/csvup-server/infra"
	infracache "github.com/entuziaz/csvup-server/infra/cache"
	infra_eventbus "github.com/entuziaz/csvup-server/infra/eventbus"
	infra_repository "github.com/entuziaz/csvup-server/infra/repository"
	"github.com/entuziaz/csvup-server/pkg/cache"
	"github.com/entuziaz/csvup-server/pkg/config"
	"github.com/entuziaz/csvup-server/pkg/eventbus"
)

// InitializeDependencies initializes all the application dependencies. The
// returned close function releases broker and cache connections and the
// database pool.
func InitializeDependencies(cfg *config.App) (
	deps *config.Deps,
	closeFn func() error,
	err error,
) {
	logger := setupLogger(cfg.Log)
	deps = &config.Deps{Logger: logger, Config: cfg}
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	defer func() {
		if err != nil {
			_ = closeAll()
		}
	}()

	// Initialize database
	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, nil, err
	}
	closers = append(closers, func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	// Initialize unit of work
	deps.Uow = infra_repository.NewUoW(db)

	// Initialize history cache
	historyCache, cacheClose, err := initHistoryCache(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	deps.HistoryCache = historyCache
	if cacheClose != nil {
		closers = append(closers, cacheClose)
	}

	// Initialize event bus
	bus, busClose, err := initEventBus(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	deps.EventBus = bus
	if busClose != nil {
		closers = append(closers, busClose)
	}

	return deps, closeAll, nil
}

// initHistoryCache uses Redis when a URL is configured and falls back to the
// in-memory cache when Redis cannot be reached.
func initHistoryCache(cfg *config.App, logger *slog.Logger) (cache.UploadCache, func() error, error) {
	if cfg.Redis == nil || cfg.Redis.URL == "" {
		logger.Info("Using in-memory history cache")
		return infracache.NewMemoryCache(), nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	redisCache, err := infracache.NewRedisUploadCache(ctx, cfg.Redis, logger)
	if err != nil {
		if errors.Is(err, infracache.ErrInvalidURL) {
			return nil, nil, fmt.Errorf("failed to create redis history cache: %w", err)
		}
		logger.Warn("Redis unavailable, using in-memory history cache", "error", err)
		return infracache.NewMemoryCache(), nil, nil
	}
	logger.Info("Using redis history cache", "key_prefix", cfg.Redis.KeyPrefix)
	return redisCache, redisCache.Close, nil
}

// initEventBus uses Kafka when brokers are configured and falls back to the
// in-memory bus when no broker can be reached.
func initEventBus(cfg *config.App, logger *slog.Logger) (eventbus.Bus, func() error, error) {
	if cfg.Kafka == nil || len(cfg.Kafka.Brokers) == 0 {
		logger.Info("Using in-memory event bus")
		return infra_eventbus.NewWithMemory(logger), nil, nil
	}

	bus, err := infra_eventbus.NewWithKafka(cfg.Kafka, logger)
	if err != nil {
		logger.Warn("Kafka unavailable, using in-memory event bus", "error", err)
		return infra_eventbus.NewWithMemory(logger), nil, nil
	}
	return bus, bus.Close, nil
}
