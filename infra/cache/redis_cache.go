package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/entuziaz/csvup-server/pkg/cache"
	"github.com/entuziaz/csvup-server/pkg/config"
	"github.com/entuziaz/csvup-server/pkg/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrInvalidURL is returned when the configured redis url cannot be parsed.
var ErrInvalidURL = errors.New("invalid redis url")

// RedisUploadCache implements cache.UploadCache using Redis.
type RedisUploadCache struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedisUploadCache creates a RedisUploadCache from the redis settings and
// checks the connection.
func NewRedisUploadCache(
	ctx context.Context,
	cfg *config.Redis,
	logger *slog.Logger,
) (*RedisUploadCache, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if cfg.PoolSize > 0 {
		opt.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opt.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opt.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opt.WriteTimeout = cfg.WriteTimeout
	}

	c := NewRedisUploadCacheWithOptions(opt, cfg.KeyPrefix, logger)
	if err := c.client.Ping(ctx).Err(); err != nil {
		_ = c.client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return c, nil
}

// NewRedisUploadCacheWithOptions creates a RedisUploadCache from redis.Options.
func NewRedisUploadCacheWithOptions(
	opt *redis.Options,
	prefix string,
	logger *slog.Logger,
) *RedisUploadCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisUploadCache{
		client: redis.NewClient(opt),
		prefix: prefix,
		logger: logger.With("cache", "redis"),
	}
}

func (r *RedisUploadCache) key(uploadID uuid.UUID) string {
	return r.prefix + "upload:" + uploadID.String()
}

func (r *RedisUploadCache) Get(ctx context.Context, uploadID uuid.UUID) (*domain.UploadHistory, error) {
	val, err := r.client.Get(ctx, r.key(uploadID)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.logger.Debug("Redis cache miss", "upload_id", uploadID)
		return nil, nil // cache miss
	}
	if err != nil {
		r.logger.Error("Redis cache get error", "upload_id", uploadID, "error", err)
		return nil, err
	}
	var record domain.UploadHistory
	if err := json.Unmarshal(val, &record); err != nil {
		r.logger.Error("Redis cache unmarshal error", "upload_id", uploadID, "error", err)
		return nil, err
	}
	r.logger.Debug("Redis cache hit", "upload_id", uploadID)
	return &record, nil
}

func (r *RedisUploadCache) Set(
	ctx context.Context,
	record *domain.UploadHistory,
	ttl time.Duration,
) error {
	if record == nil {
		return nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		r.logger.Error("Redis cache marshal error", "upload_id", record.UploadID, "error", err)
		return err
	}
	if err := r.client.Set(ctx, r.key(record.UploadID), data, ttl).Err(); err != nil {
		r.logger.Error("Redis cache set error", "upload_id", record.UploadID, "error", err)
		return err
	}
	r.logger.Debug("Redis cache set", "upload_id", record.UploadID, "ttl", ttl)
	return nil
}

func (r *RedisUploadCache) Delete(ctx context.Context, uploadID uuid.UUID) error {
	if err := r.client.Del(ctx, r.key(uploadID)).Err(); err != nil {
		r.logger.Error("Redis cache delete error", "upload_id", uploadID, "error", err)
		return err
	}
	return nil
}

// Close closes the underlying client.
func (r *RedisUploadCache) Close() error {
	return r.client.Close()
}

var _ cache.UploadCache = (*RedisUploadCache)(nil)
