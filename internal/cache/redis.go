package cache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisTokens keeps token→user mappings in redis so several API processes
// share one cache.
type RedisTokens struct {
	redisdb *redis.Client
	ttl     time.Duration
	log     *slog.Logger
}

func NewRedisTokens(cfg RedisConfig, ttl time.Duration, log *slog.Logger) *RedisTokens {
	redisdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}

	return &RedisTokens{redisdb: redisdb, ttl: ttl, log: log}
}

// Ping checks redis connectivity.
func (r *RedisTokens) Ping(ctx context.Context) error {
	return r.redisdb.Ping(ctx).Err()
}

func (r *RedisTokens) Close() error {
	return r.redisdb.Close()
}

// Cache errors are logged and treated as misses; the token store stays the
// source of truth.
func (r *RedisTokens) GetUserID(ctx context.Context, key string) (int64, bool) {
	v, err := r.redisdb.Get(ctx, TokenKey(key)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.WarnContext(ctx, "token_cache_get_failed", "err", err)
		}
		return 0, false
	}

	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (r *RedisTokens) SetUserID(ctx context.Context, key string, userID int64) {
	if err := r.redisdb.Set(ctx, TokenKey(key), formatID(userID), r.ttl).Err(); err != nil {
		r.log.WarnContext(ctx, "token_cache_set_failed", "err", err)
	}
}

func (r *RedisTokens) Delete(ctx context.Context, key string) {
	if err := r.redisdb.Del(ctx, TokenKey(key)).Err(); err != nil {
		r.log.WarnContext(ctx, "token_cache_delete_failed", "err", err)
	}
}
