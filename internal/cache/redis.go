package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"PicSphere/internal/core/profiles"
)

const redisKeyPrefix = "picsphere:profile:"

// RedisProfileCache shares cached profiles between instances.
// Redis errors degrade to cache misses.
type RedisProfileCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ profiles.Cache = (*RedisProfileCache)(nil)

// NewRedisProfileCache creates a Redis-backed profile cache
func NewRedisProfileCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisProfileCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisProfileCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisProfileCache) Get(ctx context.Context, userID string) (*profiles.Profile, bool) {
	raw, err := c.client.Get(ctx, redisKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("profile cache read failed",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
		return nil, false
	}

	var p profiles.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		c.logger.Warn("discarding corrupt cached profile",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		c.Invalidate(ctx, userID)
		return nil, false
	}
	return &p, true
}

func (c *RedisProfileCache) Set(ctx context.Context, profile *profiles.Profile) {
	if profile == nil || profile.UID == "" {
		return
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, redisKey(profile.UID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("profile cache write failed",
			slog.String("user_id", profile.UID),
			slog.String("error", err.Error()),
		)
	}
}

func (c *RedisProfileCache) Invalidate(ctx context.Context, userID string) {
	if err := c.client.Del(context.WithoutCancel(ctx), redisKey(userID)).Err(); err != nil {
		c.logger.Warn("profile cache invalidation failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

func redisKey(userID string) string {
	return redisKeyPrefix + userID
}
