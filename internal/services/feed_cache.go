package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/carlos-juma/branch.it-IMY220/internal/config"
	"github.com/carlos-juma/branch.it-IMY220/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// FeedCache holds rendered feeds for a short time. Failures are logged and
// treated as misses.
type FeedCache interface {
	Get(ctx context.Context, key string) ([]Activity, bool)
	Set(ctx context.Context, key string, feed []Activity)
	Invalidate(ctx context.Context, key string)
}

type NoopFeedCache struct{}

func (NoopFeedCache) Get(context.Context, string) ([]Activity, bool) { return nil, false }
func (NoopFeedCache) Set(context.Context, string, []Activity)         {}
func (NoopFeedCache) Invalidate(context.Context, string)              {}

type RedisFeedCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisFeedCache(client *redis.Client, ttl time.Duration) *RedisFeedCache {
	return &RedisFeedCache{client: client, ttl: ttl, prefix: "branchit:"}
}

// NewFeedCache returns a Redis-backed cache when Redis is enabled, reachable
// and the TTL is positive, and a no-op cache otherwise.
func NewFeedCache(ctx context.Context, redisCfg *config.RedisConfig, ttlSeconds int) FeedCache {
	if !redisCfg.Enabled || ttlSeconds <= 0 {
		return NoopFeedCache{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warnf("[FeedCache] Redis unavailable, feed caching disabled: %v", err)
		client.Close()
		return NoopFeedCache{}
	}

	logger.Infof("[FeedCache] Caching global feed for %ds", ttlSeconds)
	return NewRedisFeedCache(client, time.Duration(ttlSeconds)*time.Second)
}

func (c *RedisFeedCache) Get(ctx context.Context, key string) ([]Activity, bool) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn().Err(err).Str("key", key).Msg("feed cache read failed")
		}
		return nil, false
	}

	var feed []Activity
	if err := json.Unmarshal(raw, &feed); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable cached feed")
		c.Invalidate(ctx, key)
		return nil, false
	}
	return feed, true
}

func (c *RedisFeedCache) Set(ctx context.Context, key string, feed []Activity) {
	raw, err := json.Marshal(feed)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("feed cache encode failed")
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("feed cache write failed")
	}
}

func (c *RedisFeedCache) Invalidate(ctx context.Context, key string) {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("feed cache invalidate failed")
	}
}

func (c *RedisFeedCache) Close() error {
	return c.client.Close()
}
