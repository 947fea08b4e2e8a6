package redisinfra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maapaap/api/internal/config"
	"github.com/redis/go-redis/v9"
)

// NewClient creates a Redis client and pings it. On ping failure the client
// is still returned alongside the error: the cache is advisory and callers
// may choose to run degraded rather than refuse to start.
func NewClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return rdb, fmt.Errorf("connect to redis: %w", err)
	}
	return rdb, nil
}

// OTPCache is the fast-cache shadow of unexpired, unused OTPs. It is advisory
// only: the durable store stays authoritative and every lookup has a durable
// fallback, so a missing or unreachable cache never breaks verification.
type OTPCache struct {
	rdb *redis.Client
}

func NewOTPCache(rdb *redis.Client) *OTPCache {
	return &OTPCache{rdb: rdb}
}

func cacheKey(identifier, purpose string) string {
	return fmt.Sprintf("otp:%s:%s", identifier, purpose)
}

// Set writes the shadow entry with the same TTL as the durable row.
func (c *OTPCache) Set(ctx context.Context, identifier, purpose, code string, ttl time.Duration) error {
	return c.rdb.SetEx(ctx, cacheKey(identifier, purpose), code, ttl).Err()
}

// Get returns the cached code and whether it was present. Transport errors
// are returned as errors; callers treat them the same as a miss.
func (c *OTPCache) Get(ctx context.Context, identifier, purpose string) (string, bool, error) {
	code, err := c.rdb.Get(ctx, cacheKey(identifier, purpose)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return code, true, nil
}

// Delete evicts the shadow entry. Missing keys are not an error.
func (c *OTPCache) Delete(ctx context.Context, identifier, purpose string) error {
	return c.rdb.Del(ctx, cacheKey(identifier, purpose)).Err()
}
