package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "taskflow"

type CacheService interface {
	// GetJSON decodes the cached value into dst. A miss returns false with a nil error.
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	// IsRateLimited counts one hit against key in a fixed window and reports whether the
	// limit has been exceeded, along with the hits left in the window.
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error)

	Ping(ctx context.Context) error
	Close() error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept both host:port and redis:// URLs
	parsedAddr := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("redis ping failed on initialization", "addr", parsedAddr, "error", err)
	} else {
		slog.Info("redis connected", "addr", parsedAddr)
	}

	return &redisCacheService{client: client}
}

// DashboardStatsKey is the cache key of a user's dashboard stats.
func DashboardStatsKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s:dashboard:%s:stats", keyPrefix, userID)
}

// DashboardAnalyticsKey is the cache key of a user's analytics for one timeframe.
func DashboardAnalyticsKey(userID uuid.UUID, timeframe string) string {
	return fmt.Sprintf("%s:dashboard:%s:analytics:%s", keyPrefix, userID, timeframe)
}

// RateLimitKey namespaces a rate limit bucket.
func RateLimitKey(scope, client string) string {
	return fmt.Sprintf("%s:ratelimit:%s:%s", keyPrefix, scope, client)
}

func (r *redisCacheService) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return true, nil
}

func (r *redisCacheService) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error) {
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		return false, limit, err
	}

	count := int(incr.Val())
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count > limit, remaining, nil
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisCacheService) Close() error {
	return r.client.Close()
}
