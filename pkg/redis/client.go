package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/belly1v123/weatherStationESP32/pkg/config"
)

// redisClient implements Client on top of go-redis
type redisClient struct {
	client *redis.Client
	addr   string
	logger *slog.Logger
}

// NewClient creates a client for the configured Redis instance. No
// connection is made until the first command.
func NewClient(cfg *config.Config, logger *slog.Logger) Client {
	return &redisClient{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}),
		addr:   cfg.RedisAddress(),
		logger: logger.With("component", "redis"),
	}
}

// Set sets a key to a value with an optional TTL
func (r *redisClient) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	err := r.client.Set(ctx, key, value, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Get gets the value of a key
func (r *redisClient) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("key %s: %w", key, ErrNil)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return val, nil
}

// ZRevRangeByScoreWithScores returns members within a score range, highest score first
func (r *redisClient) ZRevRangeByScoreWithScores(ctx context.Context, key string, max, min float64, offset, count int64) ([]ZMember, error) {
	vals, err := r.client.ZRevRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
		Max:    formatScore(max),
		Min:    formatScore(min),
		Offset: offset,
		Count:  count,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to range sorted set %s: %w", key, err)
	}

	members := make([]ZMember, 0, len(vals))
	for _, v := range vals {
		member, ok := v.Member.(string)
		if !ok {
			continue
		}
		members = append(members, ZMember{Score: v.Score, Member: member})
	}
	return members, nil
}

// ZAppendWindow runs the add, trim, expire and count in one MULTI/EXEC
func (r *redisClient) ZAppendWindow(ctx context.Context, key string, score float64, member interface{}, keepFrom float64, ttl time.Duration) (int64, error) {
	var card *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: member})
		pipe.ZRemRangeByScore(ctx, key, "-inf", "("+formatScore(keepFrom))
		pipe.Expire(ctx, key, ttl)
		card = pipe.ZCard(ctx, key)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to append to sorted set %s: %w", key, err)
	}
	return card.Val(), nil
}

func formatScore(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "+inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Ping checks the connection to Redis
func (r *redisClient) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping to %s failed: %w", r.addr, err)
	}
	r.logger.Debug("Redis ping ok", "address", r.addr)
	return nil
}

// Close closes the Redis connection
func (r *redisClient) Close() error {
	r.logger.Info("Closing Redis connection")
	return r.client.Close()
}
