package redis

import (
	"context"
	"errors"
	"time"
)

// ErrNil is returned by Get when the key does not exist
var ErrNil = errors.New("redis: key does not exist")

// ZMember represents a sorted set member with its score
type ZMember struct {
	Score  float64
	Member string
}

// Client represents a Redis client interface for testing and abstraction
type Client interface {
	// Set sets a key to a value with an optional TTL
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Get gets the value of a key, returning ErrNil if it is missing
	Get(ctx context.Context, key string) (string, error)

	// ZRevRangeByScoreWithScores returns members in a sorted set within a score range with their scores (reverse order - highest first)
	ZRevRangeByScoreWithScores(ctx context.Context, key string, max, min float64, offset, count int64) ([]ZMember, error)

	// ZAppendWindow atomically adds member, drops members scored below
	// keepFrom, refreshes the key TTL and returns the resulting size
	ZAppendWindow(ctx context.Context, key string, score float64, member interface{}, keepFrom float64, ttl time.Duration) (int64, error)

	// Ping checks the connection to Redis
	Ping(ctx context.Context) error

	// Close closes the Redis connection
	Close() error
}
