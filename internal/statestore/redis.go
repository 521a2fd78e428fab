package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/belly1v123/weatherStationESP32/pkg/redis"
)

// RedisStore keeps the snapshot under a per-station Redis key
type RedisStore struct {
	client redis.Client
	key    string
}

// NewRedisStore creates a store for the given station
func NewRedisStore(client redis.Client, stationID string) *RedisStore {
	return &RedisStore{client: client, key: redis.BaselineStateKey(stationID)}
}

// Load fetches and decodes the snapshot
func (r *RedisStore) Load(ctx context.Context) (*Snapshot, error) {
	data, err := r.client.Get(ctx, r.key)
	if errors.Is(err, redis.ErrNil) {
		return nil, fmt.Errorf("%s: %w", r.key, ErrNoSnapshot)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get state from redis: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("failed to parse state %s: %w", r.key, err)
	}
	return &snap, nil
}

// Save stores the snapshot without expiry
func (r *RedisStore) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, 0); err != nil {
		return fmt.Errorf("failed to save state to redis: %w", err)
	}
	return nil
}
