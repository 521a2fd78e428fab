package checker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/belly1v123/weatherStationESP32/e2e/internal/scenario"
)

// CheckRedisExpectation loads a JSON document from a Redis key, such as the
// persisted baseline state, and matches it against the expected payload
func CheckRedisExpectation(ctx context.Context, client *redis.Client, exp scenario.Expectation) (bool, string, interface{}) {
	value, err := client.Get(ctx, exp.RedisKey).Result()
	if errors.Is(err, redis.Nil) {
		return false, fmt.Sprintf("key %q not found in Redis", exp.RedisKey), nil
	}
	if err != nil {
		return false, fmt.Sprintf("Redis error: %v", err), nil
	}

	var doc interface{}
	if err := json.Unmarshal([]byte(value), &doc); err != nil {
		return false, fmt.Sprintf("key %q is not JSON: %v", exp.RedisKey, err), value
	}

	if ok, reason := MatchesExpectation(doc, exp.Payload); !ok {
		return false, reason, doc
	}
	return true, "", doc
}
