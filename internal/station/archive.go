package station

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/belly1v123/weatherStationESP32/internal/environment"
	"github.com/belly1v123/weatherStationESP32/pkg/redis"
)

// Archive retention
const (
	archiveTTL       = 24 * time.Hour
	archiveRetention = 24 * time.Hour
)

// Archive keeps enriched readings in a Redis sorted set scored by arrival
// time in milliseconds
type Archive struct {
	redis  redis.Client
	key    string
	logger *slog.Logger
}

// NewArchive creates an archive for a station
func NewArchive(redisClient redis.Client, stationID string, logger *slog.Logger) *Archive {
	return &Archive{
		redis:  redisClient,
		key:    redis.EnvironmentalSensorKey(stationID),
		logger: logger,
	}
}

// Store appends a reading and trims entries older than the retention window
func (a *Archive) Store(ctx context.Context, reading *environment.EnrichedReading) error {
	data, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}

	arrivedMs := reading.ReceivedAt.UnixMilli()
	keepFrom := arrivedMs - archiveRetention.Milliseconds()
	count, err := a.redis.ZAppendWindow(ctx, a.key, float64(arrivedMs), data, float64(keepFrom), archiveTTL)
	if err != nil {
		return fmt.Errorf("failed to archive reading: %w", err)
	}

	a.logger.Debug("Archived reading", "key", a.key, "archive_size", count)
	return nil
}

// Recent returns up to limit readings that arrived after since, oldest first.
// Entries that fail to decode are skipped.
func (a *Archive) Recent(ctx context.Context, since time.Time, limit int) ([]*environment.EnrichedReading, error) {
	members, err := a.redis.ZRevRangeByScoreWithScores(ctx, a.key, math.Inf(1), float64(since.UnixMilli()), 0, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to read reading archive: %w", err)
	}

	readings := make([]*environment.EnrichedReading, 0, len(members))
	for i := len(members) - 1; i >= 0; i-- {
		var r environment.EnrichedReading
		if err := json.Unmarshal([]byte(members[i].Member), &r); err != nil {
			a.logger.Warn("Skipping undecodable archived reading", "key", a.key, "error", err)
			continue
		}
		readings = append(readings, &r)
	}
	return readings, nil
}
