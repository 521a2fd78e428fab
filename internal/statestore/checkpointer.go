package statestore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/belly1v123/weatherStationESP32/internal/environment"
)

// DefaultInterval is the minimum wall-clock time between checkpoints
const DefaultInterval = 5 * time.Minute

// Source hands out consistent copies of live state
type Source interface {
	// SnapshotState returns a deep copy taken under the owner's lock
	SnapshotState() *environment.State
	// MarkPersisted records the time of a successful checkpoint
	MarkPersisted(at time.Time)
}

// Recorder receives checkpoint outcomes
type Recorder interface {
	CheckpointSucceeded()
	CheckpointFailed()
}

// Checkpointer writes state snapshots at most once per interval
type Checkpointer struct {
	store    Store
	source   Source
	interval time.Duration
	now      func() time.Time
	recorder Recorder
	logger   *slog.Logger

	// serializes writes; never held by the classification path
	mu sync.Mutex
}

// NewCheckpointer creates a checkpointer. recorder may be nil.
func NewCheckpointer(store Store, source Source, interval time.Duration, recorder Recorder, logger *slog.Logger) *Checkpointer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Checkpointer{
		store:    store,
		source:   source,
		interval: interval,
		now:      time.Now,
		recorder: recorder,
		logger:   logger,
	}
}

// SetClock replaces the wall clock used for gating
func (c *Checkpointer) SetClock(now func() time.Time) {
	c.now = now
}

// Run checks every tick whether a checkpoint is due until ctx is done
func (c *Checkpointer) Run(ctx context.Context, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.MaybeCheckpoint(ctx)
		}
	}
}

// MaybeCheckpoint saves when the interval has elapsed since the last
// successful save. It reports whether a save was attempted.
func (c *Checkpointer) MaybeCheckpoint(ctx context.Context) bool {
	state := c.source.SnapshotState()
	now := c.now()
	if !state.LastPersistedAt.IsZero() && now.Sub(state.LastPersistedAt) < c.interval {
		return false
	}
	c.write(ctx, state, now)
	return true
}

// Flush saves unconditionally, used on graceful shutdown
func (c *Checkpointer) Flush(ctx context.Context) error {
	return c.write(ctx, c.source.SnapshotState(), c.now())
}

func (c *Checkpointer) write(ctx context.Context, state *environment.State, now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Save(ctx, FromState(state, now)); err != nil {
		c.logger.Warn("State checkpoint failed, keeping in-memory state", "error", err)
		if c.recorder != nil {
			c.recorder.CheckpointFailed()
		}
		return err
	}

	c.source.MarkPersisted(now)
	if c.recorder != nil {
		c.recorder.CheckpointSucceeded()
	}
	c.logger.Debug("State checkpoint saved",
		"day_baseline", floatAttr(state.DayBaseline),
		"night_baseline", floatAttr(state.NightBaseline),
		"aq_high_streak", state.HighStreak)
	return nil
}

func floatAttr(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
