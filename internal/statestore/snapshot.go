// Package statestore persists the adaptive baseline state between restarts.
package statestore

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/belly1v123/weatherStationESP32/internal/environment"
)

// ErrNoSnapshot is returned by Load when nothing has been saved yet
var ErrNoSnapshot = errors.New("no state snapshot")

// Snapshot is the persisted form of the adaptive state
type Snapshot struct {
	DayBaseline   *float64 `json:"dayBaseline"`
	NightBaseline *float64 `json:"nightBaseline"`
	AQHighStreak  int      `json:"aqHighStreak"`
	SavedAt       string   `json:"savedAt"`
}

// Store loads and saves snapshots
type Store interface {
	// Load returns the last saved snapshot or an error wrapping ErrNoSnapshot
	Load(ctx context.Context) (*Snapshot, error)
	// Save replaces the stored snapshot
	Save(ctx context.Context, snap *Snapshot) error
}

// FromState captures the persisted subset of state
func FromState(state *environment.State, savedAt time.Time) *Snapshot {
	clone := state.Clone()
	return &Snapshot{
		DayBaseline:   clone.DayBaseline,
		NightBaseline: clone.NightBaseline,
		AQHighStreak:  clone.HighStreak,
		SavedAt:       savedAt.UTC().Format(time.RFC3339Nano),
	}
}

// State rebuilds process state from a snapshot. Baselines that are not
// finite positive numbers are dropped so the estimator cold-starts that bucket.
func (s *Snapshot) State() *environment.State {
	state := environment.NewState()
	state.DayBaseline = validBaseline(s.DayBaseline)
	state.NightBaseline = validBaseline(s.NightBaseline)
	if s.AQHighStreak > 0 {
		state.HighStreak = s.AQHighStreak
	}
	if t, err := time.Parse(time.RFC3339Nano, s.SavedAt); err == nil {
		state.LastPersistedAt = t
	}
	return state
}

func validBaseline(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 {
		return nil
	}
	b := *v
	return &b
}

// LoadState loads the stored state, falling back to a cold-start state.
// The returned error is informational; the state is always usable.
func LoadState(ctx context.Context, store Store) (*environment.State, error) {
	snap, err := store.Load(ctx)
	if err != nil {
		return environment.NewState(), fmt.Errorf("failed to load state snapshot: %w", err)
	}
	return snap.State(), nil
}
