package station

import (
	"sync"
	"time"

	"github.com/belly1v123/weatherStationESP32/internal/environment"
)

// Status is the collaborator-facing liveness view of a device
type Status struct {
	LastSeen *time.Time `json:"lastSeen"`
	Online   bool       `json:"online"`
}

// Device owns the adaptive state and recent history of one station. All
// classification for the station goes through Process, one reading at a time.
type Device struct {
	id         string
	classifier *environment.Classifier

	mu      sync.Mutex
	state   *environment.State
	history *history

	cfgMu sync.RWMutex
	cfg   environment.DeviceConfig
}

// NewDevice creates a device with the given starting state. state may be nil
// for a cold start.
func NewDevice(id string, classifier *environment.Classifier, state *environment.State, capacity int, cfg environment.DeviceConfig) *Device {
	if state == nil {
		state = environment.NewState()
	}
	return &Device{
		id:         id,
		classifier: classifier,
		state:      state,
		history:    newHistory(capacity),
		cfg:        cfg,
	}
}

// ID returns the station id
func (d *Device) ID() string {
	return d.id
}

// Process stamps arrival from clock, classifies the reading against the
// device state and appends it to the recent history. The stamp is taken
// under the device lock so history order always matches arrival order.
func (d *Device) Process(raw environment.Raw, clock Clock) *environment.EnrichedReading {
	cfg := d.Config()

	d.mu.Lock()
	defer d.mu.Unlock()

	arrival := clock.Now()
	reading := d.classifier.Classify(raw, arrival, d.history.samples(), cfg, d.state)
	if slp, ok := SeaLevelPressure(reading.Pressure, reading.TemperaturePrimary, cfg.AltitudeMeters); ok {
		reading.SeaLevelPressure = &slp
	}
	d.history.push(reading)
	return reading
}

// Warm seeds the history with archived readings, oldest first. State is not
// replayed.
func (d *Device) Warm(readings []*environment.EnrichedReading) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range readings {
		d.history.push(r)
	}
}

// Recent returns the history, oldest first
func (d *Device) Recent() []*environment.EnrichedReading {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.history.readings()
}

// Status reports whether the last reading arrived within threshold of now
func (d *Device) Status(now time.Time, threshold time.Duration) Status {
	d.mu.Lock()
	last := d.history.last()
	d.mu.Unlock()

	if last == nil {
		return Status{}
	}
	seen := last.ReceivedAt
	return Status{
		LastSeen: &seen,
		Online:   now.Sub(seen) < threshold,
	}
}

// SnapshotState returns a copy of the adaptive state
func (d *Device) SnapshotState() *environment.State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.Clone()
}

// MarkPersisted records a successful checkpoint
func (d *Device) MarkPersisted(at time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.LastPersistedAt = at
}

// Config returns the current device configuration
func (d *Device) Config() environment.DeviceConfig {
	d.cfgMu.RLock()
	defer d.cfgMu.RUnlock()
	return d.cfg
}

// SetConfig replaces the device configuration
func (d *Device) SetConfig(cfg environment.DeviceConfig) {
	d.cfgMu.Lock()
	defer d.cfgMu.Unlock()
	d.cfg = cfg
}
