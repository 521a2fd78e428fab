package station

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/belly1v123/weatherStationESP32/pkg/mqtt"
)

// Clock supplies arrival timestamps
type Clock interface {
	Now() time.Time
}

// TimeManager is a wall clock that replay scenarios can switch to virtual
// time over MQTT
type TimeManager struct {
	mu           sync.RWMutex
	testMode     bool
	virtualStart time.Time
	realStart    time.Time
	timeScale    int
	logger       *slog.Logger
}

// NewTimeManager creates a time manager running on real time
func NewTimeManager(logger *slog.Logger) *TimeManager {
	return &TimeManager{
		realStart: time.Now(),
		timeScale: 1,
		logger:    logger,
	}
}

// ConfigureFromMQTT subscribes to virtual clock configuration
func (tm *TimeManager) ConfigureFromMQTT(mqttClient mqtt.Client) error {
	return mqttClient.Subscribe(mqtt.TopicTimeConfig, 1, func(msg mqtt.Message) {
		tm.HandleConfig(msg.Payload())
	})
}

// TimeConfig is the virtual clock control message
type TimeConfig struct {
	VirtualStart string `json:"virtual_start"`
	TimeScale    int    `json:"time_scale"`
	TestMode     bool   `json:"test_mode"`
}

// HandleConfig applies a virtual clock control message
func (tm *TimeManager) HandleConfig(payload []byte) {
	var cfg TimeConfig
	if err := json.Unmarshal(payload, &cfg); err != nil {
		tm.logger.Error("Failed to parse time config", "error", err)
		return
	}

	if !cfg.TestMode {
		tm.logger.Info("Virtual clock disabled")
		tm.mu.Lock()
		tm.testMode = false
		tm.mu.Unlock()
		return
	}

	virtualStart, err := time.Parse(time.RFC3339, cfg.VirtualStart)
	if err != nil {
		tm.logger.Error("Invalid virtual_start time", "error", err)
		return
	}
	if cfg.TimeScale < 1 {
		cfg.TimeScale = 1
	}

	tm.mu.Lock()
	tm.testMode = true
	tm.virtualStart = virtualStart
	tm.realStart = time.Now()
	tm.timeScale = cfg.TimeScale
	tm.mu.Unlock()

	tm.logger.Info("Virtual clock configured",
		"virtual_start", cfg.VirtualStart,
		"time_scale", cfg.TimeScale)
}

// Now returns real time, or virtual time while test mode is active
func (tm *TimeManager) Now() time.Time {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	if !tm.testMode {
		return time.Now()
	}

	virtualElapsed := time.Since(tm.realStart) * time.Duration(tm.timeScale)
	return tm.virtualStart.Add(virtualElapsed)
}

// IsTestMode reports whether the virtual clock is active
func (tm *TimeManager) IsTestMode() bool {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.testMode
}
