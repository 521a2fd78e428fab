// Package station runs the weather station service: it receives readings
// over HTTP and MQTT, classifies them against per-device adaptive state and
// fans the results out to live clients, MQTT and the Redis archive.
package station

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/belly1v123/weatherStationESP32/internal/environment"
	"github.com/belly1v123/weatherStationESP32/internal/statestore"
	"github.com/belly1v123/weatherStationESP32/pkg/metrics"
	"github.com/belly1v123/weatherStationESP32/pkg/mqtt"
)

// Ingest sources
const (
	SourceHTTP = "http"
	SourceMQTT = "mqtt"
)

const localTimeLayout = "2006-01-02 15:04:05"

// Service ties a device to its sinks
type Service struct {
	device          *Device
	clock           Clock
	location        *time.Location
	onlineThreshold time.Duration
	configPath      string

	hub       *Hub
	publisher mqtt.Client
	archive   *Archive
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// ServiceOptions holds the optional collaborators of a Service
type ServiceOptions struct {
	Clock           Clock
	Location        *time.Location
	OnlineThreshold time.Duration
	// ConfigPath is where device config updates are persisted; empty disables
	ConfigPath string
	Hub        *Hub
	// Publisher receives enriched readings; nil disables MQTT output
	Publisher mqtt.Client
	// Archive stores enriched readings; nil disables archiving
	Archive *Archive
	Metrics *metrics.Metrics
}

// NewService creates the service around a device
func NewService(device *Device, opts ServiceOptions, logger *slog.Logger) *Service {
	if opts.Clock == nil {
		opts.Clock = NewTimeManager(logger)
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.OnlineThreshold <= 0 {
		opts.OnlineThreshold = 90 * time.Second
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Hub == nil {
		opts.Hub = NewHub(opts.Metrics, logger)
	}
	return &Service{
		device:          device,
		clock:           opts.Clock,
		location:        opts.Location,
		onlineThreshold: opts.OnlineThreshold,
		configPath:      opts.ConfigPath,
		hub:             opts.Hub,
		publisher:       opts.Publisher,
		archive:         opts.Archive,
		metrics:         opts.Metrics,
		logger:          logger,
	}
}

// Device returns the device served
func (s *Service) Device() *Device {
	return s.device
}

// Hub returns the live client hub
func (s *Service) Hub() *Hub {
	return s.hub
}

// Ingest stamps, classifies and distributes one reading. Sink failures are
// logged and never reject the reading.
func (s *Service) Ingest(ctx context.Context, raw environment.Raw, source string) *environment.EnrichedReading {
	reading := s.device.Process(raw, s.clock)

	s.logger.Info("Received reading",
		"station", s.device.ID(),
		"source", source,
		"local_time", reading.ReceivedAt.In(s.location).Format(localTimeLayout),
		"is_daytime", reading.IsDaytime,
		"daytime_source", reading.DaytimeSource,
		"mq_health", reading.MQHealth,
		"mq_baseline", reading.MQBaseline,
		"comfort", reading.Comfort.Overall)

	s.metrics.ObserveReading(source, string(reading.MQHealth),
		reading.DayBaseline, reading.NightBaseline, reading.AQHighStreak)

	if s.archive != nil {
		if err := s.archive.Store(ctx, reading); err != nil {
			s.metrics.PublishFailed("redis")
			s.logger.Error("Failed to archive reading", "station", s.device.ID(), "error", err)
		}
	}

	status := s.Status()
	s.hub.Broadcast(
		Event{Event: EventNewData, Data: reading},
		Event{Event: EventDeviceStatus, Data: status},
		Event{Event: EventConfig, Data: s.device.Config()},
	)

	if err := s.publish(reading, status); err != nil {
		s.metrics.PublishFailed("mqtt")
		s.logger.Error("Failed to publish enriched reading", "station", s.device.ID(), "error", err)
	}

	return reading
}

func (s *Service) publish(reading *environment.EnrichedReading, status Status) error {
	if s.publisher == nil || !s.publisher.IsConnected() {
		return nil
	}

	payload, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to marshal enriched reading: %w", err)
	}
	if err := s.publisher.Publish(mqtt.EnrichedReadingTopic(s.device.ID()), 0, false, payload); err != nil {
		return fmt.Errorf("failed to publish enriched reading: %w", err)
	}

	statusPayload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	if err := s.publisher.Publish(mqtt.StatusTopic(s.device.ID()), 1, true, statusPayload); err != nil {
		return fmt.Errorf("failed to publish status: %w", err)
	}
	return nil
}

// Status returns the device liveness
func (s *Service) Status() Status {
	return s.device.Status(s.clock.Now(), s.onlineThreshold)
}

// Recent returns the recent history, oldest first
func (s *Service) Recent() []*environment.EnrichedReading {
	return s.device.Recent()
}

// Config returns the device configuration
func (s *Service) Config() environment.DeviceConfig {
	return s.device.Config()
}

// UpdateConfig merges an operator update, persists it and broadcasts the
// result. A persistence failure is logged; the update still applies.
func (s *Service) UpdateConfig(update map[string]interface{}) environment.DeviceConfig {
	cfg := ApplyConfigUpdate(s.device.Config(), update)
	s.device.SetConfig(cfg)

	s.hub.Broadcast(Event{Event: EventConfig, Data: cfg})

	if s.configPath != "" {
		if err := SaveDeviceConfig(s.configPath, cfg); err != nil {
			s.logger.Error("Failed to persist device config", "path", s.configPath, "error", err)
		}
	}

	s.logger.Info("Device config updated",
		"altitude_m", cfg.AltitudeMeters,
		"environment", cfg.Environment)
	return cfg
}

// StateSnapshot returns the current adaptive state in its persisted form
func (s *Service) StateSnapshot() *statestore.Snapshot {
	state := s.device.SnapshotState()
	return statestore.FromState(state, s.clock.Now())
}

// InitialEvents are sent to a client when it connects
func (s *Service) InitialEvents() []Event {
	return []Event{
		{Event: EventSnapshot, Data: s.Recent()},
		{Event: EventDeviceStatus, Data: s.Status()},
		{Event: EventConfig, Data: s.Config()},
	}
}

// WarmFromArchive refills the recent history from the archive so the
// baseline window survives a restart. It returns the number of readings
// restored.
func (s *Service) WarmFromArchive(ctx context.Context, capacity int) (int, error) {
	if s.archive == nil {
		return 0, nil
	}
	since := s.clock.Now().Add(-archiveRetention)
	readings, err := s.archive.Recent(ctx, since, capacity)
	if err != nil {
		return 0, err
	}
	s.device.Warm(readings)
	return len(readings), nil
}
