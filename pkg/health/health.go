package health

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/belly1v123/weatherStationESP32/pkg/mqtt"
	"github.com/belly1v123/weatherStationESP32/pkg/redis"
)

// Dependency states reported by the detailed check
const (
	StateConnected    = "connected"
	StateDisconnected = "disconnected"
	StateDisabled     = "disabled"
	StateOnline       = "online"
	StateOffline      = "offline"
)

// DeviceProbe reports whether the sensor device is currently online
type DeviceProbe func() bool

// Checker provides health check functionality for the station service
type Checker struct {
	mqtt   mqtt.Client
	redis  redis.Client
	device DeviceProbe
	logger *slog.Logger
}

// NewChecker creates a health checker. mqttClient, redisClient and device
// may be nil when the corresponding dependency is disabled.
func NewChecker(mqttClient mqtt.Client, redisClient redis.Client, device DeviceProbe, logger *slog.Logger) *Checker {
	return &Checker{
		mqtt:   mqttClient,
		redis:  redisClient,
		device: device,
		logger: logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp string    `json:"timestamp"`
	Services  *Services `json:"services,omitempty"`
}

// Services represents the status of external dependencies
type Services struct {
	Redis  string `json:"redis"`
	MQTT   string `json:"mqtt"`
	Device string `json:"device"`
}

// HandlerFunc returns a liveness handler that does not touch dependencies
func (h *Checker) HandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.write(w, http.StatusOK, HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
}

// DetailedHandlerFunc returns a handler that checks every enabled dependency.
// An offline device is reported but does not degrade the service.
func (h *Checker) DetailedHandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := h.Check(r)

		status := "healthy"
		statusCode := http.StatusOK
		if services.Redis == StateDisconnected || services.MQTT == StateDisconnected {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		h.write(w, statusCode, HealthResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Services:  services,
		})
	}
}

// Check probes each dependency
func (h *Checker) Check(r *http.Request) *Services {
	services := &Services{
		Redis:  StateDisabled,
		MQTT:   StateDisabled,
		Device: StateOffline,
	}

	if h.mqtt != nil {
		services.MQTT = StateDisconnected
		if h.mqtt.IsConnected() {
			services.MQTT = StateConnected
		}
	}

	if h.redis != nil {
		services.Redis = StateConnected
		if err := h.redis.Ping(r.Context()); err != nil {
			h.logger.Warn("Redis health ping failed", "error", err)
			services.Redis = StateDisconnected
		}
	}

	if h.device != nil && h.device() {
		services.Device = StateOnline
	}

	return services
}

func (h *Checker) write(w http.ResponseWriter, statusCode int, response HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode health response", "error", err)
	}
}
