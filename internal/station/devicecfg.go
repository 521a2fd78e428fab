package station

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/belly1v123/weatherStationESP32/internal/environment"
)

// Device config defaults
const (
	DefaultAltitudeMeters = 1350.0
	DefaultEnvironment    = "indoor"
)

// DefaultDeviceConfig returns the configuration used before an operator sets one
func DefaultDeviceConfig() environment.DeviceConfig {
	return environment.DeviceConfig{
		AltitudeMeters: DefaultAltitudeMeters,
		Environment:    DefaultEnvironment,
	}
}

// LoadDeviceConfig reads the YAML device config. A missing file yields the
// defaults; fields absent from the file keep their defaults.
func LoadDeviceConfig(path string) (environment.DeviceConfig, error) {
	cfg := DefaultDeviceConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read device config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultDeviceConfig(), fmt.Errorf("failed to parse device config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveDeviceConfig writes the device config as YAML
func SaveDeviceConfig(path string, cfg environment.DeviceConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal device config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write device config: %w", err)
	}
	return nil
}

// ApplyConfigUpdate merges a loosely typed update: altitude_m must be a
// number and environment a non-empty string, anything else is ignored.
func ApplyConfigUpdate(cfg environment.DeviceConfig, update map[string]interface{}) environment.DeviceConfig {
	if alt, ok := update["altitude_m"].(float64); ok {
		cfg.AltitudeMeters = alt
	}
	if env, ok := update["environment"].(string); ok && env != "" {
		cfg.Environment = env
	}
	return cfg
}
