package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config holds the configuration for the station agent
type Config struct {
	// MQTT configuration
	MQTTBroker   string
	MQTTPort     int
	MQTTUser     string
	MQTTPassword string
	MQTTClientID string
	MQTTEnabled  bool

	// Redis configuration
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// Service configuration
	ServiceName string
	HTTPPort    int
	LogLevel    string
	LogFormat   string
	CORSOrigins []string

	// Station configuration
	StationID        string
	HistoryCapacity  int
	OnlineThreshold  time.Duration
	DeviceConfigPath string
	ArchiveReadings  bool

	// Time-of-day resolution
	Timezone       string
	FallbackOffset string
	DaytimeMode    string
	Latitude       float64
	Longitude      float64

	// Adaptive state persistence
	StateBackend       string
	StateFilePath      string
	CheckpointInterval time.Duration
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		MQTTBroker:   "localhost",
		MQTTPort:     1883,
		MQTTEnabled:  true,
		RedisHost:    "localhost",
		RedisPort:    6379,
		RedisDB:      0,
		ServiceName:  "station-agent",
		HTTPPort:     3000,
		LogLevel:     "info",
		LogFormat:    "text",
		CORSOrigins:  []string{"*"},
		StationID:    "esp32",
		// Recent-history buffer feeding the baseline window
		HistoryCapacity:  500,
		OnlineThreshold:  90 * time.Second,
		DeviceConfigPath: "config.yaml",
		ArchiveReadings:  false,
		// Kathmandu, where the station is deployed
		Timezone:       "Asia/Kathmandu",
		FallbackOffset: "+05:45",
		DaytimeMode:    "clock",
		Latitude:       27.7172,
		Longitude:      85.3240,
		StateBackend:       "file",
		StateFilePath:      "baseline-state.json",
		CheckpointInterval: 5 * time.Minute,
	}
}

// LoadDotEnv loads a .env file into the process environment if one exists.
// Variables already set in the environment win.
func (c *Config) LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables with STATION_ prefix
func (c *Config) LoadFromEnv() {
	// MQTT configuration
	if v := os.Getenv("STATION_MQTT_BROKER"); v != "" {
		c.MQTTBroker = v
	}
	if v := os.Getenv("STATION_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.MQTTPort = port
		}
	}
	if v := os.Getenv("STATION_MQTT_USER"); v != "" {
		c.MQTTUser = v
	}
	if v := os.Getenv("STATION_MQTT_PASSWORD"); v != "" {
		c.MQTTPassword = v
	}
	if v := os.Getenv("STATION_MQTT_CLIENT_ID"); v != "" {
		c.MQTTClientID = v
	}
	if v := os.Getenv("STATION_MQTT_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.MQTTEnabled = enabled
		}
	}

	// Redis configuration
	if v := os.Getenv("STATION_REDIS_HOST"); v != "" {
		c.RedisHost = v
	}
	if v := os.Getenv("STATION_REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.RedisPort = port
		}
	}
	if v := os.Getenv("STATION_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("STATION_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.RedisDB = db
		}
	}

	// Service configuration
	if v := os.Getenv("STATION_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv("STATION_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HTTPPort = port
		}
	}
	// PORT is set by most container platforms
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HTTPPort = port
		}
	}
	if v := os.Getenv("STATION_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("STATION_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("STATION_CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}

	// Station configuration
	if v := os.Getenv("STATION_ID"); v != "" {
		c.StationID = v
	}
	if v := os.Getenv("STATION_HISTORY_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.HistoryCapacity = n
		}
	}
	if v := os.Getenv("STATION_ONLINE_THRESHOLD"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.OnlineThreshold = d
		}
	}
	if v := os.Getenv("STATION_DEVICE_CONFIG_PATH"); v != "" {
		c.DeviceConfigPath = v
	}
	if v := os.Getenv("STATION_ARCHIVE_READINGS"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.ArchiveReadings = enabled
		}
	}

	// Time-of-day configuration
	if v := os.Getenv("STATION_TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("STATION_FALLBACK_OFFSET"); v != "" {
		c.FallbackOffset = v
	}
	if v := os.Getenv("STATION_DAYTIME_MODE"); v != "" {
		c.DaytimeMode = v
	}
	if v := os.Getenv("STATION_LATITUDE"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			c.Latitude = lat
		}
	}
	if v := os.Getenv("STATION_LONGITUDE"); v != "" {
		if lon, err := strconv.ParseFloat(v, 64); err == nil {
			c.Longitude = lon
		}
	}

	// State persistence
	if v := os.Getenv("STATION_STATE_BACKEND"); v != "" {
		c.StateBackend = v
	}
	if v := os.Getenv("STATION_STATE_FILE"); v != "" {
		c.StateFilePath = v
	}
	if v := os.Getenv("STATION_CHECKPOINT_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.CheckpointInterval = d
		}
	}
}

// LoadFromFlags parses command-line flags and overrides config values
func (c *Config) LoadFromFlags() {
	c.BindFlags(pflag.CommandLine)
	pflag.Parse()
}

// BindFlags registers all configuration flags on the given flag set
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	// MQTT flags
	fs.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname")
	fs.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	fs.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	fs.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	fs.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")
	fs.BoolVar(&c.MQTTEnabled, "mqtt-enabled", c.MQTTEnabled, "Ingest and publish readings over MQTT")

	// Redis flags
	fs.StringVar(&c.RedisHost, "redis-host", c.RedisHost, "Redis hostname")
	fs.IntVar(&c.RedisPort, "redis-port", c.RedisPort, "Redis port")
	fs.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	fs.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")

	// Service flags
	fs.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	fs.IntVar(&c.HTTPPort, "http-port", c.HTTPPort, "HTTP API port")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format (text, json, pretty)")
	fs.StringSliceVar(&c.CORSOrigins, "cors-origins", c.CORSOrigins, "Allowed CORS origins")

	// Station flags
	fs.StringVar(&c.StationID, "station-id", c.StationID, "Station (device) identifier")
	fs.IntVar(&c.HistoryCapacity, "history-capacity", c.HistoryCapacity, "Recent readings kept in memory")
	fs.DurationVar(&c.OnlineThreshold, "online-threshold", c.OnlineThreshold, "Device is online if last reading is newer than this")
	fs.StringVar(&c.DeviceConfigPath, "device-config", c.DeviceConfigPath, "Device config file (altitude, environment)")
	fs.BoolVar(&c.ArchiveReadings, "archive-readings", c.ArchiveReadings, "Archive enriched readings in Redis")

	// Time-of-day flags
	fs.StringVar(&c.Timezone, "timezone", c.Timezone, "IANA timezone used for day/night resolution")
	fs.StringVar(&c.FallbackOffset, "fallback-offset", c.FallbackOffset, "Fixed UTC offset used when the timezone cannot be loaded")
	fs.StringVar(&c.DaytimeMode, "daytime-mode", c.DaytimeMode, "Daytime resolution (clock, solar)")
	fs.Float64Var(&c.Latitude, "latitude", c.Latitude, "Geographic latitude for solar daytime")
	fs.Float64Var(&c.Longitude, "longitude", c.Longitude, "Geographic longitude for solar daytime")

	// State flags
	fs.StringVar(&c.StateBackend, "state-backend", c.StateBackend, "Baseline state backend (file, redis)")
	fs.StringVar(&c.StateFilePath, "state-file", c.StateFilePath, "Baseline state snapshot file")
	fs.DurationVar(&c.CheckpointInterval, "checkpoint-interval", c.CheckpointInterval, "Minimum time between state checkpoints")
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.MQTTEnabled {
		if c.MQTTBroker == "" {
			return fmt.Errorf("MQTT broker is required")
		}
		if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
			return fmt.Errorf("MQTT port must be between 1 and 65535")
		}
	}
	if c.usesRedis() {
		if c.RedisHost == "" {
			return fmt.Errorf("Redis host is required")
		}
		if c.RedisPort <= 0 || c.RedisPort > 65535 {
			return fmt.Errorf("Redis port must be between 1 and 65535")
		}
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("HTTP port must be between 1 and 65535")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("Service name is required")
	}
	if c.StationID == "" {
		return fmt.Errorf("Station ID is required")
	}
	if c.HistoryCapacity <= 0 {
		return fmt.Errorf("history capacity must be positive")
	}
	if c.OnlineThreshold <= 0 {
		return fmt.Errorf("online threshold must be positive")
	}
	if c.CheckpointInterval <= 0 {
		return fmt.Errorf("checkpoint interval must be positive")
	}
	if _, err := ParseOffset(c.FallbackOffset); err != nil {
		return err
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	switch c.LogFormat {
	case "text", "json", "pretty":
	default:
		return fmt.Errorf("invalid log format: %s (must be text, json, or pretty)", c.LogFormat)
	}

	switch c.DaytimeMode {
	case "clock", "solar":
	default:
		return fmt.Errorf("invalid daytime mode: %s (must be clock or solar)", c.DaytimeMode)
	}

	switch c.StateBackend {
	case "file":
		if c.StateFilePath == "" {
			return fmt.Errorf("state file path is required for the file backend")
		}
	case "redis":
	default:
		return fmt.Errorf("invalid state backend: %s (must be file or redis)", c.StateBackend)
	}

	return nil
}

// UsesRedis reports whether any enabled component needs a Redis connection
func (c *Config) UsesRedis() bool {
	return c.usesRedis()
}

func (c *Config) usesRedis() bool {
	return c.StateBackend == "redis" || c.ArchiveReadings
}

// MQTTAddress returns the full MQTT broker address
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// RedisAddress returns the full Redis address
func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// HTTPAddress returns the listen address for the HTTP API
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// ParseOffset parses a fixed UTC offset of the form "+05:45" or "-03:00"
func ParseOffset(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if len(s) != 6 || (s[0] != '+' && s[0] != '-') || s[3] != ':' {
		return 0, fmt.Errorf("invalid fallback offset %q (expected +HH:MM)", s)
	}
	hours, err := strconv.Atoi(s[1:3])
	if err != nil || hours > 14 {
		return 0, fmt.Errorf("invalid fallback offset %q (bad hours)", s)
	}
	minutes, err := strconv.Atoi(s[4:6])
	if err != nil || minutes > 59 {
		return 0, fmt.Errorf("invalid fallback offset %q (bad minutes)", s)
	}
	offset := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
	if s[0] == '-' {
		offset = -offset
	}
	return offset, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
