package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaultsAreValid(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 500, cfg.HistoryCapacity)
	assert.Equal(t, 5*time.Minute, cfg.CheckpointInterval)
	assert.Equal(t, 90*time.Second, cfg.OnlineThreshold)
	assert.Equal(t, "Asia/Kathmandu", cfg.Timezone)
	assert.False(t, cfg.UsesRedis())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STATION_MQTT_BROKER", "broker.local")
	t.Setenv("STATION_MQTT_PORT", "8883")
	t.Setenv("STATION_STATE_BACKEND", "redis")
	t.Setenv("STATION_ONLINE_THRESHOLD", "25s")
	t.Setenv("STATION_CHECKPOINT_INTERVAL", "1m")
	t.Setenv("STATION_CORS_ORIGINS", "http://a.local, http://b.local")
	t.Setenv("STATION_HISTORY_CAPACITY", "not-a-number")

	cfg := NewConfig()
	cfg.LoadFromEnv()

	assert.Equal(t, "broker.local", cfg.MQTTBroker)
	assert.Equal(t, 8883, cfg.MQTTPort)
	assert.Equal(t, "redis", cfg.StateBackend)
	assert.Equal(t, 25*time.Second, cfg.OnlineThreshold)
	assert.Equal(t, time.Minute, cfg.CheckpointInterval)
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.CORSOrigins)
	// unparsable values keep the default
	assert.Equal(t, 500, cfg.HistoryCapacity)
	assert.True(t, cfg.UsesRedis())
}

func TestBindFlagsOverridesEnv(t *testing.T) {
	t.Setenv("STATION_ID", "from-env")

	cfg := NewConfig()
	cfg.LoadFromEnv()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--station-id=from-flag", "--daytime-mode=solar"}))

	assert.Equal(t, "from-flag", cfg.StationID)
	assert.Equal(t, "solar", cfg.DaytimeMode)
}

func TestLoadDotEnv(t *testing.T) {
	cfg := NewConfig()

	// missing file is not an error
	require.NoError(t, cfg.LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("STATION_TEST_DOTENV=loaded\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("STATION_TEST_DOTENV") })

	require.NoError(t, cfg.LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("STATION_TEST_DOTENV"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, true},
		{"bad daytime mode", func(c *Config) { c.DaytimeMode = "lunar" }, true},
		{"bad state backend", func(c *Config) { c.StateBackend = "s3" }, true},
		{"empty state file", func(c *Config) { c.StateFilePath = "" }, true},
		{"bad offset", func(c *Config) { c.FallbackOffset = "5:45" }, true},
		{"mqtt disabled ignores broker", func(c *Config) { c.MQTTEnabled = false; c.MQTTBroker = "" }, false},
		{"redis backend needs host", func(c *Config) { c.StateBackend = "redis"; c.RedisHost = "" }, true},
		{"zero history", func(c *Config) { c.HistoryCapacity = 0 }, true},
		{"empty station", func(c *Config) { c.StationID = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseOffset(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"+05:45", 5*time.Hour + 45*time.Minute, false},
		{"-03:30", -(3*time.Hour + 30*time.Minute), false},
		{"+00:00", 0, false},
		{"05:45", 0, true},
		{"+5:45", 0, true},
		{"+05:75", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOffset(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
