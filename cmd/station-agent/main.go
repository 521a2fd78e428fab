package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/belly1v123/weatherStationESP32/internal/environment"
	"github.com/belly1v123/weatherStationESP32/internal/station"
	"github.com/belly1v123/weatherStationESP32/internal/statestore"
	"github.com/belly1v123/weatherStationESP32/pkg/config"
	"github.com/belly1v123/weatherStationESP32/pkg/health"
	"github.com/belly1v123/weatherStationESP32/pkg/metrics"
	"github.com/belly1v123/weatherStationESP32/pkg/mqtt"
	"github.com/belly1v123/weatherStationESP32/pkg/redis"
)

func main() {
	// Load configuration with hierarchy: defaults → .env → env → flags
	cfg := config.NewConfig()
	if err := cfg.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	cfg.LoadFromEnv()
	cfg.LoadFromFlags()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	logger.Info("Starting weather station agent",
		"service_name", cfg.ServiceName,
		"station", cfg.StationID,
		"http_addr", cfg.HTTPAddress(),
		"mqtt_enabled", cfg.MQTTEnabled,
		"state_backend", cfg.StateBackend,
		"log_level", cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Optional integrations stay nil interfaces when disabled
	var mqttClient mqtt.Client
	if cfg.MQTTEnabled {
		mqttClient = mqtt.NewClient(cfg, logger)
	}
	var redisClient redis.Client
	if cfg.UsesRedis() {
		redisClient = redis.NewClient(cfg, logger)
	}

	offset, _ := config.ParseOffset(cfg.FallbackOffset)
	resolver := environment.NewResolver(environment.ResolverConfig{
		Timezone:       cfg.Timezone,
		FallbackOffset: offset,
		Mode:           environment.DaytimeMode(cfg.DaytimeMode),
		Latitude:       cfg.Latitude,
		Longitude:      cfg.Longitude,
	})
	if resolver.UsingFallbackZone() {
		logger.Warn("Timezone data unavailable, using fixed offset",
			"timezone", cfg.Timezone,
			"offset", cfg.FallbackOffset)
	}

	var store statestore.Store
	if cfg.StateBackend == "redis" {
		store = statestore.NewRedisStore(redisClient, cfg.StationID)
	} else {
		store = statestore.NewFileStore(cfg.StateFilePath)
	}

	loadCtx, loadCancel := context.WithTimeout(ctx, 5*time.Second)
	state, err := statestore.LoadState(loadCtx, store)
	loadCancel()
	if errors.Is(err, statestore.ErrNoSnapshot) {
		logger.Info("No baseline state found, starting cold")
	} else if err != nil {
		logger.Warn("Baseline state unreadable, starting cold", "error", err)
	}

	deviceCfg, err := station.LoadDeviceConfig(cfg.DeviceConfigPath)
	if err != nil {
		logger.Warn("Device config unreadable, using defaults", "path", cfg.DeviceConfigPath, "error", err)
	}

	m := metrics.New()
	timeManager := station.NewTimeManager(logger)
	device := station.NewDevice(cfg.StationID, environment.NewClassifier(resolver), state, cfg.HistoryCapacity, deviceCfg)

	var archive *station.Archive
	if cfg.ArchiveReadings {
		archive = station.NewArchive(redisClient, cfg.StationID, logger)
	}

	service := station.NewService(device, station.ServiceOptions{
		Clock:           timeManager,
		Location:        resolver.Location(),
		OnlineThreshold: cfg.OnlineThreshold,
		ConfigPath:      cfg.DeviceConfigPath,
		Publisher:       mqttClient,
		Archive:         archive,
		Metrics:         m,
	}, logger)

	if archive != nil {
		warmCtx, warmCancel := context.WithTimeout(ctx, 5*time.Second)
		restored, err := service.WarmFromArchive(warmCtx, cfg.HistoryCapacity)
		warmCancel()
		if err != nil {
			logger.Warn("Failed to restore history from archive", "error", err)
		} else {
			logger.Info("Restored recent history", "readings", restored)
		}
	}

	checkpointer := statestore.NewCheckpointer(store, device, cfg.CheckpointInterval, m, logger)
	agent := station.NewAgent(mqttClient, redisClient, service, checkpointer, timeManager, logger)

	checker := health.NewChecker(mqttClient, redisClient, func() bool {
		return service.Status().Online
	}, logger)
	api := station.NewAPI(service, checker, logger)
	httpServer := startHTTPServer(cfg.HTTPAddress(), api.Router(cfg.CORSOrigins), logger)

	agentErr := make(chan error, 1)
	go func() {
		if err := agent.Start(ctx); err != nil {
			logger.Error("Agent error", "error", err)
			agentErr <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received (SIGTERM/SIGINT)")
	case err := <-agentErr:
		logger.Error("Agent failed", "error", err)
	}

	logger.Info("Initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down HTTP server", "error", err)
	}

	if err := agent.Stop(); err != nil {
		logger.Error("Error stopping agent", "error", err)
	}

	logger.Info("Station agent shutdown complete")
}

func startHTTPServer(addr string, handler http.Handler, logger *slog.Logger) *http.Server {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	return server
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := parseLogLevel(cfg.LogLevel)

	var handler slog.Handler
	switch cfg.LogFormat {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	case "pretty":
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler).With("service", cfg.ServiceName)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
