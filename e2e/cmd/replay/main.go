package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/belly1v123/weatherStationESP32/e2e/internal/executor"
	"github.com/belly1v123/weatherStationESP32/e2e/internal/scenario"
)

func main() {
	scenarioPath := pflag.String("scenario", "", "Path to YAML scenario file (required)")
	mqttBroker := pflag.String("mqtt-broker", "tcp://localhost:1883", "MQTT broker URL")
	redisAddr := pflag.String("redis-addr", "", "Redis address for redis_key expectations")
	outputDir := pflag.String("output-dir", "./test-output", "Output directory for captures and summaries")
	startupDelay := pflag.Duration("startup-delay", 2*time.Second, "Time to let the station settle before replay")
	pflag.Parse()

	if *scenarioPath == "" {
		fmt.Fprintf(os.Stderr, "Error: --scenario is required\n")
		pflag.Usage()
		os.Exit(1)
	}

	logger := log.New(os.Stdout, "", log.Ltime)

	scen, err := scenario.LoadScenario(*scenarioPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load scenario: %v\n", err)
		os.Exit(1)
	}

	runner := executor.NewRunner(executor.Options{
		MQTTBroker:   *mqttBroker,
		RedisAddr:    *redisAddr,
		StartupDelay: *startupDelay,
	}, logger)

	result, err := runner.Run(context.Background(), scen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Replay failed: %v\n", err)
		os.Exit(1)
	}

	name := strings.TrimSuffix(filepath.Base(*scenarioPath), filepath.Ext(*scenarioPath))

	capturePath := filepath.Join(*outputDir, "captures", name+".json")
	if err := runner.SaveCapture(capturePath); err != nil {
		logger.Printf("Warning: failed to save capture: %v", err)
	}

	summaryPath := filepath.Join(*outputDir, "summaries", name+".json")
	if err := executor.SaveSummary(result, summaryPath); err != nil {
		logger.Printf("Warning: failed to save summary: %v", err)
	}

	logger.Printf("%s: %d passed, %d failed in %s",
		scen.Name, result.PassedCount, result.FailedCount,
		result.EndTime.Sub(result.StartTime).Round(time.Millisecond))

	if !result.Passed {
		os.Exit(1)
	}
}
