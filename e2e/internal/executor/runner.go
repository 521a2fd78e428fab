package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/belly1v123/weatherStationESP32/e2e/internal/checker"
	"github.com/belly1v123/weatherStationESP32/e2e/internal/observer"
	"github.com/belly1v123/weatherStationESP32/e2e/internal/scenario"
)

const timeConfigTopic = "weather/test/time_config"

// Options configures a Runner
type Options struct {
	MQTTBroker string
	// RedisAddr enables redis_key expectations; empty disables them
	RedisAddr string
	// StartupDelay gives the station time to receive the virtual clock
	StartupDelay time.Duration
}

// Runner replays a scenario against a running station
type Runner struct {
	opts        Options
	logger      *log.Logger
	observer    *observer.Observer
	player      *MQTTPlayer
	redisClient *redis.Client
}

// NewRunner creates a runner
func NewRunner(opts Options, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{opts: opts, logger: logger}
}

// step is one scheduled action, a reading or a check
type step struct {
	at          int
	reading     *scenario.Reading
	expectation *scenario.Expectation
}

// schedule orders readings and expectations by time; at equal times
// readings go first
func schedule(s *scenario.Scenario) []step {
	var steps []step
	for i := range s.Readings {
		r := &s.Readings[i]
		for _, t := range r.Expand() {
			steps = append(steps, step{at: t, reading: r})
		}
	}
	for i := range s.Expectations {
		steps = append(steps, step{at: s.Expectations[i].Time, expectation: &s.Expectations[i]})
	}
	sort.SliceStable(steps, func(i, j int) bool {
		if steps[i].at != steps[j].at {
			return steps[i].at < steps[j].at
		}
		return steps[i].reading != nil && steps[j].reading == nil
	})
	return steps
}

// Run executes the scenario and reports each expectation
func (r *Runner) Run(ctx context.Context, s *scenario.Scenario) (*scenario.TestResult, error) {
	r.logger.Printf("Starting scenario: %s", s.Name)
	r.logger.Printf("Description: %s", s.Description)

	if err := r.initialize(ctx); err != nil {
		return nil, fmt.Errorf("initialization failed: %w", err)
	}
	defer r.cleanup()

	timeScale := 1
	if s.TestMode != nil {
		timeScale = s.TestMode.TimeScale
		if err := r.publishTestMode(s.TestMode); err != nil {
			return nil, fmt.Errorf("failed to publish test mode: %w", err)
		}
	}

	r.logger.Printf("Waiting %s for the station to settle", r.opts.StartupDelay)
	time.Sleep(r.opts.StartupDelay)

	if err := r.observer.Start(); err != nil {
		return nil, fmt.Errorf("failed to start observer: %w", err)
	}

	result := &scenario.TestResult{Scenario: s, StartTime: time.Now()}

	for _, st := range schedule(s) {
		WaitUntil(result.StartTime, st.at, timeScale)
		elapsed := GetElapsed(result.StartTime)

		if st.reading != nil {
			r.logger.Printf("[%7.2fs] → %s", elapsed, st.reading.Description)
			if err := r.player.PublishReading(s.Station, *st.reading); err != nil {
				return nil, fmt.Errorf("failed to publish reading: %w", err)
			}
			continue
		}

		res := r.check(ctx, *st.expectation)
		result.Expectations = append(result.Expectations, res)
		if res.Passed {
			result.PassedCount++
			r.logger.Printf("[%7.2fs] ✓ %s", elapsed, st.expectation.Description)
		} else {
			result.FailedCount++
			r.logger.Printf("[%7.2fs] ✗ %s: %s", elapsed, st.expectation.Description, res.Reason)
		}
	}

	result.EndTime = time.Now()
	result.Passed = result.FailedCount == 0
	return result, nil
}

func (r *Runner) check(ctx context.Context, exp scenario.Expectation) scenario.ExpectationResult {
	var passed bool
	var reason string
	var actual interface{}

	switch {
	case exp.RedisKey != "":
		if r.redisClient == nil {
			reason = "redis_key expectation but no Redis address configured"
			break
		}
		passed, reason, actual = checker.CheckRedisExpectation(ctx, r.redisClient, exp)
	default:
		passed, reason, actual = checker.CheckExpectation(exp, r.observer.GetAllMessages())
	}

	return scenario.ExpectationResult{
		Expectation: exp,
		Passed:      passed,
		Reason:      reason,
		Actual:      actual,
	}
}

func (r *Runner) initialize(ctx context.Context) error {
	r.observer = observer.NewObserver(r.opts.MQTTBroker, "weather/#", r.logger)

	player, err := NewMQTTPlayer(r.opts.MQTTBroker, r.logger)
	if err != nil {
		return fmt.Errorf("failed to create MQTT player: %w", err)
	}
	r.player = player

	if r.opts.RedisAddr != "" {
		r.redisClient = redis.NewClient(&redis.Options{Addr: r.opts.RedisAddr})
		if err := r.redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		r.logger.Printf("Connected to Redis at %s", r.opts.RedisAddr)
	}
	return nil
}

func (r *Runner) cleanup() {
	if r.observer != nil {
		r.observer.Stop()
	}
	if r.player != nil {
		r.player.Close()
	}
	if r.redisClient != nil {
		r.redisClient.Close()
	}
}

// SaveCapture writes captured MQTT traffic to a file
func (r *Runner) SaveCapture(filename string) error {
	if r.observer == nil {
		return fmt.Errorf("observer not initialized")
	}
	return r.observer.SaveCapture(filename)
}

// SaveSummary writes the result as JSON
func SaveSummary(result *scenario.TestResult, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (r *Runner) publishTestMode(tm *scenario.TestModeConfig) error {
	payload, err := json.Marshal(map[string]interface{}{
		"virtual_start": tm.VirtualStart,
		"time_scale":    tm.TimeScale,
		"test_mode":     true,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal test mode config: %w", err)
	}

	if err := r.player.Publish(timeConfigTopic, 1, true, payload); err != nil {
		return fmt.Errorf("failed to publish test mode config: %w", err)
	}
	r.logger.Printf("Published virtual clock: start=%s scale=%dx", tm.VirtualStart, tm.TimeScale)
	return nil
}
