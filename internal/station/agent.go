package station

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/belly1v123/weatherStationESP32/internal/statestore"
	"github.com/belly1v123/weatherStationESP32/pkg/mqtt"
	"github.com/belly1v123/weatherStationESP32/pkg/redis"
)

// How often the checkpointer checks whether a save is due
const checkpointTick = 15 * time.Second

// IngestQueueSize bounds MQTT readings waiting for the ingest worker
const IngestQueueSize = 256

// Agent connects the service to MQTT and runs background checkpointing
type Agent struct {
	mqtt         mqtt.Client
	redis        redis.Client
	service      *Service
	checkpointer *statestore.Checkpointer
	timeManager  *TimeManager
	logger       *slog.Logger

	// Paho delivers on one goroutine with ordered dispatch; a handler that
	// waits on a publish token stalls PUBACK processing. Readings are handed
	// to a single worker instead, which keeps their order.
	queue  chan *ReadingMessage
	worker sync.WaitGroup
}

// NewAgent creates an agent. mqttClient and redisClient may be nil when the
// corresponding integration is disabled.
func NewAgent(mqttClient mqtt.Client, redisClient redis.Client, service *Service, checkpointer *statestore.Checkpointer, timeManager *TimeManager, logger *slog.Logger) *Agent {
	return &Agent{
		mqtt:         mqttClient,
		redis:        redisClient,
		service:      service,
		checkpointer: checkpointer,
		timeManager:  timeManager,
		logger:       logger,
		queue:        make(chan *ReadingMessage, IngestQueueSize),
	}
}

// Start connects to the broker, subscribes to raw readings and blocks until
// ctx is cancelled
func (a *Agent) Start(ctx context.Context) error {
	stationID := a.service.Device().ID()
	a.logger.Info("Starting station agent", "station", stationID)

	if a.redis != nil {
		if err := a.redis.Ping(ctx); err != nil {
			return fmt.Errorf("failed to ping Redis: %w", err)
		}
	}

	if a.mqtt != nil {
		if err := a.mqtt.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to MQTT: %w", err)
		}

		if a.timeManager != nil {
			if err := a.timeManager.ConfigureFromMQTT(a.mqtt); err != nil {
				// Not fatal, replay scenarios just run on wall-clock time
				a.logger.Warn("Failed to subscribe to time config", "error", err)
			}
		}

		a.worker.Add(1)
		go a.runIngest(ctx)

		topic := mqtt.RawReadingTopic(stationID)
		if err := a.mqtt.Subscribe(topic, 1, a.handleMessage); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
		a.logger.Info("Subscribed to raw readings", "topic", topic)
	}

	if a.checkpointer != nil {
		go a.checkpointer.Run(ctx, checkpointTick)
	}

	a.logger.Info("Station agent started and ready to receive readings")

	<-ctx.Done()
	a.logger.Info("Station agent stopping")
	return nil
}

// Stop waits for queued readings, writes a final checkpoint and releases
// connections. The context passed to Start must already be cancelled.
func (a *Agent) Stop() error {
	a.logger.Info("Stopping station agent")

	a.worker.Wait()

	if a.checkpointer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.checkpointer.Flush(ctx); err != nil {
			a.logger.Error("Final state checkpoint failed", "error", err)
		}
		cancel()
	}

	a.service.Hub().Close()

	if a.mqtt != nil {
		a.mqtt.Disconnect()
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("Error closing Redis connection", "error", err)
			return err
		}
	}

	a.logger.Info("Station agent stopped")
	return nil
}

// runIngest classifies queued readings in arrival order. Readings still
// queued when ctx ends are processed before it returns.
func (a *Agent) runIngest(ctx context.Context) {
	defer a.worker.Done()

	for {
		select {
		case reading := <-a.queue:
			a.service.Ingest(ctx, reading.Raw, SourceMQTT)
		case <-ctx.Done():
			for {
				select {
				case reading := <-a.queue:
					a.service.Ingest(context.Background(), reading.Raw, SourceMQTT)
				default:
					return
				}
			}
		}
	}
}

// handleMessage validates a raw reading and queues it for the ingest worker.
// It never blocks the MQTT delivery goroutine.
func (a *Agent) handleMessage(msg mqtt.Message) {
	topic := msg.Topic()
	a.logger.Debug("Received MQTT message", "topic", topic, "size", len(msg.Payload()))

	reading, err := ParseReadingMessage(topic, msg.Payload())
	if err != nil {
		a.logger.Error("Failed to parse message", "topic", topic, "error", err)
		return
	}

	if reading.StationID != a.service.Device().ID() {
		a.logger.Warn("Ignoring reading for another station",
			"topic", topic,
			"station", reading.StationID)
		return
	}

	select {
	case a.queue <- reading:
	default:
		a.logger.Error("Ingest queue full, dropping reading",
			"topic", topic,
			"queue_size", IngestQueueSize)
	}
}
