package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/belly1v123/weatherStationESP32/pkg/config"
)

// PublishTimeout bounds how long Publish waits for the broker
const PublishTimeout = 5 * time.Second

type subscription struct {
	qos     byte
	handler pahomqtt.MessageHandler
}

// mqttClient implements Client on top of paho. Subscriptions are remembered
// and restored after every reconnect because sessions are clean.
type mqttClient struct {
	client pahomqtt.Client
	broker string
	logger *slog.Logger

	mu   sync.Mutex
	subs map[string]subscription
}

// NewClient creates a paho-backed client from the station configuration
func NewClient(cfg *config.Config, logger *slog.Logger) Client {
	m := &mqttClient{
		broker: cfg.MQTTAddress(),
		logger: logger.With("component", "mqtt"),
		subs:   make(map[string]subscription),
	}

	clientID := cfg.MQTTClientID
	if clientID == "" {
		clientID = fmt.Sprintf("%s-%s-%s", cfg.ServiceName, cfg.StationID, uuid.NewString()[:8])
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(m.broker).
		SetClientID(clientID).
		SetOrderMatters(true).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(30 * time.Second).
		SetOnConnectHandler(m.onConnect).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			m.logger.Warn("MQTT connection lost", "error", err)
		}).
		SetReconnectingHandler(func(_ pahomqtt.Client, _ *pahomqtt.ClientOptions) {
			m.logger.Info("MQTT reconnecting")
		})

	if cfg.MQTTUser != "" {
		opts.SetUsername(cfg.MQTTUser)
		opts.SetPassword(cfg.MQTTPassword)
	}

	m.client = pahomqtt.NewClient(opts)
	return m
}

func (m *mqttClient) onConnect(c pahomqtt.Client) {
	m.logger.Info("Connected to MQTT broker", "broker", m.broker)

	m.mu.Lock()
	subs := make(map[string]subscription, len(m.subs))
	for topic, s := range m.subs {
		subs[topic] = s
	}
	m.mu.Unlock()

	for topic, s := range subs {
		token := c.Subscribe(topic, s.qos, s.handler)
		token.Wait()
		if err := token.Error(); err != nil {
			m.logger.Error("Failed to restore subscription", "topic", topic, "error", err)
			continue
		}
		m.logger.Debug("Restored subscription", "topic", topic)
	}
}

// Connect blocks until the first connection succeeds or ctx ends
func (m *mqttClient) Connect(ctx context.Context) error {
	m.logger.Info("Connecting to MQTT broker", "broker", m.broker)

	token := m.client.Connect()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("failed to connect to MQTT broker %s: %w", m.broker, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("connection timeout: %w", ctx.Err())
	}
}

// Disconnect closes the connection with a short grace period
func (m *mqttClient) Disconnect() {
	m.logger.Info("Disconnecting from MQTT broker")
	m.client.Disconnect(250)
}

// Subscribe registers handler for topic and keeps it across reconnects
func (m *mqttClient) Subscribe(topic string, qos byte, handler MessageHandler) error {
	s := subscription{
		qos: qos,
		handler: func(_ pahomqtt.Client, msg pahomqtt.Message) {
			handler(&mqttMessage{msg: msg})
		},
	}

	m.mu.Lock()
	m.subs[topic] = s
	m.mu.Unlock()

	token := m.client.Subscribe(topic, qos, s.handler)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}

	m.logger.Info("Subscribed to topic", "topic", topic, "qos", qos)
	return nil
}

// Publish sends payload and waits at most PublishTimeout for the broker
func (m *mqttClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := m.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(PublishTimeout) {
		return fmt.Errorf("publish to topic %s timed out after %s", topic, PublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, err)
	}

	m.logger.Debug("Published message", "topic", topic, "retained", retained, "size", len(payload))
	return nil
}

// IsConnected reports the live connection state
func (m *mqttClient) IsConnected() bool {
	return m.client.IsConnected()
}

type mqttMessage struct {
	msg pahomqtt.Message
}

func (m *mqttMessage) Topic() string   { return m.msg.Topic() }
func (m *mqttMessage) Payload() []byte { return m.msg.Payload() }
func (m *mqttMessage) Ack()            { m.msg.Ack() }
