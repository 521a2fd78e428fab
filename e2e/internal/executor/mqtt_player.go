package executor

import (
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/belly1v123/weatherStationESP32/e2e/internal/scenario"
)

// MQTTPlayer publishes scenario readings the way the ESP32 firmware does
type MQTTPlayer struct {
	client mqtt.Client
	logger *log.Logger
}

// NewMQTTPlayer connects a player to the broker
func NewMQTTPlayer(broker string, logger *log.Logger) (*MQTTPlayer, error) {
	if logger == nil {
		logger = log.Default()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID("weather-replay-" + uuid.NewString()[:8])
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	logger.Printf("Connected to MQTT broker at %s", broker)

	return &MQTTPlayer{client: client, logger: logger}, nil
}

// PublishReading publishes one raw payload to weather/raw/{station}
func (p *MQTTPlayer) PublishReading(station string, reading scenario.Reading) error {
	payload, err := json.Marshal(reading.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	return p.Publish(fmt.Sprintf("weather/raw/%s", station), 1, false, payload)
}

// Publish sends an arbitrary message and waits for the broker to accept it
func (p *MQTTPlayer) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, token.Error())
	}
	p.logger.Printf("Published to %s: %s", topic, payload)
	return nil
}

// Close disconnects from the broker
func (p *MQTTPlayer) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
