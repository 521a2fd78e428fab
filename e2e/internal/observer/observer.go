package observer

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// CapturedMessage is one MQTT message seen during a run
type CapturedMessage struct {
	Timestamp time.Time   `json:"timestamp"`
	Topic     string      `json:"topic"`
	Payload   interface{} `json:"payload"`
	Retained  bool        `json:"retained"`
}

// Observer captures all station traffic for later checks
type Observer struct {
	client    mqtt.Client
	broker    string
	filter    string
	startTime time.Time
	logger    *log.Logger

	mutex    sync.RWMutex
	messages []CapturedMessage
}

// NewObserver creates an observer for topics matching filter
func NewObserver(broker, filter string, logger *log.Logger) *Observer {
	if logger == nil {
		logger = log.Default()
	}
	return &Observer{broker: broker, filter: filter, logger: logger}
}

// Start connects and begins capturing
func (o *Observer) Start() error {
	o.startTime = time.Now()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(o.broker)
	opts.SetClientID("weather-observer-" + uuid.NewString()[:8])
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		o.logger.Printf("Connection lost: %v", err)
	})
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		token := client.Subscribe(o.filter, 0, o.messageHandler)
		token.Wait()
		if token.Error() != nil {
			o.logger.Printf("Failed to subscribe to %s: %v", o.filter, token.Error())
			return
		}
		o.logger.Printf("Subscribed to %s", o.filter)
	})

	o.client = mqtt.NewClient(opts)
	token := o.client.Connect()
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return nil
}

func (o *Observer) messageHandler(client mqtt.Client, msg mqtt.Message) {
	o.Record(msg.Topic(), msg.Payload(), msg.Retained())
}

// Record stores a message; payloads that are not JSON are kept as strings
func (o *Observer) Record(topic string, payload []byte, retained bool) {
	var decoded interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		decoded = string(payload)
	}

	o.mutex.Lock()
	o.messages = append(o.messages, CapturedMessage{
		Timestamp: time.Now(),
		Topic:     topic,
		Payload:   decoded,
		Retained:  retained,
	})
	o.mutex.Unlock()

	o.logger.Printf("[%7.2fs] %s: %s", time.Since(o.startTime).Seconds(), topic, payload)
}

// GetAllMessages returns a copy of everything captured
func (o *Observer) GetAllMessages() []CapturedMessage {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	messages := make([]CapturedMessage, len(o.messages))
	copy(messages, o.messages)
	return messages
}

// SaveCapture writes all captured messages to a JSON file
func (o *Observer) SaveCapture(filename string) error {
	data, err := json.MarshalIndent(o.GetAllMessages(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}
	if err := saveToFile(filename, data); err != nil {
		return fmt.Errorf("failed to save capture: %w", err)
	}
	return nil
}

// Stop disconnects from the broker
func (o *Observer) Stop() {
	if o.client != nil && o.client.IsConnected() {
		o.client.Disconnect(250)
	}
}
