package mqtt

import "context"

// Client is the broker surface the station agent needs. The paho-backed
// implementation lives in client.go; tests use in-memory fakes.
type Client interface {
	// Connect blocks until connected or ctx is done
	Connect(ctx context.Context) error
	Disconnect()

	// Subscribe registers handler; the subscription survives reconnects
	Subscribe(topic string, qos byte, handler MessageHandler) error

	// Publish waits for broker acknowledgement according to qos
	Publish(topic string, qos byte, retained bool, payload []byte) error

	IsConnected() bool
}

// MessageHandler receives messages on the client's delivery goroutine.
// With ordered delivery a slow handler delays every later reading.
type MessageHandler func(Message)

// Message is an inbound MQTT message
type Message interface {
	Topic() string
	Payload() []byte
	// Ack acknowledges a QoS 1/2 delivery
	Ack()
}
