package station

import (
	"encoding/json"
	"fmt"

	"github.com/belly1v123/weatherStationESP32/internal/environment"
	"github.com/belly1v123/weatherStationESP32/pkg/mqtt"
)

// ReadingMessage is a raw reading received over MQTT
type ReadingMessage struct {
	StationID string
	Topic     string
	Raw       environment.Raw
}

// ParseReadingMessage decodes a message published on weather/raw/{station}
func ParseReadingMessage(topic string, payload []byte) (*ReadingMessage, error) {
	stationID, err := mqtt.StationFromTopic(topic)
	if err != nil {
		return nil, err
	}

	var raw environment.Raw
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("empty reading on %s", topic)
	}

	return &ReadingMessage{StationID: stationID, Topic: topic, Raw: raw}, nil
}
