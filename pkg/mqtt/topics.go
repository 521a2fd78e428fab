package mqtt

import (
	"fmt"
	"strings"
)

// Topic constants for the weather station
const (
	// Raw readings published by the ESP32 firmware (input)
	TopicRawReadings = "weather/raw/+"

	// Virtual clock configuration used by replay scenarios
	TopicTimeConfig = "weather/test/time_config"
)

// RawReadingTopic constructs the raw reading topic for a station
// Pattern: weather/raw/{station}
func RawReadingTopic(station string) string {
	return fmt.Sprintf("weather/raw/%s", station)
}

// EnrichedReadingTopic constructs the enriched reading topic for a station
// Pattern: weather/enriched/{station}
// This is the output topic after a reading has been classified
func EnrichedReadingTopic(station string) string {
	return fmt.Sprintf("weather/enriched/%s", station)
}

// StatusTopic constructs the retained device status topic for a station
// Pattern: weather/status/{station}
func StatusTopic(station string) string {
	return fmt.Sprintf("weather/status/%s", station)
}

// StationFromTopic extracts the station id from weather/{kind}/{station}
func StationFromTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != "weather" || parts[2] == "" {
		return "", fmt.Errorf("invalid topic format: %s (expected weather/{kind}/{station})", topic)
	}
	return parts[2], nil
}
