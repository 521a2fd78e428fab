package redis

import "fmt"

// Key construction helpers

// EnvironmentalSensorKey returns the key for archived enriched readings (sorted set)
// Pattern: sensor:environmental:{station}
func EnvironmentalSensorKey(station string) string {
	return fmt.Sprintf("sensor:environmental:%s", station)
}

// BaselineStateKey returns the key holding the adaptive baseline snapshot (JSON string)
// Pattern: station:state:{station}
func BaselineStateKey(station string) string {
	return fmt.Sprintf("station:state:%s", station)
}
