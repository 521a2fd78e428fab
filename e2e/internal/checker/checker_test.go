package checker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/belly1v123/weatherStationESP32/e2e/internal/observer"
	"github.com/belly1v123/weatherStationESP32/e2e/internal/scenario"
)

func TestMatchesExpectation(t *testing.T) {
	tests := []struct {
		name     string
		actual   interface{}
		expected interface{}
		want     bool
	}{
		{"string equal", "Good", "Good", true},
		{"string differs", "Poor", "Good", false},
		{"int vs float", 5.0, 5, true},
		{"number vs string", "5", 5, false},
		{"wildcard", "2025-01-15T10:00:00+05:45", "*", true},
		{"wildcard rejects null", nil, "*", false},
		{"regex", "weather/enriched/esp32", "~^weather/.*/esp32$~", true},
		{"regex miss", "Poor", "~^Good$~", false},
		{"greater", 46.1, ">22", true},
		{"greater equal", 5.0, ">=5", true},
		{"less fails", 10.0, "<5", false},
		{"compare non-number", "x", ">1", false},
		{"null expected", nil, nil, true},
		{"bool", true, true, true},
		{"nested map ignores extra keys",
			map[string]interface{}{"comfort": map[string]interface{}{"overall": "Unhealthy", "humidity": "Optimal"}, "mqRaw": 700.0},
			map[string]interface{}{"comfort": map[string]interface{}{"overall": "Unhealthy"}},
			true},
		{"missing key",
			map[string]interface{}{"mqHealth": "Good"},
			map[string]interface{}{"aqHighStreak": 0},
			false},
		{"slice", []interface{}{1.0, "a"}, []interface{}{1, "a"}, true},
		{"slice length", []interface{}{1.0}, []interface{}{1, 2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := MatchesExpectation(tt.actual, tt.expected)
			assert.Equal(t, tt.want, got, reason)
			if !tt.want {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestCheckExpectationUsesLatestMessage(t *testing.T) {
	messages := []observer.CapturedMessage{
		{Topic: "weather/enriched/esp32", Payload: map[string]interface{}{"mqHealth": "Poor"}},
		{Topic: "weather/status/esp32", Payload: map[string]interface{}{"online": true}},
		{Topic: "weather/enriched/esp32", Payload: map[string]interface{}{"mqHealth": "Unhealthy"}},
	}

	exp := scenario.Expectation{
		Topic:   "weather/enriched/esp32",
		Payload: map[string]interface{}{"mqHealth": "Unhealthy"},
	}
	ok, reason, actual := CheckExpectation(exp, messages)
	assert.True(t, ok, reason)
	assert.Equal(t, messages[2].Payload, actual)

	exp.Topic = "weather/enriched/other"
	ok, reason, _ = CheckExpectation(exp, messages)
	assert.False(t, ok)
	assert.Contains(t, reason, "no messages")
}
