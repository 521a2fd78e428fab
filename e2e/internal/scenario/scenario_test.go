package scenario

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimal = `
name: minimal
description: one reading, one check
readings:
  - time: 0
    description: first
    payload: {mq135: 410}
expectations:
  - time: 1
    description: enriched
    topic: weather/enriched/esp32
    payload: {mqHealth: Good}
`

func TestLoadScenarioFromBytesDefaultsStation(t *testing.T) {
	s, err := LoadScenarioFromBytes([]byte(minimal))
	require.NoError(t, err)

	assert.Equal(t, "esp32", s.Station)
	assert.Nil(t, s.TestMode)
	require.Len(t, s.Readings, 1)
	assert.Equal(t, 410, s.Readings[0].Payload["mq135"])
}

func TestReadingExpand(t *testing.T) {
	assert.Equal(t, []int{4}, Reading{Time: 4}.Expand())
	assert.Equal(t, []int{5, 8, 11}, Reading{Time: 5, Repeat: 3, Interval: 3}.Expand())
}

func TestValidateScenario(t *testing.T) {
	valid := func() *Scenario {
		return &Scenario{
			Name:        "s",
			Description: "d",
			Readings: []Reading{
				{Time: 0, Description: "r", Payload: map[string]interface{}{"mq135": 400}},
			},
			Expectations: []Expectation{
				{Time: 2, Description: "e", Topic: "weather/enriched/esp32", Payload: map[string]interface{}{"mqHealth": "Good"}},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(s *Scenario)
		wantErr string
	}{
		{"valid", func(s *Scenario) {}, ""},
		{"missing name", func(s *Scenario) { s.Name = "" }, "name is required"},
		{"no readings", func(s *Scenario) { s.Readings = nil }, "at least one reading"},
		{"out of order", func(s *Scenario) {
			s.Readings = append(s.Readings, Reading{Time: 0, Description: "r2", Payload: map[string]interface{}{}})
			s.Readings[0].Time = 1
		}, "time order"},
		{"repeat without interval", func(s *Scenario) { s.Readings[0].Repeat = 3 }, "positive interval"},
		{"both topic and redis key", func(s *Scenario) { s.Expectations[0].RedisKey = "station:state:esp32" }, "exactly one"},
		{"neither topic nor redis key", func(s *Scenario) { s.Expectations[0].Topic = "" }, "exactly one"},
		{"empty payload", func(s *Scenario) { s.Expectations[0].Payload = nil }, "payload is required"},
		{"check before last reading", func(s *Scenario) {
			s.Readings[0].Repeat = 3
			s.Readings[0].Interval = 5
		}, "runs before the last reading"},
		{"bad virtual start", func(s *Scenario) {
			s.TestMode = &TestModeConfig{VirtualStart: "tomorrow", TimeScale: 1}
		}, "RFC3339"},
		{"zero time scale", func(s *Scenario) {
			s.TestMode = &TestModeConfig{VirtualStart: "2025-01-15T04:15:00Z"}
		}, "time_scale"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := ValidateScenario(s)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBundledScenariosLoad(t *testing.T) {
	paths, err := filepath.Glob("../../scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			_, err := LoadScenario(path)
			assert.NoError(t, err)
		})
	}
}
