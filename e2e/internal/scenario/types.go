package scenario

import "time"

// Scenario is a scripted replay of sensor readings with expected outcomes
type Scenario struct {
	Name         string          `yaml:"name"`
	Description  string          `yaml:"description"`
	Station      string          `yaml:"station"`
	TestMode     *TestModeConfig `yaml:"test_mode,omitempty"`
	Readings     []Reading       `yaml:"readings"`
	Expectations []Expectation   `yaml:"expectations"`
}

// TestModeConfig drives the station's virtual clock
type TestModeConfig struct {
	VirtualStart string `yaml:"virtual_start"`
	TimeScale    int    `yaml:"time_scale"`
}

// Reading is one raw payload published at Time seconds after start
type Reading struct {
	Time        int                    `yaml:"time"`
	Payload     map[string]interface{} `yaml:"payload"`
	Repeat      int                    `yaml:"repeat,omitempty"`
	Interval    int                    `yaml:"interval,omitempty"`
	Description string                 `yaml:"description"`
}

// Expand returns the individual publish times of a possibly repeated reading
func (r Reading) Expand() []int {
	n := r.Repeat
	if n < 1 {
		n = 1
	}
	times := make([]int, n)
	for i := range times {
		times[i] = r.Time + i*r.Interval
	}
	return times
}

// Expectation is checked at Time seconds after start. Exactly one of Topic
// or RedisKey is set.
type Expectation struct {
	Time        int                    `yaml:"time"`
	Description string                 `yaml:"description"`
	Topic       string                 `yaml:"topic,omitempty"`
	Payload     map[string]interface{} `yaml:"payload,omitempty"`

	// RedisKey holds a JSON document compared against Payload
	RedisKey string `yaml:"redis_key,omitempty"`
}

// TestResult is the outcome of a scenario run
type TestResult struct {
	Scenario     *Scenario           `json:"scenario"`
	StartTime    time.Time           `json:"start_time"`
	EndTime      time.Time           `json:"end_time"`
	Passed       bool                `json:"passed"`
	PassedCount  int                 `json:"passed_count"`
	FailedCount  int                 `json:"failed_count"`
	Expectations []ExpectationResult `json:"expectations"`
}

// ExpectationResult is the outcome of one expectation
type ExpectationResult struct {
	Expectation Expectation `json:"expectation"`
	Passed      bool        `json:"passed"`
	Reason      string      `json:"reason,omitempty"`
	Actual      interface{} `json:"actual,omitempty"`
}
