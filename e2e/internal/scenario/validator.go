package scenario

import (
	"errors"
	"fmt"
	"time"
)

// ValidateScenario checks a loaded scenario for structural errors
func ValidateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("scenario name is required")
	}
	if s.Description == "" {
		return errors.New("scenario description is required")
	}

	if err := validateReadings(s.Readings); err != nil {
		return fmt.Errorf("readings validation failed: %w", err)
	}
	if err := validateExpectations(s.Expectations); err != nil {
		return fmt.Errorf("expectations validation failed: %w", err)
	}
	if err := validateTestMode(s.TestMode); err != nil {
		return fmt.Errorf("test_mode validation failed: %w", err)
	}

	lastReading := 0
	for _, r := range s.Readings {
		times := r.Expand()
		if t := times[len(times)-1]; t > lastReading {
			lastReading = t
		}
	}
	lastCheck := 0
	for _, e := range s.Expectations {
		if e.Time > lastCheck {
			lastCheck = e.Time
		}
	}
	if lastCheck < lastReading {
		return fmt.Errorf("last expectation at %ds runs before the last reading at %ds", lastCheck, lastReading)
	}

	return nil
}

func validateReadings(readings []Reading) error {
	if len(readings) == 0 {
		return errors.New("at least one reading is required")
	}

	prev := -1
	for i, r := range readings {
		if r.Time < 0 {
			return fmt.Errorf("reading %d: time cannot be negative", i)
		}
		if r.Time < prev {
			return fmt.Errorf("reading %d: readings must be in time order", i)
		}
		if r.Description == "" {
			return fmt.Errorf("reading %d: description is required", i)
		}
		if r.Payload == nil {
			return fmt.Errorf("reading %d: payload is required", i)
		}
		if r.Repeat < 0 {
			return fmt.Errorf("reading %d: repeat cannot be negative", i)
		}
		if r.Repeat > 1 && r.Interval <= 0 {
			return fmt.Errorf("reading %d: repeated readings need a positive interval", i)
		}
		times := r.Expand()
		prev = times[len(times)-1]
	}
	return nil
}

func validateExpectations(expectations []Expectation) error {
	if len(expectations) == 0 {
		return errors.New("at least one expectation is required")
	}

	for i, e := range expectations {
		if e.Time < 0 {
			return fmt.Errorf("expectation %d: time cannot be negative", i)
		}
		if (e.Topic == "") == (e.RedisKey == "") {
			return fmt.Errorf("expectation %d: exactly one of 'topic' or 'redis_key' is required", i)
		}
		if len(e.Payload) == 0 {
			return fmt.Errorf("expectation %d: payload is required", i)
		}
	}
	return nil
}

func validateTestMode(tm *TestModeConfig) error {
	if tm == nil {
		return nil
	}
	if _, err := time.Parse(time.RFC3339, tm.VirtualStart); err != nil {
		return fmt.Errorf("virtual_start must be RFC3339: %w", err)
	}
	if tm.TimeScale < 1 {
		return errors.New("time_scale must be at least 1")
	}
	return nil
}
