package environment

import "time"

// State is the adaptive state carried from one reading to the next for a
// single device. It must only be mutated by one sequential caller.
type State struct {
	DayBaseline   *float64
	NightBaseline *float64
	// HighStreak counts consecutive high-deviation Poor readings
	HighStreak int
	// LastAirQuality is the previous verdict driving hysteresis
	LastAirQuality  AirQuality
	LastPersistedAt time.Time
}

// NewState returns a cold-start state
func NewState() *State {
	return &State{LastAirQuality: AirUnknown}
}

// Clone returns a deep copy safe to hand to another goroutine
func (s *State) Clone() *State {
	c := *s
	c.DayBaseline = copyFloat(s.DayBaseline)
	c.NightBaseline = copyFloat(s.NightBaseline)
	return &c
}

func (s *State) bucket(isDaytime bool) **float64 {
	if isDaytime {
		return &s.DayBaseline
	}
	return &s.NightBaseline
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
