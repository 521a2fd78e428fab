package environment

import (
	"strings"
	"time"

	"github.com/sixdouglas/suncalc"
)

// TimeSource records which clock produced the day/night decision
type TimeSource string

const (
	SourceDevice  TimeSource = "device"
	SourceArrival TimeSource = "arrival"
)

// Daytime is local hour in [DayStartHour, DayEndHour)
const (
	DayStartHour = 7
	DayEndHour   = 19
)

const (
	// Below this a numeric device timestamp is uptime seconds, not wall-clock
	uptimeCeiling = 1e9
	// At or above this a numeric device timestamp is epoch milliseconds
	epochMillisFloor = 1e12
	// Device clocks reporting a year at or before this are not trusted
	minTrustedYear = 2000
)

// DaytimeMode selects how daytime is decided from the resolved instant
type DaytimeMode string

const (
	// DaytimeClock uses local wall-clock hours
	DaytimeClock DaytimeMode = "clock"
	// DaytimeSolar uses the sun's altitude at the station
	DaytimeSolar DaytimeMode = "solar"
)

// ResolverConfig configures time-of-day resolution
type ResolverConfig struct {
	Timezone       string
	FallbackOffset time.Duration
	Mode           DaytimeMode
	Latitude       float64
	Longitude      float64
}

// TimeOfDay is the resolved day/night decision for one reading
type TimeOfDay struct {
	IsDaytime bool
	// Instant is the resolved wall-clock time in the configured zone
	Instant time.Time
	Source  TimeSource
	// Reason explains why the device clock was not used, empty when it was
	Reason string
}

// Resolver decides day or night for a reading, defending against an
// unreliable device clock.
type Resolver struct {
	loc          *time.Location
	fallbackZone bool
	mode         DaytimeMode
	lat, lon     float64
	strategies   []timestampStrategy
}

// NewResolver builds a resolver. When the timezone cannot be loaded (no
// tzdata on the host) a fixed-offset zone is used instead.
func NewResolver(cfg ResolverConfig) *Resolver {
	loc, err := time.LoadLocation(cfg.Timezone)
	fallback := false
	if err != nil || cfg.Timezone == "" {
		loc = time.FixedZone(cfg.Timezone, int(cfg.FallbackOffset.Seconds()))
		fallback = true
	}

	mode := cfg.Mode
	if mode == "" {
		mode = DaytimeClock
	}

	r := &Resolver{
		loc:          loc,
		fallbackZone: fallback,
		mode:         mode,
		lat:          cfg.Latitude,
		lon:          cfg.Longitude,
	}
	r.strategies = []timestampStrategy{
		{name: "device_uptime", parse: parseUptime},
		{name: "epoch_seconds", parse: parseEpochSeconds},
		{name: "epoch_millis", parse: parseEpochMillis},
		{name: "date_string", parse: r.parseDateString},
	}
	return r
}

// UsingFallbackZone reports whether the fixed-offset fallback zone is active
func (r *Resolver) UsingFallbackZone() bool {
	return r.fallbackZone
}

// Location returns the zone used for local time-of-day
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Resolve interprets the device timestamp and decides whether it is daytime.
// Falls back to the arrival time whenever the device clock is unusable.
func (r *Resolver) Resolve(device Value, arrival time.Time) TimeOfDay {
	instant, reason := r.deviceInstant(device)
	source := SourceDevice
	if reason != "" {
		instant = arrival
		source = SourceArrival
	}

	local := instant.In(r.loc)
	return TimeOfDay{
		IsDaytime: r.isDaytime(local),
		Instant:   local,
		Source:    source,
		Reason:    reason,
	}
}

func (r *Resolver) isDaytime(local time.Time) bool {
	if r.mode == DaytimeSolar {
		position := suncalc.GetPosition(local, r.lat, r.lon)
		return position.Altitude > 0
	}
	hour := local.Hour()
	return hour >= DayStartHour && hour < DayEndHour
}

// strategyOutcome is what a timestamp strategy decided about a value
type strategyOutcome int

const (
	// outcomeSkip means the strategy does not apply to this value
	outcomeSkip strategyOutcome = iota
	// outcomeAccept means the strategy produced a wall-clock instant
	outcomeAccept
	// outcomeDiscard means the value is recognised but must not be trusted
	outcomeDiscard
)

type timestampStrategy struct {
	name  string
	parse func(Value) (time.Time, strategyOutcome)
}

// deviceInstant runs the strategies in order. It returns a non-empty reason
// when the arrival time has to be used instead.
//
// A small epoch-seconds value is indistinguishable from uptime seconds; every
// value below 1e9 is treated as uptime and discarded.
func (r *Resolver) deviceInstant(device Value) (time.Time, string) {
	if !device.Present() {
		return time.Time{}, "no_device_timestamp"
	}

	for _, s := range r.strategies {
		t, outcome := s.parse(device)
		switch outcome {
		case outcomeSkip:
			continue
		case outcomeDiscard:
			return time.Time{}, s.name + "_discarded"
		case outcomeAccept:
			if t.UTC().Year() <= minTrustedYear {
				return time.Time{}, s.name + "_implausible_year"
			}
			return t, ""
		}
	}
	return time.Time{}, "unparseable_device_timestamp"
}

func parseUptime(v Value) (time.Time, strategyOutcome) {
	n, ok := v.Float()
	if !ok || n >= uptimeCeiling {
		return time.Time{}, outcomeSkip
	}
	return time.Time{}, outcomeDiscard
}

func parseEpochSeconds(v Value) (time.Time, strategyOutcome) {
	n, ok := v.Float()
	if !ok || n < uptimeCeiling || n >= epochMillisFloor {
		return time.Time{}, outcomeSkip
	}
	return time.UnixMilli(int64(n * 1000)), outcomeAccept
}

func parseEpochMillis(v Value) (time.Time, strategyOutcome) {
	n, ok := v.Float()
	if !ok || n < epochMillisFloor {
		return time.Time{}, outcomeSkip
	}
	return time.UnixMilli(int64(n)), outcomeAccept
}

// Layouts tried for device date strings. Zone-less layouts are read in the
// configured zone.
var (
	zonedLayouts = []string{time.RFC3339Nano, time.RFC3339, time.RFC1123Z, time.RFC1123}
	localLayouts = []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02T15:04", "2006-01-02"}
)

func (r *Resolver) parseDateString(v Value) (time.Time, strategyOutcome) {
	s, ok := v.Raw().(string)
	if !ok {
		return time.Time{}, outcomeSkip
	}
	s = strings.TrimSpace(s)
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, outcomeAccept
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, r.loc); err == nil {
			return t, outcomeAccept
		}
	}
	return time.Time{}, outcomeSkip
}
