package environment

import "time"

// DeviceConfig is the operator-supplied station configuration
type DeviceConfig struct {
	AltitudeMeters float64 `json:"altitude_m" yaml:"altitude_m"`
	Environment    string  `json:"environment" yaml:"environment"`
}

// EnrichedReading is a normalized reading plus everything derived from it.
// Fields are set once by Classify and never changed afterwards, except
// SeaLevelPressure which the station fills in before publishing.
type EnrichedReading struct {
	ReceivedAt time.Time `json:"receivedAt"`
	Schema     Schema    `json:"schema"`

	TemperaturePrimary   Value `json:"temperaturePrimary,omitzero"`
	TemperatureSecondary Value `json:"temperatureSecondary,omitzero"`
	Humidity             Value `json:"humidity,omitzero"`
	Pressure             Value `json:"pressure,omitzero"`
	MQRaw                Value `json:"mqRaw,omitzero"`
	DeviceTimestamp      Value `json:"deviceTimestamp,omitzero"`

	IsDaytime     bool       `json:"isDaytime"`
	LocalTime     time.Time  `json:"localTime"`
	DaytimeSource TimeSource `json:"daytimeSource"`
	DaytimeReason string     `json:"daytimeReason,omitempty"`

	MQBaseline     float64        `json:"mqBaseline"`
	MQHealth       AirQuality     `json:"mqHealth"`
	AQHighStreak   int            `json:"aqHighStreak"`
	BaselineSource BaselineSource `json:"baselineSource"`
	DayBaseline    *float64       `json:"dayBaseline"`
	NightBaseline  *float64       `json:"nightBaseline"`

	Comfort             Comfort      `json:"comfort"`
	ComfortStatusLegacy LegacyStatus `json:"comfortStatusLegacy"`
	Environment         string       `json:"environment"`

	SeaLevelPressure *float64 `json:"seaLevelPressure,omitempty"`
}

// Sample returns the view of this reading used by later baseline windows
func (e *EnrichedReading) Sample() Sample {
	return Sample{ArrivedAt: e.ReceivedAt, Gas: e.MQRaw}
}

// Classifier turns raw readings into enriched readings
type Classifier struct {
	resolver *Resolver
}

// NewClassifier creates a classifier using the given time-of-day resolver
func NewClassifier(resolver *Resolver) *Classifier {
	return &Classifier{resolver: resolver}
}

// Resolver returns the time-of-day resolver in use
func (c *Classifier) Resolver() *Resolver {
	return c.resolver
}

// Classify runs the full pipeline for one reading: normalize, resolve day or
// night, update the matching baseline, classify air quality and comfort.
//
// history holds prior readings only. state is mutated and must not be shared
// with a concurrent caller; classifying the same reading twice against live
// state double-counts it.
func (c *Classifier) Classify(raw Raw, arrival time.Time, history []Sample, cfg DeviceConfig, state *State) *EnrichedReading {
	reading := Normalize(raw)
	tod := c.resolver.Resolve(reading.DeviceTimestamp, arrival)

	baseline, source := UpdateBaseline(state, tod.IsDaytime, history, arrival)
	air := ClassifyAirQuality(reading.Gas, baseline, state)

	comfort := AggregateComfort(
		ClassifyTemperature(reading.TemperaturePrimary),
		ClassifyHumidity(reading.Humidity),
		air,
	)

	return &EnrichedReading{
		ReceivedAt:           arrival.UTC(),
		Schema:               reading.Schema,
		TemperaturePrimary:   reading.TemperaturePrimary,
		TemperatureSecondary: reading.TemperatureSecondary,
		Humidity:             reading.Humidity,
		Pressure:             reading.Pressure,
		MQRaw:                reading.Gas,
		DeviceTimestamp:      reading.DeviceTimestamp,
		IsDaytime:            tod.IsDaytime,
		LocalTime:            tod.Instant,
		DaytimeSource:        tod.Source,
		DaytimeReason:        tod.Reason,
		MQBaseline:           baseline,
		MQHealth:             air.Status,
		AQHighStreak:         state.HighStreak,
		BaselineSource:       source,
		DayBaseline:          copyFloat(state.DayBaseline),
		NightBaseline:        copyFloat(state.NightBaseline),
		Comfort:              comfort,
		ComfortStatusLegacy:  comfort.Overall.Legacy(),
		Environment:          cfg.Environment,
	}
}
