package environment

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Raw is a decoded reading payload exactly as the firmware sent it
type Raw map[string]interface{}

// Value is a sensor field carried through untouched from the payload.
// A Value may hold anything the firmware sent; consumers ask for Float and
// treat a failed parse as "unknown" for that dimension.
type Value struct {
	raw interface{}
}

// NewValue wraps a raw payload value
func NewValue(v interface{}) Value {
	return Value{raw: v}
}

// Number is shorthand for a numeric Value
func Number(f float64) Value {
	return Value{raw: f}
}

// Present reports whether the field was sent (JSON null counts as absent)
func (v Value) Present() bool {
	return v.raw != nil
}

// Raw returns the value as received
func (v Value) Raw() interface{} {
	return v.raw
}

// Float parses the value as a finite number
func (v Value) Float() (float64, bool) {
	var f float64
	switch t := v.raw.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// IsZero lets omitzero drop absent fields
func (v Value) IsZero() bool {
	return v.raw == nil
}

// MarshalJSON emits the value exactly as received
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.raw)
}

// UnmarshalJSON keeps whatever JSON value is present
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v.raw = raw
	return nil
}

// Schema identifies which firmware payload layout a reading arrived in
type Schema string

const (
	// SchemaLegacy is older firmware sending one combined "temperature"
	SchemaLegacy Schema = "legacy"
	// SchemaDualSensor is newer firmware reporting each temperature sensor separately
	SchemaDualSensor Schema = "dual-sensor"
)

// Field aliases per canonical field, in lookup priority order
var (
	legacyTemperatureAliases    = []string{"temperature", "temp"}
	primaryTemperatureAliases   = []string{"temperature_bmp", "bmp_temperature", "temp_bmp"}
	secondaryTemperatureAliases = []string{"temperature_dht", "dht_temperature", "temp_dht"}
	humidityAliases             = []string{"humidity", "hum", "humidity_pct"}
	pressureAliases             = []string{"pressure", "pressure_hpa", "pres"}
	gasAliases                  = []string{"mq135", "mq_raw", "mq", "gas", "air_quality_raw"}
	deviceTimeAliases           = []string{"timestamp", "ts", "device_time"}
)

// Reading is the canonical sensor record every downstream component consumes.
// Absent fields stay absent; nothing is defaulted to zero.
type Reading struct {
	Schema               Schema
	TemperaturePrimary   Value
	TemperatureSecondary Value
	Humidity             Value
	Pressure             Value
	Gas                  Value
	DeviceTimestamp      Value
}

// DetectSchema resolves which payload layout the firmware used
func DetectSchema(raw Raw) Schema {
	if lookup(raw, primaryTemperatureAliases).Present() || lookup(raw, secondaryTemperatureAliases).Present() {
		return SchemaDualSensor
	}
	return SchemaLegacy
}

// Normalize maps firmware field aliases onto the canonical reading
func Normalize(raw Raw) Reading {
	reading := Reading{
		Schema:          DetectSchema(raw),
		Humidity:        lookup(raw, humidityAliases),
		Pressure:        lookup(raw, pressureAliases),
		Gas:             lookup(raw, gasAliases),
		DeviceTimestamp: lookup(raw, deviceTimeAliases),
	}

	switch reading.Schema {
	case SchemaDualSensor:
		reading.TemperaturePrimary = lookup(raw, primaryTemperatureAliases)
		reading.TemperatureSecondary = lookup(raw, secondaryTemperatureAliases)
	default:
		combined := lookup(raw, legacyTemperatureAliases)
		reading.TemperaturePrimary = combined
		reading.TemperatureSecondary = combined
	}

	return reading
}

func lookup(raw Raw, aliases []string) Value {
	for _, name := range aliases {
		if v, ok := raw[name]; ok && v != nil {
			return Value{raw: v}
		}
	}
	return Value{}
}
