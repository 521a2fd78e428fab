package environment

import "math"

// AirQuality is the gas-sensor verdict
type AirQuality string

const (
	AirUnknown   AirQuality = "Unknown"
	AirGood      AirQuality = "Good"
	AirModerate  AirQuality = "Moderate"
	AirPoor      AirQuality = "Poor"
	AirUnhealthy AirQuality = "Unhealthy"
)

// Hysteresis thresholds in absolute percent deviation from baseline
const (
	GoodEnter     = 5.0
	GoodExit      = 6.0
	ModerateEnter = 20.0
	ModerateExit  = 22.0

	// Baselines at or below this are not trusted
	MinBaseline = 5.0
	// Consecutive high-deviation Poor readings before escalating to Unhealthy
	EscalationStreak = 5
)

// deviationBand buckets absolute deviation by the hysteresis thresholds
type deviationBand int

const (
	bandGoodEnter     deviationBand = iota // <= GoodEnter
	bandGoodExit                           // <= GoodExit
	bandModerateEnter                      // <= ModerateEnter
	bandModerateExit                       // <= ModerateExit
	bandHigh                               // > ModerateExit
	numBands
)

func bandFor(absDeviation float64) deviationBand {
	switch {
	case absDeviation <= GoodEnter:
		return bandGoodEnter
	case absDeviation <= GoodExit:
		return bandGoodExit
	case absDeviation <= ModerateEnter:
		return bandModerateEnter
	case absDeviation <= ModerateExit:
		return bandModerateExit
	default:
		return bandHigh
	}
}

// transitions is keyed by previous verdict then deviation band. Unknown and
// Unhealthy use the Poor row.
var transitions = map[AirQuality][numBands]AirQuality{
	AirGood: {
		bandGoodEnter:     AirGood,
		bandGoodExit:      AirGood,
		bandModerateEnter: AirModerate,
		bandModerateExit:  AirPoor,
		bandHigh:          AirPoor,
	},
	AirModerate: {
		bandGoodEnter:     AirGood,
		bandGoodExit:      AirModerate,
		bandModerateEnter: AirModerate,
		bandModerateExit:  AirModerate,
		bandHigh:          AirPoor,
	},
	AirPoor: {
		bandGoodEnter:     AirGood,
		bandGoodExit:      AirModerate,
		bandModerateEnter: AirModerate,
		bandModerateExit:  AirPoor,
		bandHigh:          AirPoor,
	},
}

func nextAirQuality(previous AirQuality, band deviationBand) AirQuality {
	row, ok := transitions[previous]
	if !ok {
		row = transitions[AirPoor]
	}
	return row[band]
}

// AirQualityResult is the verdict for one reading
type AirQualityResult struct {
	Status AirQuality
	// DeltaPercent is the signed deviation from baseline; nil when Unknown
	DeltaPercent *float64
}

// ClassifyAirQuality maps a raw gas value against the active baseline,
// advancing the hysteresis state and escalation streak held in state.
// Unusable inputs yield Unknown and leave the streak untouched.
func ClassifyAirQuality(gas Value, baseline float64, state *State) AirQualityResult {
	raw, ok := gas.Float()
	if !ok || math.IsNaN(baseline) || math.IsInf(baseline, 0) || baseline <= MinBaseline {
		state.LastAirQuality = AirUnknown
		return AirQualityResult{Status: AirUnknown}
	}

	delta := (raw - baseline) / baseline * 100
	band := bandFor(math.Abs(delta))
	status := nextAirQuality(state.LastAirQuality, band)

	switch {
	case status == AirGood || status == AirModerate:
		state.HighStreak = 0
	case status == AirPoor && band == bandHigh:
		state.HighStreak++
		if state.HighStreak >= EscalationStreak {
			status = AirUnhealthy
		}
	}

	state.LastAirQuality = status
	return AirQualityResult{Status: status, DeltaPercent: &delta}
}
