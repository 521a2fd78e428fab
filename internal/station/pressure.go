package station

import (
	"math"

	"github.com/belly1v123/weatherStationESP32/internal/environment"
)

// SeaLevelPressure reduces station pressure (hPa) to sea level using the
// barometric formula, rounded to 0.1 hPa. ok is false when either input is
// not numeric.
func SeaLevelPressure(pressure, temperature environment.Value, altitudeMeters float64) (float64, bool) {
	p, ok := pressure.Float()
	if !ok {
		return 0, false
	}
	t, ok := temperature.Float()
	if !ok {
		return 0, false
	}

	lapse := 0.0065 * altitudeMeters
	slp := p * math.Pow(1-lapse/(t+lapse+273.15), -5.257)
	if math.IsNaN(slp) || math.IsInf(slp, 0) {
		return 0, false
	}
	return math.Round(slp*10) / 10, true
}
