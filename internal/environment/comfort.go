package environment

// TemperatureStatus is the temperature comfort band
type TemperatureStatus string

const (
	TempUnknown      TemperatureStatus = "Unknown"
	TempCold         TemperatureStatus = "Cold"
	TempCool         TemperatureStatus = "Cool"
	TempOptimal      TemperatureStatus = "Optimal"
	TempSlightlyWarm TemperatureStatus = "Slightly Warm"
	TempWarm         TemperatureStatus = "Warm"
	TempHot          TemperatureStatus = "Hot"
)

// HumidityStatus is the relative humidity comfort band
type HumidityStatus string

const (
	HumidityUnknown    HumidityStatus = "Unknown"
	HumidityHighRisk   HumidityStatus = "High Humidity Risk"
	HumidityOptimal    HumidityStatus = "Optimal"
	HumidityAcceptable HumidityStatus = "Acceptable"
	HumidityDry        HumidityStatus = "Dry"
	HumidityHumid      HumidityStatus = "Humid"
)

// OverallComfort is the aggregated verdict
type OverallComfort string

const (
	ComfortUnknown        OverallComfort = "Unknown"
	ComfortComfortable    OverallComfort = "Comfortable"
	ComfortAcceptable     OverallComfort = "Acceptable"
	ComfortNeedsAttention OverallComfort = "Needs Attention"
	ComfortUnhealthy      OverallComfort = "Unhealthy"
)

// LegacyStatus is the two-valued verdict older dashboards understand
type LegacyStatus string

const (
	LegacyGood    LegacyStatus = "Good"
	LegacyWarning LegacyStatus = "Warning"
	LegacyUnknown LegacyStatus = "Unknown"
)

// Comfort is the per-reading classification result
type Comfort struct {
	Temperature    TemperatureStatus `json:"temperature"`
	Humidity       HumidityStatus    `json:"humidity"`
	AirQuality     AirQuality        `json:"airQuality"`
	Overall        OverallComfort    `json:"overall"`
	AQDeltaPercent *float64          `json:"aqDeltaPercent"`
}

// ClassifyTemperature bands degrees Celsius from the primary sensor
func ClassifyTemperature(v Value) TemperatureStatus {
	t, ok := v.Float()
	if !ok {
		return TempUnknown
	}
	switch {
	case t < 15:
		return TempCold
	// 18-20 is a low-confidence band that also reads as Cool
	case t < 20:
		return TempCool
	case t <= 26:
		return TempOptimal
	case t <= 29:
		return TempSlightlyWarm
	case t <= 32:
		return TempWarm
	default:
		return TempHot
	}
}

// ClassifyHumidity bands relative humidity percent.
// The >80 check must stay ahead of the >70 Humid band.
func ClassifyHumidity(v Value) HumidityStatus {
	h, ok := v.Float()
	if !ok {
		return HumidityUnknown
	}
	switch {
	case h > 80:
		return HumidityHighRisk
	case h >= 40 && h <= 60:
		return HumidityOptimal
	case (h >= 30 && h < 40) || (h > 60 && h <= 70):
		return HumidityAcceptable
	case h < 30:
		return HumidityDry
	default:
		return HumidityHumid
	}
}

// AggregateComfort combines the three dimensions in priority order:
// unknown, critical, all optimal, then by count of non-optimal dimensions.
func AggregateComfort(temp TemperatureStatus, humidity HumidityStatus, air AirQualityResult) Comfort {
	c := Comfort{
		Temperature:    temp,
		Humidity:       humidity,
		AirQuality:     air.Status,
		AQDeltaPercent: air.DeltaPercent,
	}

	switch {
	case temp == TempUnknown || humidity == HumidityUnknown || air.Status == AirUnknown:
		c.Overall = ComfortUnknown
	case temp == TempHot || temp == TempCold || humidity == HumidityHighRisk || air.Status == AirUnhealthy:
		c.Overall = ComfortUnhealthy
	default:
		deviations := 0
		if temp != TempOptimal {
			deviations++
		}
		if humidity != HumidityOptimal {
			deviations++
		}
		if air.Status != AirGood {
			deviations++
		}
		switch deviations {
		case 0:
			c.Overall = ComfortComfortable
		case 1:
			c.Overall = ComfortAcceptable
		default:
			c.Overall = ComfortNeedsAttention
		}
	}

	return c
}

// Legacy maps the overall verdict for older consumers
func (o OverallComfort) Legacy() LegacyStatus {
	switch o {
	case ComfortComfortable, ComfortAcceptable:
		return LegacyGood
	case ComfortNeedsAttention, ComfortUnhealthy:
		return LegacyWarning
	default:
		return LegacyUnknown
	}
}
