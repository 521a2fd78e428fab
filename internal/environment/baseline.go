package environment

import (
	"math"
	"sort"
	"time"
)

// Baseline estimation tunables
const (
	BaselineWindow   = 6 * time.Hour
	MinWindowSamples = 10
	// Fraction trimmed from each end before the trimmed mean
	TrimFraction = 0.10
	// Biases the estimate toward the clean-air floor of the window
	CleanAirFactor = 0.95
	// Weight of the new instant estimate in the EMA
	SmoothingFactor = 0.15

	DayFallbackBaseline   = 480.0
	NightFallbackBaseline = 400.0
)

// BaselineSource records how the active baseline was obtained
type BaselineSource string

const (
	// BaselineWindowEMA means a window estimate was smoothed into the bucket
	BaselineWindowEMA BaselineSource = "window+ema"
	// BaselineAdaptiveFallback means the stored bucket value or the constant was used
	BaselineAdaptiveFallback BaselineSource = "adaptive/fallback"
)

// Sample is one prior reading as seen by the rolling window
type Sample struct {
	ArrivedAt time.Time
	Gas       Value
}

// WindowValues selects usable gas values from prior readings that arrived
// within the trailing window ending at now.
func WindowValues(history []Sample, now time.Time, window time.Duration) []float64 {
	cutoff := now.Add(-window)
	values := make([]float64, 0, len(history))
	for _, s := range history {
		if !s.ArrivedAt.After(cutoff) || s.ArrivedAt.After(now) {
			continue
		}
		if gas, ok := s.Gas.Float(); ok {
			values = append(values, gas)
		}
	}
	return values
}

// InstantBaseline computes the window estimate: the average of the trimmed
// mean and the median, scaled down by CleanAirFactor. ok is false when the
// window is too small or the result is not a positive finite number.
func InstantBaseline(values []float64) (float64, bool) {
	if len(values) < MinWindowSamples {
		return 0, false
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	blended := (TrimmedMean(sorted, TrimFraction) + Median(sorted)) / 2
	instant := blended * CleanAirFactor
	if math.IsNaN(instant) || math.IsInf(instant, 0) || instant <= 0 {
		return 0, false
	}
	return instant, true
}

// TrimmedMean averages sorted values after dropping floor(n*fraction) from
// each end. Trimming never removes every element.
func TrimmedMean(sorted []float64, fraction float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	k := int(math.Floor(float64(n) * fraction))
	if n-2*k <= 0 {
		k = 0
	}

	core := sorted[k : n-k]
	var sum float64
	for _, v := range core {
		sum += v
	}
	return sum / float64(len(core))
}

// Median of sorted values; the mean of the middle pair for even lengths
func Median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	mid := n / 2
	if n%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// Smooth blends an instant estimate into the prior bucket value
func Smooth(prior, instant float64) float64 {
	return SmoothingFactor*instant + (1-SmoothingFactor)*prior
}

// FallbackBaseline is the cold-start constant for a bucket
func FallbackBaseline(isDaytime bool) float64 {
	if isDaytime {
		return DayFallbackBaseline
	}
	return NightFallbackBaseline
}

// UpdateBaseline runs the estimator for the bucket matching isDaytime and
// returns the baseline to classify against. Only that bucket is touched.
func UpdateBaseline(state *State, isDaytime bool, history []Sample, now time.Time) (float64, BaselineSource) {
	bucket := state.bucket(isDaytime)

	if instant, ok := InstantBaseline(WindowValues(history, now, BaselineWindow)); ok {
		if *bucket == nil {
			seeded := instant
			*bucket = &seeded
		} else {
			smoothed := Smooth(**bucket, instant)
			*bucket = &smoothed
		}
		return **bucket, BaselineWindowEMA
	}

	if *bucket != nil {
		return **bucket, BaselineAdaptiveFallback
	}
	return FallbackBaseline(isDaytime), BaselineAdaptiveFallback
}
