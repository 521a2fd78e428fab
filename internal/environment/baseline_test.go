package environment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baselineNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// spreadHistory returns one sample per value, a minute apart, ending just before now
func spreadHistory(now time.Time, values ...float64) []Sample {
	history := make([]Sample, len(values))
	for i, v := range values {
		history[i] = Sample{
			ArrivedAt: now.Add(-time.Duration(len(values)-i) * time.Minute),
			Gas:       Number(v),
		}
	}
	return history
}

func evenSpread() []float64 {
	// 380, 384, ... 420
	values := make([]float64, 0, 11)
	for v := 380.0; v <= 420; v += 4 {
		values = append(values, v)
	}
	return values
}

func TestInstantBaseline(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
		wantOK bool
	}{
		{"symmetric window", evenSpread(), 380, true},
		{"too few samples", []float64{400, 400, 400}, 0, false},
		{"outlier trimmed", []float64{400, 400, 400, 400, 400, 400, 400, 400, 400, 4000}, 400 * 0.95, true},
		{"all zero", make([]float64, 12), 0, false},
		{"negative", []float64{-5, -5, -5, -5, -5, -5, -5, -5, -5, -5}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := InstantBaseline(tt.values)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestTrimmedMeanAndMedian(t *testing.T) {
	assert.InDelta(t, 2.5, Median([]float64{1, 2, 3, 4}), 1e-9)
	assert.InDelta(t, 3, Median([]float64{1, 3, 9}), 1e-9)

	// 10 values trims one from each end
	sorted := []float64{0, 1, 1, 1, 1, 1, 1, 1, 1, 100}
	assert.InDelta(t, 1, TrimmedMean(sorted, TrimFraction), 1e-9)

	// trimming never empties the slice
	assert.InDelta(t, 2, TrimmedMean([]float64{1, 3}, 0.5), 1e-9)
	assert.Zero(t, TrimmedMean(nil, TrimFraction))
}

func TestWindowValuesBounds(t *testing.T) {
	history := []Sample{
		{ArrivedAt: baselineNow.Add(-BaselineWindow), Gas: Number(1)},              // exactly at cutoff: excluded
		{ArrivedAt: baselineNow.Add(-BaselineWindow + time.Second), Gas: Number(2)}, // inside
		{ArrivedAt: baselineNow, Gas: Number(3)},                                    // at now: included
		{ArrivedAt: baselineNow.Add(time.Second), Gas: Number(4)},                   // future: excluded
		{ArrivedAt: baselineNow.Add(-time.Hour), Gas: NewValue("bad")},              // unusable
		{ArrivedAt: baselineNow.Add(-time.Hour), Gas: Value{}},                      // missing
	}

	assert.Equal(t, []float64{2, 3}, WindowValues(history, baselineNow, BaselineWindow))
}

func TestUpdateBaselineSeedsEmptyBucket(t *testing.T) {
	state := NewState()

	baseline, source := UpdateBaseline(state, true, spreadHistory(baselineNow, evenSpread()...), baselineNow)

	assert.Equal(t, BaselineWindowEMA, source)
	assert.InDelta(t, 380, baseline, 1e-9)
	require.NotNil(t, state.DayBaseline)
	assert.InDelta(t, 380, *state.DayBaseline, 1e-9)
	assert.Nil(t, state.NightBaseline, "other bucket untouched")
}

func TestUpdateBaselineSmoothsTowardInstant(t *testing.T) {
	prior := 500.0
	state := NewState()
	state.NightBaseline = &prior
	history := spreadHistory(baselineNow, evenSpread()...)

	first, _ := UpdateBaseline(state, false, history, baselineNow)
	assert.InDelta(t, 482, first, 1e-9)

	second, _ := UpdateBaseline(state, false, history, baselineNow)
	assert.InDelta(t, 466.7, second, 1e-9)

	assert.InDelta(t, 500, prior, 1e-9, "caller's pointer is not written through")
	assert.Nil(t, state.DayBaseline)
}

func TestUpdateBaselineFallbacks(t *testing.T) {
	t.Run("cold start constants", func(t *testing.T) {
		state := NewState()

		day, source := UpdateBaseline(state, true, nil, baselineNow)
		assert.Equal(t, DayFallbackBaseline, day)
		assert.Equal(t, BaselineAdaptiveFallback, source)

		night, _ := UpdateBaseline(state, false, nil, baselineNow)
		assert.Equal(t, NightFallbackBaseline, night)

		assert.Nil(t, state.DayBaseline, "constants are not stored")
		assert.Nil(t, state.NightBaseline)
	})

	t.Run("stored bucket reused", func(t *testing.T) {
		stored := 432.0
		state := NewState()
		state.DayBaseline = &stored

		got, source := UpdateBaseline(state, true, spreadHistory(baselineNow, 400, 400, 400), baselineNow)
		assert.Equal(t, 432.0, got)
		assert.Equal(t, BaselineAdaptiveFallback, source)
	})

	t.Run("stale samples ignored", func(t *testing.T) {
		state := NewState()
		old := spreadHistory(baselineNow.Add(-7*time.Hour), evenSpread()...)

		got, source := UpdateBaseline(state, true, old, baselineNow)
		assert.Equal(t, DayFallbackBaseline, got)
		assert.Equal(t, BaselineAdaptiveFallback, source)
	})
}
