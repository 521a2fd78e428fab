package environment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyAirQualityHysteresis(t *testing.T) {
	tests := []struct {
		name     string
		previous AirQuality
		gas      float64
		want     AirQuality
	}{
		{"cold start near baseline", AirUnknown, 404, AirGood},
		{"good holds inside exit band", AirGood, 422, AirGood},
		{"poor does not jump to good inside exit band", AirPoor, 422, AirModerate},
		{"moderate holds inside exit band", AirModerate, 422, AirModerate},
		{"moderate recovers below enter", AirModerate, 418, AirGood},
		{"good to moderate", AirGood, 460, AirModerate},
		{"moderate holds up to exit", AirModerate, 486, AirModerate},
		{"good straight to poor", AirGood, 486, AirPoor},
		{"poor holds up to exit", AirPoor, 486, AirPoor},
		{"negative deviation uses absolute value", AirGood, 300, AirPoor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewState()
			state.LastAirQuality = tt.previous

			got := ClassifyAirQuality(Number(tt.gas), 400, state)

			assert.Equal(t, tt.want, got.Status)
			assert.Equal(t, tt.want, state.LastAirQuality)
			require.NotNil(t, got.DeltaPercent)
		})
	}
}

func TestClassifyAirQualityDeltaIsSigned(t *testing.T) {
	got := ClassifyAirQuality(Number(300), 400, NewState())
	require.NotNil(t, got.DeltaPercent)
	assert.InDelta(t, -25, *got.DeltaPercent, 1e-9)
}

func TestClassifyAirQualityUnknown(t *testing.T) {
	tests := []struct {
		name     string
		gas      Value
		baseline float64
	}{
		{"missing gas", Value{}, 400},
		{"non numeric gas", NewValue("abc"), 400},
		{"tiny baseline", Number(400), 5},
		{"zero baseline", Number(400), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewState()
			state.HighStreak = 3
			state.LastAirQuality = AirPoor

			got := ClassifyAirQuality(tt.gas, tt.baseline, state)

			assert.Equal(t, AirUnknown, got.Status)
			assert.Nil(t, got.DeltaPercent)
			assert.Equal(t, 3, state.HighStreak, "streak untouched")
		})
	}
}

func TestEscalationAfterSustainedPoor(t *testing.T) {
	state := NewState()

	var statuses []AirQuality
	for i := 0; i < 6; i++ {
		statuses = append(statuses, ClassifyAirQuality(Number(500), 400, state).Status)
	}

	assert.Equal(t, []AirQuality{AirPoor, AirPoor, AirPoor, AirPoor, AirUnhealthy, AirUnhealthy}, statuses)
	assert.Equal(t, 6, state.HighStreak)
}

func TestStreakResetsOnRecovery(t *testing.T) {
	const P, M, G, U = AirPoor, AirModerate, AirGood, AirUnhealthy

	tests := []struct {
		name         string
		gas          []float64
		wantStatuses []AirQuality
		wantStreaks  []int
	}{
		{
			name:         "good reading resets",
			gas:          []float64{500, 500, 400, 500},
			wantStatuses: []AirQuality{P, P, G, P},
			wantStreaks:  []int{1, 2, 0, 1},
		},
		{
			name:         "moderate reading resets",
			gas:          []float64{500, 500, 440, 500},
			wantStatuses: []AirQuality{P, P, M, P},
			wantStreaks:  []int{1, 2, 0, 1},
		},
		{
			name:         "moderate after unhealthy resets",
			gas:          []float64{500, 500, 500, 500, 500, 440, 500},
			wantStatuses: []AirQuality{P, P, P, P, U, M, P},
			wantStreaks:  []int{1, 2, 3, 4, 5, 0, 1},
		},
		{
			name:         "good after unhealthy resets",
			gas:          []float64{500, 500, 500, 500, 500, 500, 390, 500},
			wantStatuses: []AirQuality{P, P, P, P, U, U, G, P},
			wantStreaks:  []int{1, 2, 3, 4, 5, 6, 0, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewState()

			var statuses []AirQuality
			var streaks []int
			for _, gas := range tt.gas {
				statuses = append(statuses, ClassifyAirQuality(Number(gas), 400, state).Status)
				streaks = append(streaks, state.HighStreak)
			}

			assert.Equal(t, tt.wantStatuses, statuses)
			assert.Equal(t, tt.wantStreaks, streaks)
		})
	}
}

func TestPoorInExitBandKeepsStreak(t *testing.T) {
	state := NewState()
	state.LastAirQuality = AirPoor
	state.HighStreak = 2

	got := ClassifyAirQuality(Number(486), 400, state)

	assert.Equal(t, AirPoor, got.Status)
	assert.Equal(t, 2, state.HighStreak)
}
