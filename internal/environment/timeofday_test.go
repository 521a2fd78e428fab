package environment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newKathmanduResolver() *Resolver {
	return NewResolver(ResolverConfig{
		Timezone:       "Asia/Kathmandu",
		FallbackOffset: 5*time.Hour + 45*time.Minute,
	})
}

func TestResolveDeviceTimestamp(t *testing.T) {
	r := newKathmanduResolver()

	// 03:00 UTC is 08:45 in Kathmandu: daytime
	morningUTC := time.Date(2025, 1, 15, 3, 0, 0, 0, time.UTC)
	// 16:00 UTC is 21:45 in Kathmandu: night
	eveningUTC := time.Date(2025, 1, 15, 16, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		device     Value
		arrival    time.Time
		wantSource TimeSource
		wantDay    bool
		wantReason string
	}{
		{
			name:       "uptime seconds are discarded",
			device:     Number(409),
			arrival:    eveningUTC,
			wantSource: SourceArrival,
			wantDay:    false,
			wantReason: "device_uptime_discarded",
		},
		{
			name:       "uptime as numeric string is discarded",
			device:     NewValue("409"),
			arrival:    morningUTC,
			wantSource: SourceArrival,
			wantDay:    true,
			wantReason: "device_uptime_discarded",
		},
		{
			name:       "epoch seconds trusted",
			device:     Number(float64(morningUTC.Unix())),
			arrival:    eveningUTC,
			wantSource: SourceDevice,
			wantDay:    true,
		},
		{
			name:       "epoch millis trusted",
			device:     Number(float64(eveningUTC.UnixMilli())),
			arrival:    morningUTC,
			wantSource: SourceDevice,
			wantDay:    false,
		},
		{
			name:       "RFC3339 string trusted",
			device:     NewValue("2025-01-15T03:00:00Z"),
			arrival:    eveningUTC,
			wantSource: SourceDevice,
			wantDay:    true,
		},
		{
			name:       "zone-less string read in local zone",
			device:     NewValue("2025-01-15 20:30:00"),
			arrival:    morningUTC,
			wantSource: SourceDevice,
			wantDay:    false,
		},
		{
			name:       "old year rejected",
			device:     NewValue("1999-06-01T12:00:00Z"),
			arrival:    eveningUTC,
			wantSource: SourceArrival,
			wantDay:    false,
			wantReason: "date_string_implausible_year",
		},
		{
			name:       "garbage string falls back",
			device:     NewValue("yesterday"),
			arrival:    morningUTC,
			wantSource: SourceArrival,
			wantDay:    true,
			wantReason: "unparseable_device_timestamp",
		},
		{
			name:       "missing timestamp falls back",
			device:     Value{},
			arrival:    morningUTC,
			wantSource: SourceArrival,
			wantDay:    true,
			wantReason: "no_device_timestamp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tt.device, tt.arrival)
			assert.Equal(t, tt.wantSource, got.Source)
			assert.Equal(t, tt.wantDay, got.IsDaytime)
			assert.Equal(t, tt.wantReason, got.Reason)
		})
	}
}

func TestResolveUptimeUsesArrivalInstant(t *testing.T) {
	r := newKathmanduResolver()
	arrival := time.Date(2025, 1, 15, 3, 0, 0, 0, time.UTC)

	got := r.Resolve(Number(409), arrival)

	assert.True(t, got.Instant.Equal(arrival))
	assert.Equal(t, 8, got.Instant.Hour())
	assert.Equal(t, 45, got.Instant.Minute())
}

func TestDaytimeBoundaries(t *testing.T) {
	r := NewResolver(ResolverConfig{Timezone: "", FallbackOffset: 0})
	assert.True(t, r.UsingFallbackZone())

	tests := []struct {
		hour, minute int
		want         bool
	}{
		{6, 59, false},
		{7, 0, true},
		{12, 0, true},
		{18, 59, true},
		{19, 0, false},
		{23, 30, false},
	}

	for _, tt := range tests {
		arrival := time.Date(2025, 6, 1, tt.hour, tt.minute, 0, 0, time.UTC)
		got := r.Resolve(Value{}, arrival)
		assert.Equal(t, tt.want, got.IsDaytime, "%02d:%02d", tt.hour, tt.minute)
	}
}

func TestUnknownTimezoneUsesFixedOffset(t *testing.T) {
	r := NewResolver(ResolverConfig{
		Timezone:       "Nowhere/Invalid_Zone",
		FallbackOffset: 5*time.Hour + 45*time.Minute,
	})
	assert.True(t, r.UsingFallbackZone())

	// 01:30 UTC + 05:45 = 07:15 local
	got := r.Resolve(Value{}, time.Date(2025, 1, 15, 1, 30, 0, 0, time.UTC))
	assert.True(t, got.IsDaytime)
	assert.Equal(t, 7, got.Instant.Hour())
}

func TestSolarDaytime(t *testing.T) {
	r := NewResolver(ResolverConfig{
		Timezone:       "Asia/Kathmandu",
		FallbackOffset: 5*time.Hour + 45*time.Minute,
		Mode:           DaytimeSolar,
		Latitude:       27.7172,
		Longitude:      85.3240,
	})

	// Local solar noon is roughly 06:15 UTC in Kathmandu
	noon := r.Resolve(Value{}, time.Date(2025, 6, 21, 6, 15, 0, 0, time.UTC))
	assert.True(t, noon.IsDaytime)

	// Local midnight
	midnight := r.Resolve(Value{}, time.Date(2025, 6, 21, 18, 15, 0, 0, time.UTC))
	assert.False(t, midnight.IsDaytime)
}
