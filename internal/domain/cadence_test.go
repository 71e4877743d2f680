package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hourly(start time.Time, values ...*float64) []HourlySample {
	out := make([]HourlySample, len(values))
	for i, v := range values {
		out[i] = HourlySample{Time: start.Add(time.Duration(i) * time.Hour), Value: v}
	}
	return out
}

func TestRollingMaxOfMean(t *testing.T) {
	samples := hourly(day0,
		Float(0.01), Float(0.02), Float(0.03), Float(0.04),
		Float(0.05), Float(0.06), Float(0.07), Float(0.08),
	)

	obs := RollingMaxOfMean(samples)

	require.Len(t, obs, 1)
	assert.Equal(t, day0, obs[0].Day)
	assert.InDelta(t, 0.045, *obs[0].Value, 1e-9)
}

func TestRollingMaxOfMean_TooFewSamples(t *testing.T) {
	// Five present samples out of eight never satisfy the six-sample minimum.
	samples := hourly(day0,
		Float(0.04), nil, Float(0.04), nil,
		Float(0.04), nil, Float(0.04), Float(0.04),
	)

	assert.Empty(t, RollingMaxOfMean(samples))
}

func TestRollingMaxOfMean_SixOfEight(t *testing.T) {
	samples := hourly(day0,
		Float(0.03), nil, Float(0.03), Float(0.03),
		nil, Float(0.03), Float(0.03), Float(0.09),
	)

	obs := RollingMaxOfMean(samples)

	require.Len(t, obs, 1)
	assert.InDelta(t, 0.04, *obs[0].Value, 1e-9)
}

func TestRollingMaxOfMean_WindowSpansMidnight(t *testing.T) {
	start := day0.Add(20 * time.Hour)
	values := make([]*float64, 10)
	for i := range values {
		values[i] = Float(0.05)
	}

	obs := RollingMaxOfMean(hourly(start, values...))

	require.Len(t, obs, 1, "day0 has only four samples, none with a full window")
	assert.Equal(t, dayN(1), obs[0].Day)
	assert.InDelta(t, 0.05, *obs[0].Value, 1e-9)
}

func TestRollingMaxOfMean_UnsortedInput(t *testing.T) {
	samples := hourly(day0,
		Float(0.01), Float(0.01), Float(0.01), Float(0.01),
		Float(0.01), Float(0.01), Float(0.01), Float(0.09),
	)
	reversed := make([]HourlySample, len(samples))
	for i, s := range samples {
		reversed[len(samples)-1-i] = s
	}

	assert.Equal(t, RollingMaxOfMean(samples), RollingMaxOfMean(reversed))
	assert.Equal(t, 0.09, *reversed[0].Value, "input order is preserved")
}

func TestLastOfDay(t *testing.T) {
	samples := []HourlySample{
		{Time: day0.Add(10 * time.Hour), Value: Float(1)},
		{Time: day0.Add(23 * time.Hour), Value: Float(3)},
		{Time: day0.Add(12 * time.Hour), Value: Float(2)},
		{Time: day0.Add(23*time.Hour + 30*time.Minute), Value: nil},
		{Time: dayN(1).Add(time.Hour), Value: Float(5)},
	}

	obs := LastOfDay(samples)

	require.Len(t, obs, 2)
	assert.Equal(t, day0, obs[0].Day)
	assert.Equal(t, 3.0, *obs[0].Value)
	assert.Equal(t, dayN(1), obs[1].Day)
	assert.Equal(t, 5.0, *obs[1].Value)
}

func TestLastOfDay_LocalCalendarDay(t *testing.T) {
	pkt := time.FixedZone("PKT", 5*3600)
	late := time.Date(2023, 1, 1, 23, 0, 0, 0, pkt)

	obs := LastOfDay([]HourlySample{{Time: late, Value: Float(7)}})

	require.Len(t, obs, 1)
	assert.Equal(t, day0, obs[0].Day)
}

func TestPassthrough(t *testing.T) {
	samples := DailySamples(
		[]time.Time{dayN(0), dayN(1), dayN(2)},
		[]*float64{Float(12.0), nil, Float(30.5)},
	)

	obs := Passthrough(samples)

	require.Len(t, obs, 2)
	assert.Equal(t, 12.0, *obs[0].Value)
	assert.Equal(t, dayN(2), obs[1].Day)
}

func TestReducerFor(t *testing.T) {
	for _, p := range Pollutants {
		_, err := ReducerFor(p)
		assert.NoError(t, err, p)
	}

	_, err := ReducerFor(Pollutant("pm1"))
	assert.ErrorIs(t, err, ErrUnknownPollutant)
}

func TestReconcile(t *testing.T) {
	s, err := Reconcile("bakersfield", CO, []HourlySample{
		{Time: day0.Add(2 * time.Hour), Value: Float(0.4)},
		{Time: day0.Add(20 * time.Hour), Value: Float(0.6)},
	})

	require.NoError(t, err)
	assert.Equal(t, "bakersfield", s.Station)
	assert.Equal(t, "co", s.Quantity)
	require.Equal(t, 1, s.Len())
	assert.Equal(t, 0.6, *s.Observations[0].Value)

	_, err = Reconcile("bakersfield", Pollutant("bc"), nil)
	assert.ErrorIs(t, err, ErrUnknownPollutant)
}
