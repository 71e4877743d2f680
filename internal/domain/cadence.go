package domain

import (
	"fmt"
	"sort"
	"time"
)

const (
	// ozoneWindow is the trailing sample count of the ozone moving average.
	ozoneWindow = 8
	// ozoneMinSamples is the number of present samples a window needs.
	ozoneMinSamples = 6
)

// Reducer collapses sub-daily samples for one pollutant into one observation
// per calendar day.
type Reducer func(samples []HourlySample) []Observation

// ReducerFor returns the reduction policy for a pollutant: the daily maximum of
// the 8-hour rolling mean for ozone, the last reading of the day for the other
// gases, and the daily value itself for particulates.
func ReducerFor(p Pollutant) (Reducer, error) {
	switch p {
	case O3:
		return RollingMaxOfMean, nil
	case CO, SO2, NO2:
		return LastOfDay, nil
	case PM25, PM10:
		return Passthrough, nil
	default:
		return nil, fmt.Errorf("reducer for %q: %w", p, ErrUnknownPollutant)
	}
}

// Reconcile reduces samples for pollutant p into a daily Series.
func Reconcile(station string, p Pollutant, samples []HourlySample) (Series, error) {
	reduce, err := ReducerFor(p)
	if err != nil {
		return Series{}, err
	}
	return NewSeries(station, string(p), reduce(samples)), nil
}

// sortedCopy orders samples by time without touching the caller's slice.
func sortedCopy(samples []HourlySample) []HourlySample {
	out := make([]HourlySample, len(samples))
	copy(out, samples)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// RollingMaxOfMean computes an 8-sample trailing mean (at least 6 present
// samples, otherwise the point is missing) and keeps each day's maximum.
// Days whose every window is missing are omitted.
func RollingMaxOfMean(samples []HourlySample) []Observation {
	sorted := sortedCopy(samples)

	var out []Observation
	for i, s := range sorted {
		var sum float64
		var n int
		for j := max(0, i-ozoneWindow+1); j <= i; j++ {
			if v := sorted[j].Value; v != nil {
				sum += *v
				n++
			}
		}
		if n < ozoneMinSamples {
			continue
		}
		mean := sum / float64(n)

		day := CalendarDay(s.Time)
		if last := len(out) - 1; last >= 0 && out[last].Day.Equal(day) {
			if mean > *out[last].Value {
				out[last].Value = Float(mean)
			}
			continue
		}
		out = append(out, Observation{Day: day, Value: Float(mean)})
	}
	return out
}

// LastOfDay keeps the chronologically last present sample of each day.
func LastOfDay(samples []HourlySample) []Observation {
	sorted := sortedCopy(samples)

	var out []Observation
	for _, s := range sorted {
		if s.Value == nil {
			continue
		}
		day := CalendarDay(s.Time)
		if last := len(out) - 1; last >= 0 && out[last].Day.Equal(day) {
			out[last].Value = Float(*s.Value)
			continue
		}
		out = append(out, Observation{Day: day, Value: Float(*s.Value)})
	}
	return out
}

// Passthrough treats each sample as the day's published average. A repeated
// day keeps its last sample; missing samples produce no observation.
func Passthrough(samples []HourlySample) []Observation {
	return LastOfDay(samples)
}

// DailySamples adapts daily averages to the sample form Reconcile expects.
func DailySamples(days []time.Time, averages []*float64) []HourlySample {
	out := make([]HourlySample, 0, len(days))
	for i, d := range days {
		var v *float64
		if i < len(averages) {
			v = averages[i]
		}
		out = append(out, HourlySample{Time: d, Value: v})
	}
	return out
}
