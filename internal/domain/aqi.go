package domain

import (
	"log/slog"
	"math"
	"strings"
	"time"
)

// CeilingAQI is the sub-index assigned to concentrations above the highest band.
const CeilingAQI = 500

// Level is the categorical severity of an overall AQI.
type Level string

const (
	LevelGood               Level = "Good"
	LevelModerate           Level = "Moderate"
	LevelUnhealthySensitive Level = "Unhealthy for Sensitive Groups"
	LevelUnhealthy          Level = "Unhealthy"
	LevelVeryUnhealthy      Level = "Very Unhealthy"
	LevelHazardous          Level = "Hazardous"
)

// LevelFor maps an AQI onto its severity level. Upper bounds are inclusive.
func LevelFor(aqi int) Level {
	switch {
	case aqi <= 50:
		return LevelGood
	case aqi <= 100:
		return LevelModerate
	case aqi <= 150:
		return LevelUnhealthySensitive
	case aqi <= 200:
		return LevelUnhealthy
	case aqi <= 300:
		return LevelVeryUnhealthy
	default:
		return LevelHazardous
	}
}

// DailyRecord is the terminal per-station, per-day result of the pipeline.
// AQI is nil when no pollutant produced a sub-index; Level is empty then.
type DailyRecord struct {
	Station        string
	StationName    string
	PlaceName      string
	Day            time.Time
	Concentrations map[Pollutant]float64
	SubIndices     map[Pollutant]int
	AQI            *int
	Dominant       []Pollutant
	Level          Level
	ProcessedAt    time.Time
}

// MainPollutant joins the dominant pollutants with a comma, in column order.
func (r DailyRecord) MainPollutant() string {
	names := make([]string, len(r.Dominant))
	for i, p := range r.Dominant {
		names[i] = string(p)
	}
	return strings.Join(names, ",")
}

// Calculator derives sub-indices and the overall AQI from a breakpoint table.
// It holds no mutable state and may be shared across station workers.
type Calculator struct {
	table  BreakpointTable
	logger *slog.Logger
}

// NewCalculator creates a Calculator over table.
func NewCalculator(table BreakpointTable, logger *slog.Logger) *Calculator {
	return &Calculator{table: table, logger: logger}
}

// SubIndex computes a pollutant's sub-index by linear interpolation inside the
// matching band, rounded half away from zero (math.Round). Concentrations
// above the top band score CeilingAQI; a value in the gap above a band scores at
// most that band's IdxHigh. It reports false when the value is below the first
// band, is not finite, or the pollutant has no bands.
func (c *Calculator) SubIndex(p Pollutant, value float64) (int, bool) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	bands, ok := c.table[p]
	if !ok || len(bands) == 0 {
		return 0, false
	}
	band, found, above := lookup(bands, value)
	if above {
		return CeilingAQI, true
	}
	if !found {
		return 0, false
	}
	return interpolate(band, value), true
}

func interpolate(b Band, value float64) int {
	if b.ConcHigh == b.ConcLow {
		return int(b.IdxLow)
	}
	idx := (b.IdxHigh-b.IdxLow)/(b.ConcHigh-b.ConcLow)*(value-b.ConcLow) + b.IdxLow
	// Gap values extrapolate past the band; they never score above it.
	return int(math.Round(min(idx, b.IdxHigh)))
}

// Evaluate builds the DailyRecord for one aligned row.
func (c *Calculator) Evaluate(station string, row AlignedRow) DailyRecord {
	rec := DailyRecord{
		Station:        station,
		Day:            row.Day,
		Concentrations: make(map[Pollutant]float64, len(row.Concentrations)),
		SubIndices:     make(map[Pollutant]int, len(row.Concentrations)),
	}

	overall := -1
	for _, p := range Pollutants {
		v, ok := row.Concentration(p)
		if !ok {
			continue
		}
		rec.Concentrations[p] = v

		if _, known := c.table[p]; !known {
			c.logger.Warn("no breakpoints for pollutant, sub-index missing",
				"station", station,
				"day", row.Day.Format(DayLayout),
				"pollutant", p,
			)
			continue
		}
		idx, ok := c.SubIndex(p, v)
		if !ok {
			continue
		}
		rec.SubIndices[p] = idx
		overall = max(overall, idx)
	}

	if overall < 0 {
		return rec
	}
	rec.AQI = &overall
	rec.Level = LevelFor(overall)
	for _, p := range Pollutants {
		if idx, ok := rec.SubIndices[p]; ok && idx == overall {
			rec.Dominant = append(rec.Dominant, p)
		}
	}
	return rec
}

// EvaluateTable evaluates every row of an aligned table in day order.
func (c *Calculator) EvaluateTable(t AlignedTable) []DailyRecord {
	out := make([]DailyRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, c.Evaluate(t.Station, row))
	}
	return out
}
