package domain

import (
	"sort"
	"time"
)

// AlignedRow is one calendar day of the wide pollutant table.
// A pollutant absent from Concentrations is missing for that day.
type AlignedRow struct {
	Day            time.Time
	Concentrations map[Pollutant]float64
}

// Concentration returns the pollutant's value for the day.
func (r AlignedRow) Concentration(p Pollutant) (float64, bool) {
	v, ok := r.Concentrations[p]
	return v, ok
}

// AlignedTable is the outer join of a station's daily pollutant series.
// Columns are always day, pm25, pm10, o3, co, so2, no2.
type AlignedTable struct {
	Station string
	Rows    []AlignedRow
}

// Align outer-joins per-pollutant daily series on the day key. The result has
// exactly one row per day present in any input, in ascending order. Pollutants
// with no series are missing on every row; no input yields an empty table.
func Align(station string, series map[Pollutant]Series) AlignedTable {
	byDay := make(map[time.Time]*AlignedRow)
	for _, p := range Pollutants {
		s, ok := series[p]
		if !ok {
			continue
		}
		for _, o := range s.Observations {
			day := CalendarDay(o.Day)
			row, ok := byDay[day]
			if !ok {
				row = &AlignedRow{Day: day, Concentrations: make(map[Pollutant]float64)}
				byDay[day] = row
			}
			if o.Value != nil {
				row.Concentrations[p] = *o.Value
			}
		}
	}

	table := AlignedTable{Station: station, Rows: make([]AlignedRow, 0, len(byDay))}
	for _, row := range byDay {
		table.Rows = append(table.Rows, *row)
	}
	sort.Slice(table.Rows, func(i, j int) bool { return table.Rows[i].Day.Before(table.Rows[j].Day) })
	return table
}
