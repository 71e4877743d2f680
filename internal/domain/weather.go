package domain

import (
	"slices"
	"time"
)

// UnwantedWeatherColumns are GSOD columns with no use downstream: station
// coordinates repeated on every row, quality flags, and sparsely reported fields.
var UnwantedWeatherColumns = []string{
	"LATITUDE", "ELEVATION", "LONGITUDE", "TEMP_ATTRIBUTES", "DEWP_ATTRIBUTES",
	"SLP", "SLP_ATTRIBUTES", "STP_ATTRIBUTES", "VISIB_ATTRIBUTES", "WDSP_ATTRIBUTES",
	"GUST", "MAX_ATTRIBUTES", "MIN_ATTRIBUTES", "PRCP_ATTRIBUTES",
	"SNDP", "FRSHTT",
}

// WeatherTable is a columnar GSOD daily table for one station. Every column
// has one entry per day; nil entries are missing.
type WeatherTable struct {
	Station string
	Days    []time.Time
	Names   []string
	Columns map[string][]*float64
}

// NewWeatherTable creates an empty table for station.
func NewWeatherTable(station string) WeatherTable {
	return WeatherTable{Station: station, Columns: make(map[string][]*float64)}
}

// Len returns the number of rows.
func (t WeatherTable) Len() int { return len(t.Days) }

// AppendRow adds a day with the given column values. Columns not seen before
// are back-filled with missing values for earlier rows. A day equal to the
// last row's replaces that row, so the last of a run of duplicates wins.
func (t *WeatherTable) AppendRow(day time.Time, values map[string]*float64) {
	for name := range values {
		if _, ok := t.Columns[name]; !ok {
			t.Names = append(t.Names, name)
			t.Columns[name] = make([]*float64, len(t.Days))
		}
	}
	day = CalendarDay(day)
	if last := len(t.Days) - 1; last >= 0 && t.Days[last].Equal(day) {
		for _, name := range t.Names {
			t.Columns[name][last] = values[name]
		}
		return
	}
	t.Days = append(t.Days, day)
	for _, name := range t.Names {
		t.Columns[name] = append(t.Columns[name], values[name])
	}
}

// Column returns the named column as a Series.
func (t WeatherTable) Column(name string) (Series, bool) {
	values, ok := t.Columns[name]
	if !ok {
		return Series{}, false
	}
	s := Series{Station: t.Station, Quantity: name, Observations: make([]Observation, len(values))}
	for i, v := range values {
		s.Observations[i] = Observation{Day: t.Days[i], Value: v}
	}
	return s, true
}

// Value returns the value of column name on row i.
func (t WeatherTable) Value(name string, i int) *float64 {
	col, ok := t.Columns[name]
	if !ok || i >= len(col) {
		return nil
	}
	return col[i]
}

// DropColumns returns a copy of t without the named columns. Names that are not
// present are ignored.
func (t WeatherTable) DropColumns(names ...string) WeatherTable {
	out := t.clone()
	for _, name := range names {
		delete(out.Columns, name)
	}
	out.Names = slices.DeleteFunc(out.Names, func(n string) bool { return slices.Contains(names, n) })
	return out
}

func (t WeatherTable) clone() WeatherTable {
	out := WeatherTable{
		Station: t.Station,
		Days:    slices.Clone(t.Days),
		Names:   slices.Clone(t.Names),
		Columns: make(map[string][]*float64, len(t.Columns)),
	}
	for name, col := range t.Columns {
		out.Columns[name] = slices.Clone(col)
	}
	return out
}

func (t WeatherTable) dropRows(drop map[int]bool) WeatherTable {
	if len(drop) == 0 {
		return t
	}
	keep := func(src []time.Time) []time.Time {
		out := make([]time.Time, 0, len(src)-len(drop))
		for i, d := range src {
			if !drop[i] {
				out = append(out, d)
			}
		}
		return out
	}
	out := WeatherTable{Station: t.Station, Days: keep(t.Days), Names: t.Names, Columns: make(map[string][]*float64, len(t.Columns))}
	for name, col := range t.Columns {
		kept := make([]*float64, 0, len(col)-len(drop))
		for i, v := range col {
			if !drop[i] {
				kept = append(kept, v)
			}
		}
		out.Columns[name] = kept
	}
	return out
}
