package domain

import (
	"slices"
	"time"
)

// TrainingRow is one station-day of weather joined with that day's overall AQI.
type TrainingRow struct {
	Site    string
	Day     time.Time
	Month   int
	Weather map[string]*float64
	AQI     int
}

// TrainingSet is a list of rows plus the weather columns in output order.
type TrainingSet struct {
	Columns []string
	Rows    []TrainingRow
}

// MergeWeather inner-joins a repaired weather table with daily records on the
// day. Days without an overall AQI are left out and counted in dropped.
func MergeWeather(site string, weather WeatherTable, records []DailyRecord) (set TrainingSet, dropped int) {
	aqiByDay := make(map[time.Time]*int, len(records))
	for _, r := range records {
		aqiByDay[CalendarDay(r.Day)] = r.AQI
	}

	set.Columns = slices.Clone(weather.Names)
	for i, day := range weather.Days {
		aqi, ok := aqiByDay[day]
		if !ok {
			continue
		}
		if aqi == nil {
			dropped++
			continue
		}
		row := TrainingRow{
			Site:    site,
			Day:     day,
			Month:   int(day.Month()),
			Weather: make(map[string]*float64, len(weather.Names)),
			AQI:     *aqi,
		}
		for _, name := range weather.Names {
			row.Weather[name] = weather.Value(name, i)
		}
		set.Rows = append(set.Rows, row)
	}
	return set, dropped
}

// CombineStations concatenates per-station sets in argument order. The column
// list is the union of all inputs, first-seen order.
func CombineStations(sets ...TrainingSet) TrainingSet {
	var out TrainingSet
	for _, s := range sets {
		for _, c := range s.Columns {
			if !slices.Contains(out.Columns, c) {
				out.Columns = append(out.Columns, c)
			}
		}
		out.Rows = append(out.Rows, s.Rows...)
	}
	return out
}
