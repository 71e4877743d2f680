package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// WeatherRow is one GSOD day as published by the collector. Values are keyed
// by GSOD column name (TEMP, DEWP, STP, ...); null is missing.
type WeatherRow struct {
	Date   string              `json:"DATE"`
	Values map[string]*float64 `json:"values"`
}

// DailyAverage is one OpenAQ daily aggregate (particulates).
type DailyAverage struct {
	Day     string   `json:"day"`
	Average *float64 `json:"average"`
}

// HourlyReading is one OpenAQ hourly measurement (gases).
type HourlyReading struct {
	Datetime time.Time `json:"datetime"`
	Value    *float64  `json:"value"`
}

// StationBundle carries everything collected for one station: GSOD weather,
// daily particulate averages, and hourly gas readings keyed by parameter name.
type StationBundle struct {
	StationID string                     `json:"station_id"`
	Station   string                     `json:"station"`
	Weather   []WeatherRow               `json:"weather,omitempty"`
	Daily     map[string][]DailyAverage  `json:"daily,omitempty"`
	Hourly    map[string][]HourlyReading `json:"hourly,omitempty"`
}

// Key identifies the station, preferring the human-readable name.
func (b StationBundle) Key() string {
	if b.Station != "" {
		return b.Station
	}
	return b.StationID
}

// ParseStationBundle deserializes a RawEvent's value into a StationBundle.
func ParseStationBundle(raw RawEvent) (StationBundle, error) {
	var b StationBundle
	if err := json.Unmarshal(raw.Value, &b); err != nil {
		return StationBundle{}, fmt.Errorf("parse station bundle: %w", err)
	}
	if b.StationID == "" && b.Station == "" {
		return StationBundle{}, fmt.Errorf("parse station bundle: %w", ErrEmptyBundle)
	}
	return b, nil
}

// WeatherTable converts the bundle's weather rows to a columnar table in day
// order. Rows with an unparseable date are rejected; when a day repeats, the
// row that came last in the bundle is kept.
func (b StationBundle) WeatherTable() (WeatherTable, error) {
	type datedRow struct {
		day    time.Time
		values map[string]*float64
	}
	rows := make([]datedRow, 0, len(b.Weather))
	for _, r := range b.Weather {
		day, err := ParseDay(r.Date)
		if err != nil {
			return WeatherTable{}, fmt.Errorf("weather row %q: %w", r.Date, err)
		}
		rows = append(rows, datedRow{day: day, values: r.Values})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].day.Before(rows[j].day) })

	t := NewWeatherTable(b.Key())
	for _, r := range rows {
		t.AppendRow(r.day, r.values)
	}
	return t, nil
}

// PollutantSamples gathers each pollutant's readings in sample form. Daily
// particulate averages and hourly gas readings both appear; parameter names
// that do not map to a tracked pollutant are returned separately.
func (b StationBundle) PollutantSamples() (map[Pollutant][]HourlySample, []string, error) {
	out := make(map[Pollutant][]HourlySample)
	var unknown []string

	for name, rows := range b.Daily {
		p, ok := ParsePollutant(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		days := make([]time.Time, len(rows))
		averages := make([]*float64, len(rows))
		for i, r := range rows {
			day, err := ParseDay(r.Day)
			if err != nil {
				return nil, nil, fmt.Errorf("%s daily row %q: %w", name, r.Day, err)
			}
			days[i], averages[i] = day, r.Average
		}
		out[p] = append(out[p], DailySamples(days, averages)...)
	}
	for name, rows := range b.Hourly {
		p, ok := ParsePollutant(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		for _, r := range rows {
			out[p] = append(out[p], HourlySample{Time: r.Datetime, Value: r.Value})
		}
	}
	sort.Strings(unknown)
	return out, unknown, nil
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
