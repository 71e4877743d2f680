package domain

import (
	"sort"
	"time"
)

// DayLayout is the calendar-day format used in CSV files and record keys.
const DayLayout = "2006-01-02"

// Observation is one value for a calendar day. A nil Value is an explicit
// missing marker.
type Observation struct {
	Day   time.Time
	Value *float64
}

// Series is an ordered run of observations for one station and quantity.
// Days are strictly increasing with no duplicates; gaps are allowed.
type Series struct {
	Station      string
	Quantity     string
	Observations []Observation
}

// Len returns the number of observations.
func (s Series) Len() int { return len(s.Observations) }

// Values returns the value pointers in day order.
func (s Series) Values() []*float64 {
	out := make([]*float64, len(s.Observations))
	for i, o := range s.Observations {
		out[i] = o.Value
	}
	return out
}

// HourlySample is a single sub-daily pollutant reading.
type HourlySample struct {
	Time  time.Time
	Value *float64
}

// Float returns a pointer to v, for building observations inline.
func Float(v float64) *float64 { return &v }

// CalendarDay truncates t to midnight UTC of the date t falls on in its own
// location, so that 23:00 local time stays on the local date.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD calendar day.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DayLayout, s, time.UTC)
}

// NewSeries builds a Series from unordered observations, normalizing each day
// to a calendar day and keeping the last observation for a repeated day.
func NewSeries(station, quantity string, obs []Observation) Series {
	byDay := make(map[time.Time]Observation, len(obs))
	for _, o := range obs {
		day := CalendarDay(o.Day)
		byDay[day] = Observation{Day: day, Value: o.Value}
	}
	out := make([]Observation, 0, len(byDay))
	for _, o := range byDay {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return Series{Station: station, Quantity: quantity, Observations: out}
}
