package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// recordJSON is the flat wire form of a DailyRecord. Every pollutant column is
// present; null marks a missing value.
type recordJSON struct {
	Station       string    `json:"station"`
	StationName   string    `json:"station_name,omitempty"`
	PlaceName     string    `json:"place_name,omitempty"`
	Day           string    `json:"day"`
	PM25          *float64  `json:"pm25"`
	PM25AQI       *int      `json:"pm25_aqi"`
	PM10          *float64  `json:"pm10"`
	PM10AQI       *int      `json:"pm10_aqi"`
	O3            *float64  `json:"o3"`
	O3AQI         *int      `json:"o3_aqi"`
	CO            *float64  `json:"co"`
	COAQI         *int      `json:"co_aqi"`
	SO2           *float64  `json:"so2"`
	SO2AQI        *int      `json:"so2_aqi"`
	NO2           *float64  `json:"no2"`
	NO2AQI        *int      `json:"no2_aqi"`
	OverallAQI    *int      `json:"overall_aqi"`
	MainPollutant string    `json:"main_pollutant,omitempty"`
	AQILevel      string    `json:"aqi_level,omitempty"`
	ProcessedAt   time.Time `json:"processed_at"`
}

// fields returns the concentration and sub-index columns for p.
func (j *recordJSON) fields(p Pollutant) (**float64, **int) {
	switch p {
	case PM25:
		return &j.PM25, &j.PM25AQI
	case PM10:
		return &j.PM10, &j.PM10AQI
	case O3:
		return &j.O3, &j.O3AQI
	case CO:
		return &j.CO, &j.COAQI
	case SO2:
		return &j.SO2, &j.SO2AQI
	default:
		return &j.NO2, &j.NO2AQI
	}
}

// MarshalJSON writes the record in its flat column form.
func (r DailyRecord) MarshalJSON() ([]byte, error) {
	j := recordJSON{
		Station:       r.Station,
		StationName:   r.StationName,
		PlaceName:     r.PlaceName,
		Day:           r.Day.Format(DayLayout),
		OverallAQI:    r.AQI,
		MainPollutant: r.MainPollutant(),
		AQILevel:      string(r.Level),
		ProcessedAt:   r.ProcessedAt,
	}
	for _, p := range Pollutants {
		conc, sub := j.fields(p)
		if v, ok := r.Concentrations[p]; ok {
			*conc = Float(v)
		}
		if idx, ok := r.SubIndices[p]; ok {
			*sub = &idx
		}
	}
	return json.Marshal(j)
}

// UnmarshalJSON reads the flat column form.
func (r *DailyRecord) UnmarshalJSON(data []byte) error {
	var j recordJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	day, err := ParseDay(j.Day)
	if err != nil {
		return fmt.Errorf("record day %q: %w", j.Day, err)
	}

	*r = DailyRecord{
		Station:        j.Station,
		StationName:    j.StationName,
		PlaceName:      j.PlaceName,
		Day:            day,
		Concentrations: make(map[Pollutant]float64),
		SubIndices:     make(map[Pollutant]int),
		AQI:            j.OverallAQI,
		Level:          Level(j.AQILevel),
		ProcessedAt:    j.ProcessedAt,
	}
	for _, p := range Pollutants {
		conc, sub := j.fields(p)
		if *conc != nil {
			r.Concentrations[p] = **conc
		}
		if *sub != nil {
			r.SubIndices[p] = **sub
		}
	}
	if r.AQI != nil {
		for _, p := range Pollutants {
			if idx, ok := r.SubIndices[p]; ok && idx == *r.AQI {
				r.Dominant = append(r.Dominant, p)
			}
		}
	}
	return nil
}

// RecordKey is the sink message key: station and day joined by "|".
func RecordKey(r DailyRecord) string {
	return r.Station + "|" + r.Day.Format(DayLayout)
}

// SerializeDailyRecord marshals a record into an OutputEvent for the sink topic.
func SerializeDailyRecord(r DailyRecord) (OutputEvent, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize daily record: %w", err)
	}
	return OutputEvent{
		Key:   []byte(RecordKey(r)),
		Value: data,
		Headers: map[string]string{
			"station":      r.Station,
			"aqi_level":    string(r.Level),
			"processed_at": r.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}
