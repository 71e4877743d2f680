package domain

// Pollutant identifies one of the six criteria pollutants tracked per station.
type Pollutant string

const (
	PM25 Pollutant = "pm25"
	PM10 Pollutant = "pm10"
	O3   Pollutant = "o3"
	CO   Pollutant = "co"
	SO2  Pollutant = "so2"
	NO2  Pollutant = "no2"
)

// Pollutants lists every tracked pollutant in output column order.
var Pollutants = []Pollutant{PM25, PM10, O3, CO, SO2, NO2}

// ParsePollutant maps an upstream parameter name to a Pollutant.
// OpenAQ reports PM2.5 as "pm2.5"; both spellings are accepted.
func ParsePollutant(name string) (Pollutant, bool) {
	switch name {
	case "pm25", "pm2.5":
		return PM25, true
	case "pm10":
		return PM10, true
	case "o3":
		return O3, true
	case "co":
		return CO, true
	case "so2":
		return SO2, true
	case "no2":
		return NO2, true
	default:
		return "", false
	}
}

// IsParticulate reports whether the pollutant is published as a daily average.
func (p Pollutant) IsParticulate() bool {
	return p == PM25 || p == PM10
}

// AQIColumn is the column name of the pollutant's sub-index in the wide output.
func (p Pollutant) AQIColumn() string {
	return string(p) + "_aqi"
}
