// Package domain models daily weather and air-quality data for a monitoring
// station and derives the US EPA Air Quality Index from it.
//
// # Data Sources
//
// Weather comes from the NOAA Global Surface Summary of the Day (GSOD), one CSV
// row per station per day. Air quality comes from OpenAQ: PM2.5 and PM10 as
// daily averages, O3, CO, SO2 and NO2 as hourly readings. The upstream collector
// pairs each GSOD station with the OpenAQ sensors nearest to it and publishes
// one [StationBundle] per station.
//
// # GSOD Conventions
//
// Unreported values are encoded as runs of nines rather than left blank:
//
//	TEMP, DEWP          °F, anything above 200 is a sensor fault
//	STP, MAX, MIN       9999.9
//	VISIB, WDSP, MXSPD  999.9
//	PRCP                99.99 (no report; treated as no precipitation)
//
// [DefaultWeatherRules] encodes these. Faults are replaced with the mean of the
// nearest valid values on either side; a fault with no valid value anywhere in
// the column removes the day. PRCP is set to 0 and never removes a day.
//
// # Cadence
//
// Every pollutant is reduced to one value per calendar day before scoring:
//
//	O3              daily max of the 8-hour trailing mean (at least 6 samples)
//	CO, SO2, NO2    last reading of the day
//	PM2.5, PM10     the published daily average
//
// # AQI
//
// Each pollutant's concentration is located in its breakpoint band and
// interpolated linearly onto the band's index range:
//
//	I = (Ihi - Ilo) / (Chi - Clo) * (C - Clo) + Ilo
//
// rounded half away from zero. Concentrations above the top band score 500.
// The overall AQI is the highest sub-index; every pollutant tied at that value
// is reported as dominant, comma-joined in column order (pm25, pm10, o3, co,
// so2, no2).
//
//	  0– 50  Good
//	 51–100  Moderate
//	101–150  Unhealthy for Sensitive Groups
//	151–200  Unhealthy
//	201–300  Very Unhealthy
//	301+     Hazardous
//
// The default table follows the EPA technical assistance document (PM in
// µg/m³, O3 and CO in ppm, SO2 and NO2 in ppb). Published bands abut at
// reporting precision (12.0 then 12.1); a value inside such a gap is scored in
// the lower band.
package domain
