package domain

import "fmt"

// maxBandGap is the widest allowed gap between adjacent bands. Published
// tables abut at reporting precision (0.1 µg/m³, 1 ppb); anything wider
// leaves concentrations with no band of their own.
const maxBandGap = 1.0

// Band maps a concentration interval onto an index interval.
type Band struct {
	ConcLow  float64
	ConcHigh float64
	IdxLow   float64
	IdxHigh  float64
}

// BreakpointTable holds the ordered band list for each pollutant. It is read-only
// after construction and safe for concurrent use.
type BreakpointTable map[Pollutant][]Band

// DefaultBreakpoints returns the US EPA AQI breakpoints. Units follow the EPA
// technical assistance document: PM in µg/m³ (24-hour), O3 in ppm (8-hour),
// CO in ppm (8-hour), SO2 and NO2 in ppb (1-hour).
func DefaultBreakpoints() BreakpointTable {
	return BreakpointTable{
		PM25: {
			{0.0, 12.0, 0, 50},
			{12.1, 35.4, 51, 100},
			{35.5, 55.4, 101, 150},
			{55.5, 150.4, 151, 200},
			{150.5, 250.4, 201, 300},
			{250.5, 350.4, 301, 400},
			{350.5, 500.4, 401, 500},
		},
		PM10: {
			{0, 54, 0, 50},
			{55, 154, 51, 100},
			{155, 254, 101, 150},
			{255, 354, 151, 200},
			{355, 424, 201, 300},
			{425, 504, 301, 400},
			{505, 604, 401, 500},
		},
		O3: {
			{0.000, 0.054, 0, 50},
			{0.055, 0.070, 51, 100},
			{0.071, 0.085, 101, 150},
			{0.086, 0.105, 151, 200},
			{0.106, 0.200, 201, 300},
		},
		CO: {
			{0.0, 4.4, 0, 50},
			{4.5, 9.4, 51, 100},
			{9.5, 12.4, 101, 150},
			{12.5, 15.4, 151, 200},
			{15.5, 30.4, 201, 300},
			{30.5, 40.4, 301, 400},
			{40.5, 50.4, 401, 500},
		},
		SO2: {
			{0, 35, 0, 50},
			{36, 75, 51, 100},
			{76, 185, 101, 150},
			{186, 304, 151, 200},
			{305, 604, 201, 300},
			{605, 804, 301, 400},
			{805, 1004, 401, 500},
		},
		NO2: {
			{0, 53, 0, 50},
			{54, 100, 51, 100},
			{101, 360, 101, 150},
			{361, 649, 151, 200},
			{650, 1249, 201, 300},
			{1250, 1649, 301, 400},
			{1650, 2049, 401, 500},
		},
	}
}

// Validate checks that every band list is ordered, non-overlapping and free of
// gaps wider than maxBandGap, and that each band is well formed.
func (t BreakpointTable) Validate() error {
	for p, bands := range t {
		if len(bands) == 0 {
			return fmt.Errorf("%w: %s has no bands", ErrInvalidBreakpoints, p)
		}
		for i, b := range bands {
			if b.ConcLow > b.ConcHigh {
				return fmt.Errorf("%w: %s band %d: concentration low %v > high %v", ErrInvalidBreakpoints, p, i, b.ConcLow, b.ConcHigh)
			}
			if b.IdxLow >= b.IdxHigh {
				return fmt.Errorf("%w: %s band %d: index low %v >= high %v", ErrInvalidBreakpoints, p, i, b.IdxLow, b.IdxHigh)
			}
			if i > 0 && b.ConcLow < bands[i-1].ConcHigh {
				return fmt.Errorf("%w: %s band %d overlaps band %d", ErrInvalidBreakpoints, p, i, i-1)
			}
			if i > 0 && b.ConcLow-bands[i-1].ConcHigh > maxBandGap {
				return fmt.Errorf("%w: %s gap of %v between bands %d and %d", ErrInvalidBreakpoints, p, b.ConcLow-bands[i-1].ConcHigh, i-1, i)
			}
		}
	}
	return nil
}

// lookup returns the band a concentration falls in. above is true when the
// concentration exceeds the highest band. A concentration inside the
// reporting-precision gap between two bands resolves to the lower band.
func lookup(bands []Band, value float64) (band Band, found, above bool) {
	for i, b := range bands {
		if value < b.ConcLow {
			if i == 0 {
				return Band{}, false, false
			}
			return bands[i-1], true, false
		}
		if value <= b.ConcHigh {
			return b, true, false
		}
	}
	return Band{}, false, len(bands) > 0
}
