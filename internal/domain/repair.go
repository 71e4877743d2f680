package domain

import (
	"log/slog"
	"time"
)

// RepairPolicy selects how an invalid value is replaced.
type RepairPolicy int

const (
	// Interpolate replaces an invalid value with the mean of its nearest valid
	// neighbors, falls back to the single neighbor available, and drops the
	// row when there is none.
	Interpolate RepairPolicy = iota
	// SubstituteZero replaces every invalid value with 0 and never drops.
	SubstituteZero
)

// Rule describes when a quantity's value is a sensor artifact and how to repair it.
type Rule struct {
	Quantity string
	Invalid  func(float64) bool
	Policy   RepairPolicy
}

// Above flags values strictly greater than limit.
func Above(limit float64) func(float64) bool {
	return func(v float64) bool { return v > limit }
}

// Equals flags values equal to a sentinel.
func Equals(sentinel float64) func(float64) bool {
	return func(v float64) bool { return v == sentinel }
}

// DefaultWeatherRules returns the GSOD artifact rules in the order they are applied.
// GSOD encodes unreported values as runs of 9s; TEMP and DEWP are in °F where
// anything above 200 is a sensor fault.
func DefaultWeatherRules() []Rule {
	return []Rule{
		{Quantity: "TEMP", Invalid: Above(200)},
		{Quantity: "DEWP", Invalid: Above(200)},
		{Quantity: "STP", Invalid: Equals(9999.9)},
		{Quantity: "VISIB", Invalid: Equals(999.9)},
		{Quantity: "WDSP", Invalid: Equals(999.9)},
		{Quantity: "MXSPD", Invalid: Equals(999.9)},
		{Quantity: "MAX", Invalid: Equals(9999.9)},
		{Quantity: "MIN", Invalid: Equals(9999.9)},
		{Quantity: "PRCP", Invalid: Equals(99.99), Policy: SubstituteZero},
	}
}

// Below flags values strictly less than limit.
func Below(limit float64) func(float64) bool {
	return func(v float64) bool { return v < limit }
}

// DefaultPollutantRules returns one rule per tracked pollutant. Concentrations
// are never negative; OpenAQ publishes -999 for unreported values and small
// negatives from zero drift, and both are filled from neighboring days.
func DefaultPollutantRules() []Rule {
	rules := make([]Rule, 0, len(Pollutants))
	for _, p := range Pollutants {
		rules = append(rules, Rule{Quantity: string(p), Invalid: Below(0)})
	}
	return rules
}

// RepairReport counts what a repair pass changed.
type RepairReport struct {
	Filled      int
	Dropped     int
	Substituted int
}

// Add accumulates another report into r.
func (r *RepairReport) Add(o RepairReport) {
	r.Filled += o.Filled
	r.Dropped += o.Dropped
	r.Substituted += o.Substituted
}

// fix is a planned change at one position. A nil replacement removes the row.
type fix struct {
	index       int
	original    float64
	replacement *float64
}

// planRepair finds every invalid position and decides its replacement against
// the original values, so runs of invalid values never see partial repairs.
// Missing values are neither repaired nor used as neighbors.
func planRepair(values []*float64, rule Rule) []fix {
	valid := func(v *float64) bool { return v != nil && !rule.Invalid(*v) }

	var fixes []fix
	for i, v := range values {
		if v == nil || !rule.Invalid(*v) {
			continue
		}
		if rule.Policy == SubstituteZero {
			fixes = append(fixes, fix{index: i, original: *v, replacement: Float(0)})
			continue
		}

		var prev, next *float64
		for j := i - 1; j >= 0; j-- {
			if valid(values[j]) {
				prev = values[j]
				break
			}
		}
		for j := i + 1; j < len(values); j++ {
			if valid(values[j]) {
				next = values[j]
				break
			}
		}

		f := fix{index: i, original: *v}
		switch {
		case prev != nil && next != nil:
			f.replacement = Float((*prev + *next) / 2)
		case prev != nil:
			f.replacement = Float(*prev)
		case next != nil:
			f.replacement = Float(*next)
		}
		fixes = append(fixes, f)
	}
	return fixes
}

// applyFixes returns repaired copies of values and the set of rows to drop.
func applyFixes(values []*float64, fixes []fix) ([]*float64, map[int]bool) {
	out := make([]*float64, len(values))
	copy(out, values)
	drop := make(map[int]bool)
	for _, f := range fixes {
		if f.replacement == nil {
			drop[f.index] = true
			continue
		}
		out[f.index] = f.replacement
	}
	return out, drop
}

func logFixes(logger *slog.Logger, station, quantity string, days []time.Time, rule Rule, fixes []fix) RepairReport {
	var rep RepairReport
	for _, f := range fixes {
		day := days[f.index].Format(DayLayout)
		switch {
		case f.replacement == nil:
			rep.Dropped++
			logger.Warn("no valid neighbor, dropping row",
				"station", station,
				"quantity", quantity,
				"day", day,
				"value", f.original,
			)
		case rule.Policy == SubstituteZero:
			rep.Substituted++
			logger.Debug("sentinel replaced with zero",
				"station", station, "quantity", quantity, "day", day, "value", f.original)
		default:
			rep.Filled++
			logger.Debug("outlier filled",
				"station", station, "quantity", quantity, "day", day,
				"value", f.original, "replacement", *f.replacement)
		}
	}
	return rep
}

// RepairSeries returns a copy of s with every value the rule flags replaced or
// its day removed. A rule for another quantity leaves s unchanged.
func RepairSeries(s Series, rule Rule, logger *slog.Logger) (Series, RepairReport) {
	if rule.Quantity != "" && rule.Quantity != s.Quantity {
		return s, RepairReport{}
	}

	values := s.Values()
	fixes := planRepair(values, rule)
	if len(fixes) == 0 {
		return s, RepairReport{}
	}

	days := make([]time.Time, len(s.Observations))
	for i, o := range s.Observations {
		days[i] = o.Day
	}
	rep := logFixes(logger, s.Station, s.Quantity, days, rule, fixes)

	repaired, drop := applyFixes(values, fixes)
	out := Series{Station: s.Station, Quantity: s.Quantity, Observations: make([]Observation, 0, len(values)-len(drop))}
	for i, o := range s.Observations {
		if drop[i] {
			continue
		}
		out.Observations = append(out.Observations, Observation{Day: o.Day, Value: repaired[i]})
	}
	return out, rep
}

// Repairer applies an ordered rule set to station weather tables and daily
// series.
type Repairer struct {
	rules  []Rule
	logger *slog.Logger
}

// NewRepairer creates a Repairer. Rules run in the given order and each sees
// the table produced by the previous one.
func NewRepairer(rules []Rule, logger *slog.Logger) *Repairer {
	return &Repairer{rules: rules, logger: logger}
}

// RepairWeather runs every rule over its column. Rules whose column is absent
// are skipped; a dropped value removes that day from every column.
func (r *Repairer) RepairWeather(t WeatherTable) (WeatherTable, RepairReport) {
	var total RepairReport
	for _, rule := range r.rules {
		col, ok := t.Column(rule.Quantity)
		if !ok {
			r.logger.Debug("column absent, skipping repair", "station", t.Station, "quantity", rule.Quantity)
			continue
		}
		values := col.Values()
		fixes := planRepair(values, rule)
		if len(fixes) == 0 {
			continue
		}
		total.Add(logFixes(r.logger, t.Station, rule.Quantity, t.Days, rule, fixes))

		repaired, drop := applyFixes(values, fixes)
		next := t.clone()
		next.Columns[rule.Quantity] = repaired
		t = next.dropRows(drop)
	}
	return t, total
}

// RepairSeries runs every rule for the series' quantity over s in order.
func (r *Repairer) RepairSeries(s Series) (Series, RepairReport) {
	var total RepairReport
	for _, rule := range r.rules {
		var rep RepairReport
		s, rep = RepairSeries(s, rule, r.logger)
		total.Add(rep)
	}
	return s, total
}
