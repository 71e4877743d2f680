// Command validate performs data integrity checks on AQI outputs: the per-station
// <station>_aqi.csv tables written by aqibatch and, optionally, the daily record
// JSON fixture written by genmock. Every sub-index, overall AQI, dominant
// pollutant and level is recomputed from the concentrations and compared.
//
// Usage:
//
//	go run ./cmd/validate \
//	  --aqi-dir out \
//	  --records-json data/mock/daily_aqi_records.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
	flag "github.com/spf13/pflag"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	aqiDir := flag.String("aqi-dir", "", "directory containing <station>_aqi.csv files")
	recordsJSON := flag.String("records-json", "", "optional path to a daily AQI record JSON fixture")
	breakpoints := flag.String("breakpoints", "", "optional YAML breakpoint table (default: built-in EPA table)")
	flag.Parse()

	if *aqiDir == "" && *recordsJSON == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*aqiDir, *recordsJSON, *breakpoints); code != 0 {
		os.Exit(code)
	}
}

func run(aqiDir, recordsPath, breakpointsPath string) int {
	fmt.Println("=== AQI Output Integrity Validation ===")
	fmt.Println()

	table, err := config.LoadBreakpoints(breakpointsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load breakpoints: %v\n", err)
		return 1
	}
	calc := domain.NewCalculator(table, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var phases []*phase
	rowCount, recordCount := 0, 0

	if aqiDir != "" {
		tables, err := loadAQITables(aqiDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load AQI CSVs: %v\n", err)
			return 1
		}
		for _, rows := range tables {
			rowCount += len(rows)
		}
		phases = append(phases,
			validateSchema(tables),
			validateDayOrder(tables),
			validateCSVScores(calc, tables),
		)
	}

	if recordsPath != "" {
		records, err := loadJSON[domain.DailyRecord](recordsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load records JSON: %v\n", err)
			return 1
		}
		recordCount = len(records)
		phases = append(phases, validateRecords(calc, records))
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d AQI CSV, %d record JSON\n", rowCount, recordCount)

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// csvRow is a parsed CSV row with field values keyed by header name.
type csvRow struct {
	file    string
	lineNum int
	fields  map[string]string
}

func (r csvRow) where() string {
	return fmt.Sprintf("%s:%d", r.file, r.lineNum)
}

func loadAQITables(dir string) (map[string][]csvRow, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*_aqi.csv"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no *_aqi.csv files in %s", dir)
	}
	out := make(map[string][]csvRow, len(paths))
	for _, path := range paths {
		rows, err := loadCSV(path)
		if err != nil {
			return nil, err
		}
		out[strings.TrimSuffix(filepath.Base(path), "_aqi.csv")] = rows
	}
	return out, nil
}

func loadCSV(path string) ([]csvRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}

	var rows []csvRow
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s line %d: %w", path, line, err)
		}
		fields := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				fields[h] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, csvRow{file: filepath.Base(path), lineNum: line, fields: fields})
	}
	return rows, nil
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}

func sortedStations(tables map[string][]csvRow) []string {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ── Phase: schema ──

func expectedColumns() []string {
	cols := []string{"datetime"}
	for _, p := range domain.Pollutants {
		cols = append(cols, string(p), p.AQIColumn())
	}
	return append(cols, "overall_aqi", "main_pollutant", "aqi_level")
}

func validateSchema(tables map[string][]csvRow) *phase {
	p := &phase{name: "AQI CSV schema"}
	cols := expectedColumns()
	for _, station := range sortedStations(tables) {
		rows := tables[station]
		if len(rows) == 0 {
			p.errorf("%s: no data rows", station)
			continue
		}
		for _, c := range cols {
			if _, ok := rows[0].fields[c]; !ok {
				p.errorf("%s: missing column %q", station, c)
			}
		}
	}
	return p
}

// ── Phase: day ordering ──

func validateDayOrder(tables map[string][]csvRow) *phase {
	p := &phase{name: "Days strictly increasing"}
	for _, station := range sortedStations(tables) {
		prev := ""
		for _, row := range tables[station] {
			day := row.fields["datetime"]
			if _, err := domain.ParseDay(day); err != nil {
				p.errorf("%s: invalid day %q", row.where(), day)
				continue
			}
			if prev != "" && day <= prev {
				p.errorf("%s: day %s does not follow %s", row.where(), day, prev)
			}
			prev = day
		}
	}
	return p
}

// ── Phase: score recomputation ──

func validateCSVScores(calc *domain.Calculator, tables map[string][]csvRow) *phase {
	p := &phase{name: "Sub-indices and overall AQI recompute"}
	for _, station := range sortedStations(tables) {
		for _, row := range tables[station] {
			checkCSVRow(p, calc, station, row)
		}
	}
	return p
}

func checkCSVRow(p *phase, calc *domain.Calculator, station string, row csvRow) {
	aligned := domain.AlignedRow{Concentrations: map[domain.Pollutant]float64{}}
	for _, pol := range domain.Pollutants {
		s := row.fields[string(pol)]
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			p.errorf("%s: %s=%q is not a number", row.where(), pol, s)
			return
		}
		aligned.Concentrations[pol] = v
	}
	want := calc.Evaluate(station, aligned)

	for _, pol := range domain.Pollutants {
		got := row.fields[pol.AQIColumn()]
		idx, ok := want.SubIndices[pol]
		if exp := optionalInt(idx, ok); got != exp {
			p.errorf("%s: %s=%q, recomputed %q", row.where(), pol.AQIColumn(), got, exp)
		}
	}
	if got, exp := row.fields["overall_aqi"], aqiString(want.AQI); got != exp {
		p.errorf("%s: overall_aqi=%q, recomputed %q", row.where(), got, exp)
	}
	if got, exp := row.fields["main_pollutant"], want.MainPollutant(); got != exp {
		p.errorf("%s: main_pollutant=%q, recomputed %q", row.where(), got, exp)
	}
	if got, exp := row.fields["aqi_level"], string(want.Level); got != exp {
		p.errorf("%s: aqi_level=%q, recomputed %q", row.where(), got, exp)
	}
}

// ── Phase: record fixture ──

func validateRecords(calc *domain.Calculator, records []domain.DailyRecord) *phase {
	p := &phase{name: "Record fixture recompute"}
	seen := make(map[string]bool, len(records))
	for i := range records {
		r := &records[i]
		key := domain.RecordKey(*r)
		if seen[key] {
			p.errorf("record %d: duplicate key %s", i, key)
		}
		seen[key] = true

		want := calc.Evaluate(r.Station, domain.AlignedRow{Day: r.Day, Concentrations: r.Concentrations})
		if aqiString(r.AQI) != aqiString(want.AQI) {
			p.errorf("%s: overall_aqi=%s, recomputed %s", key, aqiString(r.AQI), aqiString(want.AQI))
		}
		if r.MainPollutant() != want.MainPollutant() {
			p.errorf("%s: main_pollutant=%q, recomputed %q", key, r.MainPollutant(), want.MainPollutant())
		}
		if r.Level != want.Level {
			p.errorf("%s: aqi_level=%q, recomputed %q", key, r.Level, want.Level)
		}
		for _, pol := range domain.Pollutants {
			got, gok := r.SubIndices[pol]
			exp, eok := want.SubIndices[pol]
			if optionalInt(got, gok) != optionalInt(exp, eok) {
				p.errorf("%s: %s=%s, recomputed %s", key, pol.AQIColumn(), optionalInt(got, gok), optionalInt(exp, eok))
			}
		}
	}
	return p
}

func optionalInt(v int, ok bool) string {
	if !ok {
		return ""
	}
	return strconv.Itoa(v)
}

func aqiString(aqi *int) string {
	if aqi == nil {
		return ""
	}
	return strconv.Itoa(*aqi)
}
