package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// LoadBreakpoints reads a breakpoint table from YAML. Each pollutant maps to a
// list of [concLow, concHigh, idxLow, idxHigh] bands:
//
//	pm25:
//	  - [0.0, 12.0, 0, 50]
//	  - [12.1, 35.4, 51, 100]
//
// An empty path returns the built-in EPA table.
func LoadBreakpoints(path string) (domain.BreakpointTable, error) {
	if path == "" {
		return domain.DefaultBreakpoints(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read breakpoints: %w", err)
	}
	return ParseBreakpoints(data)
}

// ParseBreakpoints decodes and validates a YAML breakpoint table.
func ParseBreakpoints(data []byte) (domain.BreakpointTable, error) {
	var raw map[string][][4]float64
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode breakpoints: %w", err)
	}

	table := make(domain.BreakpointTable, len(raw))
	for name, bands := range raw {
		p, ok := domain.ParsePollutant(strings.ToLower(name))
		if !ok {
			return nil, fmt.Errorf("breakpoints for %q: %w", name, domain.ErrUnknownPollutant)
		}
		for _, b := range bands {
			table[p] = append(table[p], domain.Band{ConcLow: b[0], ConcHigh: b[1], IdxLow: b[2], IdxHigh: b[3]})
		}
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// stationEntry is one station in the directory file.
type stationEntry struct {
	ID   string  `yaml:"id" validate:"required,numeric"`
	Name string  `yaml:"name" validate:"required"`
	Lat  float64 `yaml:"lat" validate:"gte=-90,lte=90"`
	Lon  float64 `yaml:"lon" validate:"gte=-180,lte=180"`
}

type stationFile struct {
	Stations []stationEntry `yaml:"stations" validate:"dive"`
}

// LoadStations reads the station directory:
//
//	stations:
//	  - id: "72278023183"
//	    name: bakersfield
//	    lat: 35.43
//	    lon: -119.05
//
// An empty path returns an empty directory.
func LoadStations(path string) (domain.StationDirectory, error) {
	if path == "" {
		return domain.StationDirectory{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stations: %w", err)
	}
	return ParseStations(data)
}

// ParseStations decodes and validates a YAML station directory.
func ParseStations(data []byte) (domain.StationDirectory, error) {
	var f stationFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode stations: %w", err)
	}
	if err := validator.New().Struct(f); err != nil {
		return nil, fmt.Errorf("validate stations: %w", err)
	}

	dir := make(domain.StationDirectory, len(f.Stations))
	for _, s := range f.Stations {
		if _, dup := dir[s.ID]; dup {
			return nil, fmt.Errorf("validate stations: duplicate id %s", s.ID)
		}
		dir[s.ID] = domain.Station{ID: s.ID, Name: s.Name, Lat: s.Lat, Lon: s.Lon}
	}
	return dir, nil
}
