// Package csvfile reads collector CSV exports into station bundles and writes
// the integrated, AQI and training tables back out as CSV.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

// GSOD identity and text columns that never hold a measurement.
var gsodTextColumns = map[string]bool{"STATION": true, "NAME": true, "DATE": true}

// hourlyLayouts are the timestamp forms seen in OpenAQ hourly exports.
var hourlyLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Reader loads GSOD and OpenAQ exports from two directories.
type Reader struct {
	gsodDir   string
	openaqDir string
	stations  domain.StationDirectory
	logger    *slog.Logger
}

// NewReader creates a Reader. GSOD station ids are mapped to station names via
// the directory; ids without an entry keep the id as the name.
func NewReader(gsodDir, openaqDir string, stations domain.StationDirectory, logger *slog.Logger) *Reader {
	return &Reader{gsodDir: gsodDir, openaqDir: openaqDir, stations: stations, logger: logger}
}

// LoadBundles returns one bundle per station found in either directory,
// sorted by station key. OpenAQ files are matched to GSOD files by station name.
func (r *Reader) LoadBundles() ([]domain.StationBundle, error) {
	bundles := make(map[string]*domain.StationBundle)

	if r.gsodDir != "" {
		if err := r.loadGSOD(bundles); err != nil {
			return nil, err
		}
	}
	if r.openaqDir != "" {
		if err := r.loadOpenAQ(bundles); err != nil {
			return nil, err
		}
	}

	out := make([]domain.StationBundle, 0, len(bundles))
	for _, b := range bundles {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out, nil
}

func (r *Reader) loadGSOD(bundles map[string]*domain.StationBundle) error {
	paths, err := filepath.Glob(filepath.Join(r.gsodDir, "station_*.csv"))
	if err != nil {
		return fmt.Errorf("list gsod files: %w", err)
	}
	sort.Strings(paths)

	for _, path := range paths {
		id, ok := parseGSODName(filepath.Base(path))
		if !ok {
			r.logger.Warn("skipping unrecognized gsod file", "path", path)
			continue
		}
		rows, err := readWeather(path)
		if err != nil {
			return err
		}

		name := id
		if st, ok := r.stations.Lookup(id); ok && st.Name != "" {
			name = st.Name
		}
		b := bundleFor(bundles, name)
		b.StationID = id
		b.Weather = append(b.Weather, rows...)
		r.logger.Debug("loaded gsod file", "path", path, "station", name, "rows", len(rows))
	}
	return nil
}

func (r *Reader) loadOpenAQ(bundles map[string]*domain.StationBundle) error {
	paths, err := filepath.Glob(filepath.Join(r.openaqDir, "*.csv"))
	if err != nil {
		return fmt.Errorf("list openaq files: %w", err)
	}
	sort.Strings(paths)

	for _, path := range paths {
		name, param, hourly, ok := parseOpenAQName(filepath.Base(path))
		if !ok {
			r.logger.Warn("skipping unrecognized openaq file", "path", path)
			continue
		}
		b := bundleFor(bundles, name)
		if hourly {
			rows, err := readHourly(path)
			if err != nil {
				return err
			}
			if b.Hourly == nil {
				b.Hourly = make(map[string][]domain.HourlyReading)
			}
			b.Hourly[param] = append(b.Hourly[param], rows...)
			continue
		}
		rows, err := readDaily(path)
		if err != nil {
			return err
		}
		if b.Daily == nil {
			b.Daily = make(map[string][]domain.DailyAverage)
		}
		b.Daily[param] = append(b.Daily[param], rows...)
	}
	return nil
}

func bundleFor(bundles map[string]*domain.StationBundle, name string) *domain.StationBundle {
	b, ok := bundles[name]
	if !ok {
		b = &domain.StationBundle{Station: name}
		bundles[name] = b
	}
	return b
}

// parseGSODName extracts the station id from station_<id>_<y0>_<y1>.csv.
func parseGSODName(base string) (string, bool) {
	parts := strings.Split(strings.TrimSuffix(base, ".csv"), "_")
	if len(parts) < 4 || parts[0] != "station" {
		return "", false
	}
	return strings.Join(parts[1:len(parts)-2], "_"), true
}

// parseOpenAQName splits <name>_<param>_<y0>_<y1>.csv and
// <name>_<param>_hourly_<y0>_<y1>.csv.
func parseOpenAQName(base string) (name, param string, hourly, ok bool) {
	parts := strings.Split(strings.TrimSuffix(base, ".csv"), "_")
	n := len(parts)
	if n >= 5 && parts[n-3] == "hourly" {
		return strings.Join(parts[:n-4], "_"), parts[n-4], true, true
	}
	if n >= 4 {
		return strings.Join(parts[:n-3], "_"), parts[n-3], false, true
	}
	return "", "", false, false
}

func readWeather(path string) ([]domain.WeatherRow, error) {
	header, records, err := readTable(path)
	if err != nil {
		return nil, err
	}
	dateCol := indexOf(header, "DATE")
	if dateCol < 0 {
		return nil, fmt.Errorf("read %s: missing DATE column", path)
	}

	rows := make([]domain.WeatherRow, 0, len(records))
	for _, rec := range records {
		row := domain.WeatherRow{Date: rec[dateCol], Values: make(map[string]*float64, len(header))}
		for i, col := range header {
			if gsodTextColumns[col] {
				continue
			}
			row.Values[col] = parseValue(rec[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readDaily(path string) ([]domain.DailyAverage, error) {
	header, records, err := readTable(path)
	if err != nil {
		return nil, err
	}
	dayCol, avgCol := indexOf(header, "day"), indexOf(header, "average")
	if dayCol < 0 || avgCol < 0 {
		return nil, fmt.Errorf("read %s: expected day and average columns", path)
	}

	rows := make([]domain.DailyAverage, 0, len(records))
	for _, rec := range records {
		// Daily exports may carry a full timestamp; only the date matters.
		day := rec[dayCol]
		if len(day) > len(domain.DayLayout) {
			day = day[:len(domain.DayLayout)]
		}
		rows = append(rows, domain.DailyAverage{Day: day, Average: parseValue(rec[avgCol])})
	}
	return rows, nil
}

func readHourly(path string) ([]domain.HourlyReading, error) {
	header, records, err := readTable(path)
	if err != nil {
		return nil, err
	}
	timeCol, valCol := indexOf(header, "datetime"), indexOf(header, "value")
	if timeCol < 0 || valCol < 0 {
		return nil, fmt.Errorf("read %s: expected datetime and value columns", path)
	}

	rows := make([]domain.HourlyReading, 0, len(records))
	for line, rec := range records {
		ts, err := parseTimestamp(rec[timeCol])
		if err != nil {
			return nil, fmt.Errorf("read %s line %d: %w", path, line+2, err)
		}
		rows = append(rows, domain.HourlyReading{Datetime: ts, Value: parseValue(rec[valCol])})
	}
	return rows, nil
}

// readTable reads a whole CSV file and returns its header and data rows.
func readTable(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read %s header: %w", path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	return header, records, nil
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

// parseValue returns nil for blank, non-numeric or non-finite cells.
func parseValue(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range hourlyLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
