// Command genmock reads GSOD and OpenAQ CSV exports and generates mock data
// fixtures: the station bundles the collector would publish, and the daily
// AQI records the ETL derives from them. It runs the real station processor
// so the fixtures match pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  --gsod-dir data/gsod \
//	  --openaq-dir data/openaq \
//	  --bundles-out data/mock/station_bundles.json \
//	  --records-out data/mock/daily_aqi_records.json
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
	"github.com/couchcryptid/air-quality-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
	flag "github.com/spf13/pflag"
)

// processedAt is the fixed ProcessedAt stamp for reproducible fixtures.
var processedAt = time.Date(2024, time.January, 2, 6, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	gsodDir := flag.String("gsod-dir", "", "directory containing GSOD station_<id>_<y0>_<y1>.csv files")
	openaqDir := flag.String("openaq-dir", "", "directory containing OpenAQ pollutant CSV files")
	stationsFile := flag.String("stations", "", "optional YAML station directory")
	bundlesOut := flag.String("bundles-out", "", "output path for the station bundle fixture")
	recordsOut := flag.String("records-out", "", "output path for the daily AQI record fixture")
	flag.Parse()

	if *gsodDir == "" || *openaqDir == "" || *bundlesOut == "" || *recordsOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: --gsod-dir, --openaq-dir, --bundles-out, --records-out")
	}

	domain.SetClock(clockwork.NewFakeClockAt(processedAt))
	defer domain.SetClock(nil)

	stations, err := config.LoadStations(*stationsFile)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	bundles, err := csvfile.NewReader(*gsodDir, *openaqDir, stations, logger).LoadBundles()
	if err != nil {
		return fmt.Errorf("load bundles: %w", err)
	}

	proc := pipeline.NewStationProcessor(domain.DefaultBreakpoints(), stations, nil, logger, observability.NewMetricsForTesting())

	var records []domain.DailyRecord //nolint:prealloc // size depends on CSV file contents
	for _, b := range bundles {
		res, err := proc.Process(context.Background(), b)
		if err != nil {
			return fmt.Errorf("processing %s: %w", b.Key(), err)
		}
		records = append(records, res.Records...)
		log.Printf("%s: %d weather rows, %d days scored, %d repaired, %d dropped",
			b.Key(), len(b.Weather), len(res.Records), res.Repairs.Filled+res.Repairs.Substituted, res.Repairs.Dropped)
	}

	log.Printf("total: %d bundles, %d records", len(bundles), len(records))

	if err := writeJSON(*bundlesOut, bundles); err != nil {
		return fmt.Errorf("writing bundles: %w", err)
	}
	log.Printf("wrote %s", *bundlesOut)

	if err := writeJSON(*recordsOut, records); err != nil {
		return fmt.Errorf("writing records: %w", err)
	}
	log.Printf("wrote %s", *recordsOut)

	printStats(records)
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// statsResult holds aggregated counts for printStats reporting.
type statsResult struct {
	levelCounts    map[domain.Level]int
	dominantCounts map[domain.Pollutant]int
	stationCounts  map[string]int
	withoutAQI     int
	ties           int
	maxAQI         int
}

func collectStats(records []domain.DailyRecord) statsResult {
	s := statsResult{
		levelCounts:    map[domain.Level]int{},
		dominantCounts: map[domain.Pollutant]int{},
		stationCounts:  map[string]int{},
	}
	for i := range records {
		r := &records[i]
		s.stationCounts[r.Station]++
		if r.AQI == nil {
			s.withoutAQI++
			continue
		}
		s.levelCounts[r.Level]++
		s.maxAQI = max(s.maxAQI, *r.AQI)
		if len(r.Dominant) > 1 {
			s.ties++
		}
		for _, p := range r.Dominant {
			s.dominantCounts[p]++
		}
	}
	return s
}

func printStats(records []domain.DailyRecord) {
	stats := collectStats(records)

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d (without AQI: %d)\n", len(records), stats.withoutAQI)
	fmt.Printf("Max AQI: %d, tied dominants: %d\n", stats.maxAQI, stats.ties)

	fmt.Print("By level:")
	for _, l := range []domain.Level{
		domain.LevelGood, domain.LevelModerate, domain.LevelUnhealthySensitive,
		domain.LevelUnhealthy, domain.LevelVeryUnhealthy, domain.LevelHazardous,
	} {
		fmt.Printf(" %q=%d", l, stats.levelCounts[l])
	}
	fmt.Println()

	fmt.Print("Dominant:")
	for _, p := range domain.Pollutants {
		fmt.Printf(" %s=%d", p, stats.dominantCounts[p])
	}
	fmt.Println()

	names := make([]string, 0, len(stats.stationCounts))
	for name := range stats.stationCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Printf("Stations (%d):", len(names))
	for _, name := range names {
		fmt.Printf(" %s=%d", name, stats.stationCounts[name])
	}
	fmt.Println()
}
