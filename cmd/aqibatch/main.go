// Command aqibatch runs the AQI pipeline once over CSV exports on disk. Each
// station is repaired, reconciled, aligned and scored in its own worker; the
// results are written as CSV tables, an optional Excel workbook, an optional
// InfluxDB batch and a combined weather/AQI training set.
//
// Usage:
//
//	go run ./cmd/aqibatch \
//	  --gsod-dir data/gsod \
//	  --openaq-dir data/openaq \
//	  --out-dir out \
//	  --xlsx out/aqi.xlsx
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/air-quality-etl/internal/adapter/influx"
	"github.com/couchcryptid/air-quality-etl/internal/adapter/mapbox"
	"github.com/couchcryptid/air-quality-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
	"github.com/couchcryptid/air-quality-etl/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	flag "github.com/spf13/pflag"
)

type options struct {
	gsodDir     string
	openaqDir   string
	outDir      string
	stations    string
	breakpoints string
	workers     int
	xlsxPath    string
	training    string
	geocode     bool

	influxAddr string
	influxDB   string
	influxUser string
	influxPass string

	logLevel  string
	logFormat string
}

func main() {
	var o options
	flag.StringVarP(&o.gsodDir, "gsod-dir", "g", "", "directory containing GSOD station_<id>_<y0>_<y1>.csv files")
	flag.StringVarP(&o.openaqDir, "openaq-dir", "a", "", "directory containing OpenAQ pollutant CSV files")
	flag.StringVarP(&o.outDir, "out-dir", "o", "out", "output directory for CSV tables")
	flag.StringVar(&o.stations, "stations", "", "optional YAML station directory")
	flag.StringVar(&o.breakpoints, "breakpoints", "", "optional YAML breakpoint table (default: built-in EPA table)")
	flag.IntVarP(&o.workers, "workers", "w", runtime.NumCPU(), "stations processed concurrently")
	flag.StringVar(&o.xlsxPath, "xlsx", "", "write an Excel workbook with one sheet per station")
	flag.StringVar(&o.training, "training", "training.csv", "combined weather/AQI training set file name (empty to skip)")
	flag.BoolVar(&o.geocode, "geocode", false, "resolve place names with Mapbox (requires MAPBOX_TOKEN)")
	flag.StringVar(&o.influxAddr, "influx-addr", "", "InfluxDB HTTP address; records are uploaded when set")
	flag.StringVar(&o.influxDB, "influx-db", "air_quality", "InfluxDB database")
	flag.StringVar(&o.influxUser, "influx-user", "", "InfluxDB username")
	flag.StringVar(&o.influxPass, "influx-password", "", "InfluxDB password")
	flag.StringVar(&o.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.StringVar(&o.logFormat, "log-format", "text", "log format (json, text)")
	flag.Parse()

	if o.gsodDir == "" && o.openaqDir == "" {
		flag.Usage()
		log.Fatal("please specify --gsod-dir and/or --openaq-dir")
	}
	if o.workers <= 0 {
		log.Fatal("--workers must be positive")
	}

	logger := sharedobs.NewLogger(o.logLevel, o.logFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, logger); err != nil {
		logger.Error("batch failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, logger *slog.Logger) error {
	start := time.Now()
	metrics := observability.NewMetrics()

	table, err := config.LoadBreakpoints(o.breakpoints)
	if err != nil {
		return err
	}
	stations, err := config.LoadStations(o.stations)
	if err != nil {
		return err
	}

	var geocoder domain.Geocoder
	if o.geocode {
		token := os.Getenv("MAPBOX_TOKEN")
		if token == "" {
			return fmt.Errorf("--geocode requires MAPBOX_TOKEN")
		}
		geocoder = mapbox.NewCachedGeocoder(mapbox.NewClient(token, 5*time.Second, metrics, logger), 1000, metrics)
	}

	bundles, err := csvfile.NewReader(o.gsodDir, o.openaqDir, stations, logger).LoadBundles()
	if err != nil {
		return err
	}
	logger.Info("bundles loaded", "stations", len(bundles), "workers", o.workers)

	proc := pipeline.NewStationProcessor(table, stations, geocoder, logger, metrics)
	results := pipeline.RunStations(ctx, proc, bundles, o.workers, logger, metrics)
	if err := ctx.Err(); err != nil {
		return err
	}

	out := csvfile.NewWriter(o.outDir, logger)
	var (
		sheets     []xlsx.StationSheet
		sets       []domain.TrainingSet
		allRecords []domain.DailyRecord
	)
	for _, res := range results {
		station := res.Aligned.Station
		if _, err := out.WriteIntegrated(res.Aligned); err != nil {
			return err
		}
		if _, err := out.WriteAQI(station, res.Records); err != nil {
			return err
		}
		if _, err := out.WriteSimpleAQI(station, res.Records); err != nil {
			return err
		}

		set, dropped := domain.MergeWeather(station, res.Weather, res.Records)
		if dropped > 0 {
			logger.Info("training rows without AQI dropped", "station", station, "dropped", dropped)
		}
		sets = append(sets, set)
		sheets = append(sheets, xlsx.StationSheet{Station: station, Records: res.Records})
		allRecords = append(allRecords, res.Records...)
	}

	if o.training != "" {
		if _, err := out.WriteTraining(o.training, domain.CombineStations(sets...)); err != nil {
			return err
		}
	}

	if o.xlsxPath != "" && len(sheets) > 0 {
		if err := xlsx.WriteWorkbook(o.xlsxPath, sheets); err != nil {
			return err
		}
		logger.Info("wrote workbook", "path", o.xlsxPath, "sheets", len(sheets))
	}

	if o.influxAddr != "" {
		if err := upload(ctx, o, allRecords, logger); err != nil {
			return err
		}
	}

	logger.Info("batch complete",
		"stations", len(bundles),
		"succeeded", len(results),
		"records", len(allRecords),
		"duration", time.Since(start),
	)
	return nil
}

func upload(ctx context.Context, o options, records []domain.DailyRecord, logger *slog.Logger) error {
	w, err := influx.NewWriter(&config.Config{
		InfluxAddr:     o.influxAddr,
		InfluxDatabase: o.influxDB,
		InfluxUsername: o.influxUser,
		InfluxPassword: o.influxPass,
	}, logger)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Ping(5 * time.Second); err != nil {
		return err
	}
	if err := w.LoadBatch(ctx, records); err != nil {
		return err
	}
	logger.Info("uploaded records to influx", "addr", o.influxAddr, "database", o.influxDB, "records", len(records))
	return nil
}
