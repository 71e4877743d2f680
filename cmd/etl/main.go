package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/air-quality-etl/internal/adapter/influx"
	kafkaadapter "github.com/couchcryptid/air-quality-etl/internal/adapter/kafka"
	"github.com/couchcryptid/air-quality-etl/internal/adapter/mapbox"
	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
	"github.com/couchcryptid/air-quality-etl/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	table, err := config.LoadBreakpoints(cfg.BreakpointsFile)
	if err != nil {
		logger.Error("failed to load breakpoints", "error", err)
		os.Exit(1)
	}
	stations, err := config.LoadStations(cfg.StationsFile)
	if err != nil {
		logger.Error("failed to load stations", "error", err)
		os.Exit(1)
	}
	logger.Info("reference data loaded", "stations", len(stations), "breakpoints_file", cfg.BreakpointsFile)

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	latest := pipeline.NewLatestRecords()
	loaders := pipeline.MultiLoader{writer, latest}

	var influxWriter *influx.Writer
	if cfg.InfluxEnabled() {
		influxWriter, err = influx.NewWriter(cfg, logger)
		if err != nil {
			logger.Error("failed to create influx writer", "error", err)
			os.Exit(1)
		}
		if err := influxWriter.Ping(5 * time.Second); err != nil {
			logger.Warn("influx not reachable at startup", "addr", cfg.InfluxAddr, "error", err)
		}
		loaders = append(loaders, influxWriter)
		logger.Info("influx sink enabled", "addr", cfg.InfluxAddr, "database", cfg.InfluxDatabase)
	}

	processor := pipeline.NewStationProcessor(table, stations, geocoder, logger, metrics)
	p := pipeline.New(reader, processor, loaders, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, latest, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
	if influxWriter != nil {
		if err := influxWriter.Close(); err != nil {
			logger.Error("influx writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
