// Package influx writes daily AQI records to InfluxDB 1.x as points of the
// "aqi" measurement.
package influx

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
	client "github.com/influxdata/influxdb/client/v2"
)

const measurement = "aqi"

// pointWriter is the subset of the InfluxDB client the writer needs.
type pointWriter interface {
	Ping(timeout time.Duration) (time.Duration, string, error)
	Write(bp client.BatchPoints) error
	Close() error
}

// Writer implements pipeline.BatchLoader against an InfluxDB database.
type Writer struct {
	client   pointWriter
	database string
	logger   *slog.Logger
}

// NewWriter connects to the InfluxDB HTTP API described by cfg.
func NewWriter(cfg *config.Config, logger *slog.Logger) (*Writer, error) {
	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:     cfg.InfluxAddr,
		Username: cfg.InfluxUsername,
		Password: cfg.InfluxPassword,
		Timeout:  10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("influx client: %w", err)
	}
	return &Writer{client: c, database: cfg.InfluxDatabase, logger: logger}, nil
}

// Ping checks that the server is reachable.
func (w *Writer) Ping(timeout time.Duration) error {
	if _, _, err := w.client.Ping(timeout); err != nil {
		return fmt.Errorf("influx ping: %w", err)
	}
	return nil
}

// LoadBatch writes one point per record in a single request. Records with no
// concentration and no AQI carry no fields and are skipped.
func (w *Writer) LoadBatch(ctx context.Context, records []domain.DailyRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bp, err := client.NewBatchPoints(client.BatchPointsConfig{
		Database:  w.database,
		Precision: "s",
	})
	if err != nil {
		return fmt.Errorf("influx batch: %w", err)
	}

	skipped := 0
	for _, r := range records {
		pt, ok, err := toPoint(r)
		if err != nil {
			return fmt.Errorf("influx point %s: %w", domain.RecordKey(r), err)
		}
		if !ok {
			skipped++
			continue
		}
		bp.AddPoint(pt)
	}
	if len(bp.Points()) == 0 {
		return nil
	}

	if err := w.client.Write(bp); err != nil {
		return fmt.Errorf("influx write: %w", err)
	}
	w.logger.Debug("wrote influx points", "points", len(bp.Points()), "skipped", skipped)
	return nil
}

// Close releases the client's idle connections.
func (w *Writer) Close() error {
	return w.client.Close()
}

func toPoint(r domain.DailyRecord) (*client.Point, bool, error) {
	tags := map[string]string{"station": r.Station}
	if main := r.MainPollutant(); main != "" {
		tags["main_pollutant"] = main
	}
	if r.Level != "" {
		tags["aqi_level"] = string(r.Level)
	}

	fields := make(map[string]any)
	for _, p := range domain.Pollutants {
		if v, ok := r.Concentrations[p]; ok {
			fields[string(p)] = v
		}
		if idx, ok := r.SubIndices[p]; ok {
			fields[p.AQIColumn()] = idx
		}
	}
	if r.AQI != nil {
		fields["overall_aqi"] = *r.AQI
	}
	if len(fields) == 0 {
		return nil, false, nil
	}

	pt, err := client.NewPoint(measurement, tags, fields, r.Day)
	if err != nil {
		return nil, false, err
	}
	return pt, true, nil
}
