package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
	"golang.org/x/sync/errgroup"
)

// Station outcomes reported on StationsFinished.
const (
	outcomeSuccess = "success"
	outcomeFailed  = "failed"
	outcomeEmpty   = "empty"
)

// RunStations processes bundles with at most workers stations in flight.
// A station that fails is logged and counted but never stops the others;
// results for successful stations are returned in input order. Stations not
// yet started when ctx is cancelled are skipped.
func RunStations(
	ctx context.Context,
	proc *StationProcessor,
	bundles []domain.StationBundle,
	workers int,
	logger *slog.Logger,
	metrics *observability.Metrics,
) []StationResult {
	slots := make([]*StationResult, len(bundles))

	var g errgroup.Group
	g.SetLimit(max(1, workers))
	for i, b := range bundles {
		if ctx.Err() != nil {
			logger.Warn("batch cancelled, skipping remaining stations", "remaining", len(bundles)-i)
			break
		}
		g.Go(func() error {
			res, err := proc.Process(ctx, b)
			if err != nil {
				logger.Error("station failed", "station", b.Key(), "error", err)
				metrics.StationsFinished.WithLabelValues(outcomeFailed).Inc()
				return nil
			}
			outcome := outcomeSuccess
			if len(res.Records) == 0 {
				logger.Warn("station produced no AQI records", "station", b.Key())
				outcome = outcomeEmpty
			}
			metrics.StationsFinished.WithLabelValues(outcome).Inc()
			slots[i] = &res
			return nil
		})
	}
	_ = g.Wait()

	out := make([]StationResult, 0, len(bundles))
	for _, r := range slots {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}
