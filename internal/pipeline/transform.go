package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
	"github.com/couchcryptid/air-quality-etl/internal/observability"
)

// StationResult is everything derived from one station bundle.
type StationResult struct {
	Station domain.Station
	Weather domain.WeatherTable
	Aligned domain.AlignedTable
	Records []domain.DailyRecord
	Repairs domain.RepairReport
}

// StationProcessor runs a station bundle through weather repair, cadence
// reconciliation, pollutant repair, alignment and AQI scoring. It is safe for concurrent use
// when its geocoder is.
type StationProcessor struct {
	calc       *domain.Calculator
	repairer   *domain.Repairer
	pollutants *domain.Repairer
	stations   domain.StationDirectory
	geocoder   domain.Geocoder
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewStationProcessor creates a StationProcessor. Pass a nil geocoder to
// disable place-name enrichment and a nil directory when no station file is
// configured.
func NewStationProcessor(
	table domain.BreakpointTable,
	stations domain.StationDirectory,
	geocoder domain.Geocoder,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *StationProcessor {
	return &StationProcessor{
		calc:       domain.NewCalculator(table, logger),
		repairer:   domain.NewRepairer(domain.DefaultWeatherRules(), logger),
		pollutants: domain.NewRepairer(domain.DefaultPollutantRules(), logger),
		stations:   stations,
		geocoder:   geocoder,
		logger:     logger,
		metrics:    metrics,
	}
}

// Transform implements Transformer for the streaming pipeline.
func (p *StationProcessor) Transform(ctx context.Context, raw domain.RawEvent) ([]domain.DailyRecord, error) {
	bundle, err := domain.ParseStationBundle(raw)
	if err != nil {
		return nil, err
	}
	res, err := p.Process(ctx, bundle)
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// Process derives the repaired weather table and daily AQI records for one
// station. Data problems inside the bundle degrade to missing values; only a
// malformed date is an error.
func (p *StationProcessor) Process(ctx context.Context, bundle domain.StationBundle) (StationResult, error) {
	key := bundle.Key()
	log := p.logger.With("station", key)

	weather, err := bundle.WeatherTable()
	if err != nil {
		return StationResult{}, err
	}
	weather, repairs := p.repairer.RepairWeather(weather.DropColumns(domain.UnwantedWeatherColumns...))

	samples, unknown, err := bundle.PollutantSamples()
	if err != nil {
		return StationResult{}, err
	}
	if len(unknown) > 0 {
		log.Warn("ignoring unknown parameters", "parameters", unknown)
	}

	series := make(map[domain.Pollutant]domain.Series, len(samples))
	for _, pol := range domain.Pollutants {
		s, ok := samples[pol]
		if !ok {
			log.Debug("pollutant missing for station", "pollutant", pol)
			continue
		}
		daily, err := domain.Reconcile(key, pol, s)
		if err != nil {
			return StationResult{}, err
		}
		daily, rep := p.pollutants.RepairSeries(daily)
		repairs.Add(rep)
		series[pol] = daily
	}
	p.metrics.ValuesRepaired.WithLabelValues("filled").Add(float64(repairs.Filled))
	p.metrics.ValuesRepaired.WithLabelValues("dropped").Add(float64(repairs.Dropped))
	p.metrics.ValuesRepaired.WithLabelValues("substituted").Add(float64(repairs.Substituted))

	aligned := domain.Align(key, series)
	records := p.calc.EvaluateTable(aligned)

	st := p.station(ctx, bundle)
	for i := range records {
		records[i].StationName = st.Name
		records[i].PlaceName = st.PlaceName
		if records[i].AQI == nil {
			p.metrics.RecordsWithoutAQI.Inc()
		}
	}
	domain.Stamp(records)

	log.Info("station processed",
		"weather_days", weather.Len(),
		"aqi_days", len(records),
		"filled", repairs.Filled,
		"dropped", repairs.Dropped,
	)
	return StationResult{
		Station: st,
		Weather: weather,
		Aligned: aligned,
		Records: records,
		Repairs: repairs,
	}, nil
}

// station resolves the bundle against the directory and geocodes it.
func (p *StationProcessor) station(ctx context.Context, bundle domain.StationBundle) domain.Station {
	st, ok := p.stations.Lookup(bundle.StationID)
	if !ok {
		st, ok = p.stations.Lookup(bundle.Station)
	}
	if !ok {
		st = domain.Station{ID: bundle.StationID, Name: bundle.Station}
	}
	return domain.EnrichStation(ctx, st, p.geocoder, p.logger)
}
