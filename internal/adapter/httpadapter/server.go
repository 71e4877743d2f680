package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/air-quality-etl/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RecordSource serves the latest AQI record per station.
type RecordSource interface {
	Latest(station string) (domain.DailyRecord, bool)
	Stations() []string
}

// Server exposes health, readiness, metrics, and latest-AQI HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics,
// /stations and /stations/{station}/aqi routes. A nil source disables the
// station routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, source RecordSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	if source != nil {
		mux.HandleFunc("GET /stations", handleStations(source))
		mux.HandleFunc("GET /stations/{station}/aqi", handleLatest(source))
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func handleStations(source RecordSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		sharedobs.WriteJSON(w, http.StatusOK, map[string][]string{"stations": source.Stations()})
	}
}

func handleLatest(source RecordSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		station := r.PathValue("station")
		rec, ok := source.Latest(station)
		if !ok {
			sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{
				"status": "not found",
				"error":  "no records for station " + station,
			})
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, rec)
	}
}
