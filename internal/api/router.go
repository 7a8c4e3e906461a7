// Package api exposes the dashboard engine over HTTP.
package api

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/florasense/podserver/internal/config"
	"github.com/florasense/podserver/internal/engine"
	"github.com/florasense/podserver/internal/store"
)

// Server bundles the engine, the store handle (for health checks), and
// the request-scoped concerns around them.
type Server struct {
	engine *engine.Engine
	store  store.Querier
	logger *zap.Logger

	// defaultBins applies when a timeline request omits nbins.
	defaultBins int
}

// NewServer wires the handler set.
func NewServer(e *engine.Engine, q store.Querier, defaultBins int, logger *zap.Logger) *Server {
	if defaultBins < 1 {
		defaultBins = 48
	}
	return &Server{engine: e, store: q, logger: logger, defaultBins: defaultBins}
}

// Handler builds the routed, middleware-wrapped HTTP handler.
func (s *Server) Handler(cfg config.ServerConfig) http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/swarm-status", s.handleSwarmStatus).Methods(http.MethodGet)
	api.HandleFunc("/timeline-data", s.handleTimelineData).Methods(http.MethodGet)
	api.HandleFunc("/activity-timeline", s.handleActivityTimeline).Methods(http.MethodGet)
	api.HandleFunc("/weather-timeline", s.handleWeatherTimeline).Methods(http.MethodGet)
	api.HandleFunc("/frame-log-stats", s.handleFrameLogStats).Methods(http.MethodGet)
	api.HandleFunc("/specimen-log-stats", s.handleSpecimenLogStats).Methods(http.MethodGet)

	r.HandleFunc("/taxa", s.listHandler(s.engine.TaxonNames)).Methods(http.MethodGet)
	r.HandleFunc("/pod-ids", s.listHandler(s.engine.PodIDs)).Methods(http.MethodGet)
	r.HandleFunc("/locations", s.listHandler(s.engine.Locations)).Methods(http.MethodGet)
	r.HandleFunc("/swarms", s.listHandler(s.engine.Swarms)).Methods(http.MethodGet)
	r.HandleFunc("/runs", s.listHandler(s.engine.Runs)).Methods(http.MethodGet)
	r.HandleFunc("/dates", s.listHandler(s.engine.Dates)).Methods(http.MethodGet)

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.Use(s.observeMiddleware)
	r.Use(rateLimitMiddleware(cfg.RateLimitPerSec, cfg.RateLimitBurst))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(r)
}
