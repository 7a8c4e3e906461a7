package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/florasense/podserver/internal/engine"
	"github.com/florasense/podserver/internal/store"
)

const defaultStatsSpan = 24 * time.Hour

func (s *Server) handleSwarmStatus(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.engine.SwarmStatus(r.Context(), time.Now().UTC())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, snaps)
}

func (s *Server) handleTimelineData(w http.ResponseWriter, r *http.Request) {
	q := parseTimelineQuery(r)
	entries, err := s.engine.TimelineData(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, entries)
}

func (s *Server) handleActivityTimeline(w http.ResponseWriter, r *http.Request) {
	q := parseTimelineQuery(r)

	kind := store.KindSpecimens
	switch r.URL.Query().Get("kind") {
	case "", "specimens":
	case "frames":
		kind = store.KindFrames
	default:
		s.writeBadRequest(w, "kind must be \"specimens\" or \"frames\"")
		return
	}

	groupBy, ok := groupField(r.URL.Query().Get("group_by"))
	if !ok {
		s.writeBadRequest(w, "unsupported group_by field")
		return
	}

	nBins, err := s.nBins(r)
	if err != nil {
		s.writeBadRequest(w, err.Error())
		return
	}

	cells, err := s.engine.ActivityTimeline(r.Context(), kind, groupBy, q, nBins)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, cells)
}

func (s *Server) handleWeatherTimeline(w http.ResponseWriter, r *http.Request) {
	q := parseTimelineQuery(r)
	fields := splitParam(r.URL.Query().Get("fields"))

	nBins, err := s.nBins(r)
	if err != nil {
		s.writeBadRequest(w, err.Error())
		return
	}

	points, err := s.engine.WeatherTimeline(r.Context(), q, nBins, fields)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, points)
}

func (s *Server) handleFrameLogStats(w http.ResponseWriter, r *http.Request) {
	s.handleLogStats(w, r, store.KindFrames)
}

func (s *Server) handleSpecimenLogStats(w http.ResponseWriter, r *http.Request) {
	s.handleLogStats(w, r, store.KindSpecimens)
}

func (s *Server) handleLogStats(w http.ResponseWriter, r *http.Request, kind store.Kind) {
	span := defaultStatsSpan
	if raw := r.URL.Query().Get("span"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			s.writeBadRequest(w, "span must be a positive duration")
			return
		}
		span = parsed
	}

	stats, err := s.engine.LogStats(r.Context(), kind, span, time.Now().UTC(), parseTimelineQuery(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, stats)
}

// listHandler adapts the engine's distinct-value getters.
func (s *Server) listHandler(get func(context.Context) ([]string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		values, err := get(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		if values == nil {
			values = []string{}
		}
		s.writeJSON(w, values)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// parseTimelineQuery folds the request's filter parameters into the typed
// query. Absent parameters keep their zero values, which the engine treats
// as "no filter".
func parseTimelineQuery(r *http.Request) engine.TimelineQuery {
	v := r.URL.Query()

	var podIDs []string
	for _, raw := range v["pod_id"] {
		podIDs = append(podIDs, splitParam(raw)...)
	}

	return engine.TimelineQuery{
		StartDate:            v.Get("start_date"),
		EndDate:              v.Get("end_date"),
		PodIDs:               podIDs,
		Location:             v.Get("location"),
		SwarmName:            v.Get("swarm_name"),
		RunName:              v.Get("run_name"),
		SpeciesOnly:          v.Get("species_only") == "true",
		DetectionScoreMin:    floatParam(v.Get("detection_score_min")),
		TaxonScoreMin:        floatParam(v.Get("taxon_score_min")),
		PlausibilityScoreMin: floatParam(v.Get("plausibility_score_min")),
	}
}

func (s *Server) nBins(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("nbins")
	if raw == "" {
		return s.defaultBins, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("nbins must be an integer")
	}
	// Out-of-range values pass through to the engine, which rejects them
	// with a window error, keeping one source of truth for validation.
	return n, nil
}

var groupFields = map[string]store.Field{
	"pod_id":   store.FieldPodID,
	"taxon_id": store.FieldTaxonID,
	"loc_name": store.FieldLocName,
}

func groupField(name string) (store.Field, bool) {
	if name == "" {
		return store.FieldPodID, true
	}
	f, ok := groupFields[name]
	return f, ok
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func floatParam(raw string) float64 {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return f
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeBadRequest(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg})
}

// writeError maps engine and store errors to status codes: bad input is
// 400, an unreachable backend is 503, anything else is 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var parseErr *engine.ParseError
	var windowErr *engine.InvalidWindowError
	var unavailErr *store.UnavailableError

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &parseErr), errors.As(err, &windowErr):
		status = http.StatusBadRequest
	case errors.As(err, &unavailErr):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.Error(err))
	} else {
		s.logger.Warn("Request rejected", zap.Int("status", status), zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: err.Error()})
}
