package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/florasense/podserver/internal/config"
	"github.com/florasense/podserver/internal/engine"
	"github.com/florasense/podserver/internal/model"
	"github.com/florasense/podserver/internal/store/memstore"
)

func newTestHandler(t *testing.T, seed func(*memstore.Store)) http.Handler {
	t.Helper()
	s := memstore.New()
	if seed != nil {
		seed(s)
	}
	e := engine.New(s, engine.Options{PopularityMinCount: 1})
	srv := NewServer(e, s, 4, zap.NewNop())
	return srv.Handler(config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000})
}

func doGet(t *testing.T, h http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSwarmStatusEmptyPopulation(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := doGet(t, h, "/api/swarm-status")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var snaps []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snaps))
	require.Len(t, snaps, 1)
	require.Nil(t, snaps[0]["pod_id"])
	require.Nil(t, snaps[0]["last_seen"])
}

func TestSwarmStatusLivePod(t *testing.T) {
	h := newTestHandler(t, func(s *memstore.Store) {
		lastSeen := time.Now().UTC().Add(-2 * time.Minute)
		status := "connected"
		_ = s.UpsertPodState(context.Background(), model.PodState{
			PodID:            "pod-1",
			ConnectionStatus: &status,
			LastSeen:         &lastSeen,
		})
	})

	rec := doGet(t, h, "/api/swarm-status")
	require.Equal(t, http.StatusOK, rec.Code)

	var snaps []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snaps))
	require.Len(t, snaps, 1)
	require.Equal(t, "pod-1", snaps[0]["pod_id"])
	require.Equal(t, "connected", snaps[0]["connection_status"])
	require.InDelta(t, 2.0, snaps[0]["time_since_last_seen"].(float64), 0.5)
}

func TestActivityTimelineBadDateIs400(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := doGet(t, h, "/api/activity-timeline?start_date=junk&end_date=2026-06-02")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body["error"], "junk")
}

func TestActivityTimelineInvalidWindowIs400(t *testing.T) {
	h := newTestHandler(t, nil)
	rec := doGet(t, h, "/api/activity-timeline?start_date=2026-06-02&end_date=2026-06-01")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestActivityTimelineUnsupportedGroupByIs400(t *testing.T) {
	h := newTestHandler(t, nil)
	rec := doGet(t, h, "/api/activity-timeline?start_date=2026-06-01&end_date=2026-06-02&group_by=favorite_color")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNonNumericNBinsIs400(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := doGet(t, h, "/api/activity-timeline?start_date=2026-06-01&end_date=2026-06-02&nbins=banana")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doGet(t, h, "/api/weather-timeline?start_date=2026-06-01&end_date=2026-06-02&nbins=banana")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Parsable but out-of-range values still reach the engine's window check.
	rec = doGet(t, h, "/api/activity-timeline?start_date=2026-06-01&end_date=2026-06-02&nbins=0")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestActivityTimelineFrames(t *testing.T) {
	h := newTestHandler(t, func(s *memstore.Store) {
		ts := time.Date(2026, 6, 1, 1, 0, 0, 0, time.UTC)
		_ = s.InsertFrame(context.Background(), model.FrameEvent{Timestamp: ts, PodID: "pod-1"})
	})

	rec := doGet(t, h, "/api/activity-timeline?kind=frames&start_date=2026-06-01&end_date=2026-06-02&nbins=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var cells []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cells))
	require.Len(t, cells, 2, "1 group x 2 bins")
	require.Equal(t, "pod-1", cells[0]["pod_id"])
	require.Equal(t, float64(1), cells[0]["count"])
	require.Equal(t, float64(0), cells[1]["count"])
}

func TestTimelineDataEndpoint(t *testing.T) {
	h := newTestHandler(t, func(s *memstore.Store) {
		ts := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
		_ = s.InsertSpecimen(context.Background(), model.SpecimenEvent{
			Timestamp: ts, PodID: "pod-1", TaxonID: "A", TaxonName: "Apis mellifera",
			TaxonRank: "L10", TaxonScore: 0.8,
		})
	})

	rec := doGet(t, h, "/api/timeline-data?start_date=2026-06-01&end_date=2026-06-02")
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	require.Equal(t, "Apis mellifera", entries[0]["taxon_name"])
	require.Equal(t, "2026-06-01T09:00:00.000000", entries[0]["timestamp"])
}

func TestFrameLogStatsSpanValidation(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := doGet(t, h, "/api/frame-log-stats?span=banana")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doGet(t, h, "/api/frame-log-stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Equal(t, float64(0), stats["current"])
	require.Equal(t, float64(0), stats["previous"])
	require.Equal(t, float64(0), stats["change"])
}

func TestGetterEndpoints(t *testing.T) {
	h := newTestHandler(t, func(s *memstore.Store) {
		ts := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
		_ = s.InsertSpecimen(context.Background(), model.SpecimenEvent{
			Timestamp: ts, PodID: "pod-1", SwarmName: "swarm-a",
			TaxonID: "A", TaxonName: "Apis mellifera",
		})
	})

	rec := doGet(t, h, "/taxa")
	require.Equal(t, http.StatusOK, rec.Code)
	var taxa []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &taxa))
	require.Equal(t, []string{"Apis mellifera"}, taxa)

	rec = doGet(t, h, "/dates")
	require.Equal(t, http.StatusOK, rec.Code)
	var dates []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dates))
	require.Equal(t, []string{"2026-06-01"}, dates)

	rec = doGet(t, h, "/pod-ids")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doGet(t, h, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGetterEmptyListsAreJSONArrays(t *testing.T) {
	h := newTestHandler(t, nil)
	rec := doGet(t, h, "/swarms")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "[]", rec.Body.String())
}

func TestRateLimit(t *testing.T) {
	s := memstore.New()
	e := engine.New(s, engine.Options{})
	srv := NewServer(e, s, 4, zap.NewNop())
	h := srv.Handler(config.ServerConfig{RateLimitPerSec: 1, RateLimitBurst: 1})

	first := doGet(t, h, "/healthz")
	require.Equal(t, http.StatusOK, first.Code)

	second := doGet(t, h, "/healthz")
	require.Equal(t, http.StatusTooManyRequests, second.Code)
}
