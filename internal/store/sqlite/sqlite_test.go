package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/florasense/podserver/internal/metrics"
	"github.com/florasense/podserver/internal/model"
	"github.com/florasense/podserver/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func f64(v float64) *float64 { return &v }

func insertSpecimen(t *testing.T, s *Store, ts time.Time, podID, taxonID string, lat, lon *float64) {
	t.Helper()
	require.NoError(t, s.InsertSpecimen(context.Background(), model.SpecimenEvent{
		Timestamp:      ts,
		PodID:          podID,
		SwarmName:      "swarm-a",
		RunName:        "run-1",
		LocName:        "orchard",
		Latitude:       lat,
		Longitude:      lon,
		DetectionClass: "insect",
		DetectionScore: 0.9,
		TaxonID:        taxonID,
		TaxonName:      "taxon " + taxonID,
		TaxonScore:     0.8,
		TaxonRank:      "L10",
	}))
}

func TestScanSpecimensFiltersAndOrders(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	insertSpecimen(t, s, base.Add(2*time.Minute), "pod-1", "A", nil, nil)
	insertSpecimen(t, s, base, "pod-1", "A", f64(52.0), f64(4.4))
	insertSpecimen(t, s, base.Add(time.Minute), "pod-2", "B", nil, nil)

	got, err := s.ScanSpecimens(context.Background(), store.PredicateSet{
		store.Eq(store.FieldPodID, "pod-1"),
	}, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.True(t, got[0].Timestamp.Before(got[1].Timestamp))
	require.True(t, got[0].Timestamp.Equal(base))
	require.NotNil(t, got[0].Latitude)
	require.Equal(t, 52.0, *got[0].Latitude)
	require.Nil(t, got[1].Latitude)

	// An IN over the empty set matches nothing.
	got, err = s.ScanSpecimens(context.Background(), store.PredicateSet{
		store.In(store.FieldPodID, nil),
	}, 0)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestCountWithTimeBounds(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.InsertFrame(context.Background(), model.FrameEvent{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			PodID:     "pod-1",
		}))
	}

	n, err := s.Count(context.Background(), store.KindFrames, store.PredicateSet{
		store.Gte(store.FieldTimestamp, base.Add(time.Hour)),
		store.Lt(store.FieldTimestamp, base.Add(4*time.Hour)),
	})
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
}

func TestGroupedBinnedCountBucketsCorrectly(t *testing.T) {
	s := openTestStore(t)
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	grid := model.BinGrid{Start: start, Width: time.Hour, N: 4}

	ctx := context.Background()
	insertSpecimen(t, s, start.Add(-time.Second), "pod-1", "A", nil, nil)     // before grid, dropped
	insertSpecimen(t, s, start, "pod-1", "A", nil, nil)                       // bin 0
	insertSpecimen(t, s, start.Add(59*time.Minute), "pod-1", "A", nil, nil)   // bin 0
	insertSpecimen(t, s, start.Add(60*time.Minute), "pod-1", "A", nil, nil)   // bin 1
	insertSpecimen(t, s, start.Add(3*time.Hour+59*time.Minute), "pod-2", "B", nil, nil) // bin 3
	insertSpecimen(t, s, start.Add(4*time.Hour), "pod-2", "B", nil, nil)      // at grid end, dropped

	counts, err := s.GroupedBinnedCount(ctx, store.KindSpecimens, store.FieldPodID, grid, nil)
	require.NoError(t, err)
	require.Equal(t, map[string]map[int]int64{
		"pod-1": {0: 2, 1: 1},
		"pod-2": {3: 1},
	}, counts)
}

func TestDistinctValuesAndDates(t *testing.T) {
	s := openTestStore(t)
	insertSpecimen(t, s, time.Date(2026, 6, 1, 23, 59, 0, 0, time.UTC), "pod-2", "B", nil, nil)
	insertSpecimen(t, s, time.Date(2026, 6, 2, 0, 1, 0, 0, time.UTC), "pod-1", "A", nil, nil)
	insertSpecimen(t, s, time.Date(2026, 6, 2, 8, 0, 0, 0, time.UTC), "pod-1", "A", nil, nil)

	pods, err := s.DistinctValues(context.Background(), store.KindSpecimens, store.FieldPodID)
	require.NoError(t, err)
	require.Equal(t, []string{"pod-1", "pod-2"}, pods)

	dates, err := s.DistinctDates(context.Background(), store.KindSpecimens)
	require.NoError(t, err)
	require.Equal(t, []string{"2026-06-01", "2026-06-02"}, dates)
}

func TestRecentLocationPicksLatestWithCoordinates(t *testing.T) {
	s := openTestStore(t)
	base := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	insertSpecimen(t, s, base, "pod-1", "A", f64(51.9), f64(4.3))
	insertSpecimen(t, s, base.Add(time.Hour), "pod-1", "A", f64(52.0), f64(4.4))
	insertSpecimen(t, s, base.Add(2*time.Hour), "pod-1", "A", nil, nil)

	loc, err := s.RecentLocation(context.Background(), "pod-1")
	require.NoError(t, err)
	require.NotNil(t, loc)
	require.Equal(t, 52.0, loc.Latitude)
	require.Equal(t, 4.4, loc.Longitude)

	loc, err = s.RecentLocation(context.Background(), "pod-unknown")
	require.NoError(t, err)
	require.Nil(t, loc)
}

func TestActivePodsCutoffAndUpsert(t *testing.T) {
	s := openTestStore(t)
	now := time.Date(2026, 6, 2, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	fresh := now.Add(-time.Minute)
	stale := now.Add(-48 * time.Hour)
	require.NoError(t, s.UpsertPodState(ctx, model.PodState{PodID: "pod-b", LastSeen: &fresh}))
	require.NoError(t, s.UpsertPodState(ctx, model.PodState{PodID: "pod-a", LastSeen: &stale}))
	require.NoError(t, s.UpsertPodState(ctx, model.PodState{PodID: "pod-c"}))

	// Upsert replaces: pod-a becomes fresh.
	require.NoError(t, s.UpsertPodState(ctx, model.PodState{PodID: "pod-a", LastSeen: &fresh}))

	pods, err := s.ActivePods(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, pods, 2)
	require.Equal(t, "pod-a", pods[0].PodID)
	require.Equal(t, "pod-b", pods[1].PodID)
	require.True(t, pods[0].LastSeen.Equal(fresh))
}

func TestWeatherRoundTripKeepsNulls(t *testing.T) {
	s := openTestStore(t)
	ts := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	status := "Clouds"

	require.NoError(t, s.InsertWeather(context.Background(), model.WeatherSample{
		Timestamp:   ts,
		SwarmName:   "swarm-a",
		Temperature: f64(17.5),
		Status:      &status,
	}))

	got, err := s.ScanWeather(context.Background(), nil, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 17.5, *got[0].Temperature)
	require.Equal(t, "Clouds", *got[0].Status)
	require.Nil(t, got[0].Humidity)
	require.Nil(t, got[0].WindSpeed)
}

func TestWeatherIgnoresFieldsItDoesNotCarry(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	ts := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.InsertWeather(ctx, model.WeatherSample{
		Timestamp: ts,
		SwarmName: "swarm-a",
	}))

	// Weather rows have no pod identity: a pod_id filter matches nothing
	// instead of failing the query.
	got, err := s.ScanWeather(ctx, store.PredicateSet{
		store.In(store.FieldPodID, []string{"pod-1"}),
	}, 0)
	require.NoError(t, err)
	require.Empty(t, got)

	n, err := s.Count(ctx, store.KindWeather, store.PredicateSet{
		store.Eq(store.FieldPodID, "pod-1"),
	})
	require.NoError(t, err)
	require.Zero(t, n)

	// Fields weather does carry keep filtering.
	got, err = s.ScanWeather(ctx, store.PredicateSet{
		store.Eq(store.FieldSwarmName, "swarm-a"),
	}, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestQueriesObserveDuration(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Count(context.Background(), store.KindFrames, nil)
	require.NoError(t, err)

	require.Positive(t, testutil.CollectAndCount(metrics.StoreQueryDuration))
}
