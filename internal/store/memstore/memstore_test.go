package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/florasense/podserver/internal/model"
	"github.com/florasense/podserver/internal/store"
)

func insertFrame(t *testing.T, s *Store, ts time.Time, podID string) {
	t.Helper()
	require.NoError(t, s.InsertFrame(context.Background(), model.FrameEvent{
		Timestamp: ts,
		PodID:     podID,
	}))
}

func TestGroupedBinnedCountDropsOutOfGridEvents(t *testing.T) {
	s := New()
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	grid := model.BinGrid{Start: start, Width: time.Hour, N: 2}

	// Integer division truncates toward zero: a timestamp 1s before the
	// grid start must not land in bin 0.
	insertFrame(t, s, start.Add(-time.Second), "pod-1")
	insertFrame(t, s, start, "pod-1")
	insertFrame(t, s, start.Add(time.Hour), "pod-1")
	insertFrame(t, s, start.Add(2*time.Hour), "pod-1") // at grid end, excluded

	counts, err := s.GroupedBinnedCount(context.Background(), store.KindFrames, store.FieldPodID, grid, nil)
	require.NoError(t, err)
	require.Equal(t, map[string]map[int]int64{
		"pod-1": {0: 1, 1: 1},
	}, counts)
}

func TestScanSpecimensMatchOperators(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.InsertSpecimen(ctx, model.SpecimenEvent{
		Timestamp: base, PodID: "pod-1", TaxonID: "A", TaxonScore: 0.9,
	}))
	require.NoError(t, s.InsertSpecimen(ctx, model.SpecimenEvent{
		Timestamp: base.Add(time.Hour), PodID: "pod-2", TaxonID: "B", TaxonScore: 0.3,
	}))

	got, err := s.ScanSpecimens(ctx, store.PredicateSet{
		store.Gte(store.FieldTaxonScore, 0.5),
	}, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "pod-1", got[0].PodID)

	got, err = s.ScanSpecimens(ctx, store.PredicateSet{
		store.In(store.FieldPodID, []string{"pod-2", "pod-3"}),
	}, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "pod-2", got[0].PodID)

	got, err = s.ScanSpecimens(ctx, store.PredicateSet{
		store.In(store.FieldPodID, nil),
	}, 0)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestScanWeatherIgnoresFieldsItDoesNotCarry(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.InsertWeather(ctx, model.WeatherSample{
		Timestamp: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC),
		SwarmName: "swarm-a",
	}))

	// Weather samples have no pod identity: a pod_id filter matches nothing.
	got, err := s.ScanWeather(ctx, store.PredicateSet{
		store.In(store.FieldPodID, []string{"pod-1"}),
	}, 0)
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = s.ScanWeather(ctx, store.PredicateSet{
		store.Eq(store.FieldSwarmName, "swarm-a"),
	}, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestActivePodsSortedByPodID(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Date(2026, 6, 2, 12, 0, 0, 0, time.UTC)
	seen := now.Add(-time.Minute)

	for _, id := range []string{"pod-c", "pod-a", "pod-b"} {
		require.NoError(t, s.UpsertPodState(ctx, model.PodState{PodID: id, LastSeen: &seen}))
	}

	pods, err := s.ActivePods(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, pods, 3)
	require.Equal(t, "pod-a", pods[0].PodID)
	require.Equal(t, "pod-b", pods[1].PodID)
	require.Equal(t, "pod-c", pods[2].PodID)
}
