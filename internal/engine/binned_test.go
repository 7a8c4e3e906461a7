package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/florasense/podserver/internal/engine"
	"github.com/florasense/podserver/internal/store"
	"github.com/florasense/podserver/internal/store/memstore"
)

func TestActivityTimelineDenseZeroFilled(t *testing.T) {
	s := memstore.New()
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	// pod-1 active in the first hour only; pod-2 silent all day but
	// present in the population, so its zero rows must survive.
	seedFrames(t, s, "pod-1", base.Add(10*time.Minute), 3)
	seedFrames(t, s, "pod-2", base.Add(-24*time.Hour), 1)

	e := engine.New(s, engine.Options{})
	q := engine.TimelineQuery{StartDate: "2026-06-01", EndDate: "2026-06-02"}

	cells, err := e.ActivityTimeline(context.Background(), store.KindFrames, store.FieldPodID, q, 4)
	require.NoError(t, err)
	require.Len(t, cells, 8, "2 groups x 4 bins, dense")

	// Ordered by midpoint then group.
	for i := 0; i < len(cells); i += 2 {
		require.Equal(t, "pod-1", cells[i].Group)
		require.Equal(t, "pod-2", cells[i+1].Group)
		require.Equal(t, cells[i].Midpoint, cells[i+1].Midpoint)
		if i > 0 {
			require.True(t, cells[i].Midpoint.After(cells[i-2].Midpoint))
		}
	}

	require.Equal(t, int64(3), cells[0].Count, "pod-1 first bin")
	require.Equal(t, int64(0), cells[1].Count, "pod-2 zero-filled")
	for _, c := range cells[2:] {
		require.Equal(t, int64(0), c.Count)
	}
}

func TestActivityTimelineSpecimensApplyPopularityFilter(t *testing.T) {
	s := memstore.New()
	base := time.Date(2026, 6, 1, 6, 0, 0, 0, time.UTC)

	seedSpecimens(t, s, "popular", "pod-1", base, 5)
	seedSpecimens(t, s, "rare", "pod-1", base, 1)

	e := engine.New(s, engine.Options{PopularityMinCount: 5})
	q := engine.TimelineQuery{StartDate: "2026-06-01", EndDate: "2026-06-02"}

	cells, err := e.ActivityTimeline(context.Background(), store.KindSpecimens, store.FieldTaxonID, q, 2)
	require.NoError(t, err)
	require.Len(t, cells, 2, "only the supported taxon appears")
	for _, c := range cells {
		require.Equal(t, "popular", c.Group)
	}
	require.Equal(t, int64(5), cells[0].Count+cells[1].Count)
}

func TestActivityTimelineEmptySupportedSet(t *testing.T) {
	s := memstore.New()
	base := time.Date(2026, 6, 1, 6, 0, 0, 0, time.UTC)
	seedSpecimens(t, s, "rare", "pod-1", base, 2)

	e := engine.New(s, engine.Options{PopularityMinCount: 100})
	q := engine.TimelineQuery{StartDate: "2026-06-01", EndDate: "2026-06-02"}

	cells, err := e.ActivityTimeline(context.Background(), store.KindSpecimens, store.FieldTaxonID, q, 4)
	require.NoError(t, err)
	require.Empty(t, cells)
}

func TestActivityTimelineInvalidWindow(t *testing.T) {
	e := engine.New(memstore.New(), engine.Options{})
	q := engine.TimelineQuery{StartDate: "2026-06-02", EndDate: "2026-06-01"}

	_, err := e.ActivityTimeline(context.Background(), store.KindFrames, store.FieldPodID, q, 4)
	var windowErr *engine.InvalidWindowError
	require.ErrorAs(t, err, &windowErr)
}

func TestBinnedCountWireShape(t *testing.T) {
	cell := engine.BinnedCount{
		Midpoint:   time.Date(2026, 6, 1, 3, 0, 0, 0, time.UTC),
		GroupField: store.FieldPodID,
		Group:      "pod-1",
		Count:      7,
	}
	raw, err := cell.MarshalJSON()
	require.NoError(t, err)
	require.JSONEq(t,
		`{"time_bin_midpoint":"2026-06-01T03:00:00.000000","count":7,"pod_id":"pod-1"}`,
		string(raw))
}
