package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/florasense/podserver/internal/engine"
	"github.com/florasense/podserver/internal/store/memstore"
)

func TestTimelineDataFiltersAndProjects(t *testing.T) {
	s := memstore.New()
	base := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

	seedSpecimens(t, s, "popular", "pod-1", base, 5)
	seedSpecimens(t, s, "popular", "pod-2", base, 5)
	seedSpecimens(t, s, "rare", "pod-1", base, 1)

	e := engine.New(s, engine.Options{PopularityMinCount: 5})
	q := engine.TimelineQuery{
		StartDate: "2026-06-01",
		EndDate:   "2026-06-02",
		PodIDs:    []string{"pod-1"},
	}

	entries, err := e.TimelineData(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, entries, 5, "pod-1's popular specimens only; the rare taxon is suppressed")

	first := entries[0]
	require.Equal(t, "pod-1", first.PodID)
	require.Equal(t, "taxon popular", first.TaxonName)
	require.Equal(t, "2026-06-01T08:00:00.000000", first.Timestamp)

	// Timestamp ascending.
	for i := 1; i < len(entries); i++ {
		require.LessOrEqual(t, entries[i-1].Timestamp, entries[i].Timestamp)
	}
}

func TestTimelineDataEmptySupportedSet(t *testing.T) {
	s := memstore.New()
	seedSpecimens(t, s, "rare", "pod-1", time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC), 2)

	e := engine.New(s, engine.Options{PopularityMinCount: 50})
	entries, err := e.TimelineData(context.Background(), engine.TimelineQuery{})
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestTimelineDataHonorsScanLimit(t *testing.T) {
	s := memstore.New()
	seedSpecimens(t, s, "popular", "pod-1", time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC), 30)

	e := engine.New(s, engine.Options{PopularityMinCount: 1, ScanLimit: 10})
	entries, err := e.TimelineData(context.Background(), engine.TimelineQuery{})
	require.NoError(t, err)
	require.Len(t, entries, 10)
}
