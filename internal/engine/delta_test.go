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

func TestLogStatsPercentageChange(t *testing.T) {
	s := memstore.New()
	now := time.Date(2026, 6, 2, 12, 0, 0, 0, time.UTC)

	// 150 frames in the current 24h window, 100 in the one before it.
	seedFrames(t, s, "pod-1", now.Add(-20*time.Hour), 150)
	seedFrames(t, s, "pod-1", now.Add(-40*time.Hour), 100)

	e := engine.New(s, engine.Options{})
	stats, err := e.LogStats(context.Background(), store.KindFrames, 24*time.Hour, now, engine.TimelineQuery{})
	require.NoError(t, err)

	require.Equal(t, int64(150), stats.Current)
	require.Equal(t, int64(100), stats.Previous)
	require.InDelta(t, 50.0, stats.Change, 1e-9)
}

func TestLogStatsEmptyPreviousWindowReportsZeroChange(t *testing.T) {
	s := memstore.New()
	now := time.Date(2026, 6, 2, 12, 0, 0, 0, time.UTC)
	seedFrames(t, s, "pod-1", now.Add(-time.Hour), 10)

	e := engine.New(s, engine.Options{})
	stats, err := e.LogStats(context.Background(), store.KindFrames, 24*time.Hour, now, engine.TimelineQuery{})
	require.NoError(t, err)

	require.Equal(t, int64(10), stats.Current)
	require.Equal(t, int64(0), stats.Previous)
	require.Equal(t, 0.0, stats.Change, "empty previous window is zero change, never a division error")
}

func TestLogStatsWindowsAreHalfOpen(t *testing.T) {
	s := memstore.New()
	now := time.Date(2026, 6, 2, 12, 0, 0, 0, time.UTC)

	// Exactly on the boundary between the two windows: belongs to the
	// current one ([now-span, now)), not the previous.
	seedFrames(t, s, "pod-1", now.Add(-24*time.Hour), 1)
	// Exactly at now: outside the current window.
	seedFrames(t, s, "pod-1", now, 1)

	e := engine.New(s, engine.Options{})
	stats, err := e.LogStats(context.Background(), store.KindFrames, 24*time.Hour, now, engine.TimelineQuery{})
	require.NoError(t, err)

	require.Equal(t, int64(1), stats.Current)
	require.Equal(t, int64(0), stats.Previous)
}

func TestLogStatsRespectsFilters(t *testing.T) {
	s := memstore.New()
	now := time.Date(2026, 6, 2, 12, 0, 0, 0, time.UTC)
	seedSpecimens(t, s, "A", "pod-1", now.Add(-2*time.Hour), 4)
	seedSpecimens(t, s, "A", "pod-2", now.Add(-2*time.Hour), 6)

	e := engine.New(s, engine.Options{})
	q := engine.TimelineQuery{PodIDs: []string{"pod-2"}}
	stats, err := e.LogStats(context.Background(), store.KindSpecimens, 24*time.Hour, now, q)
	require.NoError(t, err)
	require.Equal(t, int64(6), stats.Current)
}

func TestLogStatsRejectsNonPositiveSpan(t *testing.T) {
	e := engine.New(memstore.New(), engine.Options{})
	_, err := e.LogStats(context.Background(), store.KindFrames, 0, time.Now(), engine.TimelineQuery{})
	var windowErr *engine.InvalidWindowError
	require.ErrorAs(t, err, &windowErr)
}

func TestWindowCount(t *testing.T) {
	s := memstore.New()
	now := time.Date(2026, 6, 2, 12, 0, 0, 0, time.UTC)
	seedFrames(t, s, "pod-1", now.Add(-time.Hour), 7)
	seedFrames(t, s, "pod-1", now.Add(-48*time.Hour), 3)

	e := engine.New(s, engine.Options{})
	n, err := e.WindowCount(context.Background(), store.KindFrames, 24*time.Hour, now, engine.TimelineQuery{})
	require.NoError(t, err)
	require.Equal(t, int64(7), n)
}
