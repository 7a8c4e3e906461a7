package engine_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/florasense/podserver/internal/engine"
)

func TestPartitionTilesWindowExactly(t *testing.T) {
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(10 * time.Hour)

	bins, err := engine.Partition(start, end, 5)
	require.NoError(t, err)
	require.Len(t, bins, 5)

	require.Equal(t, start, bins[0].Start)
	require.Equal(t, end, bins[len(bins)-1].End)
	for i, bin := range bins {
		require.Equal(t, 2*time.Hour, bin.End.Sub(bin.Start), "bin %d width", i)
		require.Equal(t, bin.Start.Add(time.Hour), bin.Midpoint, "bin %d midpoint", i)
		if i > 0 {
			require.Equal(t, bins[i-1].End, bin.Start, "bin %d must start where bin %d ends", i, i-1)
		}
	}
}

func TestPartitionSingleBin(t *testing.T) {
	start := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	bins, err := engine.Partition(start, end, 1)
	require.NoError(t, err)
	require.Len(t, bins, 1)
	require.Equal(t, start, bins[0].Start)
	require.Equal(t, end, bins[0].End)
	require.Equal(t, start.Add(15*time.Minute), bins[0].Midpoint)
}

func TestPartitionRejectsInvalidWindows(t *testing.T) {
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		n     int
	}{
		{"end equals start", base, base, 4},
		{"end before start", base, base.Add(-time.Hour), 4},
		{"zero bins", base, base.Add(time.Hour), 0},
		{"negative bins", base, base.Add(time.Hour), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Partition(tt.start, tt.end, tt.n)
			var windowErr *engine.InvalidWindowError
			require.ErrorAs(t, err, &windowErr)
		})
	}
}
