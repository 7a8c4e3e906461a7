package model

import "time"

// TimeBin is one fixed-width sub-interval of a larger window.
// The interval is half-open: [Start, End).
type TimeBin struct {
	Start    time.Time
	End      time.Time
	Midpoint time.Time
}

// BinGrid describes N contiguous, equal-width bins starting at Start.
// The width is computed once by the partitioner; bins are pure duration
// arithmetic, never rounded to calendar units.
type BinGrid struct {
	Start time.Time
	Width time.Duration
	N     int
}

// End returns the exclusive end of the grid.
func (g BinGrid) End() time.Time {
	return g.Start.Add(time.Duration(g.N) * g.Width)
}

// Index returns the bin index for t, which may fall outside [0, N).
func (g BinGrid) Index(t time.Time) int {
	return int(t.Sub(g.Start) / g.Width)
}

// Bins materializes the grid, ordered by index.
func (g BinGrid) Bins() []TimeBin {
	bins := make([]TimeBin, g.N)
	for i := 0; i < g.N; i++ {
		start := g.Start.Add(time.Duration(i) * g.Width)
		bins[i] = TimeBin{
			Start:    start,
			End:      start.Add(g.Width),
			Midpoint: start.Add(g.Width / 2),
		}
	}
	return bins
}
