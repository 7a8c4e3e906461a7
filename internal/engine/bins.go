package engine

import (
	"time"

	"github.com/florasense/podserver/internal/model"
)

// grid validates the window and builds the bin grid. The width is computed
// once; every bin gets exactly (end-start)/n.
func grid(start, end time.Time, n int) (model.BinGrid, error) {
	if n < 1 || !end.After(start) {
		return model.BinGrid{}, &InvalidWindowError{Start: start, End: end, Bins: n}
	}
	return model.BinGrid{
		Start: start,
		Width: end.Sub(start) / time.Duration(n),
		N:     n,
	}, nil
}

// Partition divides [start, end) into n contiguous, equal-width bins,
// ordered by index. Bin i spans [start+i*w, start+(i+1)*w) with midpoint
// start+i*w+w/2. Returns an *InvalidWindowError when end <= start or n < 1.
func Partition(start, end time.Time, n int) ([]model.TimeBin, error) {
	g, err := grid(start, end, n)
	if err != nil {
		return nil, err
	}
	return g.Bins(), nil
}
