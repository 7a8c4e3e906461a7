package engine

import (
	"context"
	"time"

	"github.com/florasense/podserver/internal/model"
)

// WeatherPoint pairs a bin midpoint with its nearest sample's fields.
type WeatherPoint struct {
	TimeBinMidpoint string         `json:"time_bin_midpoint"`
	Data            map[string]any `json:"data"`
}

// WeatherTimeline matches the single closest-in-time weather sample to
// each bin midpoint of the query's window. Midpoints with no candidate
// sample are omitted; sparse weather has no meaningful zero. When fields
// is non-empty the sample is projected to that subset; null fields are
// dropped in either mode.
func (e *Engine) WeatherTimeline(ctx context.Context, q TimelineQuery, nBins int, fields []string) ([]WeatherPoint, error) {
	start, end, err := q.Window()
	if err != nil {
		return nil, err
	}
	bins, err := Partition(start, end, nBins)
	if err != nil {
		return nil, err
	}

	preds, err := q.Predicates()
	if err != nil {
		return nil, err
	}

	// ScanWeather returns samples in timestamp order, which keeps the
	// first-encountered tie-break deterministic.
	samples, err := e.store.ScanWeather(ctx, preds, e.opts.ScanLimit)
	if err != nil {
		return nil, err
	}

	return nearestSamples(samples, bins, fields), nil
}

// nearestSamples performs the per-midpoint scan. O(samples × bins), fine
// at the bounded spans in scope; a pre-sorted binary search would be a
// drop-in replacement as long as the selection semantics stay identical.
func nearestSamples(samples []model.WeatherSample, bins []model.TimeBin, fields []string) []WeatherPoint {
	out := make([]WeatherPoint, 0, len(bins))
	if len(samples) == 0 {
		return out
	}

	for _, bin := range bins {
		best := 0
		bestDist := absDuration(samples[0].Timestamp.Sub(bin.Midpoint))
		for i := 1; i < len(samples); i++ {
			d := absDuration(samples[i].Timestamp.Sub(bin.Midpoint))
			if d < bestDist {
				best, bestDist = i, d
			}
		}

		data := samples[best].FieldMap()
		if len(fields) > 0 {
			data = project(data, fields)
		}
		out = append(out, WeatherPoint{
			TimeBinMidpoint: model.FormatTimestamp(bin.Midpoint),
			Data:            data,
		})
	}
	return out
}

func project(data map[string]any, fields []string) map[string]any {
	m := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := data[f]; ok {
			m[f] = v
		}
	}
	return m
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
