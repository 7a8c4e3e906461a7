package engine

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/florasense/podserver/internal/model"
	"github.com/florasense/podserver/internal/store"
)

// BinnedCount is one cell of the dense (groups × bins) activity matrix.
type BinnedCount struct {
	Midpoint   time.Time
	GroupField store.Field
	Group      string
	Count      int64
}

// MarshalJSON flattens the cell to the wire shape
// {time_bin_midpoint, count, <group_field>: <group>}.
func (b BinnedCount) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"time_bin_midpoint":  model.FormatTimestamp(b.Midpoint),
		"count":              b.Count,
		string(b.GroupField): b.Group,
	})
}

// ActivityTimeline counts events per group value per time bin over the
// query's window, dense and zero-filled: every group value observed in
// the full population appears with a count for every bin, so "pod
// reported zero in this window" rows survive. Counts come from a single
// grouped, bin-bucketed aggregation over the filtered event set. Output
// is ordered by bin midpoint ascending, then group value ascending.
//
// For specimen events the popularity filter applies: taxa below the
// support threshold are suppressed, and an empty supported set yields an
// empty result.
func (e *Engine) ActivityTimeline(ctx context.Context, kind store.Kind, groupBy store.Field, q TimelineQuery, nBins int) ([]BinnedCount, error) {
	start, end, err := q.Window()
	if err != nil {
		return nil, err
	}
	g, err := grid(start, end, nBins)
	if err != nil {
		return nil, err
	}

	preds, err := q.Predicates()
	if err != nil {
		return nil, err
	}

	var popular []string
	if kind == store.KindSpecimens {
		popular, err = e.SupportedTaxa(ctx, e.opts.PopularityMinCount)
		if err != nil {
			return nil, err
		}
		if len(popular) == 0 {
			return []BinnedCount{}, nil
		}
		preds = append(preds, store.In(store.FieldTaxonID, popular))
	}

	groups, err := e.store.DistinctValues(ctx, kind, groupBy)
	if err != nil {
		return nil, err
	}
	if kind == store.KindSpecimens && groupBy == store.FieldTaxonID {
		groups = intersect(groups, popular)
	}
	sort.Strings(groups)

	counts, err := e.store.GroupedBinnedCount(ctx, kind, groupBy, g, preds)
	if err != nil {
		return nil, err
	}

	bins := g.Bins()
	out := make([]BinnedCount, 0, len(groups)*len(bins))
	for i, bin := range bins {
		for _, group := range groups {
			out = append(out, BinnedCount{
				Midpoint:   bin.Midpoint,
				GroupField: groupBy,
				Group:      group,
				Count:      counts[group][i],
			})
		}
	}
	return out, nil
}

func intersect(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, v := range b {
		in[v] = true
	}
	out := a[:0]
	for _, v := range a {
		if in[v] {
			out = append(out, v)
		}
	}
	return out
}
