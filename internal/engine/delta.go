package engine

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/florasense/podserver/internal/store"
)

// DeltaStats compares event volume across a sliding pair of equal-length
// windows.
type DeltaStats struct {
	Current  int64   `json:"current"`
	Previous int64   `json:"previous"`
	Change   float64 `json:"change"`
}

// LogStats counts events of the given kind in [now-span, now) and in the
// immediately preceding window [now-2*span, now-span), and reports the
// percentage change. Change is exactly 0 when the previous window is
// empty; that is an explicit convention, not an error. Both counts run through
// the same predicate pipeline with only the time bounds swapped, and are
// issued concurrently.
func (e *Engine) LogStats(ctx context.Context, kind store.Kind, span time.Duration, now time.Time, q TimelineQuery) (*DeltaStats, error) {
	if span <= 0 {
		return nil, &InvalidWindowError{Start: now.Add(-span), End: now}
	}

	base, err := q.Predicates()
	if err != nil {
		return nil, err
	}

	spanAgo := now.Add(-span)
	prevSpanAgo := spanAgo.Add(-span)

	stats := &DeltaStats{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := e.store.Count(gctx, kind, windowPredicates(base, spanAgo, now))
		stats.Current = n
		return err
	})
	g.Go(func() error {
		n, err := e.store.Count(gctx, kind, windowPredicates(base, prevSpanAgo, spanAgo))
		stats.Previous = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if stats.Previous > 0 {
		stats.Change = float64(stats.Current-stats.Previous) / float64(stats.Previous) * 100
	}
	return stats, nil
}

// WindowCount counts events of the given kind in [now-span, now) with no
// comparison window.
func (e *Engine) WindowCount(ctx context.Context, kind store.Kind, span time.Duration, now time.Time, q TimelineQuery) (int64, error) {
	if span <= 0 {
		return 0, &InvalidWindowError{Start: now.Add(-span), End: now}
	}
	base, err := q.Predicates()
	if err != nil {
		return 0, err
	}
	return e.store.Count(ctx, kind, windowPredicates(base, now.Add(-span), now))
}

// windowPredicates appends [start, end) time bounds to a copy of base.
func windowPredicates(base store.PredicateSet, start, end time.Time) store.PredicateSet {
	preds := make(store.PredicateSet, len(base), len(base)+2)
	copy(preds, base)
	return append(preds,
		store.Gte(store.FieldTimestamp, start),
		store.Lt(store.FieldTimestamp, end),
	)
}
