// Package engine implements the time-windowed aggregation and
// status-derivation core of the pod dashboard: dynamic predicate
// construction, popularity support filtering, time-bin partitioning,
// dense binned counting, nearest-sample matching for sparse weather
// series, sliding-window delta stats, and per-pod status snapshots.
//
// Every operation is a pure function of (store, parameters): the engine
// holds no mutable state, performs no retries, and does not log. Store
// errors propagate unchanged; input errors surface as *ParseError or
// *InvalidWindowError at the component boundary.
package engine

import (
	"context"
	"time"

	"github.com/florasense/podserver/internal/store"
)

// Options tune the engine's derived views. Zero values fall back to the
// defaults below.
type Options struct {
	// LivenessThreshold is the maximum age of last_seen for a pod to be
	// included in swarm status.
	LivenessThreshold time.Duration

	// FrameLookback is the window over which total_frames is recomputed
	// from frame events instead of trusting the pod's own counter.
	FrameLookback time.Duration

	// PopularityMinCount is the closed lower bound on occurrences for a
	// taxon to be retained in timeline output.
	PopularityMinCount int64

	// ScanLimit caps filtered record scans.
	ScanLimit int
}

const (
	defaultLivenessThreshold  = 10000 * time.Minute
	defaultFrameLookback      = 24 * time.Hour
	defaultPopularityMinCount = 25
	defaultScanLimit          = 5000
)

// Engine computes dashboard views from a record store. Safe for
// arbitrarily many concurrent calls.
type Engine struct {
	store store.Querier
	opts  Options
}

// New returns an engine over the given query capability.
func New(q store.Querier, opts Options) *Engine {
	if opts.LivenessThreshold <= 0 {
		opts.LivenessThreshold = defaultLivenessThreshold
	}
	if opts.FrameLookback <= 0 {
		opts.FrameLookback = defaultFrameLookback
	}
	if opts.PopularityMinCount <= 0 {
		opts.PopularityMinCount = defaultPopularityMinCount
	}
	if opts.ScanLimit <= 0 {
		opts.ScanLimit = defaultScanLimit
	}
	return &Engine{store: q, opts: opts}
}

// TaxonNames returns the distinct taxon names across all specimens.
func (e *Engine) TaxonNames(ctx context.Context) ([]string, error) {
	return e.store.DistinctValues(ctx, store.KindSpecimens, store.FieldTaxonName)
}

// PodIDs returns the distinct pod ids across all specimens.
func (e *Engine) PodIDs(ctx context.Context) ([]string, error) {
	return e.store.DistinctValues(ctx, store.KindSpecimens, store.FieldPodID)
}

// Locations returns the distinct location names across all specimens.
func (e *Engine) Locations(ctx context.Context) ([]string, error) {
	return e.store.DistinctValues(ctx, store.KindSpecimens, store.FieldLocName)
}

// Swarms returns the distinct swarm names across all specimens.
func (e *Engine) Swarms(ctx context.Context) ([]string, error) {
	return e.store.DistinctValues(ctx, store.KindSpecimens, store.FieldSwarmName)
}

// Runs returns the distinct run names across all specimens.
func (e *Engine) Runs(ctx context.Context) ([]string, error) {
	return e.store.DistinctValues(ctx, store.KindSpecimens, store.FieldRunName)
}

// Dates returns the sorted distinct dates with specimen activity.
func (e *Engine) Dates(ctx context.Context) ([]string, error) {
	return e.store.DistinctDates(ctx, store.KindSpecimens)
}
