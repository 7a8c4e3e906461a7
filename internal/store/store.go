// Package store defines the record-query capability the aggregation engine
// consumes. Two storage shapes implement it: relational (sqlite) and
// document (redisjson); memstore backs tests and local demos. The engine
// depends only on the interfaces here.
package store

import (
	"context"
	"time"

	"github.com/florasense/podserver/internal/model"
)

// Kind selects an event collection.
type Kind string

const (
	KindFrames    Kind = "frames"
	KindSpecimens Kind = "specimens"
	KindWeather   Kind = "weather"
)

// Querier is the read capability: predicate-filtered scan, grouped count
// aggregation, distinct values, and nearest-by-time lookups. All methods
// are safe for concurrent use and return point-in-time snapshots.
type Querier interface {
	// ScanSpecimens returns specimen events matching pred, ordered by
	// timestamp ascending. limit <= 0 means no limit.
	ScanSpecimens(ctx context.Context, pred PredicateSet, limit int) ([]model.SpecimenEvent, error)

	// ScanWeather returns weather samples matching pred, ordered by
	// timestamp ascending. limit <= 0 means no limit.
	ScanWeather(ctx context.Context, pred PredicateSet, limit int) ([]model.WeatherSample, error)

	// Count returns the number of events of the given kind matching pred.
	Count(ctx context.Context, kind Kind, pred PredicateSet) (int64, error)

	// GroupedCount counts matching events grouped by the given field.
	// Records with an empty group value are excluded.
	GroupedCount(ctx context.Context, kind Kind, groupBy Field, pred PredicateSet) (map[string]int64, error)

	// GroupedBinnedCount counts matching events per group value per bin
	// index of the grid. Events outside the grid are dropped. Only
	// non-zero cells are present in the result.
	GroupedBinnedCount(ctx context.Context, kind Kind, groupBy Field, grid model.BinGrid, pred PredicateSet) (map[string]map[int]int64, error)

	// DistinctValues returns the distinct non-empty values of a field
	// across the full population of the given kind, sorted ascending.
	DistinctValues(ctx context.Context, kind Kind, field Field) ([]string, error)

	// DistinctDates returns the distinct calendar dates (UTC, YYYY-MM-DD)
	// on which events of the given kind occurred, sorted ascending.
	DistinctDates(ctx context.Context, kind Kind) ([]string, error)

	// RecentLocation returns the coordinates of the most recent specimen
	// event for the pod that carries non-null coordinates, or nil if the
	// pod has never reported any.
	RecentLocation(ctx context.Context, podID string) (*model.Location, error)

	// ActivePods returns the pod states whose last_seen is at or after
	// cutoff, ordered by pod id.
	ActivePods(ctx context.Context, cutoff time.Time) ([]model.PodState, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
}

// Writer is the ingestion-side capability. The aggregation engine never
// writes; only the ingest consumer and tests do.
type Writer interface {
	InsertFrame(ctx context.Context, ev model.FrameEvent) error
	InsertSpecimen(ctx context.Context, ev model.SpecimenEvent) error
	InsertWeather(ctx context.Context, s model.WeatherSample) error
	UpsertPodState(ctx context.Context, p model.PodState) error
}
