package engine

import (
	"time"

	"github.com/florasense/podserver/internal/store"
)

// speciesRank is the taxonomic rank assigned when classification reached
// species level.
const speciesRank = "L10"

// TimelineQuery carries the optional, typed filter arguments of a
// timeline request. Zero values mean "no filter": empty strings and
// slices add no clause, and a score threshold of exactly 0.0 is treated
// as unfiltered. Callers have long depended on the 0.0 behavior, so it
// is reproduced here as-is.
type TimelineQuery struct {
	// StartDate and EndDate accept date-only (2006-01-02) or full
	// timestamp strings. The range is inclusive on both ends.
	StartDate string
	EndDate   string

	PodIDs    []string
	Location  string
	SwarmName string
	RunName   string

	// SpeciesOnly restricts to records classified at species rank.
	SpeciesOnly bool

	// Inclusive lower bounds, applied only when strictly greater than 0.
	DetectionScoreMin    float64
	TaxonScoreMin        float64
	PlausibilityScoreMin float64
}

// Window parses the query's date range. Both bounds must be present.
func (q TimelineQuery) Window() (start, end time.Time, err error) {
	start, err = ParseTimestamp(q.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = ParseTimestamp(q.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// Predicates folds the set parameters into a conjunction of field-level
// predicates. Unset parameters contribute no clause. The result is
// composable: callers append further constraints (e.g. the popularity
// filter's taxon set) before handing it to the store.
func (q TimelineQuery) Predicates() (store.PredicateSet, error) {
	var preds store.PredicateSet

	if q.StartDate != "" {
		start, err := ParseTimestamp(q.StartDate)
		if err != nil {
			return nil, err
		}
		preds = append(preds, store.Gte(store.FieldTimestamp, start))
	}
	if q.EndDate != "" {
		end, err := ParseTimestamp(q.EndDate)
		if err != nil {
			return nil, err
		}
		preds = append(preds, store.Lte(store.FieldTimestamp, end))
	}
	if len(q.PodIDs) > 0 {
		preds = append(preds, store.In(store.FieldPodID, q.PodIDs))
	}
	if q.Location != "" {
		preds = append(preds, store.Eq(store.FieldLocName, q.Location))
	}
	if q.SwarmName != "" {
		preds = append(preds, store.Eq(store.FieldSwarmName, q.SwarmName))
	}
	if q.RunName != "" {
		preds = append(preds, store.Eq(store.FieldRunName, q.RunName))
	}
	if q.SpeciesOnly {
		preds = append(preds, store.Eq(store.FieldTaxonRank, speciesRank))
	}
	if q.DetectionScoreMin > 0.0 {
		preds = append(preds, store.Gte(store.FieldDetectionScore, q.DetectionScoreMin))
	}
	if q.TaxonScoreMin > 0.0 {
		preds = append(preds, store.Gte(store.FieldTaxonScore, q.TaxonScoreMin))
	}
	if q.PlausibilityScoreMin > 0.0 {
		preds = append(preds, store.Gte(store.FieldPlausibilityScore, q.PlausibilityScoreMin))
	}

	return preds, nil
}
