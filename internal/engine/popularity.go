package engine

import (
	"context"
	"sort"

	"github.com/florasense/podserver/internal/store"
)

// SupportedTaxa returns the taxon ids that occur at least minCount times
// in the full specimen population (the bound is closed: a count exactly
// equal to minCount is retained). The counting runs as a single grouped
// aggregation in the store. An empty population yields an empty set, and
// downstream timeline calls then return empty results rather than erroring.
func (e *Engine) SupportedTaxa(ctx context.Context, minCount int64) ([]string, error) {
	counts, err := e.store.GroupedCount(ctx, store.KindSpecimens, store.FieldTaxonID, nil)
	if err != nil {
		return nil, err
	}

	taxa := make([]string, 0, len(counts))
	for id, n := range counts {
		if n >= minCount {
			taxa = append(taxa, id)
		}
	}
	sort.Strings(taxa)
	return taxa, nil
}
