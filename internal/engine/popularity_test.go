package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/florasense/podserver/internal/engine"
	"github.com/florasense/podserver/internal/store/memstore"
)

func TestSupportedTaxaClosedLowerBound(t *testing.T) {
	s := memstore.New()
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	// Taxon A sits one short of the threshold, taxon B exactly on it,
	// taxon C well above.
	seedSpecimens(t, s, "A", "pod-1", base, 24)
	seedSpecimens(t, s, "B", "pod-1", base, 25)
	seedSpecimens(t, s, "C", "pod-2", base, 40)

	e := engine.New(s, engine.Options{})
	taxa, err := e.SupportedTaxa(context.Background(), 25)
	require.NoError(t, err)
	require.Equal(t, []string{"B", "C"}, taxa)
}

func TestSupportedTaxaIgnoresQueryFilters(t *testing.T) {
	// Support counts run over the full population, not the filtered
	// window: a taxon popular overall stays supported even if the
	// current window holds few of its records.
	s := memstore.New()
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	seedSpecimens(t, s, "A", "pod-1", base, 30)

	e := engine.New(s, engine.Options{})
	taxa, err := e.SupportedTaxa(context.Background(), 25)
	require.NoError(t, err)
	require.Equal(t, []string{"A"}, taxa)
}

func TestSupportedTaxaEmptyPopulation(t *testing.T) {
	e := engine.New(memstore.New(), engine.Options{})
	taxa, err := e.SupportedTaxa(context.Background(), 25)
	require.NoError(t, err)
	require.Empty(t, taxa)
}
