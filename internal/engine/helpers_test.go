package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/florasense/podserver/internal/model"
	"github.com/florasense/podserver/internal/store/memstore"
)

// seedSpecimens inserts n specimen events for the taxon, one per minute
// starting at ts.
func seedSpecimens(t *testing.T, s *memstore.Store, taxonID, podID string, ts time.Time, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, s.InsertSpecimen(context.Background(), model.SpecimenEvent{
			Timestamp:      ts.Add(time.Duration(i) * time.Minute),
			PodID:          podID,
			SwarmName:      "swarm-a",
			RunName:        "run-1",
			LocName:        "orchard",
			DetectionClass: "insect",
			DetectionScore: 0.9,
			TaxonID:        taxonID,
			TaxonName:      "taxon " + taxonID,
			TaxonScore:     0.8,
			TaxonRank:      "L10",
		}))
	}
}

func seedFrames(t *testing.T, s *memstore.Store, podID string, ts time.Time, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, s.InsertFrame(context.Background(), model.FrameEvent{
			Timestamp: ts.Add(time.Duration(i) * time.Minute),
			PodID:     podID,
			SwarmName: "swarm-a",
			RunName:   "run-1",
			LocName:   "orchard",
		}))
	}
}

func f64(v float64) *float64 { return &v }

func str(v string) *string { return &v }
