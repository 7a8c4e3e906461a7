package engine

import (
	"context"

	"github.com/florasense/podserver/internal/model"
	"github.com/florasense/podserver/internal/store"
)

// TimelineEntry is one specimen record projected to the dashboard wire
// shape.
type TimelineEntry struct {
	Timestamp         string   `json:"timestamp"`
	PodID             string   `json:"pod_id"`
	SwarmName         string   `json:"swarm_name"`
	RunName           string   `json:"run_name"`
	LocName           string   `json:"loc_name"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	TaxonName         string   `json:"taxon_name"`
	TaxonScore        float64  `json:"taxon_score"`
	TaxonRank         string   `json:"taxon_rank"`
	PlausibilityScore float64  `json:"plausibility_score"`
	DetectionClass    string   `json:"detection_class"`
}

// TimelineData returns the filtered specimen records, capped at the scan
// limit, restricted to taxa meeting the popularity support threshold. An
// unsupported (empty) taxon set short-circuits to an empty result.
func (e *Engine) TimelineData(ctx context.Context, q TimelineQuery) ([]TimelineEntry, error) {
	preds, err := q.Predicates()
	if err != nil {
		return nil, err
	}

	popular, err := e.SupportedTaxa(ctx, e.opts.PopularityMinCount)
	if err != nil {
		return nil, err
	}
	if len(popular) == 0 {
		return []TimelineEntry{}, nil
	}
	preds = append(preds, store.In(store.FieldTaxonID, popular))

	records, err := e.store.ScanSpecimens(ctx, preds, e.opts.ScanLimit)
	if err != nil {
		return nil, err
	}

	out := make([]TimelineEntry, len(records))
	for i, r := range records {
		out[i] = TimelineEntry{
			Timestamp:         model.FormatTimestamp(r.Timestamp),
			PodID:             r.PodID,
			SwarmName:         r.SwarmName,
			RunName:           r.RunName,
			LocName:           r.LocName,
			Latitude:          r.Latitude,
			Longitude:         r.Longitude,
			TaxonName:         r.TaxonName,
			TaxonScore:        r.TaxonScore,
			TaxonRank:         r.TaxonRank,
			PlausibilityScore: r.PlausibilityScore,
			DetectionClass:    r.DetectionClass,
		}
	}
	return out, nil
}
