package engine

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/florasense/podserver/internal/model"
	"github.com/florasense/podserver/internal/store"
)

// statusFanout bounds the per-pod sub-query concurrency.
const statusFanout = 8

// SwarmStatus derives one status snapshot per live pod: pods whose
// last_seen is older than the liveness threshold are omitted entirely,
// not flagged inactive. For each live pod, total_frames is recomputed
// from frame events over the lookback window (the state record's counter
// drifts) and the location is resolved from the most recent specimen
// event with coordinates, independent of the possibly stale state record.
// The frame recount and location lookup for all pods fan out concurrently
// and join before the result is assembled.
//
// An empty pod population returns a single snapshot with every field
// null. Downstream consumers key off the non-empty sentinel; do not
// "fix" this to an empty slice.
func (e *Engine) SwarmStatus(ctx context.Context, now time.Time) ([]model.StatusSnapshot, error) {
	cutoff := now.Add(-e.opts.LivenessThreshold)
	pods, err := e.store.ActivePods(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	if len(pods) == 0 {
		return []model.StatusSnapshot{{}}, nil
	}

	frameCounts := make([]int64, len(pods))
	locations := make([]*model.Location, len(pods))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statusFanout)
	for i := range pods {
		i := i
		podID := pods[i].PodID
		g.Go(func() error {
			n, err := e.store.Count(gctx, store.KindFrames, store.PredicateSet{
				store.Eq(store.FieldPodID, podID),
				store.Gte(store.FieldTimestamp, now.Add(-e.opts.FrameLookback)),
			})
			frameCounts[i] = n
			return err
		})
		g.Go(func() error {
			loc, err := e.store.RecentLocation(gctx, podID)
			locations[i] = loc
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]model.StatusSnapshot, len(pods))
	for i, pod := range pods {
		snap := model.StatusSnapshot{
			PodID:              ptr(pod.PodID),
			ConnectionStatus:   pod.ConnectionStatus,
			RSSI:               pod.RSSI,
			StreamType:         pod.StreamType,
			LocName:            pod.LocName,
			QueueLength:        pod.QueueLength,
			TotalFrames:        ptr(frameCounts[i]),
			LastDetectionClass: pod.LastDetectionClass,
			LastTaxonClass:     pod.LastTaxonClass,
			TotalSpecimens:     pod.TotalSpecimens,
		}
		if loc := locations[i]; loc != nil {
			snap.LocLat = ptr(loc.Latitude)
			snap.LocLon = ptr(loc.Longitude)
		}
		if pod.LastSeen != nil {
			snap.LastSeen = ptr(model.FormatTimestamp(*pod.LastSeen))
			snap.TimeSinceLastSeen = ptr(now.Sub(*pod.LastSeen).Minutes())
		}
		if pod.LastSpecimenAt != nil {
			snap.LastSpecimenCreatedTime = ptr(model.FormatTimestamp(*pod.LastSpecimenAt))
			snap.TimeSinceLastSpecimen = ptr(now.Sub(*pod.LastSpecimenAt).Minutes())
		}
		out[i] = snap
	}
	return out, nil
}

func ptr[T any](v T) *T { return &v }
