// Package memstore is an in-memory implementation of the store
// capabilities, used by tests and the local demo path. It favors clarity
// over speed: every query is a linear scan over copied slices.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/florasense/podserver/internal/model"
	"github.com/florasense/podserver/internal/store"
)

// Store holds all records in memory. Safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	frames    []model.FrameEvent
	specimens []model.SpecimenEvent
	weather   []model.WeatherSample
	pods      map[string]model.PodState
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{pods: make(map[string]model.PodState)}
}

// --- Writer ---

func (s *Store) InsertFrame(_ context.Context, ev model.FrameEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, ev)
	return nil
}

func (s *Store) InsertSpecimen(_ context.Context, ev model.SpecimenEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.specimens = append(s.specimens, ev)
	return nil
}

func (s *Store) InsertWeather(_ context.Context, w model.WeatherSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weather = append(s.weather, w)
	return nil
}

func (s *Store) UpsertPodState(_ context.Context, p model.PodState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pods[p.PodID] = p
	return nil
}

// --- Querier ---

func (s *Store) ScanSpecimens(_ context.Context, pred store.PredicateSet, limit int) ([]model.SpecimenEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.SpecimenEvent
	for _, ev := range s.specimens {
		if matchAll(pred, specimenGetter(ev)) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ScanWeather(_ context.Context, pred store.PredicateSet, limit int) ([]model.WeatherSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.WeatherSample
	for _, w := range s.weather {
		if matchAll(pred, weatherGetter(w)) {
			out = append(out, w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Count(_ context.Context, kind store.Kind, pred store.PredicateSet) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, v := range s.views(kind) {
		if matchAll(pred, v.get) {
			n++
		}
	}
	return n, nil
}

func (s *Store) GroupedCount(_ context.Context, kind store.Kind, groupBy store.Field, pred store.PredicateSet) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, v := range s.views(kind) {
		if !matchAll(pred, v.get) {
			continue
		}
		if g := stringField(v.get, groupBy); g != "" {
			counts[g]++
		}
	}
	return counts, nil
}

func (s *Store) GroupedBinnedCount(_ context.Context, kind store.Kind, groupBy store.Field, grid model.BinGrid, pred store.PredicateSet) (map[string]map[int]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]map[int]int64)
	for _, v := range s.views(kind) {
		if !matchAll(pred, v.get) {
			continue
		}
		g := stringField(v.get, groupBy)
		if g == "" {
			continue
		}
		// Bound-check before indexing: integer division truncates toward
		// zero, so a timestamp just before the grid start would land in
		// bin 0 otherwise.
		if v.ts.Before(grid.Start) || !v.ts.Before(grid.End()) {
			continue
		}
		idx := grid.Index(v.ts)
		if counts[g] == nil {
			counts[g] = make(map[int]int64)
		}
		counts[g][idx]++
	}
	return counts, nil
}

func (s *Store) DistinctValues(_ context.Context, kind store.Kind, field store.Field) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := make(map[string]bool)
	for _, v := range s.views(kind) {
		if g := stringField(v.get, field); g != "" {
			set[g] = true
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) DistinctDates(_ context.Context, kind store.Kind) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := make(map[string]bool)
	for _, v := range s.views(kind) {
		set[v.ts.UTC().Format(model.DateLayout)] = true
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) RecentLocation(_ context.Context, podID string) (*model.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best *model.SpecimenEvent
	for i := range s.specimens {
		ev := &s.specimens[i]
		if ev.PodID != podID || ev.Latitude == nil || ev.Longitude == nil {
			continue
		}
		if best == nil || ev.Timestamp.After(best.Timestamp) {
			best = ev
		}
	}
	if best == nil {
		return nil, nil
	}
	return &model.Location{Latitude: *best.Latitude, Longitude: *best.Longitude}, nil
}

func (s *Store) ActivePods(_ context.Context, cutoff time.Time) ([]model.PodState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.PodState
	for _, p := range s.pods {
		if p.LastSeen != nil && !p.LastSeen.Before(cutoff) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PodID < out[j].PodID })
	return out, nil
}

func (s *Store) Ping(context.Context) error { return nil }

var (
	_ store.Querier = (*Store)(nil)
	_ store.Writer  = (*Store)(nil)
)
