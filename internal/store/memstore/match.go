package memstore

import (
	"time"

	"github.com/florasense/podserver/internal/model"
	"github.com/florasense/podserver/internal/store"
)

// fieldGetter resolves a field on one record. The second return is false
// when the record kind does not carry that field.
type fieldGetter func(store.Field) (any, bool)

// view pairs a record's timestamp with its field accessor, so the
// kind-generic queries can share one code path.
type view struct {
	ts  time.Time
	get fieldGetter
}

func (s *Store) views(kind store.Kind) []view {
	switch kind {
	case store.KindFrames:
		out := make([]view, len(s.frames))
		for i, ev := range s.frames {
			out[i] = view{ts: ev.Timestamp, get: frameGetter(ev)}
		}
		return out
	case store.KindSpecimens:
		out := make([]view, len(s.specimens))
		for i, ev := range s.specimens {
			out[i] = view{ts: ev.Timestamp, get: specimenGetter(ev)}
		}
		return out
	case store.KindWeather:
		out := make([]view, len(s.weather))
		for i, w := range s.weather {
			out[i] = view{ts: w.Timestamp, get: weatherGetter(w)}
		}
		return out
	default:
		return nil
	}
}

func frameGetter(ev model.FrameEvent) fieldGetter {
	return func(f store.Field) (any, bool) {
		switch f {
		case store.FieldTimestamp:
			return ev.Timestamp, true
		case store.FieldPodID:
			return ev.PodID, true
		case store.FieldSwarmName:
			return ev.SwarmName, true
		case store.FieldRunName:
			return ev.RunName, true
		case store.FieldLocName:
			return ev.LocName, true
		default:
			return nil, false
		}
	}
}

func specimenGetter(ev model.SpecimenEvent) fieldGetter {
	return func(f store.Field) (any, bool) {
		switch f {
		case store.FieldTimestamp:
			return ev.Timestamp, true
		case store.FieldPodID:
			return ev.PodID, true
		case store.FieldSwarmName:
			return ev.SwarmName, true
		case store.FieldRunName:
			return ev.RunName, true
		case store.FieldLocName:
			return ev.LocName, true
		case store.FieldDetectionClass:
			return ev.DetectionClass, true
		case store.FieldDetectionScore:
			return ev.DetectionScore, true
		case store.FieldTaxonID:
			return ev.TaxonID, true
		case store.FieldTaxonName:
			return ev.TaxonName, true
		case store.FieldTaxonScore:
			return ev.TaxonScore, true
		case store.FieldTaxonRank:
			return ev.TaxonRank, true
		case store.FieldPlausibilityScore:
			return ev.PlausibilityScore, true
		default:
			return nil, false
		}
	}
}

func weatherGetter(w model.WeatherSample) fieldGetter {
	return func(f store.Field) (any, bool) {
		switch f {
		case store.FieldTimestamp:
			return w.Timestamp, true
		case store.FieldSwarmName:
			return w.SwarmName, true
		case store.FieldRunName:
			return w.RunName, true
		case store.FieldLocName:
			return w.LocName, true
		default:
			return nil, false
		}
	}
}

func stringField(get fieldGetter, f store.Field) string {
	v, ok := get(f)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func matchAll(preds store.PredicateSet, get fieldGetter) bool {
	for _, p := range preds {
		if !match(p, get) {
			return false
		}
	}
	return true
}

func match(p store.Predicate, get fieldGetter) bool {
	v, ok := get(p.Field)
	if !ok {
		return false
	}

	switch p.Op {
	case store.OpEq:
		want, _ := p.Value.(string)
		have, _ := v.(string)
		return have == want
	case store.OpIn:
		want, _ := p.Value.([]string)
		have, _ := v.(string)
		for _, w := range want {
			if have == w {
				return true
			}
		}
		return false
	case store.OpGte:
		c, ok := compare(v, p.Value)
		return ok && c >= 0
	case store.OpLte:
		c, ok := compare(v, p.Value)
		return ok && c <= 0
	case store.OpLt:
		c, ok := compare(v, p.Value)
		return ok && c < 0
	default:
		return false
	}
}

// compare orders a record value against a predicate bound. Supported
// pairs: time vs time, float64 vs float64.
func compare(have, want any) (int, bool) {
	switch h := have.(type) {
	case time.Time:
		w, ok := want.(time.Time)
		if !ok {
			return 0, false
		}
		switch {
		case h.Before(w):
			return -1, true
		case h.After(w):
			return 1, true
		default:
			return 0, true
		}
	case float64:
		w, ok := want.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case h < w:
			return -1, true
		case h > w:
			return 1, true
		default:
			return 0, true
		}
	default:
		return 0, false
	}
}
