package redisjson

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/florasense/podserver/internal/store"
)

var indexByKind = map[store.Kind]string{
	store.KindFrames:    frameIndex,
	store.KindSpecimens: specimenIndex,
	store.KindWeather:   weatherIndex,
}

// Per-kind filterable fields, mirroring the index schemas. A predicate on
// a field the kind does not carry matches nothing.
var (
	frameQueryFields = map[store.Field]bool{
		store.FieldTimestamp: true,
		store.FieldPodID:     true,
		store.FieldSwarmName: true,
		store.FieldRunName:   true,
		store.FieldLocName:   true,
	}
	weatherQueryFields = map[store.Field]bool{
		store.FieldTimestamp: true,
		store.FieldSwarmName: true,
		store.FieldRunName:   true,
		store.FieldLocName:   true,
	}
	specimenQueryFields = map[store.Field]bool{
		store.FieldTimestamp:         true,
		store.FieldPodID:             true,
		store.FieldSwarmName:         true,
		store.FieldRunName:           true,
		store.FieldLocName:           true,
		store.FieldDetectionClass:    true,
		store.FieldDetectionScore:    true,
		store.FieldTaxonID:           true,
		store.FieldTaxonName:         true,
		store.FieldTaxonScore:        true,
		store.FieldTaxonRank:         true,
		store.FieldPlausibilityScore: true,
	}
)

var queryFieldsByKind = map[store.Kind]map[store.Field]bool{
	store.KindFrames:    frameQueryFields,
	store.KindSpecimens: specimenQueryFields,
	store.KindWeather:   weatherQueryFields,
}

// ts is indexed under a short alias; every other field keeps its
// canonical name in the index schema.
func fieldAlias(f store.Field) string {
	if f == store.FieldTimestamp {
		return "ts"
	}
	return string(f)
}

var numericFields = map[store.Field]bool{
	store.FieldTimestamp:         true,
	store.FieldDetectionScore:    true,
	store.FieldTaxonScore:        true,
	store.FieldPlausibilityScore: true,
}

// compile folds a predicate set into a RediSearch query string against
// the given kind's field set. An empty set compiles to "*". matchesNone
// is true when a predicate can never match (IN over the empty set, or a
// field the kind does not carry); callers skip the round trip then.
func compile(pred store.PredicateSet, fields map[store.Field]bool) (query string, matchesNone bool, err error) {
	if len(pred) == 0 {
		return "*", false, nil
	}

	var clauses []string
	for _, p := range pred {
		if !fields[p.Field] {
			return "", true, nil
		}
		alias := fieldAlias(p.Field)

		switch p.Op {
		case store.OpEq:
			if numericFields[p.Field] {
				v, err := numArg(p.Value)
				if err != nil {
					return "", false, err
				}
				clauses = append(clauses, fmt.Sprintf("@%s:[%s %s]", alias, v, v))
			} else {
				clauses = append(clauses, fmt.Sprintf("@%s:{%s}", alias, escapeTag(p.Value.(string))))
			}
		case store.OpGte:
			v, err := numArg(p.Value)
			if err != nil {
				return "", false, err
			}
			clauses = append(clauses, fmt.Sprintf("@%s:[%s +inf]", alias, v))
		case store.OpLte:
			v, err := numArg(p.Value)
			if err != nil {
				return "", false, err
			}
			clauses = append(clauses, fmt.Sprintf("@%s:[-inf %s]", alias, v))
		case store.OpLt:
			v, err := numArg(p.Value)
			if err != nil {
				return "", false, err
			}
			clauses = append(clauses, fmt.Sprintf("@%s:[-inf (%s]", alias, v))
		case store.OpIn:
			vals, _ := p.Value.([]string)
			if len(vals) == 0 {
				return "", true, nil
			}
			escaped := make([]string, len(vals))
			for i, v := range vals {
				escaped[i] = escapeTag(v)
			}
			clauses = append(clauses, fmt.Sprintf("@%s:{%s}", alias, strings.Join(escaped, "|")))
		default:
			return "", false, fmt.Errorf("unsupported predicate op %d", p.Op)
		}
	}
	return strings.Join(clauses, " "), false, nil
}

func numArg(v any) (string, error) {
	switch x := v.(type) {
	case time.Time:
		return strconv.FormatInt(x.UnixMicro(), 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	default:
		return "", fmt.Errorf("non-numeric predicate value %T", v)
	}
}

// escapeTag backslash-escapes everything RediSearch treats as tag syntax.
func escapeTag(v string) string {
	var b strings.Builder
	b.Grow(len(v))
	for _, r := range v {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}

func fromMicros(us int64) time.Time { return time.UnixMicro(us).UTC() }

func microsPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	us := t.UnixMicro()
	return &us
}

func timePtr(us *int64) *time.Time {
	if us == nil {
		return nil
	}
	t := fromMicros(*us)
	return &t
}
