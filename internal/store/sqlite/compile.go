package sqlite

import (
	"fmt"
	"strings"
	"time"

	"github.com/florasense/podserver/internal/store"
)

type tableInfo struct {
	name string
	cols map[store.Field]string
}

var eventFields = map[store.Field]string{
	store.FieldTimestamp: "timestamp",
	store.FieldPodID:     "pod_id",
	store.FieldSwarmName: "swarm_name",
	store.FieldRunName:   "run_name",
	store.FieldLocName:   "loc_name",
}

// Weather rows carry no pod identity.
var weatherFields = map[store.Field]string{
	store.FieldTimestamp: "timestamp",
	store.FieldSwarmName: "swarm_name",
	store.FieldRunName:   "run_name",
	store.FieldLocName:   "loc_name",
}

var specimenFields = map[store.Field]string{
	store.FieldTimestamp:         "timestamp",
	store.FieldPodID:             "pod_id",
	store.FieldSwarmName:         "swarm_name",
	store.FieldRunName:           "run_name",
	store.FieldLocName:           "loc_name",
	store.FieldDetectionClass:    "detection_class",
	store.FieldDetectionScore:    "detection_score",
	store.FieldTaxonID:           "taxon_id",
	store.FieldTaxonName:         "taxon_name",
	store.FieldTaxonScore:        "taxon_score",
	store.FieldTaxonRank:         "taxon_rank",
	store.FieldPlausibilityScore: "plausibility_score",
}

var tables = map[store.Kind]tableInfo{
	store.KindFrames:    {name: "frame_log", cols: eventFields},
	store.KindSpecimens: {name: "specimen_records", cols: specimenFields},
	store.KindWeather:   {name: "weather_records", cols: weatherFields},
}

// compile folds a predicate set into a WHERE clause (without the WHERE
// keyword) and its arguments. An empty set compiles to "1=1". A predicate
// on a field the table does not carry matches nothing, same as the other
// adapters. time.Time bounds become unix microseconds to match the column
// encoding.
func compile(pred store.PredicateSet, cols map[store.Field]string) (string, []any, error) {
	if len(pred) == 0 {
		return "1=1", nil, nil
	}

	var clauses []string
	var args []any
	for _, p := range pred {
		col, ok := cols[p.Field]
		if !ok {
			clauses = append(clauses, "1=0")
			continue
		}

		switch p.Op {
		case store.OpEq:
			clauses = append(clauses, col+" = ?")
			args = append(args, p.Value)
		case store.OpGte, store.OpLte, store.OpLt:
			clauses = append(clauses, col+" "+opSQL(p.Op)+" ?")
			args = append(args, bindValue(p.Value))
		case store.OpIn:
			vals, _ := p.Value.([]string)
			if len(vals) == 0 {
				// IN over the empty set matches nothing.
				clauses = append(clauses, "1=0")
				continue
			}
			ph := strings.Repeat("?,", len(vals))
			clauses = append(clauses, col+" IN ("+ph[:len(ph)-1]+")")
			for _, v := range vals {
				args = append(args, v)
			}
		default:
			return "", nil, fmt.Errorf("unsupported predicate op %d", p.Op)
		}
	}
	return strings.Join(clauses, " AND "), args, nil
}

func opSQL(op store.Op) string {
	switch op {
	case store.OpGte:
		return ">="
	case store.OpLte:
		return "<="
	default:
		return "<"
	}
}

func bindValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UnixMicro()
	}
	return v
}
