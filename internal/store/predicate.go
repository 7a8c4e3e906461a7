package store

// Field names a filterable record attribute. Adapters map fields to their
// own column or index names.
type Field string

const (
	FieldTimestamp         Field = "timestamp"
	FieldPodID             Field = "pod_id"
	FieldSwarmName         Field = "swarm_name"
	FieldRunName           Field = "run_name"
	FieldLocName           Field = "loc_name"
	FieldDetectionClass    Field = "detection_class"
	FieldDetectionScore    Field = "detection_score"
	FieldTaxonID           Field = "taxon_id"
	FieldTaxonName         Field = "taxon_name"
	FieldTaxonScore        Field = "taxon_score"
	FieldTaxonRank         Field = "taxon_rank"
	FieldPlausibilityScore Field = "plausibility_score"
)

// Op is a comparison operator.
type Op int

const (
	OpEq Op = iota
	OpGte
	OpLte
	OpLt
	OpIn
)

// Predicate is one field-level constraint. Value types by operator:
// OpEq wants string; OpGte/OpLte/OpLt want float64 or time.Time;
// OpIn wants []string.
type Predicate struct {
	Field Field
	Op    Op
	Value any
}

// PredicateSet is a conjunction: a record matches when every predicate
// matches. "No filter" is the set simply omitting that predicate, never
// a sentinel value baked into comparison logic.
type PredicateSet []Predicate

func Eq(f Field, v string) Predicate     { return Predicate{Field: f, Op: OpEq, Value: v} }
func Gte(f Field, v any) Predicate       { return Predicate{Field: f, Op: OpGte, Value: v} }
func Lte(f Field, v any) Predicate       { return Predicate{Field: f, Op: OpLte, Value: v} }
func Lt(f Field, v any) Predicate        { return Predicate{Field: f, Op: OpLt, Value: v} }
func In(f Field, vs []string) Predicate  { return Predicate{Field: f, Op: OpIn, Value: vs} }
