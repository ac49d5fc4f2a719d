package store

type Op int

const (
	OpEq Op = iota
	OpIn
	OpContains
	OpSearch
)

// Cond is a single condition on a stored field. OpSearch matches when any of
// Fields contains Value, case-insensitively.
type Cond struct {
	Field  string
	Fields []string
	Op     Op
	Value  interface{}
	Values []interface{}
}

// Filter is the conjunction of its conditions. An empty Filter matches everything.
type Filter []Cond

func Where(conds ...Cond) Filter { return Filter(conds) }

func (f Filter) And(conds ...Cond) Filter {
	out := make(Filter, 0, len(f)+len(conds))
	out = append(out, f...)
	return append(out, conds...)
}

func Eq(field string, value interface{}) Cond {
	return Cond{Field: field, Op: OpEq, Value: value}
}

func In(field string, values ...string) Cond {
	vs := make([]interface{}, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return Cond{Field: field, Op: OpIn, Values: vs}
}

func Contains(field, s string) Cond {
	return Cond{Field: field, Op: OpContains, Value: s}
}

func Search(s string, fields ...string) Cond {
	return Cond{Fields: fields, Op: OpSearch, Value: s}
}
