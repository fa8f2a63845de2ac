package tenantfilter

import "maps"

// Criteria is a conjunction of field predicates: every key/value pair must
// match. Keys are field paths; a dotted path ("project.tenant_id") reaches
// the owning field through one relation hop. A nil value matches records
// where the field is unset.
type Criteria map[string]any

// Clone returns an independent copy of the criteria.
func (c Criteria) Clone() Criteria {
	if c == nil {
		return nil
	}
	return maps.Clone(c)
}

// Filter is a disjunction of criteria: a record matches when any clause
// matches. An empty filter matches everything; a single-clause filter is a
// plain conjunction.
type Filter []Criteria

// Clone returns a deep copy so merges never mutate the caller's filter.
func (f Filter) Clone() Filter {
	if f == nil {
		return nil
	}
	out := make(Filter, len(f))
	for i, c := range f {
		out[i] = c.Clone()
	}
	return out
}

// merge returns a filter where every clause additionally requires the given
// predicates. An empty filter becomes a single clause of the predicates.
func (f Filter) merge(preds Criteria) Filter {
	if len(preds) == 0 {
		return f.Clone()
	}
	if len(f) == 0 {
		return Filter{preds.Clone()}
	}

	out := make(Filter, len(f))
	for i, clause := range f {
		merged := clause.Clone()
		if merged == nil {
			merged = make(Criteria, len(preds))
		}
		maps.Copy(merged, preds)
		out[i] = merged
	}
	return out
}
