package vectordb

// Record is one entry in a similarity collection: a vector, a document
// body, and a flat metadata record.
type Record struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  map[string]string
}

// Result pairs a record with its similarity score against the query vector.
type Result struct {
	Record
	Similarity float32
}

// Clause is a single metadata constraint: equality when In is nil,
// membership otherwise.
type Clause struct {
	Key string
	Eq  string
	In  []string
}

// Eq builds an equality clause.
func Eq(key, value string) Clause {
	return Clause{Key: key, Eq: value}
}

// In builds a membership clause.
func In(key string, values ...string) Clause {
	return Clause{Key: key, In: values}
}

// Filter is a conjunction of clauses. A nil *Filter or an empty clause
// list means no constraint.
type Filter struct {
	Clauses []Clause
}

// And builds a filter from the given clauses.
func And(clauses ...Clause) *Filter {
	return &Filter{Clauses: clauses}
}

// With returns a new filter with the extra clauses appended. The receiver
// is not modified; filters are disposable per-query values.
func (f *Filter) With(clauses ...Clause) *Filter {
	var base []Clause
	if f != nil {
		base = f.Clauses
	}
	merged := make([]Clause, 0, len(base)+len(clauses))
	merged = append(merged, base...)
	merged = append(merged, clauses...)
	return &Filter{Clauses: merged}
}

// equalityMap extracts the equality clauses as a flat where-map.
func (f *Filter) equalityMap() map[string]string {
	if f == nil {
		return nil
	}
	var where map[string]string
	for _, c := range f.Clauses {
		if c.In != nil {
			continue
		}
		if where == nil {
			where = make(map[string]string)
		}
		where[c.Key] = c.Eq
	}
	return where
}

// hasMembership reports whether any clause is a membership constraint.
func (f *Filter) hasMembership() bool {
	if f == nil {
		return false
	}
	for _, c := range f.Clauses {
		if c.In != nil {
			return true
		}
	}
	return false
}

// matches applies the membership clauses to a metadata record. Equality
// clauses are pushed down to the index and not re-checked here.
func (f *Filter) matches(meta map[string]string) bool {
	if f == nil {
		return true
	}
	for _, c := range f.Clauses {
		if c.In == nil {
			continue
		}
		val, ok := meta[c.Key]
		if !ok {
			return false
		}
		found := false
		for _, want := range c.In {
			if val == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
