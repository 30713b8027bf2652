package vectordb

import "context"

// Collection is one independently addressable similarity collection.
type Collection interface {
	// Add upserts records by identifier.
	Add(ctx context.Context, recs []Record) error

	// Query runs a similarity search over the collection, constrained by
	// the optional filter, returning at most topK results ranked by
	// similarity. An empty result set is not an error.
	Query(ctx context.Context, embedding []float32, topK int, filter *Filter) ([]Result, error)

	// Count returns the number of records in the collection.
	Count() int
}

// Store hands out named collections backed by one database.
type Store interface {
	Collection(name string) (Collection, error)
}
