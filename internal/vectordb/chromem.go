package vectordb

import (
	"context"
	"fmt"
	"sort"

	chromem "github.com/philippgille/chromem-go"
)

// DB wraps a chromem-go database and hands out collections. All vectors
// are computed by the caller and passed in explicitly; chromem's own
// embedding hook is never exercised.
type DB struct {
	db *chromem.DB
}

// Open creates or opens a persistent chromem database rooted at path.
func Open(path string) (*DB, error) {
	db, err := chromem.NewPersistentDB(path, true)
	if err != nil {
		return nil, fmt.Errorf("open vector db at %s: %w", path, err)
	}
	return &DB{db: db}, nil
}

// NewMemory creates an in-memory database (useful for testing).
func NewMemory() *DB {
	return &DB{db: chromem.NewDB()}
}

// Collection returns the named collection, creating it if needed.
func (d *DB) Collection(name string) (Collection, error) {
	col, err := d.db.GetOrCreateCollection(name, nil, rejectEmbedding)
	if err != nil {
		return nil, fmt.Errorf("create collection %q: %w", name, err)
	}
	return &chromemCollection{col: col}, nil
}

// rejectEmbedding guards against paths that would ask chromem to embed
// text itself; every record and query carries a precomputed vector.
func rejectEmbedding(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("no embedding function configured: vectors must be precomputed")
}

type chromemCollection struct {
	col *chromem.Collection
}

func (c *chromemCollection) Add(ctx context.Context, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(recs))
	for i, rec := range recs {
		docs[i] = chromem.Document{
			ID:        rec.ID,
			Content:   rec.Content,
			Embedding: rec.Embedding,
			Metadata:  rec.Metadata,
		}
	}

	return c.col.AddDocuments(ctx, docs, 1)
}

func (c *chromemCollection) Query(ctx context.Context, embedding []float32, topK int, filter *Filter) ([]Result, error) {
	if topK <= 0 {
		topK = 10
	}

	count := c.col.Count()
	if count == 0 {
		return nil, nil
	}

	// Membership clauses cannot be pushed into chromem's where-map, so
	// over-fetch the whole collection and narrow afterwards.
	limit := topK
	if filter.hasMembership() {
		limit = count
	} else if limit > count {
		limit = count
	}

	results, err := c.col.QueryEmbedding(ctx, embedding, limit, filter.equalityMap(), nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]Result, 0, len(results))
	for _, r := range results {
		if !filter.matches(r.Metadata) {
			continue
		}
		out = append(out, Result{
			Record: Record{
				ID:        r.ID,
				Content:   r.Content,
				Embedding: r.Embedding,
				Metadata:  r.Metadata,
			},
			Similarity: r.Similarity,
		})
		if len(out) == topK {
			break
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	return out, nil
}

func (c *chromemCollection) Count() int {
	return c.col.Count()
}
