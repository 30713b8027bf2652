package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"

	"scirag/internal/embeddings"
)

// epsilon keeps the cosine denominator non-zero for degenerate vectors.
const epsilon = 1e-9

// cosineSimilarity computes dot(a,b) / (|a|*|b| + epsilon).
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, v := range a {
		normA += float64(v) * float64(v)
	}
	for _, v := range b {
		normB += float64(v) * float64(v)
	}
	return dot / (math.Sqrt(normA)*math.Sqrt(normB) + epsilon)
}

// topMediaBySimilarity re-ranks merged media candidates by cosine
// similarity between the question vector and a freshly computed embedding
// of each candidate's summary, returning the topN identifiers in
// descending similarity order. Summary embeddings are recomputed on every
// query rather than read back from the store.
func topMediaBySimilarity(ctx context.Context, embedder embeddings.Embedder, questionVec []float32, media map[string]Media, topN int) ([]string, error) {
	if len(media) == 0 || topN <= 0 {
		return nil, nil
	}

	ids := sortedIDs(media)
	summaries := make([]string, len(ids))
	for i, id := range ids {
		summaries[i] = media[id].Summary
	}

	vecs, err := embedder.Embed(ctx, summaries)
	if err != nil {
		return nil, fmt.Errorf("embedding media summaries: %w", err)
	}
	if len(vecs) != len(ids) {
		return nil, fmt.Errorf("embedder returned %d vectors, expected %d", len(vecs), len(ids))
	}

	sims := make([]float64, len(ids))
	for i, v := range vecs {
		sims[i] = cosineSimilarity(questionVec, v)
	}

	order := make([]int, len(ids))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return sims[order[a]] > sims[order[b]] })

	if topN > len(order) {
		topN = len(order)
	}
	top := make([]string, topN)
	for i := 0; i < topN; i++ {
		top[i] = ids[order[i]]
	}
	return top, nil
}
