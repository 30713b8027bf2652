package retrieval

import (
	"context"
	"math"
	"testing"
)

// stubEmbedder returns canned vectors per text.
type stubEmbedder struct {
	vectors map[string][]float32
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := s.vectors[t]; ok {
			out[i] = v
			continue
		}
		out[i] = charVector(t, 32)
	}
	return out, nil
}

func (s *stubEmbedder) Dimensions() int { return 32 }
func (s *stubEmbedder) Name() string    { return "stub" }

// charVector produces a normalized deterministic vector from text.
func charVector(text string, dims int) []float32 {
	vec := make([]float32, dims)
	for i, ch := range text {
		idx := (int(ch) + i) % dims
		vec[idx] += 1.0
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{1, 0, 0}
	c := []float32{0, 1, 0}

	if sim := cosineSimilarity(a, b); math.Abs(sim-1.0) > 1e-6 {
		t.Errorf("identical vectors: sim = %v, want ~1", sim)
	}
	if sim := cosineSimilarity(a, c); math.Abs(sim) > 1e-6 {
		t.Errorf("orthogonal vectors: sim = %v, want ~0", sim)
	}
}

func TestCosineSimilarity_ZeroVector(t *testing.T) {
	zero := []float32{0, 0, 0}
	a := []float32{1, 2, 3}

	// The epsilon denominator keeps a degenerate vector finite.
	sim := cosineSimilarity(zero, a)
	if math.IsNaN(sim) || math.IsInf(sim, 0) {
		t.Fatalf("sim = %v, want finite", sim)
	}
	if sim != 0 {
		t.Errorf("sim = %v, want 0", sim)
	}
}

func TestTopMediaBySimilarity_Ranking(t *testing.T) {
	qVec := []float32{1, 0}
	emb := &stubEmbedder{vectors: map[string][]float32{
		"close":   {0.9, 0.1},
		"closer":  {1, 0},
		"distant": {0, 1},
	}}

	media := map[string]Media{
		"m1": {ID: "m1", Summary: "distant"},
		"m2": {ID: "m2", Summary: "closer"},
		"m3": {ID: "m3", Summary: "close"},
	}

	top, err := topMediaBySimilarity(context.Background(), emb, qVec, media, 2)
	if err != nil {
		t.Fatalf("topMediaBySimilarity: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("got %d ids, want 2", len(top))
	}
	if top[0] != "m2" || top[1] != "m3" {
		t.Errorf("top = %v, want [m2 m3]", top)
	}
}

func TestTopMediaBySimilarity_Bounds(t *testing.T) {
	emb := &stubEmbedder{}
	media := map[string]Media{"m1": {ID: "m1", Summary: "only"}}

	top, err := topMediaBySimilarity(context.Background(), emb, []float32{1, 0}, media, 5)
	if err != nil {
		t.Fatalf("topMediaBySimilarity: %v", err)
	}
	if len(top) != 1 {
		t.Errorf("got %d ids, want 1", len(top))
	}

	top, err = topMediaBySimilarity(context.Background(), emb, []float32{1, 0}, nil, 2)
	if err != nil {
		t.Fatalf("topMediaBySimilarity on empty: %v", err)
	}
	if len(top) != 0 {
		t.Errorf("got %d ids from empty media", len(top))
	}
}
