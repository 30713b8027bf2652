package ingest

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scirag/internal/classifier"
	"scirag/internal/converter"
	"scirag/internal/domain"
	"scirag/internal/embeddings"
	"scirag/internal/llm"
	"scirag/internal/metadata"
	"scirag/internal/vectordb"
)

func TestSplitChunks(t *testing.T) {
	tests := []struct {
		name string
		text string
		size int
		want []string
	}{
		{name: "empty text", text: "", size: 5, want: nil},
		{name: "zero size", text: "abc", size: 0, want: nil},
		{name: "exact multiple", text: "abcdef", size: 3, want: []string{"abc", "def"}},
		{name: "remainder", text: "abcdefg", size: 3, want: []string{"abc", "def", "g"}},
		{name: "single chunk", text: "ab", size: 10, want: []string{"ab"}},
		{name: "multibyte runes", text: "日本語テスト", size: 2, want: []string{"日本", "語テ", "スト"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitChunks(tt.text, tt.size)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d chunks %v, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chunk %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestChunkIndexForPage(t *testing.T) {
	tests := []struct {
		name                     string
		page, maxPage, numChunks int
		want                     int
	}{
		{"first page", 1, 10, 5, 0},
		{"last page", 10, 10, 5, 4},
		{"middle", 5, 10, 10, 4},
		{"single page doc", 1, 1, 3, 0},
		{"page beyond max clamps", 99, 10, 5, 4},
		{"zero page treated as first", 0, 10, 5, 0},
		{"zero max page treated as one", 3, 0, 5, 4},
		{"no chunks", 3, 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := chunkIndexForPage(tt.page, tt.maxPage, tt.numChunks); got != tt.want {
				t.Errorf("chunkIndexForPage(%d, %d, %d) = %d, want %d",
					tt.page, tt.maxPage, tt.numChunks, got, tt.want)
			}
		})
	}
}

func TestFindCaption(t *testing.T) {
	lines := []string{
		"Some prose about the experiment.",
		"Table III Results on the held-out set",
		"",
		"| a | b |",
	}
	if got := findCaption(lines, "above"); got != "Table III Results on the held-out set" {
		t.Errorf("above scan = %q", got)
	}

	below := []string{"", "Tab. 2 ablation study", "more prose"}
	if got := findCaption(below, "below"); got != "Tab. 2 ablation study" {
		t.Errorf("below scan = %q", got)
	}

	none := []string{"just prose", "nothing caption-like"}
	if got := findCaption(none, "above"); got != "" {
		t.Errorf("no caption = %q, want empty", got)
	}
}

func TestFindCaption_ScanBound(t *testing.T) {
	lines := []string{"Table 1 too far away"}
	for i := 0; i < maxCaptionScan; i++ {
		lines = append(lines, fmt.Sprintf("filler line %d", i))
	}
	// The caption sits beyond the scan window when approaching from below.
	if got := findCaption(lines, "above"); got != "" {
		t.Errorf("caption outside scan window matched: %q", got)
	}
}

func TestResolveTableCaption(t *testing.T) {
	grid := "| metric | value |\n|---|---|\n| F1 | 0.91 |"

	t.Run("converter caption wins when caption-like", func(t *testing.T) {
		got := resolveTableCaption("Table 4 main results", grid, "unrelated")
		if got != "Table 4 main results" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("scans above the grid", func(t *testing.T) {
		doc := "prose\nTable II summary of runs\n\n" + grid + "\nmore prose"
		got := resolveTableCaption("", grid, doc)
		if got != "Table II summary of runs" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("scans below when above has none", func(t *testing.T) {
		doc := "prose\n\n" + grid + "\nTable 7 per-class breakdown\n"
		got := resolveTableCaption("", grid, doc)
		if got != "Table 7 per-class breakdown" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("falls back to converter caption", func(t *testing.T) {
		doc := "prose without any grid"
		got := resolveTableCaption("figure-ish caption", grid, doc)
		if got != "figure-ish caption" {
			t.Errorf("got %q", got)
		}
	})
}

// ingestProvider routes prompts by shape, mirroring the calls the
// pipeline makes per document.
type ingestProvider struct {
	domainReply string
	metaReply   string
}

func (p *ingestProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	content := req.Messages[len(req.Messages)-1].Content
	switch {
	case strings.Contains(content, "one-word domain classifier"):
		return &llm.CompletionResponse{Content: p.domainReply}, nil
	case strings.Contains(content, "first-page text"):
		return &llm.CompletionResponse{Content: p.metaReply}, nil
	case strings.Contains(content, "figure summary"):
		return &llm.CompletionResponse{Content: "Bar chart of variant counts per exon."}, nil
	case strings.Contains(content, "table"):
		return &llm.CompletionResponse{Content: "F1 scores per classifier on the held-out set."}, nil
	}
	return nil, fmt.Errorf("unexpected prompt: %.80s", content)
}

func (p *ingestProvider) Name() string { return "stub" }

type testEmbedder struct{}

func (testEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, 32)
		for j, ch := range text {
			vec[(int(ch)+j)%32] += 1.0
		}
		var norm float64
		for _, v := range vec {
			norm += float64(v * v)
		}
		norm = math.Sqrt(norm)
		if norm > 0 {
			for j := range vec {
				vec[j] = float32(float64(vec[j]) / norm)
			}
		}
		out[i] = vec
	}
	return out, nil
}

func (testEmbedder) Dimensions() int { return 32 }
func (testEmbedder) Name() string    { return "stub" }

type testFactory struct{}

func (testFactory) ForModel(string) embeddings.Embedder { return testEmbedder{} }

type fakeConverter struct {
	doc *converter.Document
	err error
}

func (f *fakeConverter) Convert(context.Context, string) (*converter.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

func writeSource(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("%PDF stub"), 0o644); err != nil {
		t.Fatalf("writing source file: %v", err)
	}
	return path
}

func newTestPipeline(t *testing.T, conv converter.Converter, prov llm.Provider) (*Pipeline, vectordb.Store, *domain.Registry) {
	t.Helper()

	reg, err := domain.Builtin(t.TempDir())
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	store := vectordb.NewMemory()

	p := NewPipeline(Options{
		Converter:  conv,
		Classifier: classifier.New(prov, "test-model", reg, nil),
		Extractor:  metadata.NewExtractor(prov, "test-model"),
		Provider:   prov,
		Embedders:  testFactory{},
		Store:      store,
		Registry:   reg,
		ChatModel:  "test-model",
		ChunkSize:  1500,
	})
	return p, store, reg
}

func TestPipeline_Run_EndToEnd(t *testing.T) {
	md := strings.Repeat("a", 1500) + strings.Repeat("b", 1500)
	conv := &fakeConverter{doc: &converter.Document{
		Markdown: md,
		Figures: []converter.Figure{
			{Page: 1, Caption: "Fig. 1 variant counts", PNG: []byte{0x89, 'P', 'N', 'G'}},
		},
		Tables: []converter.Table{
			{Page: 2, Caption: "Table 1 scores", Markdown: "| c | f1 |\n|---|---|\n| svm | 0.9 |"},
		},
	}}
	prov := &ingestProvider{
		domainReply: "GENOMIC",
		metaReply:   `{"title":"BRCA1 study","authors":["Doe, J."],"abstract":"...","keywords":["genomics"],"Diseases":["BRCA1"],"Methodology":"WGS"}`,
	}

	p, store, reg := newTestPipeline(t, conv, prov)
	src := writeSource(t, "paper.pdf")

	res, err := p.Run(context.Background(), src, "u1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Ingested != 1 || res.Failed != 0 || res.Skipped != 0 {
		t.Fatalf("result = %+v, want 1 ingested", res)
	}
	if res.Chunks != 2 || res.Figures != 1 || res.Tables != 1 {
		t.Errorf("counts = %+v, want 2 chunks, 1 figure, 1 table", res)
	}

	dom, _ := reg.Lookup("GENOMIC")
	textCol, _ := store.Collection(dom.Collections.Text)
	if n := textCol.Count(); n != 2 {
		t.Errorf("text collection holds %d records, want 2", n)
	}

	// The figure on page 1 must link to the first chunk, the table on
	// page 2 to the second.
	qVec, _ := testEmbedder{}.Embed(context.Background(), []string{"query"})
	imageCol, _ := store.Collection(dom.Collections.Image)
	images, err := imageCol.Query(context.Background(), qVec[0], 1, nil)
	if err != nil || len(images) != 1 {
		t.Fatalf("image query: %v, %d results", err, len(images))
	}
	tableCol, _ := store.Collection(dom.Collections.Table)
	tables, err := tableCol.Query(context.Background(), qVec[0], 1, nil)
	if err != nil || len(tables) != 1 {
		t.Fatalf("table query: %v, %d results", err, len(tables))
	}

	chunkByParent := func(parentID string) vectordb.Result {
		hits, err := textCol.Query(context.Background(), qVec[0], 2,
			vectordb.And(vectordb.Eq(domain.KeyChunkID, parentID)))
		if err != nil || len(hits) != 1 {
			t.Fatalf("chunk lookup for %s: %v, %d hits", parentID, err, len(hits))
		}
		return hits[0]
	}

	figParent := chunkByParent(images[0].Metadata[domain.KeyParentChunkID])
	if !strings.HasPrefix(figParent.Content, "aaa") {
		t.Error("figure on page 1 is not linked to the first chunk")
	}
	tblParent := chunkByParent(tables[0].Metadata[domain.KeyParentChunkID])
	if !strings.HasPrefix(tblParent.Content, "bbb") {
		t.Error("table on page 2 is not linked to the second chunk")
	}

	// Flattened document metadata rides along on every record.
	if got := figParent.Metadata["Diseases"]; got != "BRCA1" {
		t.Errorf("chunk Diseases metadata = %q, want BRCA1", got)
	}
	if got := images[0].Metadata[domain.KeyUserID]; got != "u1" {
		t.Errorf("image user_id = %q, want u1", got)
	}

	// Assets exist on disk.
	if _, err := os.Stat(images[0].Metadata[domain.KeyPath]); err != nil {
		t.Errorf("figure asset missing: %v", err)
	}
	if _, err := os.Stat(tables[0].Metadata[domain.KeyPath]); err != nil {
		t.Errorf("table asset missing: %v", err)
	}
}

func TestPipeline_Run_SkipsUnclassifiedDocument(t *testing.T) {
	conv := &fakeConverter{doc: &converter.Document{Markdown: "a recipe for sourdough"}}
	prov := &ingestProvider{domainReply: "none"}

	p, store, reg := newTestPipeline(t, conv, prov)
	src := writeSource(t, "recipe.pdf")

	res, err := p.Run(context.Background(), src, "u1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Skipped != 1 || res.Ingested != 0 || res.Failed != 0 {
		t.Errorf("result = %+v, want 1 skipped", res)
	}

	dom, _ := reg.Lookup("GENOMIC")
	col, _ := store.Collection(dom.Collections.Text)
	if n := col.Count(); n != 0 {
		t.Errorf("skipped document left %d records in the store", n)
	}
}

func TestPipeline_Run_FailedDocumentDoesNotAbortBatch(t *testing.T) {
	conv := &fakeConverter{err: fmt.Errorf("conversion service unavailable")}
	prov := &ingestProvider{domainReply: "GENOMIC", metaReply: "{}"}

	p, _, _ := newTestPipeline(t, conv, prov)
	src := writeSource(t, "broken.pdf")

	res, err := p.Run(context.Background(), src, "u1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Failed != 1 || res.Ingested != 0 {
		t.Errorf("result = %+v, want 1 failed", res)
	}
}

func TestPipeline_Run_NoMatches(t *testing.T) {
	p, _, _ := newTestPipeline(t, &fakeConverter{}, &ingestProvider{})

	_, err := p.Run(context.Background(), filepath.Join(t.TempDir(), "*.pdf"), "u1")
	if err == nil {
		t.Fatal("expected error for a pattern matching nothing")
	}
}

func TestPipeline_Run_Cancellation(t *testing.T) {
	conv := &fakeConverter{doc: &converter.Document{Markdown: "text"}}
	p, _, _ := newTestPipeline(t, conv, &ingestProvider{domainReply: "none"})
	src := writeSource(t, "doc.pdf")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := p.Run(ctx, src, "u1")
	if err == nil {
		t.Fatal("expected context error")
	}
	if res.Ingested != 0 || res.Skipped != 0 || res.Failed != 0 {
		t.Errorf("cancelled run processed documents: %+v", res)
	}
}
