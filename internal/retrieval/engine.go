package retrieval

import (
	"context"
	"fmt"
	"strings"

	"scirag/internal/classifier"
	"scirag/internal/domain"
	"scirag/internal/embeddings"
	"scirag/internal/llm"
	"scirag/internal/metadata"
	"scirag/internal/vectordb"
)

// DefaultTopK is the default number of text chunks retrieved per query.
const DefaultTopK = 3

// Retention bounds for the final media context.
const (
	maxImages = 1
	maxTables = 2
)

// NoDomainAnswer is the user-facing reply when a question fits no
// configured domain.
const NoDomainAnswer = "No domain found for this query."

// Engine answers natural-language questions over the ingested corpus by
// combining metadata-filtered and semantic search across the three
// per-domain content stores.
type Engine struct {
	registry   *domain.Registry
	classifier *classifier.Classifier
	extractor  *metadata.Extractor
	provider   llm.Provider
	embedders  embeddings.Factory
	store      vectordb.Store
	chatModel  string
}

// Options bundles the engine's collaborators.
type Options struct {
	Registry   *domain.Registry
	Classifier *classifier.Classifier
	Extractor  *metadata.Extractor
	Provider   llm.Provider
	Embedders  embeddings.Factory
	Store      vectordb.Store
	ChatModel  string
}

// NewEngine creates a retrieval engine.
func NewEngine(opts Options) *Engine {
	return &Engine{
		registry:   opts.Registry,
		classifier: opts.Classifier,
		extractor:  opts.Extractor,
		provider:   opts.Provider,
		embedders:  opts.Embedders,
		store:      opts.Store,
		chatModel:  opts.ChatModel,
	}
}

// Response is the outcome of one query.
type Response struct {
	Answer   string     `json:"answer"`
	Media    []MediaRef `json:"media,omitempty"`
	Domain   string     `json:"domain,omitempty"`
	NoDomain bool       `json:"no_domain,omitempty"`
}

// Query answers the question for the given user. A classifier or
// embedding failure aborts the query; a store returning no matches is
// never an error — it advances the filter cascade.
func (e *Engine) Query(ctx context.Context, question, userID string, topK int) (*Response, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	domName, ok, err := e.classifier.Classify(ctx, question)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Response{Answer: NoDomainAnswer, NoDomain: true}, nil
	}
	dom, _ := e.registry.Lookup(domName)

	textCol, err := e.store.Collection(dom.Collections.Text)
	if err != nil {
		return nil, err
	}
	imageCol, err := e.store.Collection(dom.Collections.Image)
	if err != nil {
		return nil, err
	}
	tableCol, err := e.store.Collection(dom.Collections.Table)
	if err != nil {
		return nil, err
	}

	qVecs, err := e.embedders.ForModel(dom.EmbedModels.Text).Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}
	qVec := qVecs[0]

	rec, err := e.extractor.FromQuery(ctx, dom, question)
	if err != nil {
		return nil, fmt.Errorf("extracting query metadata: %w", err)
	}

	chunks, err := e.cascadeSearch(ctx, textCol, qVec, rec, dom, userID, topK)
	if err != nil {
		return nil, err
	}

	chunkIDs := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if id := c.Metadata[domain.KeyChunkID]; id != "" {
			chunkIDs = append(chunkIDs, id)
		}
	}

	linkedImages, err := e.fetchLinked(ctx, imageCol, qVec, userID, chunkIDs)
	if err != nil {
		return nil, err
	}
	linkedTables, err := e.fetchLinked(ctx, tableCol, qVec, userID, chunkIDs)
	if err != nil {
		return nil, err
	}

	userOnly := vectordb.And(vectordb.Eq(domain.KeyUserID, userID))
	semanticImages, err := imageCol.Query(ctx, qVec, topK, userOnly)
	if err != nil {
		return nil, fmt.Errorf("image store query: %w", err)
	}
	semanticTables, err := tableCol.Query(ctx, qVec, topK, userOnly)
	if err != nil {
		return nil, fmt.Errorf("table store query: %w", err)
	}

	allImages := mergeMedia(linkedImages, semanticImages)
	allTables := mergeMedia(linkedTables, semanticTables)

	topImages, err := topMediaBySimilarity(ctx, e.embedders.ForModel(dom.EmbedModels.Image), qVec, allImages, maxImages)
	if err != nil {
		return nil, err
	}
	topTables, err := topMediaBySimilarity(ctx, e.embedders.ForModel(dom.EmbedModels.Table), qVec, allTables, maxTables)
	if err != nil {
		return nil, err
	}

	finalImages := pick(allImages, topImages)
	finalTables := pick(allTables, topTables)

	prompt := composePrompt(dom.Prompts.AnswerHeader, buildContext(chunks, finalImages, finalTables), question)
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Model:    e.chatModel,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("composing answer: %w", err)
	}
	answer := strings.TrimSpace(resp.Content)

	return &Response{
		Answer: answer,
		Media:  ResolveCitations(answer, finalImages, finalTables),
		Domain: domName,
	}, nil
}

// cascadeSearch walks the filter ladder most-specific first, always
// conjoining the mandatory user scope, and stops at the first candidate
// with a non-empty result set. If every candidate — including the
// unconstrained sentinel — comes back empty, one final user-only search
// is issued; an empty corpus simply yields no chunks.
func (e *Engine) cascadeSearch(ctx context.Context, col vectordb.Collection, qVec []float32, rec metadata.Record, dom *domain.Config, userID string, topK int) ([]vectordb.Result, error) {
	userClause := vectordb.Eq(domain.KeyUserID, userID)

	for _, cand := range BuildCandidates(rec, dom.AllowedFilterKeys) {
		filter := vectordb.And(userClause)
		if cand.Clause != nil {
			filter = filter.With(*cand.Clause)
		}

		hits, err := col.Query(ctx, qVec, topK, filter)
		if err != nil {
			return nil, fmt.Errorf("text store query: %w", err)
		}
		if len(hits) > 0 {
			return hits, nil
		}
	}

	hits, err := col.Query(ctx, qVec, topK, vectordb.And(userClause))
	if err != nil {
		return nil, fmt.Errorf("text store fallback query: %w", err)
	}
	return hits, nil
}

// fetchLinked retrieves the media records whose parent chunk is among the
// returned chunks, scoped to the user. The whole collection is ranked so
// no linked record is cut off by the similarity limit.
func (e *Engine) fetchLinked(ctx context.Context, col vectordb.Collection, qVec []float32, userID string, chunkIDs []string) ([]vectordb.Result, error) {
	if len(chunkIDs) == 0 {
		return nil, nil
	}
	count := col.Count()
	if count == 0 {
		return nil, nil
	}

	filter := vectordb.And(
		vectordb.Eq(domain.KeyUserID, userID),
		vectordb.In(domain.KeyParentChunkID, chunkIDs...),
	)
	results, err := col.Query(ctx, qVec, count, filter)
	if err != nil {
		return nil, fmt.Errorf("linked media fetch: %w", err)
	}
	return results, nil
}

// pick projects the re-ranked identifiers back onto the merged mapping.
func pick(media map[string]Media, ids []string) map[string]Media {
	out := make(map[string]Media, len(ids))
	for _, id := range ids {
		if m, ok := media[id]; ok {
			out[id] = m
		}
	}
	return out
}
