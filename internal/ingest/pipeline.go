package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"scirag/internal/classifier"
	"scirag/internal/converter"
	"scirag/internal/domain"
	"scirag/internal/embeddings"
	"scirag/internal/ledger"
	"scirag/internal/llm"
	"scirag/internal/metadata"
	"scirag/internal/progress"
	"scirag/internal/vectordb"
)

// ErrNoDomain marks a document that fits no configured domain. The
// document is skipped; the batch continues.
var ErrNoDomain = errors.New("no domain found")

const (
	defaultChunkSize = 1500
	previewChars     = 400
	classifyPeek     = 2000
)

// Pipeline ingests documents into the per-domain content stores:
// convert, classify, extract metadata, chunk, embed, store, and link
// figure/table summaries back to their owning chunks.
type Pipeline struct {
	converter  converter.Converter
	classifier *classifier.Classifier
	extractor  *metadata.Extractor
	provider   llm.Provider
	embedders  embeddings.Factory
	store      vectordb.Store
	registry   *domain.Registry
	ledger     *ledger.Ledger
	reporter   progress.Reporter
	chatModel  string
	chunkSize  int
}

// Options bundles the pipeline's collaborators.
type Options struct {
	Converter  converter.Converter
	Classifier *classifier.Classifier
	Extractor  *metadata.Extractor
	Provider   llm.Provider
	Embedders  embeddings.Factory
	Store      vectordb.Store
	Registry   *domain.Registry
	Ledger     *ledger.Ledger // optional
	Reporter   progress.Reporter
	ChatModel  string
	ChunkSize  int
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(opts Options) *Pipeline {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	if opts.Reporter == nil {
		opts.Reporter = progress.NopReporter{}
	}
	return &Pipeline{
		converter:  opts.Converter,
		classifier: opts.Classifier,
		extractor:  opts.Extractor,
		provider:   opts.Provider,
		embedders:  opts.Embedders,
		store:      opts.Store,
		registry:   opts.Registry,
		ledger:     opts.Ledger,
		reporter:   opts.Reporter,
		chatModel:  opts.ChatModel,
		chunkSize:  opts.ChunkSize,
	}
}

// Result summarizes one ingestion batch.
type Result struct {
	Ingested int
	Skipped  int
	Failed   int
	Chunks   int
	Figures  int
	Tables   int
}

// docStats counts what a single document contributed.
type docStats struct {
	domain  string
	chunks  int
	figures int
	tables  int
}

// Run ingests every document matched by the source pattern for the given
// user. Cancellation is checked before each document, never mid-document;
// a single failing document is logged and does not abort the batch.
func (p *Pipeline) Run(ctx context.Context, pattern, userID string) (*Result, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad source pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no documents matched pattern %q", pattern)
	}

	result := &Result{}
	p.reporter.Start(len(matches))
	defer p.reporter.Finish()

	for i, path := range matches {
		if ctx.Err() != nil {
			log.Printf("ingestion cancelled after %d of %d documents", i, len(matches))
			return result, ctx.Err()
		}
		p.reporter.Update(i+1, filepath.Base(path))

		stats, err := p.ingestDocument(ctx, path, userID)
		switch {
		case errors.Is(err, ErrNoDomain):
			log.Printf("no domain found for %s, skipped", filepath.Base(path))
			result.Skipped++
			p.record(ctx, ledger.Document{
				ID: uuid.NewString(), UserID: userID, Path: path,
				Status: ledger.StatusSkipped,
			})
		case err != nil:
			log.Printf("ingesting %s: %v", filepath.Base(path), err)
			result.Failed++
			p.record(ctx, ledger.Document{
				ID: uuid.NewString(), UserID: userID, Path: path,
				Status: ledger.StatusFailed, Error: err.Error(),
			})
		default:
			result.Ingested++
			result.Chunks += stats.chunks
			result.Figures += stats.figures
			result.Tables += stats.tables
			p.record(ctx, ledger.Document{
				ID: uuid.NewString(), UserID: userID, Domain: stats.domain, Path: path,
				Status: ledger.StatusIngested,
				Chunks: stats.chunks, Figures: stats.figures, Tables: stats.tables,
			})
		}
	}

	return result, nil
}

// record writes a ledger row; ledger failures are logged, never fatal.
func (p *Pipeline) record(ctx context.Context, doc ledger.Document) {
	if p.ledger == nil {
		return
	}
	if err := p.ledger.Record(ctx, doc); err != nil {
		log.Printf("ledger: %v", err)
	}
}

func (p *Pipeline) ingestDocument(ctx context.Context, path, userID string) (*docStats, error) {
	doc, err := p.converter.Convert(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("converting: %w", err)
	}

	domName, ok, err := p.classifier.Classify(ctx, truncate(doc.Markdown, classifyPeek))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoDomain
	}
	dom, _ := p.registry.Lookup(domName)
	log.Printf("ingesting %s for domain %s", filepath.Base(path), domName)

	for _, dir := range []string{dom.ObjectDirs.Image, dom.ObjectDirs.Table} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating object store dir: %w", err)
		}
	}

	textCol, err := p.store.Collection(dom.Collections.Text)
	if err != nil {
		return nil, err
	}
	imageCol, err := p.store.Collection(dom.Collections.Image)
	if err != nil {
		return nil, err
	}
	tableCol, err := p.store.Collection(dom.Collections.Table)
	if err != nil {
		return nil, err
	}

	rec, err := p.extractor.FromDocument(ctx, dom, doc.Markdown)
	if err != nil {
		return nil, fmt.Errorf("extracting metadata: %w", err)
	}
	meta := map[string]any(rec)
	meta[domain.KeyPath] = path
	flat := metadata.Flatten(meta)

	chunkIDs, err := p.storeChunks(ctx, textCol, dom, doc.Markdown, flat, userID)
	if err != nil {
		return nil, err
	}

	figures, err := p.storeFigures(ctx, imageCol, dom, doc, path, chunkIDs, flat, userID)
	if err != nil {
		return nil, err
	}

	tables, err := p.storeTables(ctx, tableCol, dom, doc, chunkIDs, flat, userID)
	if err != nil {
		return nil, err
	}

	log.Printf("ingested %d chunks, %d figures, %d tables from %s",
		len(chunkIDs), figures, tables, filepath.Base(path))

	return &docStats{domain: domName, chunks: len(chunkIDs), figures: figures, tables: tables}, nil
}

// storeChunks splits the markdown into fixed-size chunks, embeds them and
// writes them into the text collection. Returns the ordered chunk ids.
func (p *Pipeline) storeChunks(ctx context.Context, col vectordb.Collection, dom *domain.Config, md string, flat map[string]string, userID string) ([]string, error) {
	chunks := splitChunks(md, p.chunkSize)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document produced no text chunks")
	}

	embedder := p.embedders.ForModel(dom.EmbedModels.Text)
	vectors, err := embedder.Embed(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}

	ids := make([]string, len(chunks))
	records := make([]vectordb.Record, len(chunks))
	for i, chunk := range chunks {
		ids[i] = uuid.NewString()
		records[i] = vectordb.Record{
			ID:        ids[i],
			Content:   chunk,
			Embedding: vectors[i],
			Metadata: withKeys(flat, map[string]string{
				domain.KeyChunkID:      ids[i],
				domain.KeyChunkPreview: truncate(chunk, previewChars),
				domain.KeyUserID:       userID,
			}),
		}
	}

	if err := col.Add(ctx, records); err != nil {
		return nil, fmt.Errorf("storing chunks: %w", err)
	}
	return ids, nil
}

func (p *Pipeline) storeFigures(ctx context.Context, col vectordb.Collection, dom *domain.Config, doc *converter.Document, path string, chunkIDs []string, flat map[string]string, userID string) (int, error) {
	maxPage := maxMediaPage(len(doc.Figures), func(i int) int { return doc.Figures[i].Page })
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	stored := 0
	for _, fig := range doc.Figures {
		if len(fig.PNG) == 0 {
			continue
		}

		id := uuid.NewString()
		assetPath := filepath.Join(dom.ObjectDirs.Image, fmt.Sprintf("%s_%s_p%d.png", id, stem, fig.Page))
		if err := os.WriteFile(assetPath, fig.PNG, 0o644); err != nil {
			return stored, fmt.Errorf("writing figure asset: %w", err)
		}

		parent := chunkIDs[chunkIndexForPage(fig.Page, maxPage, len(chunkIDs))]

		summary, err := p.figureSummary(ctx, fig, flat)
		if err != nil {
			return stored, err
		}

		embedText := summary
		if fig.Caption != "" {
			embedText = fig.Caption + "\n\n" + summary
		}
		vectors, err := p.embedders.ForModel(dom.EmbedModels.Image).Embed(ctx, []string{embedText})
		if err != nil {
			return stored, fmt.Errorf("embedding figure summary: %w", err)
		}

		rec := vectordb.Record{
			ID:        id,
			Content:   summary,
			Embedding: vectors[0],
			Metadata: withKeys(flat, map[string]string{
				domain.KeyMediaID:       id,
				domain.KeyParentChunkID: parent,
				domain.KeyPath:          assetPath,
				domain.KeyCaption:       fig.Caption,
				domain.KeySummary:       summary,
				domain.KeyUserID:        userID,
			}),
		}
		if err := col.Add(ctx, []vectordb.Record{rec}); err != nil {
			return stored, fmt.Errorf("storing figure summary: %w", err)
		}
		stored++
	}
	return stored, nil
}

func (p *Pipeline) storeTables(ctx context.Context, col vectordb.Collection, dom *domain.Config, doc *converter.Document, chunkIDs []string, flat map[string]string, userID string) (int, error) {
	maxPage := maxMediaPage(len(doc.Tables), func(i int) int { return doc.Tables[i].Page })

	stored := 0
	for _, tbl := range doc.Tables {
		tableMD := strings.TrimSpace(tbl.Markdown)
		if tableMD == "" {
			continue
		}

		caption := resolveTableCaption(tbl.Caption, tableMD, doc.Markdown)
		parent := chunkIDs[chunkIndexForPage(tbl.Page, maxPage, len(chunkIDs))]

		id := uuid.NewString()
		assetPath := filepath.Join(dom.ObjectDirs.Table, id+".md")
		if err := os.WriteFile(assetPath, []byte(tableMD), 0o644); err != nil {
			return stored, fmt.Errorf("writing table asset: %w", err)
		}

		summary, err := p.tableSummary(ctx, tableMD, caption, flat)
		if err != nil {
			return stored, err
		}

		embedText := summary
		if caption != "" {
			embedText = caption + "\n\n" + summary
		}
		vectors, err := p.embedders.ForModel(dom.EmbedModels.Table).Embed(ctx, []string{embedText})
		if err != nil {
			return stored, fmt.Errorf("embedding table summary: %w", err)
		}

		rec := vectordb.Record{
			ID:        id,
			Content:   summary,
			Embedding: vectors[0],
			Metadata: withKeys(flat, map[string]string{
				domain.KeyMediaID:       id,
				domain.KeyParentChunkID: parent,
				domain.KeyPath:          assetPath,
				domain.KeyCaption:       caption,
				domain.KeySummary:       summary,
				domain.KeyUserID:        userID,
			}),
		}
		if err := col.Add(ctx, []vectordb.Record{rec}); err != nil {
			return stored, fmt.Errorf("storing table summary: %w", err)
		}
		stored++
	}
	return stored, nil
}

// maxMediaPage returns the highest page number among n media items, at
// least 1. Pages are read through the accessor to share the logic across
// figures and tables.
func maxMediaPage(n int, pageAt func(int) int) int {
	maxPage := 1
	for i := 0; i < n; i++ {
		if pg := pageAt(i); pg > maxPage {
			maxPage = pg
		}
	}
	return maxPage
}

// withKeys copies base and overlays the reserved keys on top.
func withKeys(base, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
