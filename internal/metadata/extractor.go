package metadata

import (
	"context"

	"scirag/internal/domain"
	"scirag/internal/llm"
)

// docPeekChars bounds how much of a document feeds metadata extraction.
const docPeekChars = 1500

// Extractor produces structured metadata records from free text via the
// domain's extraction prompts.
type Extractor struct {
	provider llm.Provider
	model    string
}

// NewExtractor creates an Extractor on the given provider. model may be
// empty to use the provider default.
func NewExtractor(provider llm.Provider, model string) *Extractor {
	return &Extractor{provider: provider, model: model}
}

// FromDocument extracts rich document-level metadata (title, authors,
// abstract, domain fields) from the opening text of a document.
// A transport failure propagates; unparsable model output yields an
// empty record and no error.
func (e *Extractor) FromDocument(ctx context.Context, dom *domain.Config, text string) (Record, error) {
	return e.extract(ctx, dom, dom.Prompts.DocMeta, truncate(text, docPeekChars))
}

// FromQuery extracts the sparse, filter-oriented metadata fields from a
// user question.
func (e *Extractor) FromQuery(ctx context.Context, dom *domain.Config, question string) (Record, error) {
	return e.extract(ctx, dom, dom.Prompts.QueryMeta, question)
}

func (e *Extractor) extract(ctx context.Context, dom *domain.Config, prompt, text string) (Record, error) {
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Model: e.model,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: prompt + text},
		},
		Temperature: 0,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}
	return Validate(SafeJSON(resp.Content), dom.Schema), nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
