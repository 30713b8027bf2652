package classifier

import (
	"context"
	"fmt"
	"os"
	"strings"

	"scirag/internal/converter"
	"scirag/internal/domain"
	"scirag/internal/llm"
)

// peekChars bounds how much text the classifier examines.
const peekChars = 2000

// Classifier maps raw text or a document path to a configured domain name.
type Classifier struct {
	provider  llm.Provider
	model     string
	registry  *domain.Registry
	converter converter.Converter
}

// New creates a Classifier. converter is used only when the input is a
// file path; it may be nil if callers always pass raw text.
func New(provider llm.Provider, model string, registry *domain.Registry, conv converter.Converter) *Classifier {
	return &Classifier{
		provider:  provider,
		model:     model,
		registry:  registry,
		converter: conv,
	}
}

// Classify returns the domain name for the given text or document path,
// or ok=false when the text fits no configured domain. Transport errors
// propagate unretried; the caller's operation fails as a whole.
func (c *Classifier) Classify(ctx context.Context, textOrPath string) (string, bool, error) {
	text, err := c.peek(ctx, textOrPath)
	if err != nil {
		return "", false, err
	}

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		Model: c.model,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: c.prompt(text)},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", false, fmt.Errorf("domain classification: %w", err)
	}

	token := strings.TrimSpace(resp.Content)
	if _, ok := c.registry.Lookup(token); ok {
		return token, true, nil
	}
	// Anything outside the configured vocabulary, including the literal
	// "none", means no domain was found.
	return "", false, nil
}

// peek resolves the classification input: an existing file is converted
// and truncated, raw text is truncated directly.
func (c *Classifier) peek(ctx context.Context, textOrPath string) (string, error) {
	if info, err := os.Stat(textOrPath); err == nil && !info.IsDir() && c.converter != nil {
		doc, err := c.converter.Convert(ctx, textOrPath)
		if err != nil {
			return "", fmt.Errorf("converting %s for classification: %w", textOrPath, err)
		}
		return truncate(doc.Markdown, peekChars), nil
	}
	return truncate(textOrPath, peekChars), nil
}

func (c *Classifier) prompt(text string) string {
	names := c.registry.Names()
	var b strings.Builder
	b.WriteString("You are a strict one-word domain classifier.\n\n")
	b.WriteString("Allowed answers (exact, case-preserved):\n")
	for _, n := range names {
		fmt.Fprintf(&b, "    %s\n", n)
	}
	b.WriteString("\nIf the text fits none of the domains, reply exactly:\n    none\n\n")
	b.WriteString("Do not output anything else.\n\n")
	b.WriteString("### Task\nTEXT: ```")
	b.WriteString(text)
	b.WriteString("```\nReply with one token: ")
	b.WriteString(strings.Join(append(names, "none"), ", "))
	b.WriteString(".")
	return b.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
