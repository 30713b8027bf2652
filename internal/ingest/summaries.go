package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"scirag/internal/converter"
	"scirag/internal/llm"
)

const summaryMaxWords = 200

// contextSentence weaves the document's title, topic and method into a
// single phrase so that vector search later binds the media back to the
// right document.
func contextSentence(meta map[string]string) string {
	var bits []string
	if t := meta["title"]; t != "" {
		bits = append(bits, fmt.Sprintf("from the paper titled %q", t))
	}
	for _, key := range []string{"Diseases", "Vulnerabilities"} {
		if v := meta[key]; v != "" {
			bits = append(bits, "focused on "+v)
			break
		}
	}
	if m := meta["Methodology"]; m != "" {
		bits = append(bits, "using "+m)
	}
	if k := meta["keywords"]; k != "" {
		bits = append(bits, "("+k+")")
	}
	return strings.Join(bits, " ")
}

// figureSummary asks the model for a retrieval-friendly summary of a
// rendered figure, with the PNG attached to the prompt.
func (p *Pipeline) figureSummary(ctx context.Context, fig converter.Figure, meta map[string]string) (string, error) {
	metaJSON, _ := json.Marshal(meta)

	prompt := fmt.Sprintf(`You are an expert science writer helping a retrieval system.
Write a concise, retrieval-friendly figure summary (at most %d words).

What to include:
- The scientific context (topic, method) in one phrase.
- What the image visually shows (axes, flows, key elements).
- Any numerical results or qualitative comparisons visible.
- Mention the provided caption if it clarifies symbols.
What to avoid:
- Guessing beyond image, caption and metadata.
- Generic filler such as "This is a figure".

Context  : %s
Caption  : %s
Metadata : %s

Write the summary:`,
		summaryMaxWords, orNA(contextSentence(meta)), orNA(fig.Caption), metaJSON)

	resp, err := p.provider.Complete(ctx, llm.CompletionRequest{
		Model: p.chatModel,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: prompt,
			Images:  []llm.Attachment{{MIMEType: "image/png", Data: fig.PNG}},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("figure summary: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}

// tableSummary asks the model for a retrieval-friendly summary of a
// table's markdown body.
func (p *Pipeline) tableSummary(ctx context.Context, tableMD, caption string, meta map[string]string) (string, error) {
	metaJSON, _ := json.Marshal(meta)

	prompt := fmt.Sprintf(`You are an expert science writer helping a retrieval system.

Task: write a succinct (at most %d words) yet retrieval-friendly table
summary that naturally embeds the study context and key metrics.

Must cover:
- Scientific context (topic, method) in a single clause.
- What variables or metrics the table reports (accuracy, F1, etc.).
- Any standout values or comparisons.
- Clarify the caption if it uses abbreviations.

Table (markdown):
%s

Caption  : %s
Context  : %s
Full metadata (JSON for reference, do not dump): %s

Write the summary now:`,
		summaryMaxWords, truncate(tableMD, 4000), orNA(caption), orNA(contextSentence(meta)), metaJSON)

	resp, err := p.provider.Complete(ctx, llm.CompletionRequest{
		Model:    p.chatModel,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("table summary: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
