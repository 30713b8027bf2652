package retrieval

import (
	"fmt"
	"strings"

	"scirag/internal/domain"
	"scirag/internal/vectordb"
)

// docTextChars bounds how much of each chunk body feeds the answer prompt.
const docTextChars = 1500

// buildContext renders the retained chunks and the final media selections
// into the sections the answer prompt consumes. Media are listed with
// their full identifiers so the model can cite them verbatim.
func buildContext(chunks []vectordb.Result, images, tables map[string]Media) []string {
	var ctx []string

	for i, chunk := range chunks {
		meta := chunk.Metadata
		section := fmt.Sprintf(
			"\n### Doc %d (chunk %s)\nTitle    : %s\nAuthors  : %s\nAbstract : %s\nKeywords : %s\n---\n%s\n",
			i+1,
			shortID(meta[domain.KeyChunkID]),
			meta["title"],
			meta["authors"],
			meta["abstract"],
			meta["keywords"],
			truncate(chunk.Content, docTextChars),
		)
		ctx = append(ctx, section)
	}

	if len(images) > 0 {
		ctx = append(ctx, "\n## Linked images")
		for _, id := range sortedIDs(images) {
			ctx = append(ctx, fmt.Sprintf("* (img:%s) %s", id, images[id].Summary))
		}
	}

	if len(tables) > 0 {
		ctx = append(ctx, "\n## Linked tables")
		for _, id := range sortedIDs(tables) {
			ctx = append(ctx, fmt.Sprintf("* (tbl:%s) %s", id, tables[id].Summary))
		}
	}

	return ctx
}

// composePrompt assembles the final answer prompt from the domain header,
// the rendered context and the user's question.
func composePrompt(header string, ctx []string, question string) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n--- MATERIAL ---\n")
	b.WriteString(strings.Join(ctx, ""))
	b.WriteString("\n--- END MATERIAL ---\n\nQuestion: \"")
	b.WriteString(question)
	b.WriteString("\"")
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
