package retrieval

import (
	"os"
	"regexp"
)

// Media reference kinds in a resolved display list.
const (
	KindImage = "image"
	KindTable = "table"
)

// MediaRef is one resolved inline citation: the kind of asset and its
// object-store path.
type MediaRef struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// citationRE matches inline citation tokens: an 8-char identifier prefix
// or a 32-36 char full identifier, hyphens optional.
var citationRE = regexp.MustCompile(`<<(img|tbl):([0-9A-Fa-f]{8}|[0-9A-Fa-f-]{32,36})>>`)

// ResolveCitations scans the answer text for citation tokens and resolves
// them against the final media candidates. An 8-char token matches the
// first candidate (in sorted identifier order) whose identifier starts
// with that prefix; longer tokens are exact lookups. Unmatched tokens and
// tokens whose backing asset no longer exists are dropped silently, and
// each (kind, path) pair appears at most once.
func ResolveCitations(answer string, images, tables map[string]Media) []MediaRef {
	var refs []MediaRef
	seen := make(map[MediaRef]bool)

	for _, m := range citationRE.FindAllStringSubmatch(answer, -1) {
		token := m[2]

		var candidates map[string]Media
		var kind string
		if m[1] == "img" {
			candidates, kind = images, KindImage
		} else {
			candidates, kind = tables, KindTable
		}

		media, ok := lookupToken(token, candidates)
		if !ok {
			continue
		}
		if _, err := os.Stat(media.Path); err != nil {
			continue
		}

		ref := MediaRef{Kind: kind, Path: media.Path}
		if seen[ref] {
			continue
		}
		seen[ref] = true
		refs = append(refs, ref)
	}

	return refs
}

func lookupToken(token string, candidates map[string]Media) (Media, bool) {
	if len(token) == 8 {
		for _, id := range sortedIDs(candidates) {
			if len(id) >= 8 && id[:8] == token {
				return candidates[id], true
			}
		}
		return Media{}, false
	}
	m, ok := candidates[token]
	return m, ok
}
