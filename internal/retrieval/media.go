package retrieval

import (
	"sort"

	"scirag/internal/domain"
	"scirag/internal/vectordb"
)

// Media is a candidate figure or table pulled from a media store.
type Media struct {
	ID            string
	Summary       string
	Path          string
	Caption       string
	ParentChunkID string
}

func mediaFromResult(r vectordb.Result) Media {
	return Media{
		ID:            r.ID,
		Summary:       r.Metadata[domain.KeySummary],
		Path:          r.Metadata[domain.KeyPath],
		Caption:       r.Metadata[domain.KeyCaption],
		ParentChunkID: r.Metadata[domain.KeyParentChunkID],
	}
}

// mergeMedia combines directly-linked and semantically-retrieved media
// into a mapping keyed by media identifier. Later entries overwrite
// earlier ones; duplicates carry equivalent values, so this is safe.
func mergeMedia(groups ...[]vectordb.Result) map[string]Media {
	merged := make(map[string]Media)
	for _, group := range groups {
		for _, r := range group {
			merged[r.ID] = mediaFromResult(r)
		}
	}
	return merged
}

// sortedIDs returns the map keys in lexical order for deterministic
// iteration.
func sortedIDs(media map[string]Media) []string {
	ids := make([]string, 0, len(media))
	for id := range media {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
