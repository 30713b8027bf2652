package ingest

// splitChunks slices text into fixed-size character chunks. The final
// chunk may be shorter; empty text yields no chunks.
func splitChunks(text string, size int) []string {
	if size <= 0 || text == "" {
		return nil
	}
	runes := []rune(text)
	chunks := make([]string, 0, len(runes)/size+1)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

// chunkIndexForPage projects a page number onto the chunk sequence:
// floor((page-1)/maxPage*numChunks), clamped to [0, numChunks-1]. This
// is a linear approximation of page-to-chunk ownership, not a precise
// page-range join.
func chunkIndexForPage(page, maxPage, numChunks int) int {
	if numChunks <= 0 {
		return 0
	}
	if maxPage < 1 {
		maxPage = 1
	}
	if page < 1 {
		page = 1
	}
	idx := (page - 1) * numChunks / maxPage
	if idx > numChunks-1 {
		idx = numChunks - 1
	}
	return idx
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
