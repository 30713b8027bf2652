package domain

// Reserved metadata keys shared by the ingestion and retrieval paths.
// They sit alongside the flattened document-level attributes in every
// stored record.
const (
	KeyChunkID       = "chunk_id"
	KeyChunkPreview  = "chunk_preview"
	KeyUserID        = "user_id"
	KeyMediaID       = "id"
	KeyParentChunkID = "parent_chunk_id"
	KeyPath          = "path"
	KeyCaption       = "caption"
	KeySummary       = "summary"
)
