package converter

import "context"

// Figure is an extracted figure with page provenance and rendered pixels.
type Figure struct {
	Page    int
	Caption string
	PNG     []byte
}

// Table is an extracted table with page provenance and markdown body.
type Table struct {
	Page     int
	Caption  string
	Markdown string
}

// Document is the normalized form of a converted source document.
type Document struct {
	Markdown string
	Figures  []Figure
	Tables   []Table
}

// Converter turns a source document (typically a PDF) into normalized
// markdown plus structured figures and tables.
type Converter interface {
	Convert(ctx context.Context, path string) (*Document, error)
}
