package driven

import "context"

// TextExtractor pulls plain text out of a document payload.
// Extraction is a pure, stateless transform.
type TextExtractor interface {
	// Supports reports whether the extractor handles the named document,
	// judged by its extension.
	Supports(name string) bool

	// ExtractText returns the document's text content. A document the
	// extractor cannot parse is an error; a parseable document with no
	// text yields an empty string.
	ExtractText(ctx context.Context, name string, data []byte) (string, error)
}
