// Package pdf extracts plain text from PDF documents.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/quarrylabs/quarry/internal/core/domain"
	"github.com/quarrylabs/quarry/internal/core/ports/driven"
)

var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor extracts text from PDF files page by page.
type Extractor struct{}

// New creates a PDF text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Supports reports whether the file name looks like a PDF.
func (e *Extractor) Supports(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// ExtractText extracts the plain text of every page, pages joined by
// a newline. Malformed PDFs make the underlying parser panic, so the
// panic is converted into an error here.
func (e *Extractor) ExtractText(ctx context.Context, name string, data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: parse %s: %v", domain.ErrInvalidInput, name, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: parse %s: %v", domain.ErrInvalidInput, name, err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages the parser cannot decode rather than
			// failing the whole document.
			continue
		}
		if content == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(content)
	}
	return sb.String(), nil
}
