package driving

import (
	"context"
	"io"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

// IngestService turns documents into indexed, retrievable chunks.
type IngestService interface {
	// IngestFiles ingests documents from the local filesystem.
	// Failures are isolated per document; the report carries one result
	// per input path.
	IngestFiles(ctx context.Context, paths []string) (domain.IngestReport, error)

	// IngestDocument ingests a single named document from a reader.
	// The returned result is also recorded in the ledger.
	IngestDocument(ctx context.Context, name string, r io.Reader) domain.IngestResult
}
