package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quarrylabs/quarry/internal/core/chunker"
	"github.com/quarrylabs/quarry/internal/core/domain"
	"github.com/quarrylabs/quarry/internal/core/ports/driven"
	"github.com/quarrylabs/quarry/internal/core/ports/driving"
	"github.com/quarrylabs/quarry/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService turns documents into indexed chunks: extract text,
// chunk, embed through the gateway, add to the vector index, record the
// outcome in the ledger. Failures are isolated per document.
type IngestService struct {
	extractor driven.TextExtractor
	chunker   *chunker.Chunker
	gateway   *EmbeddingGateway
	index     driven.VectorIndex
	ledger    driven.DocumentLedger
}

// NewIngestService creates an ingest service. The ledger is optional:
// when nil, outcomes are reported but not recorded.
func NewIngestService(
	extractor driven.TextExtractor,
	ch *chunker.Chunker,
	gateway *EmbeddingGateway,
	index driven.VectorIndex,
	ledger driven.DocumentLedger,
) *IngestService {
	return &IngestService{
		extractor: extractor,
		chunker:   ch,
		gateway:   gateway,
		index:     index,
		ledger:    ledger,
	}
}

// IngestFiles ingests documents from the local filesystem, one result
// per path. An unreadable file fails that document only.
func (s *IngestService) IngestFiles(ctx context.Context, paths []string) (domain.IngestReport, error) {
	report := domain.IngestReport{TotalFiles: len(paths)}
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			result := domain.IngestResult{
				File:   filepath.Base(path),
				Status: domain.IngestStatusFailed,
				Reason: err.Error(),
			}
			s.record(ctx, result)
			report.Results = append(report.Results, result)
			continue
		}
		result := s.IngestDocument(ctx, filepath.Base(path), f)
		f.Close()
		report.Results = append(report.Results, result)
	}
	return report, nil
}

// IngestDocument ingests a single named document. The result is always
// recorded in the ledger, whatever the outcome.
func (s *IngestService) IngestDocument(ctx context.Context, name string, r io.Reader) domain.IngestResult {
	result := s.ingest(ctx, name, r)
	s.record(ctx, result)
	return result
}

func (s *IngestService) ingest(ctx context.Context, name string, r io.Reader) domain.IngestResult {
	logger.Section("Ingest")
	logger.Debug("Document: %s", name)

	if !s.extractor.Supports(name) {
		return domain.IngestResult{File: name, Status: domain.IngestStatusSkipped, Reason: "not a pdf"}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return domain.IngestResult{File: name, Status: domain.IngestStatusFailed, Reason: err.Error()}
	}

	text, err := s.extractor.ExtractText(ctx, name, data)
	if err != nil {
		return domain.IngestResult{File: name, Status: domain.IngestStatusFailed, Reason: err.Error()}
	}
	if strings.TrimSpace(text) == "" {
		err := fmt.Errorf("%w: %s", domain.ErrEmptyDocument, name)
		return domain.IngestResult{File: name, Status: domain.IngestStatusFailed, Reason: reason(err)}
	}

	chunks := s.chunker.Chunk(text, name)
	logger.Debug("Chunked into %d windows", len(chunks))

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.gateway.EmbedTexts(ctx, texts)
	if err != nil {
		return domain.IngestResult{File: name, Status: domain.IngestStatusFailed, Reason: reason(err)}
	}

	if err := s.index.Add(vectors, chunks); err != nil {
		return domain.IngestResult{File: name, Status: domain.IngestStatusFailed, Reason: reason(err)}
	}

	logger.Info("Ingested %s: %d chunks", name, len(chunks))
	return domain.IngestResult{File: name, Status: domain.IngestStatusIngested, NumChunks: len(chunks)}
}

// record writes the outcome to the ledger. Ledger failures never fail
// an ingestion; the index, not the ledger, is the source of truth.
func (s *IngestService) record(ctx context.Context, result domain.IngestResult) {
	if s.ledger == nil {
		return
	}
	rec := domain.DocumentRecord{
		ID:        uuid.NewString(),
		File:      result.File,
		Status:    result.Status,
		Reason:    result.Reason,
		NumChunks: result.NumChunks,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.ledger.Record(ctx, rec); err != nil {
		logger.Warn("Ledger write failed for %s: %v", result.File, err)
	}
}

// reason strips sentinel wrapping down to a reportable string but keeps
// the well-known messages stable for API consumers.
func reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyDocument):
		return "empty pdf"
	default:
		return err.Error()
	}
}
