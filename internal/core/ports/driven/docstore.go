package driven

import (
	"context"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

// DocumentLedger records the outcome of every ingestion attempt.
// Backed by SQLite. The ledger is bookkeeping for operators: the index
// store, not the ledger, is the source of truth for retrievable chunks.
type DocumentLedger interface {
	// Record appends an ingestion outcome.
	Record(ctx context.Context, rec domain.DocumentRecord) error

	// List returns recorded outcomes, most recent first.
	List(ctx context.Context, limit int) ([]domain.DocumentRecord, error)

	// Close releases resources.
	Close() error
}
