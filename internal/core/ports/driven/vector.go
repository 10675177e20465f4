package driven

import (
	"github.com/quarrylabs/quarry/internal/core/domain"
)

// VectorIndex stores chunk vectors and performs approximate
// nearest-neighbour search. Backed by an HNSW graph plus an append-only
// metadata log persisted to disk.
//
// A single exclusive lock inside the implementation serialises Add and
// Search system-wide: writers and readers are never concurrent. This
// trades read throughput for simplicity and crash-consistency of the
// persisted graph/log pair, which is acceptable for a single-process
// deployment.
type VectorIndex interface {
	// Add inserts vectors with their parallel chunk metadata and persists
	// both structures before returning. Vector ids are assigned here,
	// contiguously from the current cardinality. A length or dimension
	// mismatch fails with domain.ErrInvalidInput and mutates nothing.
	Add(vectors [][]float32, metas []domain.Chunk) error

	// Search returns up to k chunks nearest to query, best first in ANN
	// distance order. No match yields an empty slice.
	Search(query []float32, k int) ([]domain.Chunk, error)

	// Count returns the number of indexed vectors.
	Count() int

	// Close persists nothing further and releases resources.
	Close() error
}
