package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidInput indicates malformed input such as a vector dimension
	// or batch length mismatch. This is a caller bug: surfaced immediately,
	// never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyDocument indicates a document yielded no extractable text.
	// Reported per document; it never aborts a batch.
	ErrEmptyDocument = errors.New("document has no extractable text")

	// ErrIndexIO indicates the durable index or metadata log could not be
	// persisted or loaded. Fatal for the affected operation; prior in-memory
	// state is not rolled back.
	ErrIndexIO = errors.New("index storage failure")

	// ErrIndexCorrupt indicates the durable graph and metadata log disagree
	// in a way startup recovery cannot reconcile.
	ErrIndexCorrupt = errors.New("index and metadata log disagree")

	// ErrExternalService indicates an embedding, scoring or generation
	// model call failed. Per-item in batch ingestion; aborts a query.
	ErrExternalService = errors.New("external model service failure")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")
)
