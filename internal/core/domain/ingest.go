package domain

import "time"

// Ingestion statuses reported per document.
const (
	// IngestStatusIngested means the document was chunked, embedded and added
	// to the index.
	IngestStatusIngested = "ingested"

	// IngestStatusSkipped means the document was not a supported format.
	IngestStatusSkipped = "skipped"

	// IngestStatusFailed means extraction, embedding or indexing failed.
	IngestStatusFailed = "failed"
)

// IngestResult is the outcome of ingesting a single document.
// One document's failure never affects the other documents in a batch.
type IngestResult struct {
	File      string `json:"file"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
	NumChunks int    `json:"num_chunks,omitempty"`
}

// IngestReport summarises a batch ingestion.
type IngestReport struct {
	TotalFiles int            `json:"total_files"`
	Results    []IngestResult `json:"results"`
}

// DocumentRecord is a row in the ingestion ledger.
type DocumentRecord struct {
	ID        string    `json:"id"`
	File      string    `json:"file"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	NumChunks int       `json:"num_chunks"`
	CreatedAt time.Time `json:"created_at"`
}
