package domain

// Chunk is the atomic retrievable unit of ingested text.
type Chunk struct {
	// ChunkID is the content fingerprint of Text. Identical text ingested
	// twice produces the same ChunkID.
	ChunkID string `json:"chunk_id"`

	// Text is the chunk content.
	Text string `json:"text"`

	// SourceFile is the document the chunk was extracted from.
	SourceFile string `json:"source_file"`

	// SequenceIndex is the chunk's position within its source document.
	SequenceIndex int `json:"sequence_index"`

	// VectorID is assigned by the index store at insertion time: unique,
	// monotonically increasing, never reused. It is the sole join key
	// between the ANN graph and the metadata log.
	VectorID int64 `json:"vector_id"`

	// Score is the cross-encoder relevance score set by reranking.
	// Zero until a reranker has seen the chunk.
	Score float64 `json:"score,omitempty"`
}

// Source attributes part of an answer to an ingested chunk.
type Source struct {
	File    string `json:"file"`
	ChunkID string `json:"chunk_id"`
}

// Answer is the result of running a query through the full pipeline.
type Answer struct {
	Query   string   `json:"query"`
	Text    string   `json:"answer"`
	Sources []Source `json:"sources"`

	// ElapsedMillis is the wall time spent producing the answer.
	ElapsedMillis int64 `json:"elapsed_ms"`
}
