package driven

import "context"

// Embedder generates vector embeddings from text.
//
// Implementations are expected to be stateless and deterministic for a
// given model identity, and to amortise fixed request overhead across a
// batch: EmbedBatch with n texts must be one model call, not n.
//
// Implementations may include:
//   - OpenAI-compatible APIs (text-embedding-3-small, ...)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Local inference servers
type Embedder interface {
	// EmbedBatch generates embeddings for texts in one call.
	// Output order matches input order. Vectors are unit-normalised so
	// L2 distance ordering coincides with cosine similarity ordering.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536).
	// This must match the vector index configuration.
	Dimensions() int

	// ModelName returns the embedding model identity. It participates in
	// cache keys, so two differently named models never share entries.
	ModelName() string
}
