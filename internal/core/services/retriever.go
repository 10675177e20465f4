package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/quarrylabs/quarry/internal/core/domain"
	"github.com/quarrylabs/quarry/internal/core/ports/driven"
	"github.com/quarrylabs/quarry/internal/logger"
)

// DefaultTopK is the candidate count returned by retrieval.
const DefaultTopK = 20

// annTTL is short because the underlying index may grow between queries.
const annTTL = 5 * time.Minute

// Retriever embeds a query, searches the vector index and caches the
// candidate set.
type Retriever struct {
	gateway *EmbeddingGateway
	index   driven.VectorIndex
	cache   driven.Cache
	topK    int
}

// NewRetriever creates a retriever. A non-positive topK falls back to
// DefaultTopK.
func NewRetriever(gateway *EmbeddingGateway, index driven.VectorIndex, cache driven.Cache, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{gateway: gateway, index: index, cache: cache, topK: topK}
}

// Retrieve returns up to topK chunks for the query, best first in ANN
// distance order.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]domain.Chunk, error) {
	key := r.cacheKey(query)

	val, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		logger.Warn("ANN cache read failed, recomputing: %v", err)
	}
	if err == nil && ok {
		var chunks []domain.Chunk
		if jsonErr := json.Unmarshal([]byte(val), &chunks); jsonErr == nil {
			logger.Debug("ANN cache hit: %d candidates", len(chunks))
			return chunks, nil
		}
	}

	vectors, err := r.gateway.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	chunks, err := r.index.Search(vectors[0], r.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	logger.Debug("ANN search: %d candidates for top_k=%d", len(chunks), r.topK)

	if data, jsonErr := json.Marshal(chunks); jsonErr == nil {
		if err := r.cache.SetEx(ctx, key, string(data), annTTL); err != nil {
			logger.Warn("ANN cache write failed: %v", err)
		}
	}
	return chunks, nil
}

// cacheKey depends only on the model identity, the normalised query and
// the candidate count, never on ingestion order or runtime state.
func (r *Retriever) cacheKey(query string) string {
	return fmt.Sprintf("ann:%s:%s:%d", r.gateway.ModelName(), domain.QueryFingerprint(query), r.topK)
}
