package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/quarrylabs/quarry/internal/core/domain"
	"github.com/quarrylabs/quarry/internal/core/ports/driven"
	"github.com/quarrylabs/quarry/internal/logger"
)

// EmbeddingGateway wraps the embedding model with a cache-aside layer.
// Embedding cache entries never expire: a vector is a pure function of
// (model, text) and is cheap to keep forever.
type EmbeddingGateway struct {
	embedder driven.Embedder
	cache    driven.Cache
}

// NewEmbeddingGateway creates a gateway over the given model and cache.
func NewEmbeddingGateway(embedder driven.Embedder, cache driven.Cache) *EmbeddingGateway {
	return &EmbeddingGateway{embedder: embedder, cache: cache}
}

// ModelName returns the underlying embedding model identity.
func (g *EmbeddingGateway) ModelName() string {
	return g.embedder.ModelName()
}

// Dimensions returns the underlying embedding vector size.
func (g *EmbeddingGateway) Dimensions() int {
	return g.embedder.Dimensions()
}

// EmbedTexts returns one vector per input text, in input order. Cached
// vectors are reused; all misses go to the model in a single batched
// call, and every newly computed vector is written back before return.
func (g *EmbeddingGateway) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(texts))
	var missing []int

	for i, text := range texts {
		key := g.cacheKey(text)
		val, ok, err := g.cache.Get(ctx, key)
		if err != nil {
			logger.Warn("Embedding cache read failed, recomputing: %v", err)
		}
		if err == nil && ok {
			var vec []float32
			if jsonErr := json.Unmarshal([]byte(val), &vec); jsonErr == nil && len(vec) > 0 {
				vectors[i] = vec
				continue
			}
		}
		missing = append(missing, i)
	}

	logger.Debug("Embedding: %d texts, %d cache hits, %d to compute",
		len(texts), len(texts)-len(missing), len(missing))

	if len(missing) == 0 {
		return vectors, nil
	}

	batch := make([]string, len(missing))
	for j, idx := range missing {
		batch[j] = texts[idx]
	}

	computed, err := g.embedder.EmbedBatch(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding batch of %d: %v", domain.ErrExternalService, len(batch), err)
	}
	if len(computed) != len(missing) {
		return nil, fmt.Errorf("%w: embedding model returned %d vectors for %d texts",
			domain.ErrExternalService, len(computed), len(missing))
	}

	for j, idx := range missing {
		vectors[idx] = computed[j]
		data, jsonErr := json.Marshal(computed[j])
		if jsonErr != nil {
			continue
		}
		if err := g.cache.Set(ctx, g.cacheKey(texts[idx]), string(data)); err != nil {
			logger.Warn("Embedding cache write failed: %v", err)
		}
	}
	return vectors, nil
}

// cacheKey is a pure function of model identity and exact text content.
func (g *EmbeddingGateway) cacheKey(text string) string {
	return fmt.Sprintf("embed:%s:%s", g.embedder.ModelName(), domain.Fingerprint(text))
}
