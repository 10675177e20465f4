package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/quarrylabs/quarry/internal/core/domain"
	"github.com/quarrylabs/quarry/internal/core/ports/driven"
	"github.com/quarrylabs/quarry/internal/logger"
)

// DefaultTopN is the candidate count surviving reranking.
const DefaultTopN = 5

// rerankTTL matches the ANN cache: the candidate set drifts as the
// index grows.
const rerankTTL = 5 * time.Minute

// Reranker scores ANN candidates against the query with a cross-encoder
// and keeps the top N.
type Reranker struct {
	scorer driven.PairScorer
	cache  driven.Cache
	topN   int
}

// NewReranker creates a reranker. A non-positive topN falls back to
// DefaultTopN.
func NewReranker(scorer driven.PairScorer, cache driven.Cache, topN int) *Reranker {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Reranker{scorer: scorer, cache: cache, topN: topN}
}

// ScorerModelName returns the cross-encoder model identity.
func (r *Reranker) ScorerModelName() string {
	return r.scorer.ModelName()
}

// Rerank returns up to topN candidates in descending cross-encoder
// score order. The sort is stable: ties keep the original candidate
// order. Empty input yields empty output without touching the cache.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []domain.Chunk) ([]domain.Chunk, error) {
	if len(candidates) == 0 {
		return []domain.Chunk{}, nil
	}

	key := r.cacheKey(query, candidates)
	val, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		logger.Warn("Rerank cache read failed, recomputing: %v", err)
	}
	if err == nil && ok {
		var chunks []domain.Chunk
		if jsonErr := json.Unmarshal([]byte(val), &chunks); jsonErr == nil {
			logger.Debug("Rerank cache hit: %d chunks", len(chunks))
			return chunks, nil
		}
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
	}

	scores, err := r.scorer.ScorePairs(ctx, query, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: scoring %d pairs: %v", domain.ErrExternalService, len(texts), err)
	}
	if len(scores) != len(candidates) {
		return nil, fmt.Errorf("%w: scorer returned %d scores for %d candidates",
			domain.ErrExternalService, len(scores), len(candidates))
	}

	scored := make([]domain.Chunk, len(candidates))
	for i, c := range candidates {
		c.Score = scores[i]
		scored[i] = c
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > r.topN {
		scored = scored[:r.topN]
	}
	logger.Debug("Reranked %d candidates to %d", len(candidates), len(scored))

	if data, jsonErr := json.Marshal(scored); jsonErr == nil {
		if err := r.cache.SetEx(ctx, key, string(data), rerankTTL); err != nil {
			logger.Warn("Rerank cache write failed: %v", err)
		}
	}
	return scored, nil
}

// cacheKey is content-sensitive: it hashes the concatenated candidate
// ids, so a candidate set that changed without changing size can never
// serve a stale rerank.
func (r *Reranker) cacheKey(query string, candidates []domain.Chunk) string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ChunkID
	}
	digest := domain.Fingerprint(strings.Join(ids, ","))
	return fmt.Sprintf("rerank:%s:%s:%s:%d",
		r.scorer.ModelName(), domain.QueryFingerprint(query), digest, r.topN)
}
