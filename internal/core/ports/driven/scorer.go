package driven

import "context"

// PairScorer scores (query, text) pairs with a cross-encoder model.
// Unlike an embedder it sees both sides of the pair jointly, which makes
// it more precise and much slower than first-stage search, so it is only
// ever applied to a small candidate set.
type PairScorer interface {
	// ScorePairs returns one relevance score per text, in input order.
	ScorePairs(ctx context.Context, query string, texts []string) ([]float64, error)

	// ModelName returns the cross-encoder model identity for cache keys.
	ModelName() string
}
