package driving

import (
	"context"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

// QueryService answers natural-language questions from the ingested corpus.
type QueryService interface {
	// Answer runs the retrieval pipeline (retrieve, rerank, generate)
	// and returns the generated answer with source attributions.
	Answer(ctx context.Context, query string) (domain.Answer, error)
}
