package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quarrylabs/quarry/internal/core/domain"
	"github.com/quarrylabs/quarry/internal/core/ports/driving"
	"github.com/quarrylabs/quarry/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// QueryService chains the pipeline stages: retrieve, rerank, generate.
// Each stage manages its own cache; the service only orchestrates.
type QueryService struct {
	retriever *Retriever
	reranker  *Reranker
	answerer  *AnswerGenerator
}

// NewQueryService creates the query pipeline.
func NewQueryService(retriever *Retriever, reranker *Reranker, answerer *AnswerGenerator) *QueryService {
	return &QueryService{retriever: retriever, reranker: reranker, answerer: answerer}
}

// Answer runs a query through the full pipeline. A query matching
// nothing still generates: the model sees an empty context and says it
// does not know.
func (s *QueryService) Answer(ctx context.Context, query string) (domain.Answer, error) {
	if strings.TrimSpace(query) == "" {
		return domain.Answer{}, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	logger.Section("Query Pipeline")
	logger.Debug("Query: %q", query)
	start := time.Now()

	candidates, err := s.retriever.Retrieve(ctx, query)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("answer: %w", err)
	}

	reranked, err := s.reranker.Rerank(ctx, query, candidates)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("answer: %w", err)
	}

	text, err := s.answerer.Generate(ctx, query, reranked)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("answer: %w", err)
	}

	sources := make([]domain.Source, len(reranked))
	for i, c := range reranked {
		sources[i] = domain.Source{File: c.SourceFile, ChunkID: c.ChunkID}
	}

	elapsed := time.Since(start)
	logger.Info("Answered in %s (%d sources)", elapsed, len(sources))

	return domain.Answer{
		Query:         query,
		Text:          text,
		Sources:       sources,
		ElapsedMillis: elapsed.Milliseconds(),
	}, nil
}
