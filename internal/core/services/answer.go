package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/quarrylabs/quarry/internal/core/domain"
	"github.com/quarrylabs/quarry/internal/core/ports/driven"
	"github.com/quarrylabs/quarry/internal/logger"
)

// DefaultContextBudget bounds the context window in characters.
const DefaultContextBudget = 8000

// finalTTL trades answer freshness for generation cost.
const finalTTL = 10 * time.Minute

// promptTemplate instructs the model to answer strictly from the
// supplied context.
const promptTemplate = `You are a helpful AI assistant.
Answer the question using ONLY the provided context.
If the answer is not in the context, say you don't know.

Context:
%s

Question:
%s

Answer:`

// AnswerGenerator builds a bounded context window from reranked chunks,
// calls the generation model once and caches the answer.
type AnswerGenerator struct {
	generator     driven.TextGenerator
	cache         driven.Cache
	contextBudget int
}

// NewAnswerGenerator creates an answer generator. A non-positive budget
// falls back to DefaultContextBudget.
func NewAnswerGenerator(generator driven.TextGenerator, cache driven.Cache, contextBudget int) *AnswerGenerator {
	if contextBudget <= 0 {
		contextBudget = DefaultContextBudget
	}
	return &AnswerGenerator{generator: generator, cache: cache, contextBudget: contextBudget}
}

// GeneratorModelName returns the generation model identity.
func (a *AnswerGenerator) GeneratorModelName() string {
	return a.generator.ModelName()
}

// Generate answers the query from the given chunks. The chunks are
// concatenated in input order up to the character budget; a chunk that
// would overflow it ends the context, never truncated mid-text.
func (a *AnswerGenerator) Generate(ctx context.Context, query string, chunks []domain.Chunk) (string, error) {
	key := a.cacheKey(query)

	val, ok, err := a.cache.Get(ctx, key)
	if err != nil {
		logger.Warn("Answer cache read failed, regenerating: %v", err)
	}
	if err == nil && ok {
		var answer string
		if jsonErr := json.Unmarshal([]byte(val), &answer); jsonErr == nil {
			logger.Debug("Answer cache hit")
			return answer, nil
		}
	}

	prompt := fmt.Sprintf(promptTemplate, a.buildContext(chunks), query)

	answer, err := a.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: generation: %v", domain.ErrExternalService, err)
	}
	answer = strings.TrimSpace(answer)

	if data, jsonErr := json.Marshal(answer); jsonErr == nil {
		if err := a.cache.SetEx(ctx, key, string(data), finalTTL); err != nil {
			logger.Warn("Answer cache write failed: %v", err)
		}
	}
	return answer, nil
}

// buildContext concatenates chunk texts in input order, stopping before
// the first chunk that would push the total over the budget.
func (a *AnswerGenerator) buildContext(chunks []domain.Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		if b.Len()+len(c.Text) > a.contextBudget {
			break
		}
		b.WriteString(c.Text)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}

// cacheKey depends only on the model identity and the normalised query.
func (a *AnswerGenerator) cacheKey(query string) string {
	return fmt.Sprintf("final:%s:%s", a.generator.ModelName(), domain.QueryFingerprint(query))
}
