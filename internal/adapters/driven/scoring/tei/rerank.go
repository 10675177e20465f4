// Package tei provides a cross-encoder scoring adapter for a
// Text Embeddings Inference reranker endpoint.
package tei

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/quarrylabs/quarry/internal/core/ports/driven"
)

var _ driven.PairScorer = (*Scorer)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:8080"
	DefaultModel   = "BAAI/bge-reranker-base"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the TEI reranker adapter.
type Config struct {
	// BaseURL is the TEI server URL (default: http://localhost:8080).
	BaseURL string

	// Model names the reranker model served by the endpoint
	// (default: BAAI/bge-reranker-base). TEI serves one model per
	// instance; this value only identifies it in cache keys.
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Scorer scores query/passage pairs via TEI's /rerank endpoint.
type Scorer struct {
	client  *http.Client
	baseURL string
	model   string
}

type rerankRequest struct {
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// New creates a TEI reranker adapter.
func New(cfg Config) *Scorer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Scorer{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// ScorePairs scores each text against the query. Output order matches
// input order via the response index field.
func (s *Scorer) ScorePairs(ctx context.Context, query string, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	jsonBody, err := json.Marshal(rerankRequest{Query: query, Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/rerank", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tei error (status %d): %s", resp.StatusCode, string(body))
	}

	var results []rerankResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(results) != len(texts) {
		return nil, fmt.Errorf("tei returned %d scores for %d texts", len(results), len(texts))
	}

	scores := make([]float64, len(texts))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(texts) {
			return nil, fmt.Errorf("tei returned out-of-range index %d", r.Index)
		}
		scores[r.Index] = r.Score
	}
	return scores, nil
}

// ModelName returns the reranker model identity.
func (s *Scorer) ModelName() string {
	return s.model
}
