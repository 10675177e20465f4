package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

// --- Mock implementations shared by the service tests ---

// fakeEmbedder implements driven.Embedder deterministically: a text's
// vector is derived from its fingerprint, unit-normalised. It records
// every batch it receives.
type fakeEmbedder struct {
	mu      sync.Mutex
	batches [][]string
	dim     int
	err     error
}

func newFakeEmbedder(dim int) *fakeEmbedder {
	return &fakeEmbedder{dim: dim}
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	batch := make([]string, len(texts))
	copy(batch, texts)
	f.batches = append(f.batches, batch)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vectorFor(t)
	}
	return out, nil
}

// vectorFor derives a stable unit vector from the text fingerprint.
func (f *fakeEmbedder) vectorFor(text string) []float32 {
	fp := domain.Fingerprint(text)
	v := make([]float32, f.dim)
	var norm float64
	for i := range v {
		v[i] = float32(fp[i%len(fp)]) / 128
		norm += float64(v[i]) * float64(v[i])
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

func (f *fakeEmbedder) Dimensions() int { return f.dim }

func (f *fakeEmbedder) ModelName() string { return "fake-minilm" }

func (f *fakeEmbedder) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

// fakeScorer implements driven.PairScorer with canned per-text scores.
type fakeScorer struct {
	scores map[string]float64
	calls  int
	err    error
}

func (f *fakeScorer) ScorePairs(_ context.Context, _ string, texts []string) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]float64, len(texts))
	for i, t := range texts {
		out[i] = f.scores[t]
	}
	return out, nil
}

func (f *fakeScorer) ModelName() string { return "fake-cross-encoder" }

// fakeGenerator implements driven.TextGenerator, echoing a canned
// answer and recording prompts.
type fakeGenerator struct {
	answer  string
	prompts []string
	err     error
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeGenerator) ModelName() string { return "fake-llm" }

// fakeIndex implements driven.VectorIndex with canned search results.
type fakeIndex struct {
	hits      []domain.Chunk
	added     [][]domain.Chunk
	searchErr error
	addErr    error
}

func (f *fakeIndex) Add(vectors [][]float32, metas []domain.Chunk) error {
	if f.addErr != nil {
		return f.addErr
	}
	if len(vectors) != len(metas) {
		return domain.ErrInvalidInput
	}
	f.added = append(f.added, metas)
	return nil
}

func (f *fakeIndex) Search(_ []float32, k int) ([]domain.Chunk, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if k > len(f.hits) {
		return f.hits, nil
	}
	return f.hits[:k], nil
}

func (f *fakeIndex) Count() int {
	n := 0
	for _, batch := range f.added {
		n += len(batch)
	}
	return n
}

func (f *fakeIndex) Close() error { return nil }

// fakeExtractor implements driven.TextExtractor: the payload is the
// text, names ending in .pdf are supported.
type fakeExtractor struct {
	failWith error
}

func (f *fakeExtractor) Supports(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}

func (f *fakeExtractor) ExtractText(_ context.Context, _ string, data []byte) (string, error) {
	if f.failWith != nil {
		return "", f.failWith
	}
	return string(data), nil
}

// failingCache implements driven.Cache, erroring on every operation.
type failingCache struct{}

func (failingCache) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("cache down")
}

func (failingCache) Set(context.Context, string, string) error {
	return errors.New("cache down")
}

func (failingCache) SetEx(context.Context, string, string, time.Duration) error {
	return errors.New("cache down")
}

// mkChunk builds a chunk with a fingerprint id.
func mkChunk(text, file string, seq int) domain.Chunk {
	return domain.Chunk{
		ChunkID:       domain.Fingerprint(text),
		Text:          text,
		SourceFile:    file,
		SequenceIndex: seq,
	}
}

var errModelDown = fmt.Errorf("model down")
