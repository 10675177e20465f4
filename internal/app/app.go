// Package app assembles the application from configuration: adapters
// are constructed, services wired, and everything torn down together.
package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/quarrylabs/quarry/internal/adapters/driven/cache/memory"
	rediscache "github.com/quarrylabs/quarry/internal/adapters/driven/cache/redis"
	"github.com/quarrylabs/quarry/internal/adapters/driven/config/file"
	ollamaembed "github.com/quarrylabs/quarry/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/quarrylabs/quarry/internal/adapters/driven/embedding/openai"
	pdfextract "github.com/quarrylabs/quarry/internal/adapters/driven/extract/pdf"
	"github.com/quarrylabs/quarry/internal/adapters/driven/index/hnsw"
	ollamallm "github.com/quarrylabs/quarry/internal/adapters/driven/llm/ollama"
	openaillm "github.com/quarrylabs/quarry/internal/adapters/driven/llm/openai"
	"github.com/quarrylabs/quarry/internal/adapters/driven/scoring/tei"
	"github.com/quarrylabs/quarry/internal/adapters/driven/storage/sqlite"
	"github.com/quarrylabs/quarry/internal/core/chunker"
	"github.com/quarrylabs/quarry/internal/core/ports/driven"
	"github.com/quarrylabs/quarry/internal/core/services"
)

// App holds the wired services and the resources they own.
type App struct {
	Config file.Config

	Ingest *services.IngestService
	Query  *services.QueryService
	Ledger driven.DocumentLedger
	Index  driven.VectorIndex

	cache driven.Cache
}

// New builds the application from configuration.
func New(ctx context.Context, cfg file.Config) (*App, error) {
	cache, err := newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	generator, err := newGenerator(cfg)
	if err != nil {
		return nil, err
	}

	scorer := tei.New(tei.Config{
		BaseURL: cfg.Reranker.BaseURL,
		Model:   cfg.Reranker.Model,
	})

	index, err := hnsw.Open(hnsw.Config{
		Dir:            filepath.Join(cfg.DataDir, "index"),
		Dim:            cfg.Index.Dimensions,
		M:              cfg.Index.M,
		EfConstruction: cfg.Index.EfConstruction,
		EfSearch:       cfg.Index.EfSearch,
	})
	if err != nil {
		return nil, fmt.Errorf("opening vector index: %w", err)
	}

	ledger, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		index.Close()
		return nil, fmt.Errorf("opening document ledger: %w", err)
	}

	gateway := services.NewEmbeddingGateway(embedder, cache)
	retriever := services.NewRetriever(gateway, index, cache, cfg.Pipeline.TopK)
	reranker := services.NewReranker(scorer, cache, cfg.Pipeline.TopN)
	answerer := services.NewAnswerGenerator(generator, cache, cfg.Pipeline.ContextBudget)

	return &App{
		Config: cfg,
		Ingest: services.NewIngestService(
			pdfextract.New(),
			chunker.New(cfg.Chunking.ChunkSize, cfg.Chunking.Overlap),
			gateway,
			index,
			ledger,
		),
		Query:  services.NewQueryService(retriever, reranker, answerer),
		Ledger: ledger,
		Index:  index,
		cache:  cache,
	}, nil
}

// Close releases the index, ledger and cache connections.
func (a *App) Close() error {
	var firstErr error
	if err := a.Index.Close(); err != nil {
		firstErr = err
	}
	if err := a.Ledger.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if c, ok := a.cache.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func newCache(ctx context.Context, cfg file.Config) (driven.Cache, error) {
	switch cfg.Cache.Backend {
	case "redis":
		cache, err := rediscache.New(ctx, rediscache.Config{
			Addr: cfg.Cache.Addr,
			DB:   cfg.Cache.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return cache, nil
	case "", "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

func newEmbedder(cfg file.Config) (driven.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		return openaiembed.New(openaiembed.Config{
			APIKey:     cfg.Embedding.APIKey(),
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Index.Dimensions,
		})
	case "ollama":
		return ollamaembed.New(ollamaembed.Config{
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Index.Dimensions,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

func newGenerator(cfg file.Config) (driven.TextGenerator, error) {
	switch cfg.LLM.Provider {
	case "openai":
		return openaillm.New(openaillm.Config{
			APIKey:  cfg.LLM.APIKey(),
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		})
	case "ollama":
		return ollamallm.New(ollamallm.Config{
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}
