// Package file loads and persists the TOML configuration file in the
// quarry config directory.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all user-tunable settings. Zero values are replaced by
// defaults on load, so a partial config file is valid.
type Config struct {
	DataDir string `toml:"data_dir"`

	Index     IndexConfig     `toml:"index"`
	Cache     CacheConfig     `toml:"cache"`
	Embedding ProviderConfig  `toml:"embedding"`
	Reranker  ProviderConfig  `toml:"reranker"`
	LLM       ProviderConfig  `toml:"llm"`
	Pipeline  PipelineConfig  `toml:"pipeline"`
	Chunking  ChunkingConfig  `toml:"chunking"`
}

// IndexConfig configures the vector index.
type IndexConfig struct {
	Dimensions     int `toml:"dimensions"`
	M              int `toml:"m"`
	EfConstruction int `toml:"ef_construction"`
	EfSearch       int `toml:"ef_search"`
}

// CacheConfig configures the pipeline cache.
type CacheConfig struct {
	// Backend is "redis" or "memory".
	Backend string `toml:"backend"`
	Addr    string `toml:"addr"`
	DB      int    `toml:"db"`
}

// ProviderConfig configures one model endpoint. APIKeyEnv names the
// environment variable holding the key, so the key itself never lands
// in the config file.
type ProviderConfig struct {
	// Provider is "openai", "ollama" or "tei" depending on the role.
	Provider  string `toml:"provider"`
	Model     string `toml:"model"`
	BaseURL   string `toml:"base_url"`
	APIKeyEnv string `toml:"api_key_env"`
}

// PipelineConfig configures retrieval and answer construction.
type PipelineConfig struct {
	TopK          int `toml:"top_k"`
	TopN          int `toml:"top_n"`
	ContextBudget int `toml:"context_budget"`
}

// ChunkingConfig configures document splitting.
type ChunkingConfig struct {
	ChunkSize int `toml:"chunk_size"`
	Overlap   int `toml:"overlap"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		DataDir: filepath.Join(home, ".quarry", "data"),
		Index: IndexConfig{
			Dimensions:     384,
			M:              32,
			EfConstruction: 200,
			EfSearch:       64,
		},
		Cache: CacheConfig{
			Backend: "memory",
			Addr:    "localhost:6379",
		},
		Embedding: ProviderConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Reranker: ProviderConfig{
			Provider: "tei",
			Model:    "BAAI/bge-reranker-base",
			BaseURL:  "http://localhost:8080",
		},
		LLM: ProviderConfig{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
		},
		Pipeline: PipelineConfig{
			TopK:          20,
			TopN:          5,
			ContextBudget: 8000,
		},
		Chunking: ChunkingConfig{
			ChunkSize: 500,
			Overlap:   100,
		},
	}
}

// DefaultPath returns ~/.quarry/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".quarry", "config.toml"), nil
}

// Load reads the config file at path, filling unset fields with
// defaults. A missing file yields the defaults without error. An empty
// path uses DefaultPath.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	applyDefaults(&cfg)
	return cfg, nil
}

// Save writes the config to path with restricted permissions, creating
// the directory if needed.
func Save(path string, cfg Config) error {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// applyDefaults backfills zero values after a partial file load.
func applyDefaults(cfg *Config) {
	def := Default()

	if cfg.DataDir == "" {
		cfg.DataDir = def.DataDir
	}
	if cfg.Index.Dimensions == 0 {
		cfg.Index.Dimensions = def.Index.Dimensions
	}
	if cfg.Index.M == 0 {
		cfg.Index.M = def.Index.M
	}
	if cfg.Index.EfConstruction == 0 {
		cfg.Index.EfConstruction = def.Index.EfConstruction
	}
	if cfg.Index.EfSearch == 0 {
		cfg.Index.EfSearch = def.Index.EfSearch
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = def.Cache.Backend
	}
	if cfg.Cache.Addr == "" {
		cfg.Cache.Addr = def.Cache.Addr
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding = def.Embedding
	}
	if cfg.Reranker.Provider == "" {
		cfg.Reranker = def.Reranker
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM = def.LLM
	}
	if cfg.Pipeline.TopK == 0 {
		cfg.Pipeline.TopK = def.Pipeline.TopK
	}
	if cfg.Pipeline.TopN == 0 {
		cfg.Pipeline.TopN = def.Pipeline.TopN
	}
	if cfg.Pipeline.ContextBudget == 0 {
		cfg.Pipeline.ContextBudget = def.Pipeline.ContextBudget
	}
	if cfg.Chunking.ChunkSize == 0 {
		cfg.Chunking.ChunkSize = def.Chunking.ChunkSize
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = def.Chunking.Overlap
	}
}

// APIKey resolves the provider's API key from the environment.
func (p ProviderConfig) APIKey() string {
	if p.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(p.APIKeyEnv)
}
