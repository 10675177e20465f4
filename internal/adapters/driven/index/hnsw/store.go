package hnsw

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/quarrylabs/quarry/internal/core/domain"
	"github.com/quarrylabs/quarry/internal/core/ports/driven"
	"github.com/quarrylabs/quarry/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorIndex = (*Store)(nil)

// Durable artifact names within the data directory.
const (
	graphFile = "hnsw.index"
	metaFile  = "metadata.jsonl"
)

// Config holds construction parameters for the index store.
type Config struct {
	// Dir is the data directory holding the graph and metadata log.
	Dir string

	// Dim is the vector dimension, fixed for the life of the index.
	Dim int

	// M and EfConstruction are HNSW build parameters (defaults 32, 200).
	M              int
	EfConstruction int

	// EfSearch is the query-time beam width (default 64).
	EfSearch int
}

// Store is the persistent vector index: an HNSW graph and the parallel
// append-only metadata log. A single mutex serialises Add and Search, so
// writers and readers are never concurrent and every operation observes
// a graph/log pair that agrees on cardinality.
type Store struct {
	mu       sync.Mutex
	graph    *Graph
	metas    []domain.Chunk
	dir      string
	efSearch int
}

// Open loads the index from dir, creating an empty one if no durable
// state exists. If a crash left the metadata log ahead of the graph,
// the trailing unmatched records are dropped and the log rewritten; a
// graph holding ids the log lacks is unrecoverable and fails with
// domain.ErrIndexCorrupt.
func Open(cfg Config) (*Store, error) {
	if cfg.Dim <= 0 {
		return nil, fmt.Errorf("%w: index dimension must be positive", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(cfg.Dir, 0700); err != nil {
		return nil, fmt.Errorf("%w: creating data directory: %v", domain.ErrIndexIO, err)
	}
	if cfg.EfSearch <= 0 {
		cfg.EfSearch = DefaultEfSearch
	}

	s := &Store{dir: cfg.Dir, efSearch: cfg.EfSearch}

	g, err := loadGraph(filepath.Join(cfg.Dir, graphFile))
	if err != nil {
		return nil, err
	}
	if g == nil {
		g = newGraph(cfg.Dim, cfg.M, cfg.EfConstruction)
	} else if g.Dim != cfg.Dim {
		return nil, fmt.Errorf("%w: index dimension %d does not match configured %d",
			domain.ErrIndexCorrupt, g.Dim, cfg.Dim)
	}
	s.graph = g

	metas, err := loadMetadata(filepath.Join(cfg.Dir, metaFile))
	if err != nil {
		return nil, err
	}

	// Two-phase recovery: the graph count is authoritative. Metadata is
	// appended before the graph is replaced, so after a crash the log may
	// run ahead by one batch; it can never legitimately run behind.
	if len(metas) > g.Len() {
		logger.Warn("Metadata log ahead of graph (%d > %d), truncating tail", len(metas), g.Len())
		metas = metas[:g.Len()]
		if err := rewriteMetadata(filepath.Join(cfg.Dir, metaFile), metas); err != nil {
			return nil, err
		}
	}
	if len(metas) < g.Len() {
		return nil, fmt.Errorf("%w: graph has %d vectors but log has %d records",
			domain.ErrIndexCorrupt, g.Len(), len(metas))
	}
	s.metas = metas

	logger.Debug("Vector index open: %d vectors, dim=%d", g.Len(), g.Dim)
	return s, nil
}

// Add assigns contiguous vector ids starting at the current cardinality,
// inserts the vectors, appends the metadata records and persists both
// structures before releasing the lock. A length or dimension mismatch
// fails with domain.ErrInvalidInput and mutates nothing.
func (s *Store) Add(vectors [][]float32, metas []domain.Chunk) error {
	if len(vectors) != len(metas) {
		return fmt.Errorf("%w: %d vectors for %d metadata records",
			domain.ErrInvalidInput, len(vectors), len(metas))
	}
	if len(vectors) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, v := range vectors {
		if len(v) != s.graph.Dim {
			return fmt.Errorf("%w: vector %d has dimension %d, index expects %d",
				domain.ErrInvalidInput, i, len(v), s.graph.Dim)
		}
	}

	startID := int64(s.graph.Len())
	records := make([]domain.Chunk, len(metas))
	for i, m := range metas {
		m.VectorID = startID + int64(i)
		records[i] = m
	}

	// Metadata first: recovery truncates a log that ran ahead, but a graph
	// holding ids the log lacks is unrecoverable.
	if err := appendMetadata(filepath.Join(s.dir, metaFile), records); err != nil {
		return err
	}

	for _, v := range vectors {
		s.graph.insert(v)
	}
	s.metas = append(s.metas, records...)

	if err := saveGraph(filepath.Join(s.dir, graphFile), s.graph); err != nil {
		// In-memory state is not rolled back; the next successful Add or a
		// restart recovery re-establishes durable agreement.
		return err
	}

	logger.Debug("Indexed %d vectors (total %d)", len(vectors), s.graph.Len())
	return nil
}

// Search returns up to k chunks nearest to query, best first in ANN
// distance order.
func (s *Store) Search(query []float32, k int) ([]domain.Chunk, error) {
	if k <= 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(query) != s.graph.Dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index expects %d",
			domain.ErrInvalidInput, len(query), s.graph.Dim)
	}

	hits := s.graph.search(query, k, s.efSearch)
	if len(hits) == 0 {
		return []domain.Chunk{}, nil
	}

	// Resolve ids by a full scan of the metadata log filtered on the hit
	// set. Linear in corpus size, which is fine at this scale; the join
	// key is VectorID, assigned at insertion.
	wanted := make(map[int64]int, len(hits))
	for rank, h := range hits {
		wanted[int64(h.id)] = rank
	}
	out := make([]domain.Chunk, len(hits))
	found := 0
	for _, m := range s.metas {
		if rank, ok := wanted[m.VectorID]; ok {
			out[rank] = m
			found++
		}
	}
	return out[:found], nil
}

// Count returns the number of indexed vectors.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Len()
}

// Close releases resources. All durable state is already on disk.
func (s *Store) Close() error {
	return nil
}

// loadGraph reads a persisted graph, returning nil if none exists.
func loadGraph(path string) (*Graph, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: opening graph: %v", domain.ErrIndexIO, err)
	}
	defer f.Close()

	var g Graph
	if err := gob.NewDecoder(bufio.NewReader(f)).Decode(&g); err != nil {
		return nil, fmt.Errorf("%w: decoding graph: %v", domain.ErrIndexIO, err)
	}
	g.init()
	return &g, nil
}

// saveGraph atomically replaces the persisted graph (write temp, rename).
// A crash mid-write leaves the previous graph intact.
func saveGraph(path string, g *Graph) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), graphFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp graph: %v", domain.ErrIndexIO, err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := gob.NewEncoder(w).Encode(g); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: encoding graph: %v", domain.ErrIndexIO, err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing graph: %v", domain.ErrIndexIO, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: syncing graph: %v", domain.ErrIndexIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing graph: %v", domain.ErrIndexIO, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: replacing graph: %v", domain.ErrIndexIO, err)
	}
	return nil
}

// loadMetadata reads the append-only metadata log, one JSON record per
// line, returning an empty slice if none exists.
func loadMetadata(path string) ([]domain.Chunk, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: opening metadata log: %v", domain.ErrIndexIO, err)
	}
	defer f.Close()

	var metas []domain.Chunk
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var m domain.Chunk
		if err := json.Unmarshal(line, &m); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", domain.ErrIndexCorrupt, len(metas), err)
		}
		metas = append(metas, m)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading metadata log: %v", domain.ErrIndexIO, err)
	}
	return metas, nil
}

// appendMetadata appends records to the log and syncs before returning.
func appendMetadata(path string, records []domain.Chunk) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("%w: opening metadata log: %v", domain.ErrIndexIO, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("%w: encoding metadata record: %v", domain.ErrIndexIO, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: writing metadata log: %v", domain.ErrIndexIO, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: syncing metadata log: %v", domain.ErrIndexIO, err)
	}
	return nil
}

// rewriteMetadata replaces the log contents, used only by recovery.
func rewriteMetadata(path string, records []domain.Chunk) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), metaFile+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp log: %v", domain.ErrIndexIO, err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			tmp.Close()
			return fmt.Errorf("%w: encoding metadata record: %v", domain.ErrIndexIO, err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing temp log: %v", domain.ErrIndexIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing temp log: %v", domain.ErrIndexIO, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: replacing metadata log: %v", domain.ErrIndexIO, err)
	}
	return nil
}
