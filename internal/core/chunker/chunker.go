// Package chunker splits extracted document text into fixed-window word
// chunks for indexing. Chunking is a pure, stateless text transform: the
// same text always yields the same chunks with the same chunk ids.
package chunker

import (
	"strings"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

// Default window parameters, in words.
const (
	DefaultChunkSize = 500
	DefaultOverlap   = 100
)

// Chunker splits text into overlapping fixed-size word windows.
type Chunker struct {
	chunkSize int
	overlap   int
}

// New creates a chunker. Non-positive or inconsistent parameters fall
// back to the defaults; overlap must stay below the chunk size or the
// window could never advance.
func New(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// Chunk splits text into chunks attributed to sourceFile. Whitespace-only
// text yields no chunks. Each chunk's id is the content fingerprint of
// its exact text, so re-ingesting identical text produces identical ids.
func (c *Chunker) Chunk(text, sourceFile string) []domain.Chunk {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []domain.Chunk
	start := 0
	idx := 0
	for start < len(words) {
		end := start + c.chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunkText := strings.Join(words[start:end], " ")
		chunks = append(chunks, domain.Chunk{
			ChunkID:       domain.Fingerprint(chunkText),
			Text:          chunkText,
			SourceFile:    sourceFile,
			SequenceIndex: idx,
		})
		if end == len(words) {
			break
		}
		start = end - c.overlap
		idx++
	}
	return chunks
}
