package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrylabs/quarry/internal/adapters/driven/cache/memory"
	"github.com/quarrylabs/quarry/internal/core/domain"
)

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("prompt embeds context and question", func(t *testing.T) {
		gen := &fakeGenerator{answer: "  42  "}
		a := NewAnswerGenerator(gen, memory.New(), 0)

		answer, err := a.Generate(ctx, "what is the answer?", []domain.Chunk{
			mkChunk("the answer is 42", "a.pdf", 0),
		})
		require.NoError(t, err)
		assert.Equal(t, "42", answer, "answer is trimmed")

		require.Len(t, gen.prompts, 1)
		assert.Contains(t, gen.prompts[0], "the answer is 42")
		assert.Contains(t, gen.prompts[0], "what is the answer?")
		assert.Contains(t, gen.prompts[0], "ONLY the provided context")
	})

	t.Run("second identical query skips the model", func(t *testing.T) {
		gen := &fakeGenerator{answer: "cached"}
		a := NewAnswerGenerator(gen, memory.New(), 0)

		_, err := a.Generate(ctx, "q", nil)
		require.NoError(t, err)
		answer, err := a.Generate(ctx, "  Q ", nil) // normalised to the same key
		require.NoError(t, err)

		assert.Equal(t, "cached", answer)
		assert.Len(t, gen.prompts, 1, "generator must be called once")
	})

	t.Run("context budget drops whole chunks", func(t *testing.T) {
		gen := &fakeGenerator{answer: "ok"}
		a := NewAnswerGenerator(gen, memory.New(), 20)

		small := mkChunk("0123456789", "a.pdf", 0) // 10 chars, fits
		big := mkChunk(strings.Repeat("x", 15), "a.pdf", 1)

		_, err := a.Generate(ctx, "q", []domain.Chunk{small, big})
		require.NoError(t, err)

		require.Len(t, gen.prompts, 1)
		assert.Contains(t, gen.prompts[0], "0123456789")
		assert.NotContains(t, gen.prompts[0], "xxxxx", "overflowing chunk is dropped, never truncated")
	})

	t.Run("generation failure is an external service error", func(t *testing.T) {
		a := NewAnswerGenerator(&fakeGenerator{err: errModelDown}, memory.New(), 0)
		_, err := a.Generate(ctx, "q", nil)
		assert.ErrorIs(t, err, domain.ErrExternalService)
	})
}

func TestBuildContext(t *testing.T) {
	a := NewAnswerGenerator(&fakeGenerator{}, memory.New(), 25)

	t.Run("concatenates in input order", func(t *testing.T) {
		got := a.buildContext([]domain.Chunk{
			mkChunk("first", "f", 0),
			mkChunk("second", "f", 1),
		})
		assert.Equal(t, "first\n\nsecond", got)
	})

	t.Run("stops at the first overflowing chunk", func(t *testing.T) {
		got := a.buildContext([]domain.Chunk{
			mkChunk("0123456789", "f", 0),
			mkChunk("0123456789abcdefghij", "f", 1), // would overflow
			mkChunk("tail", "f", 2),                 // never reached
		})
		assert.Equal(t, "0123456789", got)
	})

	t.Run("empty chunks yield empty context", func(t *testing.T) {
		assert.Equal(t, "", a.buildContext(nil))
	})
}
