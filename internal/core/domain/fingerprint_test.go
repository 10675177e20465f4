package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, Fingerprint("hello world"), Fingerprint("hello world"))
	})

	t.Run("content sensitive", func(t *testing.T) {
		assert.NotEqual(t, Fingerprint("hello world"), Fingerprint("hello world "))
		assert.NotEqual(t, Fingerprint("hello"), Fingerprint("Hello"))
	})

	t.Run("hex sha256 length", func(t *testing.T) {
		assert.Len(t, Fingerprint(""), 64)
	})
}

func TestQueryFingerprint(t *testing.T) {
	t.Run("case and whitespace insensitive", func(t *testing.T) {
		a := QueryFingerprint("  What Is HNSW? ")
		b := QueryFingerprint("what is hnsw?")
		assert.Equal(t, a, b)
	})

	t.Run("distinct content distinct keys", func(t *testing.T) {
		assert.NotEqual(t, QueryFingerprint("what is hnsw?"), QueryFingerprint("what is faiss?"))
	})

	t.Run("matches fingerprint of normalised text", func(t *testing.T) {
		assert.Equal(t, Fingerprint("query"), QueryFingerprint("  QUERY\n"))
	})
}
