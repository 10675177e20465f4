package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache(t *testing.T) {
	ctx := context.Background()

	t.Run("miss on absent key", func(t *testing.T) {
		c := New()
		_, ok, err := c.Get(ctx, "nope")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set then get", func(t *testing.T) {
		c := New()
		require.NoError(t, c.Set(ctx, "k", "v"))
		got, ok, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v", got)
	})

	t.Run("entries without ttl never expire", func(t *testing.T) {
		c := New()
		require.NoError(t, c.Set(ctx, "k", "v"))
		c.SetClock(func() time.Time { return time.Now().Add(1000 * time.Hour) })
		_, ok, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("setex entries expire", func(t *testing.T) {
		c := New()
		base := time.Now()
		c.SetClock(func() time.Time { return base })
		require.NoError(t, c.SetEx(ctx, "k", "v", 5*time.Minute))

		_, ok, _ := c.Get(ctx, "k")
		assert.True(t, ok)

		c.SetClock(func() time.Time { return base.Add(6 * time.Minute) })
		_, ok, _ = c.Get(ctx, "k")
		assert.False(t, ok)
	})

	t.Run("expired entries are dropped, not just hidden", func(t *testing.T) {
		c := New()
		base := time.Now()
		c.SetClock(func() time.Time { return base })
		require.NoError(t, c.SetEx(ctx, "short", "v", time.Minute))
		require.NoError(t, c.Set(ctx, "forever", "v"))
		assert.Equal(t, 2, c.Len())

		c.SetClock(func() time.Time { return base.Add(2 * time.Minute) })

		// A read of the expired key evicts it.
		_, ok, err := c.Get(ctx, "short")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("len sweeps expired entries that were never re-read", func(t *testing.T) {
		c := New()
		base := time.Now()
		c.SetClock(func() time.Time { return base })
		for _, key := range []string{"a", "b", "c"} {
			require.NoError(t, c.SetEx(ctx, key, "v", time.Minute))
		}

		c.SetClock(func() time.Time { return base.Add(2 * time.Minute) })
		assert.Equal(t, 0, c.Len())
	})

	t.Run("last writer wins", func(t *testing.T) {
		c := New()
		require.NoError(t, c.Set(ctx, "k", "first"))
		require.NoError(t, c.Set(ctx, "k", "second"))
		got, _, _ := c.Get(ctx, "k")
		assert.Equal(t, "second", got)
	})
}
