package driven

import (
	"context"
	"time"
)

// Cache is a shared key-value store with server-side expiry, used as a
// pure memoisation layer by the pipeline stages. Keys are namespaced by
// prefix (embed, ann, rerank, final) and are pure functions of the
// semantically significant inputs of each stage.
//
// Callers must treat a cache error exactly like a miss and fall through
// to recomputation; the cache is never a source of truth. Concurrent
// population of the same key is a benign race: values are idempotent
// functions of the key, last writer wins.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key with no expiry.
	Set(ctx context.Context, key, value string) error

	// SetEx stores value under key with a mandatory time-to-live.
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
}
