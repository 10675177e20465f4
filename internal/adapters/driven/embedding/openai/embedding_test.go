package openai

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestEmbedBatchRestoresOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Input, 2)

		// Indices returned out of order on purpose.
		resp := map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float64{0, 2}},
				{"index": 0, "embedding": []float64{3, 0}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e, err := New(Config{APIKey: "test-key", BaseURL: srv.URL, Model: "custom", Dimensions: 2})
	require.NoError(t, err)

	got, err := e.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Vectors are unit-normalised and land at their input positions.
	assert.InDelta(t, 1.0, got[0][0], 1e-6)
	assert.InDelta(t, 0.0, got[0][1], 1e-6)
	assert.InDelta(t, 0.0, got[1][0], 1e-6)
	assert.InDelta(t, 1.0, got[1][1], 1e-6)
}

func TestEmbedBatchSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limit exceeded", "type": "rate_limit_error"},
		})
	}))
	defer srv.Close()

	e, err := New(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = e.EmbedBatch(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestEmbedBatchRejectsShortResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"index": 0, "embedding": []float64{1}}},
		})
	}))
	defer srv.Close()

	e, err := New(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = e.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	e, err := New(Config{APIKey: "test-key"})
	require.NoError(t, err)

	got, err := e.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNormalise(t *testing.T) {
	v := normalise([]float64{3, 4})
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(v[1]), 1e-6)

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)

	// A zero vector stays zero instead of dividing by zero.
	z := normalise([]float64{0, 0})
	assert.Equal(t, float32(0), z[0])
}
