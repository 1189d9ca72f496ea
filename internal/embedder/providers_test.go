package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiItem struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type apiResponse struct {
	Data  []apiItem `json:"data"`
	Model string    `json:"model"`
}

// fastRetryProvider builds an HTTPProvider against a test server with a
// high rate limit so tests never wait on the limiter.
func fastRetryProvider(t *testing.T, serverURL string, cache *Cache) *HTTPProvider {
	t.Helper()
	p, err := NewHTTPProvider(HTTPConfig{
		Name:              ProviderOpenAI,
		BaseURL:           serverURL,
		APIKey:            "test-key",
		Model:             "test-model",
		Dimension:         3,
		RequestsPerSecond: 1000,
		Cache:             cache,
	})
	require.NoError(t, err)
	return p
}

func TestHTTPProviderEmbedBatch(t *testing.T) {
	var gotAuth, gotContentType string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		// Items deliberately out of order; the index field is
		// authoritative.
		resp := apiResponse{
			Model: "test-model-v2",
			Data: []apiItem{
				{Embedding: []float32{4, 5, 6}, Index: 1},
				{Embedding: []float32{1, 2, 3}, Index: 0},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := fastRetryProvider(t, server.URL, nil)
	embeddings, err := p.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, embeddings, 2)

	assert.Equal(t, []float32{1, 2, 3}, embeddings[0].Vector)
	assert.Equal(t, []float32{4, 5, 6}, embeddings[1].Vector)
	assert.Equal(t, "test-model-v2", embeddings[0].Model)
	assert.Equal(t, ProviderOpenAI, embeddings[0].Provider)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "test-model", gotBody["model"])
}

func TestHTTPProviderEmbedUsesCache(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		resp := apiResponse{Data: []apiItem{{Embedding: []float32{1, 2, 3}, Index: 0}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := fastRetryProvider(t, server.URL, NewCache(10))

	first, err := p.Embed(context.Background(), "same text")
	require.NoError(t, err)

	second, err := p.Embed(context.Background(), "same text")
	require.NoError(t, err)

	assert.Equal(t, first.Vector, second.Vector)
	assert.Equal(t, int32(1), requests.Load(), "second call should hit the cache")
}

func TestHTTPProviderRetriesOnServerError(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			http.Error(w, "temporary", http.StatusInternalServerError)
			return
		}
		resp := apiResponse{Data: []apiItem{{Embedding: []float32{1, 2, 3}, Index: 0}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := fastRetryProvider(t, server.URL, nil)
	embeddings, err := p.EmbedBatch(context.Background(), []string{"text"})
	require.NoError(t, err)
	require.Len(t, embeddings, 1)
	assert.Equal(t, int32(2), requests.Load())
}

func TestHTTPProviderFailsAfterRetries(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p := fastRetryProvider(t, server.URL, nil)
	_, err := p.EmbedBatch(context.Background(), []string{"text"})
	require.ErrorIs(t, err, ErrProviderFailed)
	assert.Equal(t, int32(3), requests.Load())
}

func TestHTTPProviderCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := apiResponse{Data: []apiItem{{Embedding: []float32{1}, Index: 0}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := fastRetryProvider(t, server.URL, nil)
	_, err := p.EmbedBatch(context.Background(), []string{"one", "two"})
	require.ErrorIs(t, err, ErrProviderFailed)
	assert.Contains(t, err.Error(), "1 embeddings for 2 inputs")
}

func TestHTTPProviderBatchTooLarge(t *testing.T) {
	p := fastRetryProvider(t, "http://unused", nil)

	texts := make([]string, MaxBatchSize+1)
	for i := range texts {
		texts[i] = "text"
	}

	_, err := p.EmbedBatch(context.Background(), texts)
	assert.ErrorIs(t, err, ErrBatchTooLarge)
}

func TestHTTPProviderEmptyText(t *testing.T) {
	p := fastRetryProvider(t, "http://unused", nil)

	_, err := p.Embed(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = p.EmbedBatch(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestNewHTTPProviderRequiresAPIKey(t *testing.T) {
	_, err := NewHTTPProvider(HTTPConfig{Name: ProviderOpenAI})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNewHTTPProviderDefaults(t *testing.T) {
	p, err := NewHTTPProvider(HTTPConfig{APIKey: "k"})
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, p.Provider())
	assert.Equal(t, DefaultOpenAIModel, p.Model())
	assert.Equal(t, OpenAIDimension, p.Dimension())
}

func TestLocalProviderDeterministic(t *testing.T) {
	l := NewLocalProvider(0, nil)
	ctx := context.Background()

	first, err := l.Embed(ctx, "some documentation text")
	require.NoError(t, err)
	second, err := l.Embed(ctx, "some documentation text")
	require.NoError(t, err)
	other, err := l.Embed(ctx, "different text entirely")
	require.NoError(t, err)

	assert.Equal(t, first.Vector, second.Vector)
	assert.NotEqual(t, first.Vector, other.Vector)
	assert.Len(t, first.Vector, LocalDimension)
	assert.Equal(t, ProviderLocal, first.Provider)
	assert.Equal(t, ComputeHash("some documentation text"), first.Hash)
}

func TestLocalProviderUnitLength(t *testing.T) {
	l := NewLocalProvider(64, nil)

	emb, err := l.Embed(context.Background(), "normalize me")
	require.NoError(t, err)
	require.Len(t, emb.Vector, 64)

	var sum float64
	for _, v := range emb.Vector {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, sum, 1e-3)
}

func TestLocalProviderBatch(t *testing.T) {
	l := NewLocalProvider(0, nil)
	ctx := context.Background()

	texts := []string{"alpha", "beta", "gamma"}
	embeddings, err := l.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, embeddings, 3)

	for i, text := range texts {
		single, err := l.Embed(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single.Vector, embeddings[i].Vector)
	}
}

func TestLocalProviderValidation(t *testing.T) {
	l := NewLocalProvider(0, nil)
	ctx := context.Background()

	_, err := l.Embed(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = l.EmbedBatch(ctx, []string{"ok", ""})
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestLocalProviderCacheIsolation(t *testing.T) {
	l := NewLocalProvider(0, NewCache(10))
	ctx := context.Background()

	first, err := l.Embed(ctx, "cached")
	require.NoError(t, err)
	want := first.Vector[0]
	first.Vector[0] = 42

	second, err := l.Embed(ctx, "cached")
	require.NoError(t, err)
	assert.Equal(t, want, second.Vector[0])
}

func TestNormalizeVector(t *testing.T) {
	got := NormalizeVector([]float32{3, 4})
	assert.InDelta(t, 0.6, float64(got[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(got[1]), 1e-6)

	zero := []float32{0, 0, 0}
	assert.Equal(t, zero, NormalizeVector(zero))
}

func TestDeterministicVectorFillsAllDimensions(t *testing.T) {
	// Dimensions beyond the first hash block must still vary with input.
	v := deterministicVector("spot check", 128)
	require.Len(t, v, 128)

	var tail float64
	for _, val := range v[sha256.Size:] {
		tail += math.Abs(float64(val))
	}
	assert.Greater(t, tail, 0.0, "dimensions past the first block should be populated")
}
