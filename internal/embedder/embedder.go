package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Common errors
var (
	ErrEmptyText           = errors.New("text cannot be empty")
	ErrBatchTooLarge       = errors.New("batch size exceeds limit")
	ErrProviderFailed      = errors.New("embedding provider failed")
	ErrUnsupportedProvider = errors.New("unsupported embedding provider")
	ErrMissingAPIKey       = errors.New("api key not set")
)

// Embedding is a vector embedding with provenance metadata.
type Embedding struct {
	Vector    []float32
	Dimension int
	Provider  string
	Model     string
	Hash      string // Content hash for caching
}

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates a single embedding for the given text.
	Embed(ctx context.Context, text string) (*Embedding, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	// The result has one embedding per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([]*Embedding, error)

	// Dimension returns the embedding dimension for this provider.
	Dimension() int

	// Provider returns the provider name.
	Provider() string

	// Model returns the model name.
	Model() string

	// Close releases any resources held by the embedder.
	Close() error
}

// Cache provides in-memory LRU caching of embeddings by content hash.
type Cache struct {
	cache *lru.Cache[string, *Embedding]
}

// DefaultCacheSize is used when no explicit cache size is configured.
const DefaultCacheSize = 10000

// NewCache creates a new embedding cache with LRU eviction.
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = DefaultCacheSize
	}
	cache, err := lru.New[string, *Embedding](maxLen)
	if err != nil {
		// Cannot happen with a positive size.
		cache, _ = lru.New[string, *Embedding](DefaultCacheSize)
	}
	return &Cache{cache: cache}
}

// Get retrieves a deep copy of an embedding from cache. Returning a copy
// keeps caller mutations from reaching the cached value.
func (c *Cache) Get(hash string) (*Embedding, bool) {
	emb, ok := c.cache.Get(hash)
	if !ok {
		return nil, false
	}

	vectorCopy := make([]float32, len(emb.Vector))
	copy(vectorCopy, emb.Vector)

	return &Embedding{
		Vector:    vectorCopy,
		Dimension: emb.Dimension,
		Provider:  emb.Provider,
		Model:     emb.Model,
		Hash:      emb.Hash,
	}, true
}

// Set stores an embedding, evicting the least recently used entry when at
// capacity.
func (c *Cache) Set(hash string, emb *Embedding) {
	c.cache.Add(hash, emb)
}

// Size returns the current cache size.
func (c *Cache) Size() int {
	return c.cache.Len()
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.cache.Purge()
}

// ComputeHash computes the SHA-256 hash of text for cache keys.
func ComputeHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// validateTexts rejects empty batches and empty entries before any
// provider work happens.
func validateTexts(texts []string) error {
	if len(texts) == 0 {
		return fmt.Errorf("%w: no texts provided", ErrEmptyText)
	}
	for i, text := range texts {
		if text == "" {
			return fmt.Errorf("%w: text at index %d", ErrEmptyText, i)
		}
	}
	return nil
}
