package searcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/google/uuid"

	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/internal/embedder"
	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/internal/storage"
	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/pkg/knowledge"
)

const (
	// DefaultLimit is used when a request does not set one.
	DefaultLimit = 10
	// MaxLimit caps the number of results per search.
	MaxLimit = 100
	// DefaultCacheTTL is how long cached responses stay valid.
	DefaultCacheTTL = 1 * time.Hour

	queryCacheSize = 1000
)

// SearchRequest contains parameters for a search operation.
type SearchRequest struct {
	Query    string
	Limit    int           // Default 10, capped at MaxLimit.
	UseCache bool          // Serve repeated queries from the response cache.
	CacheTTL time.Duration // Default 1 hour.
}

// SearchResult is one ranked hit. The chunk carries the matched content;
// section and file supply its surrounding context and origin.
type SearchResult struct {
	Chunk   *knowledge.Chunk
	Section *knowledge.Section
	File    *knowledge.File
	Score   float64
	Rank    int
}

// SearchResponse contains search results and metadata about the search.
type SearchResponse struct {
	Results       []SearchResult
	TotalResults  int
	ChunksScanned int
	Duration      time.Duration
	CacheHit      bool
}

// cacheEntry is a cached search response with its expiration time.
type cacheEntry struct {
	response  *SearchResponse
	expiresAt time.Time
}

// Searcher answers semantic queries over the indexed chunks.
type Searcher struct {
	store    *storage.KnowledgeStore
	embedder embedder.Embedder
	cache    *lru.Cache[[32]byte, *cacheEntry]
	cacheMu  sync.RWMutex
}

// NewSearcher creates a new Searcher instance.
func NewSearcher(store *storage.KnowledgeStore, emb embedder.Embedder) *Searcher {
	cache, err := lru.New[[32]byte, *cacheEntry](queryCacheSize)
	if err != nil {
		// Cannot happen with a positive constant size.
		panic(fmt.Sprintf("failed to create query cache: %v", err))
	}

	return &Searcher{
		store:    store,
		embedder: emb,
		cache:    cache,
	}
}

// Search embeds the query, ranks every embedded chunk by cosine
// similarity, and returns the top results with their section and file
// context attached.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	start := time.Now()

	if s.embedder == nil {
		return nil, fmt.Errorf("embedder not initialized")
	}
	if err := s.validateRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	if req.UseCache {
		if cached := s.checkCache(req); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(start)
			return cached, nil
		}
	}

	query, err := s.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	candidates, err := s.store.ChunksWithEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded chunks: %w", err)
	}

	ranked := rankChunks(query.Vector, candidates)

	results, err := s.hydrate(ctx, ranked, req.Limit)
	if err != nil {
		return nil, err
	}

	response := &SearchResponse{
		Results:       results,
		TotalResults:  len(results),
		ChunksScanned: len(candidates),
		Duration:      time.Since(start),
	}

	if req.UseCache && len(results) > 0 {
		s.storeInCache(req, response)
	}

	return response, nil
}

// scoredChunk pairs a chunk with its similarity to the query.
type scoredChunk struct {
	chunk *knowledge.Chunk
	score float64
}

// rankChunks scores candidates against the query vector and sorts them
// best first. Chunks whose dimension does not match the query are
// ignored rather than scored wrongly.
func rankChunks(query []float32, candidates []*knowledge.Chunk) []scoredChunk {
	ranked := make([]scoredChunk, 0, len(candidates))
	for _, chunk := range candidates {
		if len(chunk.Embedding) != len(query) {
			continue
		}
		ranked = append(ranked, scoredChunk{
			chunk: chunk,
			score: cosineSimilarity(query, chunk.Embedding),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		// Deterministic order for equal scores.
		return ranked[i].chunk.ID.String() < ranked[j].chunk.ID.String()
	})

	return ranked
}

// hydrate loads section and file context for the top ranked chunks.
// Chunks whose section or file disappeared mid-search are skipped.
func (s *Searcher) hydrate(ctx context.Context, ranked []scoredChunk, limit int) ([]SearchResult, error) {
	sections := make(map[uuid.UUID]*knowledge.Section)
	files := make(map[uuid.UUID]*knowledge.File)

	results := make([]SearchResult, 0, limit)
	for _, sc := range ranked {
		if len(results) >= limit {
			break
		}

		section, ok := sections[sc.chunk.SectionID]
		if !ok {
			var err error
			section, err = s.store.Sections().Get(ctx, sc.chunk.SectionID)
			if err != nil {
				return nil, fmt.Errorf("failed to load section: %w", err)
			}
			sections[sc.chunk.SectionID] = section
		}
		if section == nil {
			continue
		}

		file, ok := files[section.FileID]
		if !ok {
			var err error
			file, err = s.store.Files().Get(ctx, section.FileID)
			if err != nil {
				return nil, fmt.Errorf("failed to load file: %w", err)
			}
			files[section.FileID] = file
		}
		if file == nil {
			continue
		}

		results = append(results, SearchResult{
			Chunk:   sc.chunk,
			Section: section,
			File:    file,
			Score:   sc.score,
			Rank:    len(results) + 1,
		})
	}

	return results, nil
}

// validateRequest checks the query and fills in defaults.
func (s *Searcher) validateRequest(req *SearchRequest) error {
	if req.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}

	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}
	if req.CacheTTL == 0 {
		req.CacheTTL = DefaultCacheTTL
	}

	return nil
}

// checkCache returns an unexpired cached response for the request, or nil.
func (s *Searcher) checkCache(req SearchRequest) *SearchResponse {
	hash := computeQueryHash(req)
	now := time.Now()

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}

	if now.After(entry.expiresAt) {
		s.cacheMu.RUnlock()
		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil
	}

	response := copyResponse(entry.response)
	s.cacheMu.RUnlock()

	return response
}

// storeInCache saves a response for later identical requests.
func (s *Searcher) storeInCache(req SearchRequest, response *SearchResponse) {
	entry := &cacheEntry{
		response:  copyResponse(response),
		expiresAt: time.Now().Add(req.CacheTTL),
	}

	s.cacheMu.Lock()
	s.cache.Add(computeQueryHash(req), entry)
	s.cacheMu.Unlock()
}

// computeQueryHash derives the cache key from the parameters that affect
// the result set.
func computeQueryHash(req SearchRequest) [32]byte {
	return sha256.Sum256([]byte(fmt.Sprintf("%s\x00%d", req.Query, req.Limit)))
}

// copyResponse clones the response envelope and result slice. The chunk,
// section, and file pointers are shared; callers treat results as
// read-only.
func copyResponse(response *SearchResponse) *SearchResponse {
	out := *response
	out.Results = make([]SearchResult, len(response.Results))
	copy(out.Results, response.Results)
	return &out
}

// cosineSimilarity computes similarity between two vectors, accumulating
// in float64 to limit rounding error. Zero-magnitude vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
