// Package searcher implements semantic search over indexed document chunks.
//
// A query is embedded with the same provider that embedded the chunks,
// every stored chunk vector is scored by cosine similarity, and the top
// matches come back with their section and file context attached.
//
// # Basic Usage
//
//	s := searcher.NewSearcher(store, emb)
//
//	response, err := s.Search(ctx, searcher.SearchRequest{
//	    Query: "how do I configure the database",
//	    Limit: 10,
//	})
//
//	for _, result := range response.Results {
//	    fmt.Printf("[%d] %s (score: %.2f)\n",
//	        result.Rank, result.File.Name, result.Score)
//	}
//
// # Ranking
//
// Scoring is a full scan of the embedded chunks. Vectors are compared
// with cosine similarity accumulated in float64, chunks whose dimension
// does not match the query are skipped, and ties break on chunk ID so
// repeated searches return the same order. Limit defaults to 10 and is
// capped at 100.
//
// Each result carries the matched chunk, its parent section (with the
// heading path and any stored summary), and the owning file, so callers
// can show where a hit came from without extra lookups.
//
// # Caching
//
// Responses can be cached per query:
//
//	response, err := s.Search(ctx, searcher.SearchRequest{
//	    Query:    "connection pooling",
//	    UseCache: true,
//	    CacheTTL: 30 * time.Minute,
//	})
//
// The cache is a fixed-size LRU keyed by a hash of the query and limit.
// Entries expire after CacheTTL (default one hour). Cached responses
// are copied on read and write; CacheHit reports whether a response was
// served from the cache.
//
// # Consistency
//
// The searcher holds no state of its own beyond the response cache.
// Chunks indexed after a response was cached appear once the entry
// expires, or immediately when UseCache is false.
package searcher
