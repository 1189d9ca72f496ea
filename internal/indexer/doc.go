// Package indexer coordinates the end-to-end indexing pipeline for
// markdown document collections.
//
// The indexer reads documents, splits them into heading-scoped sections
// and chunks, generates embeddings, and persists everything through the
// knowledge store, with bounded concurrency across files.
//
// # Basic Usage
//
//	idx := indexer.New(store, emb, indexer.Config{})
//
//	stats, err := idx.IndexDirectory(ctx, "/path/to/docs")
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("indexed %d files in %v\n", stats.FilesIndexed, stats.Duration)
//
// # Pipeline
//
// Each document moves through the stages:
//
//  1. Read and hash: SHA-256 over the raw content.
//  2. Incremental decision: unchanged documents are skipped.
//  3. Section and chunk: heading-aware splitting via the sectioner.
//  4. Embed: batched vector generation (optional).
//  5. Store: each section with its chunks lands atomically.
//
// A document's status moves from pending through indexing to indexed, or
// to failed when any stage errors. Re-indexing a changed document drops
// its previous sections and chunks first, so a document's chunks always
// reflect exactly one version of its content.
//
// # Failure Handling
//
// Index runs keep going when individual documents fail; failures are
// counted and reported in Statistics.ErrorMessages. Only context
// cancellation aborts a run early. Runs on the same Indexer never
// overlap: a second call while one is active returns ErrIndexInProgress.
package indexer
