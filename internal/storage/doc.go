// Package storage provides SQLite-based persistence for the knowledge
// hierarchy: files, sections, and chunks with optional embedding vectors.
//
// The package exposes one store per entity plus a composing facade:
//   - FileStore: file metadata (name, content hash, indexing status)
//   - SectionStore: section rows; reads hydrate the chunk list
//   - ChunkStore: chunk rows with serialized embeddings
//   - KnowledgeStore: the three stores over one shared database handle
//
// # Database Schema
//
// Tables:
//   - files: id, name, hash, processed_at, status
//   - sections: id, file_id (cascade), section_index, summary, additional_context
//   - chunks: id, section_id (cascade), chunk_index, content, embedding, file_id
//
// Deleting a file cascades through sections to chunks. The chunk rows
// additionally carry a denormalized file_id so DeleteByFile runs without
// a join. Every store creates its own tables lazily on first use with
// idempotent DDL; there is no migration history.
//
// # Basic Usage
//
//	store, err := storage.NewKnowledgeStore("~/.easyreasy/knowledge.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	file := knowledge.NewFile("notes.md", contentHash)
//	fileID, err := store.Files().Add(ctx, file)
//
//	section := knowledge.NewSection(fileID, 0, chunks)
//	err = store.AddSectionWithChunks(ctx, section)
//
//	// Reads hydrate chunk lists and report absence as nil, not an error
//	section, err = store.Sections().GetByIndex(ctx, fileID, 0)
//
// Pass ":memory:" for an ephemeral database. In-memory databases are
// private to the instance that opened them, so multi-instance setups
// need a file path.
//
// # Embeddings
//
// A chunk's embedding is stored as a packed little-endian float32 blob
// with no header; a chunk without an embedding stores NULL and reads
// back with a nil vector. EncodeEmbedding and DecodeEmbedding implement
// the codec.
//
// # Concurrency
//
// Stores hold no shared in-memory state beyond the database handle.
// Multiple KnowledgeStore instances over the same file coordinate purely
// through SQLite (WAL journal, busy timeout); a write committed by one
// instance is immediately visible to the others. Busy errors under heavy
// contention propagate to the caller, who decides whether to retry.
//
// # Build Tags
//
// The default build uses the pure Go driver (modernc.org/sqlite). Build
// with -tags cgo_sqlite to use github.com/mattn/go-sqlite3 instead:
//
//	CGO_ENABLED=1 go build -tags "cgo_sqlite" ./...
package storage
