// Package knowledge defines the domain types for the knowledge base: a
// three-level hierarchy of files, sections, and chunks.
//
// A File is the root artifact. It carries a content hash for change
// detection and an indexing status. A Section groups chunks in order
// within a file. A Chunk is a span of text with an optional embedding
// vector produced by an external embedding service.
//
// Sections are built from flat chunk lists via NewSection, which assigns
// identities and positions:
//
//	chunks := []*knowledge.Chunk{
//	    knowledge.NewChunk("first paragraph"),
//	    knowledge.NewChunk("second paragraph"),
//	}
//	section := knowledge.NewSection(file.ID, 0, chunks)
//
// Persistence of these types is handled by the storage package.
package knowledge
