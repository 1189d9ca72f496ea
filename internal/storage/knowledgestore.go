package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/pkg/knowledge"
)

// KnowledgeStore composes the file, section, and chunk stores over one
// backing database. Multiple instances may be opened against the same
// database file; SQLite's own locking keeps them consistent, and writes
// are visible to every instance as soon as they commit.
type KnowledgeStore struct {
	db       *sql.DB
	files    *SQLiteFileStore
	sections *SQLiteSectionStore
	chunks   *SQLiteChunkStore
}

// NewKnowledgeStore opens the backing database at dbPath and wires the
// component stores to share it
func NewKnowledgeStore(dbPath string) (*KnowledgeStore, error) {
	db, err := Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	chunks := NewChunkStore(db)
	return &KnowledgeStore{
		db:       db,
		files:    NewFileStore(db),
		sections: NewSectionStore(db, chunks),
		chunks:   chunks,
	}, nil
}

// Files returns the file store
func (s *KnowledgeStore) Files() FileStore {
	return s.files
}

// Sections returns the section store
func (s *KnowledgeStore) Sections() SectionStore {
	return s.sections
}

// Chunks returns the chunk store
func (s *KnowledgeStore) Chunks() ChunkStore {
	return s.chunks
}

// Load initializes the schema of every component store. It is idempotent
// and order-independent; the stores also initialize themselves lazily on
// first use, so calling Load up front is optional.
func (s *KnowledgeStore) Load(ctx context.Context) error {
	if err := s.files.ensureSchema(ctx); err != nil {
		return err
	}
	if err := s.sections.ensureSchema(ctx); err != nil {
		return err
	}
	if err := s.chunks.ensureSchema(ctx); err != nil {
		return err
	}
	return nil
}

// Save is a no-op: every mutation is committed by the time its call
// returns, so there is nothing left to flush
func (s *KnowledgeStore) Save(ctx context.Context) error {
	return nil
}

// Close closes the backing database
func (s *KnowledgeStore) Close() error {
	return s.db.Close()
}

// AddSectionWithChunks persists a section row and all of its chunks in a
// single transaction, so a crash cannot leave the section with fewer
// chunks than intended. The per-store Add calls remain available when
// that atomicity is not needed.
func (s *KnowledgeStore) AddSectionWithChunks(ctx context.Context, section *knowledge.Section) error {
	if section == nil {
		return fmt.Errorf("section is nil: %w", ErrInvalidInput)
	}
	if err := s.Load(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.sections.addWithQuerier(ctx, tx, section); err != nil {
		return err
	}
	for _, chunk := range section.Chunks {
		if chunk == nil {
			return fmt.Errorf("chunk is nil: %w", ErrInvalidInput)
		}
		if err := s.chunks.addWithQuerier(ctx, tx, chunk); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ChunksWithEmbeddings returns every chunk that carries an embedding
// vector, for similarity ranking by the search layer
func (s *KnowledgeStore) ChunksWithEmbeddings(ctx context.Context) ([]*knowledge.Chunk, error) {
	if err := s.chunks.ensureSchema(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, section_id, chunk_index, content, embedding
		FROM chunks
		WHERE embedding IS NOT NULL
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return collectChunks(rows)
}

// StoreStats contains row counts and size information for the backing
// database
type StoreStats struct {
	Files          int
	Sections       int
	Chunks         int
	EmbeddedChunks int
	SizeMB         float64
}

// Stats collects row counts and the database size
func (s *KnowledgeStore) Stats(ctx context.Context) (*StoreStats, error) {
	if err := s.Load(ctx); err != nil {
		return nil, err
	}

	var stats StoreStats
	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM files", &stats.Files},
		{"SELECT COUNT(*) FROM sections", &stats.Sections},
		{"SELECT COUNT(*) FROM chunks", &stats.Chunks},
		{"SELECT COUNT(*) FROM chunks WHERE embedding IS NOT NULL", &stats.EmbeddedChunks},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, err
		}
	}

	var pageCount, pageSize int
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		stats.SizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	return &stats, nil
}
