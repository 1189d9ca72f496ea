package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/pkg/knowledge"
)

const chunkSchema = `
CREATE TABLE IF NOT EXISTS chunks (
    id TEXT PRIMARY KEY,
    section_id TEXT NOT NULL,
    chunk_index INTEGER NOT NULL,
    content TEXT NOT NULL,
    embedding BLOB,
    file_id TEXT NOT NULL,
    FOREIGN KEY (section_id) REFERENCES sections(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_chunks_section_id ON chunks(section_id);
CREATE INDEX IF NOT EXISTS idx_chunks_file_id ON chunks(file_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_chunks_section_id_index ON chunks(section_id, chunk_index);
`

// SQLiteChunkStore implements ChunkStore over a shared SQLite handle.
// Chunk rows carry a denormalized owning-file id so DeleteByFile works
// without a join; chunks.file_id deliberately has no foreign key of its
// own, the cascade runs through sections.
type SQLiteChunkStore struct {
	db *sql.DB

	mu          sync.Mutex
	initialized bool
}

// NewChunkStore creates a chunk store over an open database handle
func NewChunkStore(db *sql.DB) *SQLiteChunkStore {
	return &SQLiteChunkStore{db: db}
}

// ensureSchema lazily creates the chunks table and its indexes on first
// use. The DDL is idempotent; a failed attempt leaves the flag unset so
// the next call retries.
func (s *SQLiteChunkStore) ensureSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, chunkSchema); err != nil {
		return fmt.Errorf("failed to create chunks schema: %w", err)
	}
	s.initialized = true
	return nil
}

// Add persists a new chunk. The owning file id is resolved from the
// section row and denormalized onto the chunk; resolving and inserting
// happen in one transaction so a concurrent section delete cannot slip
// between the two.
func (s *SQLiteChunkStore) Add(ctx context.Context, chunk *knowledge.Chunk) error {
	if chunk == nil {
		return fmt.Errorf("chunk is nil: %w", ErrInvalidInput)
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.addWithQuerier(ctx, tx, chunk); err != nil {
		return err
	}
	return tx.Commit()
}

// addWithQuerier is the internal implementation that uses a querier
func (s *SQLiteChunkStore) addWithQuerier(ctx context.Context, q querier, chunk *knowledge.Chunk) error {
	if chunk.ID == uuid.Nil {
		chunk.ID = uuid.New()
	}

	var fileID uuid.UUID
	err := q.QueryRowContext(ctx,
		`SELECT file_id FROM sections WHERE id = ?`, chunk.SectionID).Scan(&fileID)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to resolve owning file: %w", err)
	}
	// A missing section row leaves fileID zero; the insert below then
	// fails its foreign key check, which is the error the caller should see

	query := `
		INSERT INTO chunks (id, section_id, chunk_index, content, embedding, file_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := q.ExecContext(ctx, query,
		chunk.ID, chunk.SectionID, chunk.ChunkIndex, chunk.Content,
		EncodeEmbedding(chunk.Embedding), fileID); err != nil {
		return fmt.Errorf("failed to add chunk: %w", err)
	}
	return nil
}

// Get returns the chunk with the given id, or nil when it doesn't exist
func (s *SQLiteChunkStore) Get(ctx context.Context, id uuid.UUID) (*knowledge.Chunk, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, section_id, chunk_index, content, embedding
		FROM chunks
		WHERE id = ?
	`
	var chunk knowledge.Chunk
	var blob []byte
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&chunk.ID, &chunk.SectionID, &chunk.ChunkIndex, &chunk.Content, &blob,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if chunk.Embedding, err = DecodeEmbedding(blob); err != nil {
		return nil, fmt.Errorf("chunk %s: %w", chunk.ID, err)
	}
	return &chunk, nil
}

// GetMany looks up all ids in one query and returns only the subset that
// exists, in no guaranteed order. A nil slice is a precondition error;
// an empty slice yields an empty result without querying.
func (s *SQLiteChunkStore) GetMany(ctx context.Context, ids []uuid.UUID) ([]*knowledge.Chunk, error) {
	if ids == nil {
		return nil, fmt.Errorf("ids is nil: %w", ErrInvalidInput)
	}
	if len(ids) == 0 {
		return []*knowledge.Chunk{}, nil
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	// Build parameterized IN clause
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := `
		SELECT id, section_id, chunk_index, content, embedding
		FROM chunks
		WHERE id IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return collectChunks(rows)
}

// GetByIndex returns the chunk at the given position within a section,
// or nil when no chunk occupies that position
func (s *SQLiteChunkStore) GetByIndex(ctx context.Context, sectionID uuid.UUID, chunkIndex int) (*knowledge.Chunk, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, section_id, chunk_index, content, embedding
		FROM chunks
		WHERE section_id = ? AND chunk_index = ?
	`
	var chunk knowledge.Chunk
	var blob []byte
	err := s.db.QueryRowContext(ctx, query, sectionID, chunkIndex).Scan(
		&chunk.ID, &chunk.SectionID, &chunk.ChunkIndex, &chunk.Content, &blob,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if chunk.Embedding, err = DecodeEmbedding(blob); err != nil {
		return nil, fmt.Errorf("chunk %s: %w", chunk.ID, err)
	}
	return &chunk, nil
}

// GetBySection returns all chunks of a section ordered by chunk index
func (s *SQLiteChunkStore) GetBySection(ctx context.Context, sectionID uuid.UUID) ([]*knowledge.Chunk, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, section_id, chunk_index, content, embedding
		FROM chunks
		WHERE section_id = ?
		ORDER BY chunk_index
	`
	rows, err := s.db.QueryContext(ctx, query, sectionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return collectChunks(rows)
}

// DeleteByFile removes all chunks belonging to a file using the
// denormalized file reference. Returns true iff at least one chunk was
// removed.
func (s *SQLiteChunkStore) DeleteByFile(ctx context.Context, fileID uuid.UUID) (bool, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return false, err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE file_id = ?`, fileID)
	if err != nil {
		return false, fmt.Errorf("failed to delete chunks: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// collectChunks drains rows into chunks, decoding embedding blobs
func collectChunks(rows *sql.Rows) ([]*knowledge.Chunk, error) {
	chunks := make([]*knowledge.Chunk, 0)
	for rows.Next() {
		var chunk knowledge.Chunk
		var blob []byte
		if err := rows.Scan(&chunk.ID, &chunk.SectionID, &chunk.ChunkIndex, &chunk.Content, &blob); err != nil {
			return nil, err
		}
		embedding, err := DecodeEmbedding(blob)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", chunk.ID, err)
		}
		chunk.Embedding = embedding
		chunks = append(chunks, &chunk)
	}
	return chunks, rows.Err()
}
