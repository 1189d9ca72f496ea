package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/pkg/knowledge"
)

const sectionSchema = `
CREATE TABLE IF NOT EXISTS sections (
    id TEXT PRIMARY KEY,
    file_id TEXT NOT NULL,
    section_index INTEGER NOT NULL,
    summary TEXT,
    additional_context TEXT,
    FOREIGN KEY (file_id) REFERENCES files(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_sections_file_id ON sections(file_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_sections_file_id_index ON sections(file_id, section_index);
`

// SQLiteSectionStore implements SectionStore over a shared SQLite handle.
// Reads hydrate the chunk list through the chunk store.
type SQLiteSectionStore struct {
	db     *sql.DB
	chunks ChunkStore

	mu          sync.Mutex
	initialized bool
}

// NewSectionStore creates a section store over an open database handle.
// The chunk store is used to hydrate chunk lists on reads.
func NewSectionStore(db *sql.DB, chunks ChunkStore) *SQLiteSectionStore {
	return &SQLiteSectionStore{db: db, chunks: chunks}
}

// ensureSchema lazily creates the sections table and its indexes on
// first use. The DDL is idempotent; a failed attempt leaves the flag
// unset so the next call retries.
func (s *SQLiteSectionStore) ensureSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, sectionSchema); err != nil {
		return fmt.Errorf("failed to create sections schema: %w", err)
	}
	s.initialized = true
	return nil
}

// Add persists the section row only. The section's chunks are persisted
// separately through the chunk store, or atomically together via the
// knowledge store's AddSectionWithChunks.
func (s *SQLiteSectionStore) Add(ctx context.Context, section *knowledge.Section) error {
	if section == nil {
		return fmt.Errorf("section is nil: %w", ErrInvalidInput)
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	return s.addWithQuerier(ctx, s.db, section)
}

// addWithQuerier is the internal implementation that uses a querier
func (s *SQLiteSectionStore) addWithQuerier(ctx context.Context, q querier, section *knowledge.Section) error {
	if section.ID == uuid.Nil {
		section.ID = uuid.New()
	}

	query := `
		INSERT INTO sections (id, file_id, section_index, summary, additional_context)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		section.ID, section.FileID, section.SectionIndex,
		nullableString(section.Summary), nullableString(section.AdditionalContext))
	if err != nil {
		return fmt.Errorf("failed to add section: %w", err)
	}
	return nil
}

// Get returns the section with the given id with its chunk list
// hydrated, or nil when it doesn't exist
func (s *SQLiteSectionStore) Get(ctx context.Context, id uuid.UUID) (*knowledge.Section, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, file_id, section_index, summary, additional_context
		FROM sections
		WHERE id = ?
	`
	return s.scanAndHydrate(ctx, s.db.QueryRowContext(ctx, query, id))
}

// GetByIndex returns the section at the given position within a file
// with its chunk list hydrated, or nil when no section occupies that
// position
func (s *SQLiteSectionStore) GetByIndex(ctx context.Context, fileID uuid.UUID, sectionIndex int) (*knowledge.Section, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, file_id, section_index, summary, additional_context
		FROM sections
		WHERE file_id = ? AND section_index = ?
	`
	return s.scanAndHydrate(ctx, s.db.QueryRowContext(ctx, query, fileID, sectionIndex))
}

// scanAndHydrate scans a section row and fills its chunk list from the
// chunk store, ordered by chunk index
func (s *SQLiteSectionStore) scanAndHydrate(ctx context.Context, row *sql.Row) (*knowledge.Section, error) {
	var section knowledge.Section
	var summary, additionalContext sql.NullString
	err := row.Scan(
		&section.ID, &section.FileID, &section.SectionIndex,
		&summary, &additionalContext,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if summary.Valid {
		section.Summary = &summary.String
	}
	if additionalContext.Valid {
		section.AdditionalContext = &additionalContext.String
	}

	chunks, err := s.chunks.GetBySection(ctx, section.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to hydrate section %s: %w", section.ID, err)
	}
	section.Chunks = chunks
	return &section, nil
}

// DeleteByFile removes all sections of a file. The engine's cascading
// delete removes the dependent chunk rows in the same statement. Returns
// true iff at least one section row was removed.
func (s *SQLiteSectionStore) DeleteByFile(ctx context.Context, fileID uuid.UUID) (bool, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return false, err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM sections WHERE file_id = ?`, fileID)
	if err != nil {
		return false, fmt.Errorf("failed to delete sections: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
