package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/pkg/knowledge"
)

const fileSchema = `
CREATE TABLE IF NOT EXISTS files (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    hash BLOB NOT NULL,
    processed_at INTEGER NOT NULL,
    status INTEGER NOT NULL
);
`

// SQLiteFileStore implements FileStore over a shared SQLite handle
type SQLiteFileStore struct {
	db *sql.DB

	mu          sync.Mutex
	initialized bool
}

// NewFileStore creates a file store over an open database handle
func NewFileStore(db *sql.DB) *SQLiteFileStore {
	return &SQLiteFileStore{db: db}
}

// ensureSchema lazily creates the files table on first use. The DDL is
// idempotent, so a concurrent first call from another instance is safe;
// the flag only skips repeat round trips. A failed attempt leaves the
// flag unset so the next call retries.
func (s *SQLiteFileStore) ensureSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, fileSchema); err != nil {
		return fmt.Errorf("failed to create files schema: %w", err)
	}
	s.initialized = true
	return nil
}

// Add persists a new file and returns its id. A file with a nil id is
// assigned one. A duplicate id surfaces the engine's uniqueness error.
func (s *SQLiteFileStore) Add(ctx context.Context, file *knowledge.File) (uuid.UUID, error) {
	if file == nil {
		return uuid.Nil, fmt.Errorf("file is nil: %w", ErrInvalidInput)
	}
	if err := s.ensureSchema(ctx); err != nil {
		return uuid.Nil, err
	}
	if file.ID == uuid.Nil {
		file.ID = uuid.New()
	}

	query := `
		INSERT INTO files (id, name, hash, processed_at, status)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		file.ID, file.Name, file.Hash, file.ProcessedAt.Unix(), int(file.Status))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to add file: %w", err)
	}
	return file.ID, nil
}

// Get returns the file with the given id, or nil when it doesn't exist
func (s *SQLiteFileStore) Get(ctx context.Context, id uuid.UUID) (*knowledge.File, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, name, hash, processed_at, status
		FROM files
		WHERE id = ?
	`
	var file knowledge.File
	var processedAt int64
	var status int
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&file.ID, &file.Name, &file.Hash, &processedAt, &status,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	file.ProcessedAt = time.Unix(processedAt, 0).UTC()
	file.Status = knowledge.IndexingStatus(status)
	return &file, nil
}

// Exists reports whether a file with the given id is stored
func (s *SQLiteFileStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return false, err
	}

	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM files WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetAll returns every stored file in no particular order
func (s *SQLiteFileStore) GetAll(ctx context.Context) ([]*knowledge.File, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, name, hash, processed_at, status
		FROM files
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	files := make([]*knowledge.File, 0)
	for rows.Next() {
		var file knowledge.File
		var processedAt int64
		var status int
		if err := rows.Scan(&file.ID, &file.Name, &file.Hash, &processedAt, &status); err != nil {
			return nil, err
		}
		file.ProcessedAt = time.Unix(processedAt, 0).UTC()
		file.Status = knowledge.IndexingStatus(status)
		files = append(files, &file)
	}
	return files, rows.Err()
}

// Update rewrites an existing file. Updating a file that doesn't exist
// fails with ErrNotFound.
func (s *SQLiteFileStore) Update(ctx context.Context, file *knowledge.File) error {
	if file == nil {
		return fmt.Errorf("file is nil: %w", ErrInvalidInput)
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}

	query := `
		UPDATE files
		SET name = ?, hash = ?, processed_at = ?, status = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		file.Name, file.Hash, file.ProcessedAt.Unix(), int(file.Status), file.ID)
	if err != nil {
		return fmt.Errorf("failed to update file: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("file %s: %w", file.ID, ErrNotFound)
	}
	return nil
}

// Delete removes a file and, through the engine's cascade, all of its
// sections and chunks. Returns true iff a row existed.
func (s *SQLiteFileStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return false, err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete file: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
