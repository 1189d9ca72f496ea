package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/pkg/knowledge"
)

var (
	// ErrNotFound is returned when an update targets an entity that doesn't exist.
	// Plain reads report absence with a nil result instead.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when a required argument is nil
	ErrInvalidInput = errors.New("invalid input")
)

// FileStore persists file metadata. Absence on reads is reported as a nil
// result, not an error. Engine errors (constraint violations, busy database)
// propagate to the caller untranslated.
type FileStore interface {
	// Add persists a new file and returns its id. A duplicate id surfaces
	// the engine's uniqueness error.
	Add(ctx context.Context, file *knowledge.File) (uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (*knowledge.File, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// GetAll returns every file in no particular order
	GetAll(ctx context.Context) ([]*knowledge.File, error)
	// Update rewrites an existing file and fails with ErrNotFound when no
	// row was affected
	Update(ctx context.Context, file *knowledge.File) error
	// Delete removes a file and, through the engine's cascade, all of its
	// sections and chunks. Returns true iff a row existed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// SectionStore persists section rows. A section's chunk list is hydrated
// from the chunk store on read; it is never written here.
type SectionStore interface {
	// Add persists the section row only. Chunks are persisted separately
	// through the chunk store.
	Add(ctx context.Context, section *knowledge.Section) error
	Get(ctx context.Context, id uuid.UUID) (*knowledge.Section, error)
	GetByIndex(ctx context.Context, fileID uuid.UUID, sectionIndex int) (*knowledge.Section, error)
	// DeleteByFile removes all sections of a file; dependent chunks go with
	// them via the engine's cascade. Returns true iff at least one section
	// row was removed.
	DeleteByFile(ctx context.Context, fileID uuid.UUID) (bool, error)
}

// ChunkStore persists chunks with their optional embedding vectors
type ChunkStore interface {
	Add(ctx context.Context, chunk *knowledge.Chunk) error
	Get(ctx context.Context, id uuid.UUID) (*knowledge.Chunk, error)
	// GetMany looks up all ids in one query and returns only the subset
	// that exists, in no guaranteed order. A nil slice is a precondition
	// error; an empty slice yields an empty result without querying.
	GetMany(ctx context.Context, ids []uuid.UUID) ([]*knowledge.Chunk, error)
	GetByIndex(ctx context.Context, sectionID uuid.UUID, chunkIndex int) (*knowledge.Chunk, error)
	// GetBySection returns a section's chunks ordered by chunk index
	GetBySection(ctx context.Context, sectionID uuid.UUID) ([]*knowledge.Chunk, error)
	// DeleteByFile removes all chunks of a file using the denormalized
	// file reference. Returns true iff at least one chunk was removed.
	DeleteByFile(ctx context.Context, fileID uuid.UUID) (bool, error)
}
