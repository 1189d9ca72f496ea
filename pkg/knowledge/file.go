package knowledge

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// IndexingStatus represents the processing state of a file
type IndexingStatus int

const (
	StatusPending  IndexingStatus = 0
	StatusIndexing IndexingStatus = 1
	StatusIndexed  IndexingStatus = 2
	StatusFailed   IndexingStatus = 3
)

// String returns the human-readable name of the status
func (s IndexingStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusIndexing:
		return "indexing"
	case StatusIndexed:
		return "indexed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Valid reports whether the status is one of the defined values
func (s IndexingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusIndexing, StatusIndexed, StatusFailed:
		return true
	default:
		return false
	}
}

// File is the root of the knowledge hierarchy: a named artifact whose
// content has been split into sections and chunks
type File struct {
	// Identification
	ID   uuid.UUID
	Name string

	// Content hash (SHA-256) used for change detection by the indexer
	Hash []byte

	// Processing state
	ProcessedAt time.Time
	Status      IndexingStatus
}

// NewFile creates a file with a fresh identity and pending status
func NewFile(name string, hash []byte) *File {
	return &File{
		ID:          uuid.New(),
		Name:        name,
		Hash:        hash,
		ProcessedAt: time.Now().UTC(),
		Status:      StatusPending,
	}
}

// Validate checks that the file can be persisted
func (f *File) Validate() error {
	if f.ID == uuid.Nil {
		return errors.New("file ID is required")
	}
	if f.Name == "" {
		return errors.New("file name cannot be empty")
	}
	if len(f.Hash) == 0 {
		return errors.New("file hash cannot be empty")
	}
	if !f.Status.Valid() {
		return errors.New("invalid indexing status")
	}
	return nil
}
