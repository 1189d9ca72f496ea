package knowledge

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Section is an ordered grouping of chunks within a file. The chunk list
// is hydrated on read; it is never stored inline with the section row.
type Section struct {
	// Identification
	ID     uuid.UUID
	FileID uuid.UUID

	// Zero-based position within the file, unique per file
	SectionIndex int

	// Optional enrichment produced during indexing
	Summary           *string
	AdditionalContext *string

	// Chunks ordered by chunk index
	Chunks []*Chunk
}

// NewSection builds a section from a flat chunk list, assigning the section
// a fresh identity and rewriting each chunk's owner and position from the
// list order. The section row and its chunks are persisted separately.
func NewSection(fileID uuid.UUID, sectionIndex int, chunks []*Chunk) *Section {
	section := &Section{
		ID:           uuid.New(),
		FileID:       fileID,
		SectionIndex: sectionIndex,
		Chunks:       chunks,
	}
	for i, chunk := range chunks {
		chunk.SectionID = section.ID
		chunk.ChunkIndex = i
	}
	return section
}

// Validate checks that the section row can be persisted
func (s *Section) Validate() error {
	if s.ID == uuid.Nil {
		return errors.New("section ID is required")
	}
	if s.FileID == uuid.Nil {
		return errors.New("section file ID is required")
	}
	if s.SectionIndex < 0 {
		return errors.New("section index must not be negative")
	}
	return nil
}

// Content returns the concatenated text of all chunks in order
func (s *Section) Content() string {
	parts := make([]string, 0, len(s.Chunks))
	for _, chunk := range s.Chunks {
		parts = append(parts, chunk.Content)
	}
	return strings.Join(parts, "\n\n")
}
