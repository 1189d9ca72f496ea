package knowledge

import (
	"crypto/sha256"
	"errors"

	"github.com/google/uuid"
)

// Chunk is the leaf content unit: a span of text with an optional
// embedding vector. A nil Embedding means "not yet embedded", which is
// distinct from an empty vector.
type Chunk struct {
	// Identification
	ID        uuid.UUID
	SectionID uuid.UUID

	// Zero-based position within the section, unique per section
	ChunkIndex int

	// Content
	Content   string
	Embedding []float32
}

// NewChunk creates a chunk with a fresh identity and no embedding.
// The owning section and position are assigned by NewSection.
func NewChunk(content string) *Chunk {
	return &Chunk{
		ID:      uuid.New(),
		Content: content,
	}
}

// Validate checks that the chunk can be persisted
func (c *Chunk) Validate() error {
	if c.ID == uuid.Nil {
		return errors.New("chunk ID is required")
	}
	if c.SectionID == uuid.Nil {
		return errors.New("chunk section ID is required")
	}
	if c.ChunkIndex < 0 {
		return errors.New("chunk index must not be negative")
	}
	if c.Content == "" {
		return errors.New("chunk content cannot be empty")
	}
	return nil
}

// HasEmbedding reports whether an embedding vector is present
func (c *Chunk) HasEmbedding() bool {
	return c.Embedding != nil
}

// ContentHash computes the SHA-256 hash of the chunk content
func (c *Chunk) ContentHash() [32]byte {
	return sha256.Sum256([]byte(c.Content))
}

// TokenEstimate estimates the number of tokens in the chunk content
// using a simple heuristic: characters / 4
func (c *Chunk) TokenEstimate() int {
	return len(c.Content) / 4
}
