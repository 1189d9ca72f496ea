package knowledge

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFile(t *testing.T) {
	hash := []byte{0x01, 0x02, 0x03}
	file := NewFile("notes.md", hash)

	assert.NotEqual(t, uuid.Nil, file.ID)
	assert.Equal(t, "notes.md", file.Name)
	assert.Equal(t, hash, file.Hash)
	assert.Equal(t, StatusPending, file.Status)
	assert.False(t, file.ProcessedAt.IsZero())
	assert.NoError(t, file.Validate())
}

func TestFileValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*File)
		wantErr string
	}{
		{
			name:    "missing ID",
			mutate:  func(f *File) { f.ID = uuid.Nil },
			wantErr: "file ID is required",
		},
		{
			name:    "empty name",
			mutate:  func(f *File) { f.Name = "" },
			wantErr: "file name cannot be empty",
		},
		{
			name:    "empty hash",
			mutate:  func(f *File) { f.Hash = nil },
			wantErr: "file hash cannot be empty",
		},
		{
			name:    "bad status",
			mutate:  func(f *File) { f.Status = IndexingStatus(42) },
			wantErr: "invalid indexing status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := NewFile("notes.md", []byte{0xab})
			tt.mutate(file)
			err := file.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewSection(t *testing.T) {
	fileID := uuid.New()
	chunks := []*Chunk{
		NewChunk("first"),
		NewChunk("second"),
		NewChunk("third"),
	}

	section := NewSection(fileID, 2, chunks)

	require.NotEqual(t, uuid.Nil, section.ID)
	assert.Equal(t, fileID, section.FileID)
	assert.Equal(t, 2, section.SectionIndex)
	require.Len(t, section.Chunks, 3)

	for i, chunk := range section.Chunks {
		assert.Equal(t, section.ID, chunk.SectionID, "chunk %d should be owned by the section", i)
		assert.Equal(t, i, chunk.ChunkIndex, "chunk %d should be at position %d", i, i)
	}
	assert.NoError(t, section.Validate())
}

func TestNewSectionEmptyChunks(t *testing.T) {
	section := NewSection(uuid.New(), 0, nil)

	assert.NotEqual(t, uuid.Nil, section.ID)
	assert.Empty(t, section.Chunks)
	assert.NoError(t, section.Validate())
}

func TestSectionValidate(t *testing.T) {
	section := NewSection(uuid.New(), 0, nil)

	section.FileID = uuid.Nil
	assert.Error(t, section.Validate())

	section = NewSection(uuid.New(), -1, nil)
	assert.Error(t, section.Validate())
}

func TestSectionContent(t *testing.T) {
	section := NewSection(uuid.New(), 0, []*Chunk{
		NewChunk("alpha"),
		NewChunk("beta"),
	})

	assert.Equal(t, "alpha\n\nbeta", section.Content())
}

func TestChunkValidate(t *testing.T) {
	chunk := NewChunk("some text")
	// Not yet attached to a section
	assert.Error(t, chunk.Validate())

	NewSection(uuid.New(), 0, []*Chunk{chunk})
	assert.NoError(t, chunk.Validate())

	chunk.Content = ""
	assert.Error(t, chunk.Validate())
}

func TestChunkHasEmbedding(t *testing.T) {
	chunk := NewChunk("text")
	assert.False(t, chunk.HasEmbedding())

	// An empty but non-nil vector still counts as embedded
	chunk.Embedding = []float32{}
	assert.True(t, chunk.HasEmbedding())

	chunk.Embedding = []float32{0.1, 0.2}
	assert.True(t, chunk.HasEmbedding())
}

func TestChunkTokenEstimate(t *testing.T) {
	chunk := NewChunk("12345678")
	assert.Equal(t, 2, chunk.TokenEstimate())
}

func TestIndexingStatusString(t *testing.T) {
	assert.Equal(t, "pending", StatusPending.String())
	assert.Equal(t, "indexing", StatusIndexing.String())
	assert.Equal(t, "indexed", StatusIndexed.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "unknown", IndexingStatus(99).String())
}
