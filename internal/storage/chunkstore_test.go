package storage

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/pkg/knowledge"
)

// addEmptySection persists a section row with no chunks so chunk-level
// operations can be exercised directly
func addEmptySection(t *testing.T, store *KnowledgeStore, fileID uuid.UUID, index int) *knowledge.Section {
	t.Helper()
	section := knowledge.NewSection(fileID, index, nil)
	require.NoError(t, store.Sections().Add(context.Background(), section))
	return section
}

func TestChunkStoreAddGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	file := addTestFile(t, store, "notes.md")
	section := addEmptySection(t, store, file.ID, 0)

	chunk := knowledge.NewChunk("the content")
	chunk.SectionID = section.ID
	chunk.ChunkIndex = 0
	chunk.Embedding = []float32{0.5, -1.25, 3}

	require.NoError(t, store.Chunks().Add(ctx, chunk))

	got, err := store.Chunks().Get(ctx, chunk.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, chunk.ID, got.ID)
	assert.Equal(t, section.ID, got.SectionID)
	assert.Equal(t, 0, got.ChunkIndex)
	assert.Equal(t, "the content", got.Content)
	assert.Equal(t, []float32{0.5, -1.25, 3}, got.Embedding)
}

func TestChunkStoreAddNil(t *testing.T) {
	store := setupTestStore(t)

	err := store.Chunks().Add(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestChunkStoreAddMissingSection(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.Load(context.Background()))

	chunk := knowledge.NewChunk("orphan")
	chunk.SectionID = uuid.New()

	// The foreign key check rejects a chunk whose section doesn't exist
	err := store.Chunks().Add(context.Background(), chunk)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidInput)
}

func TestChunkStoreAddDuplicateIndex(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	file := addTestFile(t, store, "notes.md")
	section := addTestSection(t, store, file.ID, 0, "first")

	dup := knowledge.NewChunk("second at same position")
	dup.SectionID = section.ID
	dup.ChunkIndex = 0

	err := store.Chunks().Add(ctx, dup)
	require.Error(t, err)
}

func TestChunkStoreAbsentEmbeddingStaysAbsent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	file := addTestFile(t, store, "notes.md")
	section := addTestSection(t, store, file.ID, 0, "no embedding here")

	got, err := store.Chunks().Get(ctx, section.Chunks[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Embedding, "absent embedding must read back as nil, not an empty vector")
	assert.False(t, got.HasEmbedding())
}

func TestChunkStoreEmbeddingRoundTripLarge(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	file := addTestFile(t, store, "notes.md")
	section := addEmptySection(t, store, file.ID, 0)

	vector := make([]float32, 10000)
	for i := range vector {
		vector[i] = float32(math.Cos(float64(i))) * float32(1+i%13)
	}

	chunk := knowledge.NewChunk("big vector")
	chunk.SectionID = section.ID
	chunk.Embedding = vector
	require.NoError(t, store.Chunks().Add(ctx, chunk))

	got, err := store.Chunks().Get(ctx, chunk.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Embedding, 10000)

	for i := range vector {
		if math.Float32bits(vector[i]) != math.Float32bits(got.Embedding[i]) {
			t.Fatalf("value %d not bit-identical after round trip", i)
		}
	}
}

func TestChunkStoreGetAbsent(t *testing.T) {
	store := setupTestStore(t)

	got, err := store.Chunks().Get(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestChunkStoreGetMany(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	file := addTestFile(t, store, "notes.md")
	section := addTestSection(t, store, file.ID, 0, "one", "two", "three")

	existing := []uuid.UUID{
		section.Chunks[0].ID,
		section.Chunks[1].ID,
		section.Chunks[2].ID,
	}
	mixed := append([]uuid.UUID{uuid.New()}, existing...)
	mixed = append(mixed, uuid.New())

	chunks, err := store.Chunks().GetMany(ctx, mixed)
	require.NoError(t, err)
	require.Len(t, chunks, 3, "exactly the existing subset comes back")

	ids := make([]uuid.UUID, 0, len(chunks))
	for _, c := range chunks {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, existing, ids)
}

func TestChunkStoreGetManyEmpty(t *testing.T) {
	store := setupTestStore(t)

	chunks, err := store.Chunks().GetMany(context.Background(), []uuid.UUID{})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkStoreGetManyNil(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Chunks().GetMany(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestChunkStoreGetByIndex(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	file := addTestFile(t, store, "notes.md")
	section := addTestSection(t, store, file.ID, 0, "zero", "one", "two")

	for i, want := range []string{"zero", "one", "two"} {
		got, err := store.Chunks().GetByIndex(ctx, section.ID, i)
		require.NoError(t, err)
		require.NotNil(t, got, "chunk at index %d", i)
		assert.Equal(t, want, got.Content)
		assert.Equal(t, i, got.ChunkIndex)
	}

	// A never-used position is absent, not an error
	got, err := store.Chunks().GetByIndex(ctx, section.ID, 3)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = store.Chunks().GetByIndex(ctx, uuid.New(), 0)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestChunkStoreGetBySectionOrdered(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	file := addTestFile(t, store, "notes.md")
	section := addEmptySection(t, store, file.ID, 0)

	// Insert out of order; reads come back sorted by chunk index
	contents := []string{"zero", "one", "two", "three"}
	for _, i := range []int{2, 0, 3, 1} {
		chunk := knowledge.NewChunk(contents[i])
		chunk.SectionID = section.ID
		chunk.ChunkIndex = i
		require.NoError(t, store.Chunks().Add(ctx, chunk))
	}

	chunks, err := store.Chunks().GetBySection(ctx, section.ID)
	require.NoError(t, err)
	require.Len(t, chunks, 4)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.ChunkIndex)
		assert.Equal(t, contents[i], chunk.Content)
	}
}

func TestChunkStoreGetBySectionEmpty(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	file := addTestFile(t, store, "notes.md")
	section := addEmptySection(t, store, file.ID, 0)

	chunks, err := store.Chunks().GetBySection(ctx, section.ID)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkStoreDeleteByFile(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	file := addTestFile(t, store, "notes.md")
	section := addTestSection(t, store, file.ID, 0, "one", "two")
	other := addTestFile(t, store, "other.md")
	otherSection := addTestSection(t, store, other.ID, 0, "keep me")

	deleted, err := store.Chunks().DeleteByFile(ctx, file.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	for _, chunk := range section.Chunks {
		got, err := store.Chunks().Get(ctx, chunk.ID)
		require.NoError(t, err)
		assert.Nil(t, got)
	}

	// Chunks of the other file survive
	got, err := store.Chunks().Get(ctx, otherSection.Chunks[0].ID)
	require.NoError(t, err)
	assert.NotNil(t, got)

	// Second delete finds nothing
	deleted, err = store.Chunks().DeleteByFile(ctx, file.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}
