package searcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/internal/embedder"
	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/internal/storage"
	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/pkg/knowledge"
)

func benchSearcher(b *testing.B, chunkCount int) *Searcher {
	b.Helper()
	ctx := context.Background()

	dbPath := filepath.Join(b.TempDir(), "knowledge.db")
	store, err := storage.NewKnowledgeStore(dbPath)
	if err != nil {
		b.Fatalf("failed to create store: %v", err)
	}
	b.Cleanup(func() {
		_ = store.Close()
	})

	emb := embedder.NewLocalProvider(embedder.LocalDimension, nil)

	hash := sha256.Sum256([]byte("bench.md"))
	file := knowledge.NewFile("bench.md", hash[:])
	fileID, err := store.Files().Add(ctx, file)
	if err != nil {
		b.Fatalf("failed to add file: %v", err)
	}

	chunks := make([]*knowledge.Chunk, 0, chunkCount)
	for i := 0; i < chunkCount; i++ {
		chunk := knowledge.NewChunk(fmt.Sprintf("benchmark paragraph %d with enough words to look like prose", i))
		vec, err := emb.Embed(ctx, chunk.Content)
		if err != nil {
			b.Fatalf("failed to embed chunk: %v", err)
		}
		chunk.Embedding = vec.Vector
		chunks = append(chunks, chunk)
	}

	section := knowledge.NewSection(fileID, 0, chunks)
	if err := store.AddSectionWithChunks(ctx, section); err != nil {
		b.Fatalf("failed to store section: %v", err)
	}

	return NewSearcher(store, emb)
}

func BenchmarkSearch(b *testing.B) {
	for _, size := range []int{100, 1000} {
		b.Run(fmt.Sprintf("chunks_%d", size), func(b *testing.B) {
			s := benchSearcher(b, size)
			ctx := context.Background()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := s.Search(ctx, SearchRequest{Query: "benchmark paragraph 42"}); err != nil {
					b.Fatalf("search failed: %v", err)
				}
			}
		})
	}
}

func BenchmarkSearchCached(b *testing.B) {
	s := benchSearcher(b, 1000)
	ctx := context.Background()
	req := SearchRequest{Query: "benchmark paragraph 42", UseCache: true}

	if _, err := s.Search(ctx, req); err != nil {
		b.Fatalf("warmup search failed: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Search(ctx, req); err != nil {
			b.Fatalf("search failed: %v", err)
		}
	}
}

func BenchmarkCosineSimilarity(b *testing.B) {
	x := make([]float32, embedder.LocalDimension)
	y := make([]float32, embedder.LocalDimension)
	for i := range x {
		x[i] = float32(i) * 0.001
		y[i] = float32(embedder.LocalDimension-i) * 0.001
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cosineSimilarity(x, y)
	}
}
