package indexer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/internal/embedder"
	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/internal/sectioner"
	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/internal/storage"
	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/pkg/knowledge"
)

// ErrIndexInProgress is returned when an index run is started while
// another run on the same Indexer has not finished.
var ErrIndexInProgress = errors.New("an index run is already in progress")

// Lock contention against other store instances resolves within a few
// short retries once the competing write commits.
const (
	busyAttempts  = 3
	busyBaseDelay = 50 * time.Millisecond
)

// Indexer coordinates the indexing pipeline: read -> section -> embed -> store.
type Indexer struct {
	store      *storage.KnowledgeStore
	embedder   embedder.Embedder
	sectioner  *sectioner.Sectioner
	summarizer Summarizer
	logger     *slog.Logger

	workers       int
	skipEmbedding bool
	extensions    map[string]bool

	lock IndexLock
}

// Config contains configuration for the indexer.
type Config struct {
	Workers       int              // Concurrent files (default: runtime.NumCPU()).
	SkipEmbedding bool             // Store chunks without embedding vectors.
	Extensions    []string         // File extensions to index (default: .md, .markdown).
	Sectioner     sectioner.Config // Splitting configuration.
	Summarizer    Summarizer       // Optional per-section summaries.
	Logger        *slog.Logger     // Default: slog.Default().
}

// Statistics describes one index run.
type Statistics struct {
	FilesIndexed    int
	FilesSkipped    int
	FilesFailed     int
	SectionsCreated int
	ChunksCreated   int
	ChunksEmbedded  int
	Duration        time.Duration
	ErrorMessages   []string
}

// New creates an Indexer. The embedder may be nil, in which case chunks
// are stored without embeddings.
func New(store *storage.KnowledgeStore, emb embedder.Embedder, cfg Config) *Indexer {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = []string{".md", ".markdown"}
	}
	extSet := make(map[string]bool, len(exts))
	for _, ext := range exts {
		extSet[strings.ToLower(ext)] = true
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Indexer{
		store:         store,
		embedder:      emb,
		sectioner:     sectioner.New(cfg.Sectioner),
		summarizer:    cfg.Summarizer,
		logger:        logger,
		workers:       workers,
		skipEmbedding: cfg.SkipEmbedding,
		extensions:    extSet,
	}
}

// IndexDirectory walks root and indexes every matching document.
func (idx *Indexer) IndexDirectory(ctx context.Context, root string) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrIndexInProgress
	}
	defer idx.lock.Release()

	files, err := idx.discoverFiles(root)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	idx.logger.Info("starting index run", "root", root, "files", len(files))

	return idx.indexPaths(ctx, files)
}

// IndexFiles indexes the given document paths.
func (idx *Indexer) IndexFiles(ctx context.Context, paths []string) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrIndexInProgress
	}
	defer idx.lock.Release()

	cleaned := make([]string, 0, len(paths))
	for _, p := range paths {
		cleaned = append(cleaned, filepath.Clean(p))
	}

	return idx.indexPaths(ctx, cleaned)
}

// IndexFile indexes a single document.
func (idx *Indexer) IndexFile(ctx context.Context, path string) error {
	if !idx.lock.TryAcquire() {
		return ErrIndexInProgress
	}
	defer idx.lock.Release()

	path = filepath.Clean(path)
	existing, err := idx.findFile(ctx, path)
	if err != nil {
		return err
	}

	_, err = idx.indexOne(ctx, path, existing)
	return err
}

// RemoveFile deletes a document and all of its sections and chunks.
// Returns false when no document with that path is indexed.
func (idx *Indexer) RemoveFile(ctx context.Context, path string) (bool, error) {
	path = filepath.Clean(path)
	file, err := idx.findFile(ctx, path)
	if err != nil {
		return false, err
	}
	if file == nil {
		return false, nil
	}

	if _, err := idx.store.Sections().DeleteByFile(ctx, file.ID); err != nil {
		return false, fmt.Errorf("failed to delete sections: %w", err)
	}
	if _, err := idx.store.Chunks().DeleteByFile(ctx, file.ID); err != nil {
		return false, fmt.Errorf("failed to delete chunks: %w", err)
	}

	removed, err := idx.store.Files().Delete(ctx, file.ID)
	if err != nil {
		return false, fmt.Errorf("failed to delete file: %w", err)
	}

	idx.logger.Info("removed document", "path", path)
	return removed, nil
}

// discoverFiles finds all indexable documents under root. Hidden
// directories are skipped.
func (idx *Indexer) discoverFiles(root string) ([]string, error) {
	var files []string

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != root && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if idx.extensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// fileResult carries per-file counters back to the run totals.
type fileResult struct {
	sections int
	chunks   int
	embedded int
	skipped  bool
}

// indexPaths runs the pipeline over the given paths with bounded
// concurrency. Individual file failures are recorded and do not abort the
// rest of the run.
func (idx *Indexer) indexPaths(ctx context.Context, paths []string) (*Statistics, error) {
	start := time.Now()
	stats := &Statistics{
		ErrorMessages: make([]string, 0),
	}

	byName, err := idx.loadExisting(ctx)
	if err != nil {
		return nil, err
	}

	var (
		indexed  atomic.Int32
		skipped  atomic.Int32
		failed   atomic.Int32
		sections atomic.Int32
		chunks   atomic.Int32
		embedded atomic.Int32
	)
	var mu sync.Mutex // Protects stats.ErrorMessages.

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.workers)

	for _, path := range paths {
		path := path
		g.Go(func() error {
			result, err := idx.indexOne(gctx, path, byName[path])
			if err != nil {
				failed.Add(1)
				mu.Lock()
				stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", path, err))
				mu.Unlock()
				// Keep going; the run reports per-file failures.
				return gctx.Err()
			}

			if result.skipped {
				skipped.Add(1)
				return nil
			}
			indexed.Add(1)
			sections.Add(int32(result.sections))
			chunks.Add(int32(result.chunks))
			embedded.Add(int32(result.embedded))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.FilesIndexed = int(indexed.Load())
	stats.FilesSkipped = int(skipped.Load())
	stats.FilesFailed = int(failed.Load())
	stats.SectionsCreated = int(sections.Load())
	stats.ChunksCreated = int(chunks.Load())
	stats.ChunksEmbedded = int(embedded.Load())
	stats.Duration = time.Since(start)

	idx.logger.Info("index run finished",
		"indexed", stats.FilesIndexed,
		"skipped", stats.FilesSkipped,
		"failed", stats.FilesFailed,
		"chunks", stats.ChunksCreated,
		"duration", stats.Duration)

	return stats, nil
}

// indexOne runs the pipeline for a single document. existing is the
// already-indexed file with the same path, or nil.
func (idx *Indexer) indexOne(ctx context.Context, path string, existing *knowledge.File) (fileResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if existing != nil {
			idx.markFailed(ctx, existing)
		}
		return fileResult{}, fmt.Errorf("failed to read file: %w", err)
	}

	sum := sha256.Sum256(content)
	hash := sum[:]

	if existing != nil && existing.Status == knowledge.StatusIndexed && bytes.Equal(existing.Hash, hash) {
		idx.logger.Debug("document unchanged", "path", path)
		return fileResult{skipped: true}, nil
	}

	file, err := idx.prepareFile(ctx, path, hash, existing)
	if err != nil {
		return fileResult{}, err
	}

	sections := idx.sectioner.SplitBytes(content, file.ID)

	result := fileResult{sections: len(sections)}
	for _, section := range sections {
		result.chunks += len(section.Chunks)
	}

	if idx.embedder != nil && !idx.skipEmbedding {
		for _, section := range sections {
			if err := idx.embedSection(ctx, section); err != nil {
				idx.markFailed(ctx, file)
				return fileResult{}, fmt.Errorf("failed to embed section %d: %w", section.SectionIndex, err)
			}
			result.embedded += len(section.Chunks)
		}
	}

	if idx.summarizer != nil {
		for _, section := range sections {
			summary, err := idx.summarizer.Summarize(ctx, section.Content())
			if err != nil {
				idx.markFailed(ctx, file)
				return fileResult{}, fmt.Errorf("failed to summarize section %d: %w", section.SectionIndex, err)
			}
			if summary != "" {
				section.Summary = &summary
			}
		}
	}

	for _, section := range sections {
		err := idx.writeRetrying(ctx, func() error {
			return idx.store.AddSectionWithChunks(ctx, section)
		})
		if err != nil {
			idx.markFailed(ctx, file)
			return fileResult{}, fmt.Errorf("failed to store section %d: %w", section.SectionIndex, err)
		}
	}

	file.Status = knowledge.StatusIndexed
	file.ProcessedAt = time.Now().UTC()
	err = idx.writeRetrying(ctx, func() error {
		return idx.store.Files().Update(ctx, file)
	})
	if err != nil {
		return fileResult{}, fmt.Errorf("failed to finalize file: %w", err)
	}

	idx.logger.Debug("indexed document",
		"path", path,
		"sections", result.sections,
		"chunks", result.chunks)

	return result, nil
}

// prepareFile creates the file row for a new document, or resets an
// existing one. Re-indexing drops the document's previous sections and
// chunks before the new ones are written.
func (idx *Indexer) prepareFile(ctx context.Context, path string, hash []byte, existing *knowledge.File) (*knowledge.File, error) {
	if existing == nil {
		file := knowledge.NewFile(path, hash)
		file.Status = knowledge.StatusIndexing
		err := idx.writeRetrying(ctx, func() error {
			_, err := idx.store.Files().Add(ctx, file)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("failed to add file: %w", err)
		}
		return file, nil
	}

	existing.Hash = hash
	existing.Status = knowledge.StatusIndexing
	err := idx.writeRetrying(ctx, func() error {
		return idx.store.Files().Update(ctx, existing)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update file: %w", err)
	}

	if _, err := idx.store.Sections().DeleteByFile(ctx, existing.ID); err != nil {
		return nil, fmt.Errorf("failed to delete old sections: %w", err)
	}
	// The cascade handles chunks of deleted sections; this sweeps any
	// chunk row left without a section.
	if _, err := idx.store.Chunks().DeleteByFile(ctx, existing.ID); err != nil {
		return nil, fmt.Errorf("failed to delete old chunks: %w", err)
	}

	return existing, nil
}

// embedSection fills in embedding vectors for every chunk of the section,
// batching API calls.
func (idx *Indexer) embedSection(ctx context.Context, section *knowledge.Section) error {
	if len(section.Chunks) == 0 {
		return nil
	}

	texts := make([]string, len(section.Chunks))
	for i, chunk := range section.Chunks {
		texts[i] = embedInput(section, chunk)
	}

	for start := 0; start < len(texts); start += embedder.MaxBatchSize {
		end := start + embedder.MaxBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		embeddings, err := idx.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return err
		}
		for j, emb := range embeddings {
			section.Chunks[start+j].Embedding = emb.Vector
		}
	}

	return nil
}

// embedInput is the text sent to the embedder for a chunk. The section's
// heading path is prepended so retrieval sees the chunk in context.
func embedInput(section *knowledge.Section, chunk *knowledge.Chunk) string {
	if section.AdditionalContext != nil && *section.AdditionalContext != "" {
		return *section.AdditionalContext + "\n\n" + chunk.Content
	}
	return chunk.Content
}

// writeRetrying runs a store write, retrying with backoff when another
// instance holds the database lock. The store itself never retries;
// lock contention is this caller's concern.
func (idx *Indexer) writeRetrying(ctx context.Context, fn func() error) error {
	delay := busyBaseDelay
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !isBusy(err) || attempt >= busyAttempts-1 {
			return err
		}
		idx.logger.Debug("database busy, retrying write", "attempt", attempt+1)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
}

// isBusy reports whether err is SQLite lock contention. Both supported
// drivers surface the condition in the error text.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// markFailed records a failed status on the file row, best effort.
func (idx *Indexer) markFailed(ctx context.Context, file *knowledge.File) {
	file.Status = knowledge.StatusFailed
	if err := idx.store.Files().Update(ctx, file); err != nil {
		idx.logger.Warn("failed to mark document as failed", "name", file.Name, "error", err)
	}
}

// findFile resolves a document path to its file row, or nil.
func (idx *Indexer) findFile(ctx context.Context, path string) (*knowledge.File, error) {
	byName, err := idx.loadExisting(ctx)
	if err != nil {
		return nil, err
	}
	return byName[path], nil
}

// loadExisting maps every indexed document by path for change detection.
func (idx *Indexer) loadExisting(ctx context.Context) (map[string]*knowledge.File, error) {
	files, err := idx.store.Files().GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	byName := make(map[string]*knowledge.File, len(files))
	for _, file := range files {
		byName[file.Name] = file
	}
	return byName, nil
}
