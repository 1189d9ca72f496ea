package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/internal/embedder"
	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/internal/indexer"
)

var (
	indexSkipEmbedding bool
	indexWorkers       int
	indexJSON          bool
)

var indexCmd = &cobra.Command{
	Use:   "index <path>...",
	Short: "Index files or directories into the knowledge base",
	Long: `Indexes the given markdown files or directories. Directories are
walked recursively; hidden directories are skipped. Files whose content
is unchanged since the last run are skipped, changed files are
reindexed from scratch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&indexSkipEmbedding, "skip-embedding", false, "store chunks without embedding vectors")
	indexCmd.Flags().IntVar(&indexWorkers, "workers", 0, "concurrent files (default: number of CPUs)")
	indexCmd.Flags().BoolVar(&indexJSON, "json", false, "output statistics as JSON")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var emb embedder.Embedder
	if !indexSkipEmbedding {
		emb, err = newEmbedder()
		if err != nil {
			return err
		}
		defer func() { _ = emb.Close() }()
	}

	if indexWorkers > 0 {
		cfg.Indexing.Workers = indexWorkers
	}
	idx := newIndexer(store, emb, indexSkipEmbedding)
	ctx := cmd.Context()

	total := &indexer.Statistics{}
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", arg, err)
		}
		if info.IsDir() {
			stats, err := idx.IndexDirectory(ctx, arg)
			if err != nil {
				return err
			}
			mergeStats(total, stats)
		} else {
			files = append(files, arg)
		}
	}
	if len(files) > 0 {
		stats, err := idx.IndexFiles(ctx, files)
		if err != nil {
			return err
		}
		mergeStats(total, stats)
	}

	if indexJSON {
		return printJSON(cmd, statsPayload(total))
	}

	cmd.Printf("Indexed %d files (%d skipped, %d failed)\n",
		total.FilesIndexed, total.FilesSkipped, total.FilesFailed)
	cmd.Printf("  sections: %d, chunks: %d, embedded: %d\n",
		total.SectionsCreated, total.ChunksCreated, total.ChunksEmbedded)
	cmd.Printf("  took %s\n", total.Duration.Round(timePrecision))
	for _, msg := range total.ErrorMessages {
		cmd.PrintErrf("  error: %s\n", msg)
	}

	if total.FilesFailed > 0 {
		return fmt.Errorf("%d files failed to index", total.FilesFailed)
	}
	return nil
}

func mergeStats(total, stats *indexer.Statistics) {
	total.FilesIndexed += stats.FilesIndexed
	total.FilesSkipped += stats.FilesSkipped
	total.FilesFailed += stats.FilesFailed
	total.SectionsCreated += stats.SectionsCreated
	total.ChunksCreated += stats.ChunksCreated
	total.ChunksEmbedded += stats.ChunksEmbedded
	total.Duration += stats.Duration
	total.ErrorMessages = append(total.ErrorMessages, stats.ErrorMessages...)
}

type indexStatsPayload struct {
	FilesIndexed    int      `json:"files_indexed"`
	FilesSkipped    int      `json:"files_skipped"`
	FilesFailed     int      `json:"files_failed"`
	SectionsCreated int      `json:"sections_created"`
	ChunksCreated   int      `json:"chunks_created"`
	ChunksEmbedded  int      `json:"chunks_embedded"`
	DurationMillis  int64    `json:"duration_ms"`
	Errors          []string `json:"errors,omitempty"`
}

func statsPayload(stats *indexer.Statistics) indexStatsPayload {
	return indexStatsPayload{
		FilesIndexed:    stats.FilesIndexed,
		FilesSkipped:    stats.FilesSkipped,
		FilesFailed:     stats.FilesFailed,
		SectionsCreated: stats.SectionsCreated,
		ChunksCreated:   stats.ChunksCreated,
		ChunksEmbedded:  stats.ChunksEmbedded,
		DurationMillis:  stats.Duration.Milliseconds(),
		Errors:          stats.ErrorMessages,
	}
}
