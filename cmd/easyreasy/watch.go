package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/internal/embedder"
	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/internal/watcher"
)

var watchSkipEmbedding bool

var watchCmd = &cobra.Command{
	Use:   "watch <directory>",
	Short: "Watch a directory and keep the knowledge base in sync",
	Long: `Indexes the directory, then watches it for changes. Created and
modified files are reindexed after a short quiet period; deleted files
are removed from the knowledge base. Stops on interrupt.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchSkipEmbedding, "skip-embedding", false, "store chunks without embedding vectors")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	root := args[0]

	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var emb embedder.Embedder
	if !watchSkipEmbedding {
		emb, err = newEmbedder()
		if err != nil {
			return err
		}
		defer func() { _ = emb.Close() }()
	}

	// Watch mode reports activity, so logging runs at info level here
	// regardless of --verbose.
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	watchLog := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	idx := newIndexer(store, emb, watchSkipEmbedding)
	ctx := cmd.Context()

	stats, err := idx.IndexDirectory(ctx, root)
	if err != nil {
		return err
	}
	cmd.Printf("Initial index: %d indexed, %d skipped, %d failed\n",
		stats.FilesIndexed, stats.FilesSkipped, stats.FilesFailed)

	w, err := watcher.New(idx, watcher.Config{
		Debounce:   time.Duration(cfg.Watch.DebounceMillis) * time.Millisecond,
		Extensions: cfg.Indexing.Extensions,
		Logger:     watchLog,
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	if err := w.Watch(ctx, root); err != nil {
		return err
	}

	cmd.Println("Stopped.")
	return nil
}
