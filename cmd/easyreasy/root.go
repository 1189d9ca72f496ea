package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/internal/config"
	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/internal/embedder"
	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/internal/indexer"
	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// timePrecision rounds durations in human output.
const timePrecision = time.Millisecond

var (
	flagConfig  string
	flagDB      string
	flagVerbose bool

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "easyreasy",
	Short: "Local knowledge base with semantic search",
	Long: `easyreasy indexes markdown documents into a local SQLite knowledge
base and answers semantic queries over them. Documents are split into
sections by heading, chunked, and embedded; search embeds the query and
ranks chunks by vector similarity.

Everything runs locally. Without an embedding API key a deterministic
offline provider is used, so the pipeline works out of the box.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// setup loads configuration and wires logging before any command runs.
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(flagConfig)
	if err != nil {
		// init --force must be able to replace a broken config file.
		if cmd.Name() == "init" {
			cmd.PrintErrf("Warning: %v, continuing with defaults\n", err)
			loaded = config.Default()
		} else {
			return err
		}
	}
	if flagDB != "" {
		loaded.Database.Path = flagDB
	}
	cfg = loaded

	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.easyreasy/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database file (default ~/.easyreasy/knowledge.db)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

// openStore opens the knowledge base, creating its directory first.
func openStore() (*storage.KnowledgeStore, error) {
	path, err := cfg.DatabasePath()
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	return storage.NewKnowledgeStore(path)
}

func newEmbedder() (embedder.Embedder, error) {
	return embedder.New(cfg.EmbedderConfig())
}

func newIndexer(store *storage.KnowledgeStore, emb embedder.Embedder, skipEmbedding bool) *indexer.Indexer {
	return indexer.New(store, emb, indexer.Config{
		Workers:       cfg.Indexing.Workers,
		SkipEmbedding: skipEmbedding,
		Extensions:    cfg.Indexing.Extensions,
		Sectioner:     cfg.SectionerConfig(),
		Summarizer:    indexer.HeuristicSummarizer{},
		Logger:        logger,
	})
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
