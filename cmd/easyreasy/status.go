package main

import (
	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show knowledge base statistics",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output status as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return err
	}

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return err
	}
	embCfg := cfg.EmbedderConfig()

	if statusJSON {
		return printJSON(cmd, statusPayload{
			DatabasePath:   dbPath,
			Files:          stats.Files,
			Sections:       stats.Sections,
			Chunks:         stats.Chunks,
			EmbeddedChunks: stats.EmbeddedChunks,
			SizeMB:         stats.SizeMB,
			Provider:       embCfg.Provider,
			Model:          embCfg.Model,
		})
	}

	cmd.Printf("Knowledge base: %s\n", dbPath)
	cmd.Printf("  files:           %d\n", stats.Files)
	cmd.Printf("  sections:        %d\n", stats.Sections)
	cmd.Printf("  chunks:          %d\n", stats.Chunks)
	cmd.Printf("  embedded chunks: %d\n", stats.EmbeddedChunks)
	cmd.Printf("  size:            %.2f MB\n", stats.SizeMB)
	cmd.Printf("Embedding provider: %s", embCfg.Provider)
	if embCfg.Model != "" {
		cmd.Printf(" (%s)", embCfg.Model)
	}
	cmd.Println()

	return nil
}

type statusPayload struct {
	DatabasePath   string  `json:"database_path"`
	Files          int     `json:"files"`
	Sections       int     `json:"sections"`
	Chunks         int     `json:"chunks"`
	EmbeddedChunks int     `json:"embedded_chunks"`
	SizeMB         float64 `json:"size_mb"`
	Provider       string  `json:"provider"`
	Model          string  `json:"model,omitempty"`
}
