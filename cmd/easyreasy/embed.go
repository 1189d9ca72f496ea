package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var embedJSON bool

var embedCmd = &cobra.Command{
	Use:   "embed <text>",
	Short: "Embed a text with the configured provider",
	Long: `Embeds the given text and prints the result. Useful for checking
provider configuration and credentials before indexing a large tree.`,
	Args: cobra.ExactArgs(1),
	RunE: runEmbed,
}

func init() {
	embedCmd.Flags().BoolVar(&embedJSON, "json", false, "output the embedding as JSON")
	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, args []string) error {
	emb, err := newEmbedder()
	if err != nil {
		return err
	}
	defer func() { _ = emb.Close() }()

	result, err := emb.Embed(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("embedding failed: %w", err)
	}

	if embedJSON {
		return printJSON(cmd, embedPayload{
			Provider:  result.Provider,
			Model:     result.Model,
			Dimension: result.Dimension,
			Vector:    result.Vector,
		})
	}

	cmd.Printf("Provider:  %s\n", result.Provider)
	cmd.Printf("Model:     %s\n", result.Model)
	cmd.Printf("Dimension: %d\n", result.Dimension)

	preview := result.Vector
	if len(preview) > 8 {
		preview = preview[:8]
	}
	cmd.Printf("Vector:    %v...\n", preview)

	return nil
}

type embedPayload struct {
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Dimension int       `json:"dimension"`
	Vector    []float32 `json:"vector"`
}
