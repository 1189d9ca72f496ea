package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/internal/searcher"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the knowledge base",
	Long: `Embeds the query and ranks every stored chunk by vector similarity.
The same embedding provider that indexed the documents answers the
query, so provider configuration must match between index and search.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", searcher.DefaultLimit, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	emb, err := newEmbedder()
	if err != nil {
		return err
	}
	defer func() { _ = emb.Close() }()

	s := searcher.NewSearcher(store, emb)
	response, err := s.Search(cmd.Context(), searcher.SearchRequest{
		Query: args[0],
		Limit: searchLimit,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return printJSON(cmd, searchPayload(response))
	}

	if len(response.Results) == 0 {
		if response.ChunksScanned == 0 {
			cmd.Println("No results: the knowledge base has no embedded chunks. Run 'easyreasy index' first.")
		} else {
			cmd.Println("No results found.")
		}
		return nil
	}

	cmd.Printf("Results (%d chunks scanned in %s):\n\n",
		response.ChunksScanned, response.Duration.Round(timePrecision))
	for _, result := range response.Results {
		cmd.Printf("  [%d] %s (%.3f)\n", result.Rank, result.File.Name, result.Score)
		if result.Section.AdditionalContext != nil {
			cmd.Printf("      Section: %s\n", *result.Section.AdditionalContext)
		}
		if snippet := makeSnippet(result.Chunk.Content, 160); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}

	return nil
}

// makeSnippet flattens text to one line and truncates it on a word
// boundary.
func makeSnippet(text string, maxLen int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= maxLen {
		return text
	}

	cut := text[:maxLen]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

type searchResultPayload struct {
	Rank    int     `json:"rank"`
	Score   float64 `json:"score"`
	File    string  `json:"file"`
	Section string  `json:"section,omitempty"`
	Summary string  `json:"summary,omitempty"`
	Content string  `json:"content"`
}

type searchResponsePayload struct {
	Results       []searchResultPayload `json:"results"`
	ChunksScanned int                   `json:"chunks_scanned"`
	DurationMS    int64                 `json:"duration_ms"`
}

func searchPayload(response *searcher.SearchResponse) searchResponsePayload {
	payload := searchResponsePayload{
		Results:       make([]searchResultPayload, 0, len(response.Results)),
		ChunksScanned: response.ChunksScanned,
		DurationMS:    response.Duration.Milliseconds(),
	}

	for _, result := range response.Results {
		row := searchResultPayload{
			Rank:    result.Rank,
			Score:   result.Score,
			File:    result.File.Name,
			Content: result.Chunk.Content,
		}
		if result.Section.AdditionalContext != nil {
			row.Section = *result.Section.AdditionalContext
		}
		if result.Section.Summary != nil {
			row.Summary = *result.Section.Summary
		}
		payload.Results = append(payload.Results, row)
	}

	return payload
}
