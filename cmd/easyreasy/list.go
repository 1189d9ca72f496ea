package main

import (
	"sort"
	"time"

	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed files",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output files as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	files, err := store.Files().GetAll(cmd.Context())
	if err != nil {
		return err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	if listJSON {
		rows := make([]fileRowPayload, 0, len(files))
		for _, file := range files {
			rows = append(rows, fileRowPayload{
				ID:          file.ID.String(),
				Name:        file.Name,
				Status:      file.Status.String(),
				ProcessedAt: file.ProcessedAt,
			})
		}
		return printJSON(cmd, rows)
	}

	if len(files) == 0 {
		cmd.Println("No files indexed.")
		return nil
	}

	for _, file := range files {
		cmd.Printf("  %s  [%s]  %s\n",
			file.Name, file.Status, file.ProcessedAt.Local().Format(time.RFC3339))
	}
	cmd.Printf("\n%d files\n", len(files))

	return nil
}

type fileRowPayload struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	ProcessedAt time.Time `json:"processed_at"`
}
