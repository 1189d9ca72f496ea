package main

import (
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove <file>",
	Short: "Remove a file and its content from the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	idx := newIndexer(store, nil, true)

	removed, err := idx.RemoveFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if removed {
		cmd.Printf("Removed %s\n", args[0])
	} else {
		cmd.Printf("Not indexed: %s\n", args[0])
	}

	return nil
}
