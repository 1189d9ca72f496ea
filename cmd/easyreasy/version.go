package main

import (
	"github.com/spf13/cobra"

	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/internal/storage"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("easyreasy %s\n", version)
		cmd.Printf("  build time:    %s\n", buildTime)
		cmd.Printf("  build mode:    %s\n", storage.BuildMode)
		cmd.Printf("  sqlite driver: %s\n", storage.DriverName)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
