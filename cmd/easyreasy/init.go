package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config file and an empty knowledge base",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	path, err := config.ResolvePath(flagConfig)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		cmd.Printf("Config file already exists: %s (use --force to overwrite)\n", path)
	} else {
		if err := cfg.Save(path); err != nil {
			return err
		}
		cmd.Printf("Created config file: %s\n", path)
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.Load(cmd.Context()); err != nil {
		return fmt.Errorf("failed to initialize knowledge base: %w", err)
	}

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		return err
	}
	cmd.Printf("Knowledge base ready: %s\n", dbPath)
	cmd.Printf("Embedding provider: %s\n", cfg.EmbedderConfig().Provider)

	return nil
}
