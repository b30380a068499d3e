package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Soulfra/soulfra-sub007/internal/infrastructure/config"
	"github.com/Soulfra/soulfra-sub007/internal/infrastructure/store/sqlite"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the default configuration and database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}

			if config.Exists(cwd) {
				return fmt.Errorf("config already exists: %s", config.ConfigFilePath(cwd))
			}

			cfg := config.Default()
			cfg.SQLite.Path = config.DBPath(cwd)
			if err := cfg.Write(cwd); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}

			store, err := sqlite.NewRepository(cfg.SQLite)
			if err != nil {
				return fmt.Errorf("creating sqlite store: %w", err)
			}
			defer store.Close()

			if err := store.EnsureSchema(cmd.Context()); err != nil {
				return fmt.Errorf("creating schema: %w", err)
			}

			fmt.Printf("Initialized accountability chain in %s\n", config.ConfigDir(cwd))
			return nil
		},
	}
}
