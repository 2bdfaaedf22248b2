package main

import (
	"errors"

	"github.com/spf13/cobra"

	"kanban/config"
	"kanban/storage"
)

func newInitStorageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-storage",
		Short: "Create the Azure table and queue used by the server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Read()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			if cfg.Storage.ConnectionString == "" {
				return errors.New("missing STORAGE_CONNECTION_STRING")
			}
			logger.Info("storage init starting")
			ctx := cmd.Context()
			if err := storage.EnsureTables(ctx, cfg.Storage.ConnectionString, cfg.Storage.BoardsTable); err != nil {
				return err
			}
			if err := storage.EnsureQueues(ctx, cfg.Storage.ConnectionString, cfg.Storage.EventsQueue); err != nil {
				return err
			}
			logger.Info("storage init complete")
			return nil
		},
	}
}
