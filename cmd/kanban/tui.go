package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"kanban/board"
	"kanban/config"
	"kanban/tui"
)

func newTUICmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the local board in the terminal",
		Long: `tui opens a board stored in a local SQLite file and edits it with the keyboard.

Keys: n new task, d/x delete, m then 1/2/3 move, shift+←/→ move to the
adjacent column, ctrl+z undo, ctrl+y redo, q quit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Read()
			if err != nil {
				return err
			}
			cfg.Storage.Backend = config.BackendSQLite
			if dbPath != "" {
				cfg.Storage.SQLitePath = dbPath
			}
			return runTUI(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite file holding the board (default $SQLITE_PATH)")
	return cmd
}

func runTUI(ctx context.Context, cfg config.Config) error {
	logger := newLogger(cfg)
	// Log lines would garble the alternate screen.
	logger.SetOutput(io.Discard)

	store, closeStore, err := openStore(cfg, nil)
	if err != nil {
		return err
	}
	defer closeStore()

	s, err := board.NewSession(ctx, "", store, board.Options{
		HistoryLimit: cfg.Board.HistoryLimit,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	d := board.NewDispatcher(s, board.DispatcherConfig{
		Buffer:         cfg.Board.DispatchBuffer,
		HandoffTimeout: cfg.Board.HandoffTimeout,
	})
	defer d.Close()
	return tui.Run(ctx, d)
}
