package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"kanban/config"
)

var debug bool

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "kanban",
		Short: "Kanban board with undo and redo",
		Long: `kanban keeps a three column task board (To Do, In Progress, Done)
with a linear undo/redo history.

Run "kanban serve" for the HTTP API or "kanban tui" for a local board in the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	root.AddCommand(newServeCmd())
	root.AddCommand(newTUICmd())
	root.AddCommand(newInitStorageCmd())
	root.AddCommand(newGenTokenCmd())
	return root
}

func execute(version string) error {
	root := newRootCmd()
	root.Version = version
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func newLogger(cfg config.Config) *log.Logger {
	logger := log.New()
	logger.SetFormatter(&log.JSONFormatter{})
	if cfg.Debug || debug {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}
