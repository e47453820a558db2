package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pfpp/internal/config"
	"pfpp/internal/domain"
	"pfpp/internal/execution"
	"pfpp/internal/storage"
	"pfpp/internal/watch"
)

// WatchCommand handles the watch command
type WatchCommand struct {
	config  *config.Config
	runner  *execution.Runner
	storage storage.Storage
	logger  *zap.Logger
}

// NewWatchCommand creates a new WatchCommand
func NewWatchCommand(cfg *config.Config, runner *execution.Runner, st storage.Storage, logger *zap.Logger) *WatchCommand {
	return &WatchCommand{
		config:  cfg,
		runner:  runner,
		storage: st,
		logger:  logger,
	}
}

// Execute runs the command until interrupted
func (wc *WatchCommand) Execute(cmd *cobra.Command, args []string) error {
	w, err := watch.New(wc.config, wc.runner, wc.logger,
		watch.WithStorage(wc.storage),
		watch.WithHandler(printWatchResult),
	)
	if err != nil {
		return err
	}
	defer w.Stop()

	if err := w.Start(cmd.Context()); err != nil {
		return err
	}
	color.Cyan("Watching %s for changes (Ctrl+C to stop)", wc.config.GetSourcePath())

	<-w.Done()
	return nil
}

func printWatchResult(r domain.TranslationResult) {
	if r.Success {
		color.Green("✓ %s -> %s (%d registrations)", r.Source, r.Target, r.Registrations)
		return
	}
	color.Red("✗ %s: %v", r.Source, r.Error)
}
