package commands

import (
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pfpp/internal/config"
	"pfpp/internal/discovery"
	"pfpp/internal/storage"
	"pfpp/internal/ui"
)

// ListCommand handles the list command
type ListCommand struct {
	config    *config.Config
	scanner   *discovery.Scanner
	filter    *discovery.Filter
	storage   storage.Storage
	formatter *ui.Formatter
}

// NewListCommand creates a new ListCommand
func NewListCommand(
	cfg *config.Config,
	scanner *discovery.Scanner,
	filter *discovery.Filter,
	st storage.Storage,
	formatter *ui.Formatter,
) *ListCommand {
	return &ListCommand{
		config:    cfg,
		scanner:   scanner,
		filter:    filter,
		storage:   st,
		formatter: formatter,
	}
}

// Execute runs the command
func (lc *ListCommand) Execute(cmd *cobra.Command, args []string) error {
	sources, err := discover(lc.config, lc.scanner, lc.filter)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		color.Yellow("No sources found")
		return nil
	}

	lc.formatter.PrintSourceList(sources, lc.config.Flags.WithTests, lc.lastFailed())
	return nil
}

// lastFailed returns the sources that failed in the last batch run, if any
func (lc *ListCommand) lastFailed() map[string]struct{} {
	manifest, err := lc.storage.Load()
	if err != nil {
		return nil
	}
	failed := make(map[string]struct{}, len(manifest.Failures))
	for _, f := range manifest.Failures {
		failed[filepath.Clean(f.Source)] = struct{}{}
	}
	return failed
}
