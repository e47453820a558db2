package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pfpp/internal/config"
	"pfpp/internal/discovery"
	"pfpp/internal/domain"
	"pfpp/internal/execution"
	"pfpp/internal/storage"
	"pfpp/internal/ui"
)

// BatchCommand handles the batch command
type BatchCommand struct {
	config    *config.Config
	scanner   *discovery.Scanner
	filter    *discovery.Filter
	executor  *execution.WorkerPool
	storage   storage.Storage
	formatter *ui.Formatter
}

// NewBatchCommand creates a new BatchCommand
func NewBatchCommand(
	cfg *config.Config,
	scanner *discovery.Scanner,
	filter *discovery.Filter,
	executor *execution.WorkerPool,
	st storage.Storage,
	formatter *ui.Formatter,
) *BatchCommand {
	return &BatchCommand{
		config:    cfg,
		scanner:   scanner,
		filter:    filter,
		executor:  executor,
		storage:   st,
		formatter: formatter,
	}
}

// Execute runs the command
func (bc *BatchCommand) Execute(cmd *cobra.Command, args []string) error {
	sources, err := discover(bc.config, bc.scanner, bc.filter)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		color.Yellow("No sources to translate")
		return nil
	}

	progressBar := ui.NewProgressBar(len(sources))
	bc.executor.SetProgress(progressBar)

	results, duration, err := bc.executor.Execute(cmd.Context(), sources)
	if err != nil {
		return err
	}

	manifest, err := bc.storage.Save(results, duration, bc.config.Processors)
	if err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}

	bc.formatter.PrintMetaStats(manifest)
	return batchError(results)
}

// discover scans the configured source path and applies the name and include filters
func discover(cfg *config.Config, scanner *discovery.Scanner, filter *discovery.Filter) ([]string, error) {
	root := cfg.GetSourcePath()
	sources, err := scanner.Scan(root)
	if err != nil {
		return nil, err
	}
	sources = filter.FilterByName(sources, cfg.Flags.NameFilter)
	return filter.FilterByPatterns(sources, root, cfg.Include), nil
}

// batchError summarizes failed translations. It wraps the first failure so
// the exit code reflects its kind.
func batchError(results []domain.TranslationResult) error {
	var (
		failed int
		first  error
	)
	for _, r := range results {
		if r.Success {
			continue
		}
		failed++
		if first == nil {
			first = r.Error
		}
	}
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d source file(s) failed to translate, first: %w", failed, len(results), first)
}
