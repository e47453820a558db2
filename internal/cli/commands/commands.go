package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pfpp/internal/cli"
	"pfpp/internal/config"
	"pfpp/internal/discovery"
	"pfpp/internal/domain"
	"pfpp/internal/execution"
	"pfpp/internal/logging"
	"pfpp/internal/preprocessor"
	"pfpp/internal/storage"
	"pfpp/internal/ui"
)

// Commands holds all CLI commands. Their dependencies are built once the
// flags are parsed, since the configuration depends on --project.
type Commands struct {
	flags  *cli.Flags
	config *config.Config
	logger *zap.Logger

	Translate *TranslateCommand
	Batch     *BatchCommand
	List      *ListCommand
	Inspect   *InspectCommand
	Watch     *WatchCommand
	Locate    *LocateCommand
}

// NewCommands creates the command set bound to flags
func NewCommands(flags *cli.Flags) *Commands {
	return &Commands{flags: flags, logger: zap.NewNop()}
}

// setup loads the configuration and wires every command's dependencies
func (c *Commands) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.flags.ProjectPath)
	if err != nil {
		return &ArgsError{Err: err}
	}
	cfg.ApplyFlags(c.flags.ToConfigFlags())

	logger, err := logging.New(c.flags.Verbose)
	if err != nil {
		return err
	}
	c.config = cfg
	c.logger = logger

	translator := preprocessor.New(
		preprocessor.WithMarkers(cfg.Markers),
		preprocessor.WithLogger(logger),
	)
	scanner := discovery.NewScanner(cfg.SourceExt, cfg.PathsToIgnore)
	filter := discovery.NewFilter()
	testParser := discovery.NewParser(translator)
	runner := execution.NewRunner(cfg, translator, logger)
	executor := execution.NewWorkerPool(cfg, runner, execution.NewRoundRobinScheduler())
	jsonStorage := storage.NewJSONStorage(cfg)
	formatter := ui.NewFormatter(cfg, testParser, cmd.OutOrStdout())
	inspector := ui.NewInspector(jsonStorage, func(source string) domain.TranslationResult {
		return runner.Run(source, 0)
	})

	c.Translate = NewTranslateCommand(translator, formatter)
	c.Batch = NewBatchCommand(cfg, scanner, filter, executor, jsonStorage, formatter)
	c.List = NewListCommand(cfg, scanner, filter, jsonStorage, formatter)
	c.Inspect = NewInspectCommand(jsonStorage, inspector)
	c.Watch = NewWatchCommand(cfg, runner, jsonStorage, logger)
	c.Locate = NewLocateCommand()
	return nil
}

// Register wires the root translate command and all subcommands into rootCmd
func (c *Commands) Register(rootCmd *cobra.Command) {
	flags := c.flags

	rootCmd.Args = argsChecked(cobra.ExactArgs(2))
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return c.Translate.Execute(cmd, args)
	}
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return c.setup(cmd)
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		_ = c.logger.Sync()
	}
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &ArgsError{Err: err}
	})
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&flags.ProjectPath, "project", config.DefaultProjectPath, "Project root holding .pfpp.yaml and .env")
	rootCmd.PersistentFlags().BoolVar(&flags.Verbose, "verbose", false, "Log every directive as it is handled")
	rootCmd.Flags().BoolVarP(&flags.Markers, "markers", "m", false, "Use compact '#N \"file\"' line markers")

	// Batch command
	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Translate every source under a directory in parallel",
		Long:  "Discover annotated sources and translate them using parallel workers, then save a manifest of the run",
		Args:  argsChecked(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Batch.Execute(cmd, args)
		},
	}
	batchCmd.Flags().StringVarP(&flags.SourcePath, "path", "t", "", "Directory where source discovery starts")
	batchCmd.Flags().StringVarP(&flags.OutputDir, "out", "o", "", "Directory receiving the generated files (default: next to each source)")
	batchCmd.Flags().IntVarP(&flags.Processors, "processors", "p", 0, "Number of parallel workers")
	batchCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter sources by name pattern (supports wildcards, e.g. '*_mpi.pf')")
	batchCmd.Flags().StringSliceVarP(&flags.Include, "include", "i", nil, "Only translate sources matching this glob, relative to --path (repeatable, supports **)")
	batchCmd.Flags().BoolVar(&flags.FailFast, "fail-fast", false, "Stop on the first failed translation")
	batchCmd.Flags().BoolVarP(&flags.Markers, "markers", "m", false, "Use compact '#N \"file\"' line markers")
	rootCmd.AddCommand(batchCmd)

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered sources",
		Long:  "Scan and list annotated sources without writing any output",
		Args:  argsChecked(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.List.Execute(cmd, args)
		},
	}
	listCmd.Flags().StringVarP(&flags.SourcePath, "path", "t", "", "Directory where source discovery starts")
	listCmd.Flags().StringVarP(&flags.NameFilter, "filter", "f", "", "Filter sources by name pattern (supports wildcards)")
	listCmd.Flags().StringSliceVarP(&flags.Include, "include", "i", nil, "Only list sources matching this glob (repeatable, supports **)")
	listCmd.Flags().BoolVarP(&flags.WithTests, "tests", "c", false, "List the tests declared in each source")
	rootCmd.AddCommand(listCmd)

	// Inspect command
	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "Browse the last batch run interactively",
		Long:  "Display translated and failed sources from the last batch manifest in an interactive viewer",
		Args:  argsChecked(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Inspect.Execute(cmd, args)
		},
	}
	rootCmd.AddCommand(inspectCmd)

	// Watch command
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Retranslate sources as they change",
		Args:  argsChecked(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Watch.Execute(cmd, args)
		},
	}
	watchCmd.Flags().StringVarP(&flags.SourcePath, "path", "t", "", "Directory to watch")
	watchCmd.Flags().StringVarP(&flags.OutputDir, "out", "o", "", "Directory receiving the generated files")
	watchCmd.Flags().BoolVarP(&flags.Markers, "markers", "m", false, "Use compact '#N \"file\"' line markers")
	rootCmd.AddCommand(watchCmd)

	// Locate command
	locateCmd := &cobra.Command{
		Use:   "locate <generated> <line>",
		Short: "Map a line of a generated file back to its source line",
		Args:  argsChecked(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Locate.Execute(cmd, args)
		},
	}
	rootCmd.AddCommand(locateCmd)
}
