package commands

import (
	"github.com/spf13/cobra"

	"pfpp/internal/cli"
)

// NewRootCommand builds the pfpp command tree. The root command itself
// translates a single source file.
func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pfpp <source> <target>",
		Short: "pFUnit test preprocessor",
		Long: `Translates annotated Fortran unit-test sources (.pf) into compilable Fortran:
directives such as @test, @assertEqual and @testCase are expanded into calls to the
testing framework, and a suite factory registering every test is appended.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	var flags cli.Flags
	NewCommands(&flags).Register(rootCmd)
	return rootCmd
}

// NormalizeArgs rewrites the single-dash long options accepted by older
// front ends into their cobra spellings.
func NormalizeArgs(args []string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		switch arg {
		case "-markers":
			out[i] = "--markers"
		case "-help":
			out[i] = "--help"
		default:
			out[i] = arg
		}
	}
	return out
}
