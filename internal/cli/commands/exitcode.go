package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"pfpp/internal/preprocessor"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitInvalidArgs = 1
	ExitIO          = 2
	ExitParse       = 3
	ExitGeneration  = 4
)

// ArgsError reports a command line that cannot be acted upon.
type ArgsError struct {
	Err error
}

func (e *ArgsError) Error() string { return e.Err.Error() }

func (e *ArgsError) Unwrap() error { return e.Err }

// ExitCode maps an error returned by a command to the process exit code.
// Anything that is neither an argument nor a translation error is treated
// as an I/O failure.
func ExitCode(err error) int {
	var argsErr *ArgsError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &argsErr):
		return ExitInvalidArgs
	case errors.Is(err, preprocessor.ErrUnresolvedReference):
		return ExitGeneration
	case preprocessor.IsParseError(err):
		return ExitParse
	default:
		return ExitIO
	}
}

// argsChecked wraps a cobra positional-argument validator so its failures
// map to ExitInvalidArgs.
func argsChecked(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &ArgsError{Err: err}
		}
		return nil
	}
}
