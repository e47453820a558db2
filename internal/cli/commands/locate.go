package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"pfpp/internal/linemap"
)

// LocateCommand maps a generated line back to its source line
type LocateCommand struct{}

// NewLocateCommand creates a new LocateCommand
func NewLocateCommand() *LocateCommand {
	return &LocateCommand{}
}

// Execute runs the command
func (lc *LocateCommand) Execute(cmd *cobra.Command, args []string) error {
	generated := args[0]
	line, err := strconv.Atoi(args[1])
	if err != nil || line <= 0 {
		return &ArgsError{Err: fmt.Errorf("invalid line number %q", args[1])}
	}

	m, err := linemap.ParseFile(generated)
	if err != nil {
		return err
	}

	file, sourceLine, ok := m.Resolve(line)
	if !ok {
		return &ArgsError{Err: fmt.Errorf("line %d of %s is a line marker", line, generated)}
	}
	if file == "" {
		file = generated
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s:%d\n", file, sourceLine)
	return nil
}
