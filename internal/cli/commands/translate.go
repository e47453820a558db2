package commands

import (
	"github.com/spf13/cobra"

	"pfpp/internal/preprocessor"
	"pfpp/internal/ui"
)

// TranslateCommand translates a single source file
type TranslateCommand struct {
	translator *preprocessor.Translator
	formatter  *ui.Formatter
}

// NewTranslateCommand creates a new TranslateCommand
func NewTranslateCommand(translator *preprocessor.Translator, formatter *ui.Formatter) *TranslateCommand {
	return &TranslateCommand{translator: translator, formatter: formatter}
}

// Execute runs the command
func (tc *TranslateCommand) Execute(cmd *cobra.Command, args []string) error {
	source, target := args[0], args[1]

	tc.formatter.PrintTranslateStart(source)
	if _, err := tc.translator.TranslateFile(source, target); err != nil {
		return err
	}
	tc.formatter.PrintTranslateDone(target)
	return nil
}
