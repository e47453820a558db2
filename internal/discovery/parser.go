package discovery

import (
	"fmt"

	"pfpp/internal/preprocessor"
)

// Parser extracts declared tests from annotated sources
type Parser struct {
	translator *preprocessor.Translator
}

// NewParser creates a new Parser. A nil translator uses the default directive set.
func NewParser(translator *preprocessor.Translator) *Parser {
	if translator == nil {
		translator = preprocessor.New()
	}
	return &Parser{translator: translator}
}

// FindTestCases returns the tests declared in a source file, in declaration order.
// The file is run through the full directive engine without writing any output,
// so the result matches what a translation would register.
func (p *Parser) FindTestCases(filePath string) ([]string, error) {
	res, err := p.translator.Inspect(filePath)
	if err != nil {
		return nil, fmt.Errorf("error parsing file %s: %w", filePath, err)
	}
	return res.TestNames(), nil
}
