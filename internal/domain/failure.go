package domain

// TranslationFailure represents a source file that could not be translated
type TranslationFailure struct {
	Source    string `json:"source"`
	Line      int    `json:"line,omitempty"`      // Source line of the offending directive, if known
	Directive string `json:"directive,omitempty"` // Directive keyword, if known
	Kind      string `json:"kind"`                // malformed-declaration, insufficient-arguments, ...
	Message   string `json:"message"`
}
