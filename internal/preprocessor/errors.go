package preprocessor

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedDeclaration is returned when a directive that needs a following
	// declaration finds a line it cannot extract a name from.
	ErrMalformedDeclaration = errors.New("malformed declaration")
	// ErrInsufficientArguments is returned when an assertion directive has fewer
	// arguments than it requires.
	ErrInsufficientArguments = errors.New("insufficient arguments")
	// ErrUnresolvedReference is returned when emission needs a case-level field
	// that no directive ever set.
	ErrUnresolvedReference = errors.New("unresolved reference")
	// ErrInvalidOption is returned when a directive option list cannot be parsed.
	ErrInvalidOption = errors.New("invalid option")
)

// DirectiveError attributes a translation failure to a source location.
type DirectiveError struct {
	File      string
	Line      int
	Directive string
	Err       error
}

// Error implements the error interface.
func (e *DirectiveError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d", e.Line)
		}
		b.WriteString(": ")
	}
	if e.Directive != "" {
		b.WriteString(e.Directive)
		b.WriteString(": ")
	}
	b.WriteString(e.Err.Error())
	return b.String()
}

// Unwrap returns the underlying error.
func (e *DirectiveError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies err into a short stable identifier.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedDeclaration):
		return "malformed-declaration"
	case errors.Is(err, ErrInsufficientArguments):
		return "insufficient-arguments"
	case errors.Is(err, ErrUnresolvedReference):
		return "unresolved-reference"
	case errors.Is(err, ErrInvalidOption):
		return "invalid-option"
	default:
		return "io"
	}
}

// IsParseError reports whether err stems from the directive grammar rather than I/O or emission.
func IsParseError(err error) bool {
	return errors.Is(err, ErrMalformedDeclaration) ||
		errors.Is(err, ErrInsufficientArguments) ||
		errors.Is(err, ErrInvalidOption)
}
