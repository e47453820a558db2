package preprocessor

import (
	"bytes"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"pfpp/internal/domain"
)

// Context is the state a directive action works against: the shared read
// cursor, the output buffer and the metadata accumulator.
type Context struct {
	scanner *Scanner
	out     *bytes.Buffer
	meta    *Metadata
	markers MarkerStyle
	logger  *zap.Logger

	// self is the object name of the most recent test declaration.
	self domain.Optional[string]
}

// NewContext builds a Context. Translator does this for every file; it is
// exported for callers registering their own directives.
func NewContext(sc *Scanner, out *bytes.Buffer, meta *Metadata, markers MarkerStyle, logger *zap.Logger) *Context {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Context{
		scanner: sc,
		out:     out,
		meta:    meta,
		markers: markers,
		logger:  logger,
	}
}

// Meta returns the metadata accumulator.
func (c *Context) Meta() *Metadata {
	return c.meta
}

// Logger returns the per-file logger.
func (c *Context) Logger() *zap.Logger {
	return c.logger
}

// Line returns the current 1-based input line.
func (c *Context) Line() int {
	return c.scanner.Line()
}

// Write appends s to the output unchanged.
func (c *Context) Write(s string) {
	c.out.WriteString(s)
}

// Comment writes raw with every directive sigil commented out.
func (c *Context) Comment(raw string) {
	c.out.WriteString(strings.ReplaceAll(raw, "@", "!@"))
}

// Mark writes a line marker for line of the current file.
func (c *Context) Mark(line int) {
	c.out.WriteString(c.markers.Mark(line, c.scanner.Base()))
}

// Lookahead consumes the next significant line. Running out of input is a
// malformed declaration of the directive at line.
func (c *Context) Lookahead(kind Kind, line int) (string, error) {
	raw, ok := c.scanner.Next()
	if ok {
		return raw, nil
	}
	if err := c.scanner.Err(); err != nil {
		return "", err
	}
	return "", c.Errorf(kind, line, ErrMalformedDeclaration, "unexpected end of input")
}

// Errorf attributes sentinel to the directive at line.
func (c *Context) Errorf(kind Kind, line int, sentinel error, format string, args ...any) error {
	return c.errorfNamed(kind.String(), line, sentinel, format, args...)
}

// errorfNamed is Errorf for directives reported under the spelling the
// source used, e.g. @assertNotAssociated rather than @assertAssociated.
func (c *Context) errorfNamed(directive string, line int, sentinel error, format string, args ...any) error {
	err := sentinel
	if format != "" {
		err = fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
	}
	return c.wrapNamed(directive, line, err)
}

func (c *Context) wrap(kind Kind, line int, err error) error {
	return c.wrapNamed(kind.String(), line, err)
}

func (c *Context) wrapNamed(directive string, line int, err error) error {
	return &DirectiveError{
		File:      c.scanner.File(),
		Line:      line,
		Directive: directive,
		Err:       err,
	}
}

// warnUnknown logs option keys a directive ignores.
func (c *Context) warnUnknown(kind Kind, line int, keys []string) {
	if len(keys) == 0 {
		return
	}
	c.logger.Warn("ignoring unknown directive options",
		zap.Stringer("kind", kind),
		zap.Int("line", line),
		zap.Strings("keys", keys),
	)
}
