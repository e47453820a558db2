package preprocessor

import (
	"regexp"

	"go.uber.org/zap"
)

// Kind identifies a directive recognizer.
type Kind int

const (
	KindTest Kind = iota
	KindTestCase
	KindSuite
	KindModule
	KindAssert
	KindAssociated
	KindUserDefinedEquality
	KindMPIAssert
	KindBefore
	KindAfter
	KindTestParameter
)

var kindNames = map[Kind]string{
	KindTest:                "@test",
	KindTestCase:            "@testCase",
	KindSuite:               "@suite",
	KindModule:              "module",
	KindAssert:              "@assert",
	KindAssociated:          "@assertAssociated",
	KindUserDefinedEquality: "@assertEqualUserDefined",
	KindMPIAssert:           "@mpiAssert",
	KindBefore:              "@before",
	KindAfter:               "@after",
	KindTestParameter:       "@testParameter",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Match is the structured result of recognizing a line.
type Match struct {
	Kind Kind
	// Raw is the full input line, terminator included.
	Raw string
	// Groups are the submatches of the recognizer's grammar.
	Groups []string
}

// Directive recognizes one line grammar and performs its transformation.
type Directive interface {
	Kind() Kind
	Match(text string) (Match, bool)
	Apply(ctx *Context, m Match) error
}

// Registry holds directives in priority order. The first directive whose
// grammar matches a line handles it. A Registry is read-only once built and
// may be shared between translations.
type Registry struct {
	directives []Directive
}

// NewRegistry returns a registry trying directives in the given order.
func NewRegistry(directives ...Directive) *Registry {
	return &Registry{directives: directives}
}

// DefaultRegistry returns the standard directive set in priority order.
func DefaultRegistry() *Registry {
	return NewRegistry(
		testDirective{},
		testCaseDirective{},
		suiteDirective{},
		moduleDirective{},
		assertDirective{},
		associatedDirective{},
		equalityDirective{},
		mpiAssertDirective{},
		hookDirective{kind: KindBefore},
		hookDirective{kind: KindAfter},
		testParameterDirective{},
	)
}

// Directives returns the directives in priority order.
func (r *Registry) Directives() []Directive {
	out := make([]Directive, len(r.directives))
	copy(out, r.directives)
	return out
}

// Find returns the first directive matching the line text.
func (r *Registry) Find(text string) (Directive, Match, bool) {
	for _, d := range r.directives {
		if m, ok := d.Match(text); ok {
			return d, m, true
		}
	}
	return nil, Match{}, false
}

// Dispatch hands raw to the first matching directive. It reports false when
// no directive claims the line.
func (r *Registry) Dispatch(ctx *Context, raw string) (bool, error) {
	d, m, ok := r.Find(lineText(raw))
	if !ok {
		return false, nil
	}
	m.Raw = raw
	ctx.logger.Debug("directive",
		zap.Stringer("kind", m.Kind),
		zap.Int("line", ctx.Line()),
	)
	return true, d.Apply(ctx, m)
}

// matchPattern runs re against text and packs its submatches.
func matchPattern(kind Kind, re *regexp.Regexp, text string) (Match, bool) {
	groups := re.FindStringSubmatch(text)
	if groups == nil {
		return Match{}, false
	}
	return Match{Kind: kind, Groups: groups[1:]}, true
}
