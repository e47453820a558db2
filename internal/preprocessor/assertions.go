package preprocessor

import (
	"fmt"
	"regexp"
	"strings"
)

// assertVariants are the assertion names a simple or MPI assertion may carry.
var assertVariants = []string{
	"Fail", "Equal", "True", "False",
	"LessThan", "LessThanOrEqual", "GreaterThan", "GreaterThanOrEqual",
	"IsMemberOf", "Contains", "Any", "All", "NotAll", "None",
	"IsPermutationOf", "ExceptionRaised", "SameShape", "IsNaN", "IsFinite",
}

var (
	variantGroup = "(" + strings.Join(assertVariants, "|") + ")"

	assertPattern     = regexp.MustCompile(`(?i)^\s*@assert` + variantGroup + `\s*\((.*\w.*)\)\s*$`)
	mpiAssertPattern  = regexp.MustCompile(`(?i)^\s*@mpiassert` + variantGroup + `\s*\((.*\w.*)\)\s*$`)
	associatedPattern = regexp.MustCompile(`(?i)^\s*@assert(not|un)?associated\s*\((.*)\)\s*$`)
	equalityPattern   = regexp.MustCompile(`(?i)^\s*@assert(equaluserdefined|equivalent)\s*\((.*)\)\s*$`)
	messagePattern    = regexp.MustCompile(`(?i)message\s*=`)
	keywordPattern    = regexp.MustCompile(`@\w+`)
)

// guard aborts the test after a failed assertion.
const guard = "if (anyExceptions()) return"

// expansion is one assertion rewritten into a call. call ends just before the
// source-location argument.
type expansion struct {
	call    string
	message string
	guard   string
}

// writeExpansion replaces the directive at the current line with e, bracketed
// by line markers for the directive line and the line after it.
func writeExpansion(ctx *Context, e expansion) {
	line := ctx.Line()
	ctx.Mark(line)
	ctx.Write("  call " + e.call + ", &\n")
	if e.message != "" {
		ctx.Write(" & message=" + e.message + ", &\n")
	}
	ctx.Write(" & location=SourceLocation( &\n")
	ctx.Write(fmt.Sprintf(" & '%s', &\n", ctx.scanner.Base()))
	ctx.Write(fmt.Sprintf(" & %d)", line))
	ctx.Write(" )\n")
	if e.guard != "" {
		ctx.Write("  " + e.guard + "\n")
	}
	ctx.Mark(line + 1)
}

// spelledAs returns the directive keyword as written in raw, falling back
// to the kind's canonical name.
func spelledAs(raw string, kind Kind) string {
	if kw := keywordPattern.FindString(raw); kw != "" {
		return kw
	}
	return kind.String()
}

// assertDirective expands @assert<Variant>(args).
type assertDirective struct{}

func (assertDirective) Kind() Kind { return KindAssert }

func (d assertDirective) Match(text string) (Match, bool) {
	return matchPattern(d.Kind(), assertPattern, text)
}

func (assertDirective) Apply(ctx *Context, m Match) error {
	writeExpansion(ctx, expansion{
		call:  "assert" + m.Groups[0] + "(" + m.Groups[1],
		guard: guard,
	})
	return nil
}

// mpiAssertDirective expands @mpiAssert<Variant>(args). The failure guard
// checks the context of the enclosing test's object.
type mpiAssertDirective struct{}

func (mpiAssertDirective) Kind() Kind { return KindMPIAssert }

func (d mpiAssertDirective) Match(text string) (Match, bool) {
	return matchPattern(d.Kind(), mpiAssertPattern, text)
}

func (mpiAssertDirective) Apply(ctx *Context, m Match) error {
	e := expansion{call: "assert" + m.Groups[0] + "(" + m.Groups[1]}
	if self, ok := ctx.self.Get(); ok {
		e.guard = "if (anyExceptions(" + self + "%context)) return"
	}
	writeExpansion(ctx, e)
	return nil
}

// associatedDirective expands @assertAssociated and its negated spellings.
// The optional not/un prefix is captured by the keyword itself.
type associatedDirective struct{}

func (associatedDirective) Kind() Kind { return KindAssociated }

func (d associatedDirective) Match(text string) (Match, bool) {
	return matchPattern(d.Kind(), associatedPattern, text)
}

func (associatedDirective) Apply(ctx *Context, m Match) error {
	args := SplitArguments(m.Groups[1])
	if len(args) == 0 || args[0] == "" {
		return ctx.errorfNamed(spelledAs(m.Raw, KindAssociated), ctx.Line(), ErrInsufficientArguments,
			"expected a pointer argument")
	}
	if len(args) > 3 {
		return ctx.errorfNamed(spelledAs(m.Raw, KindAssociated), ctx.Line(), ErrInvalidOption,
			"expected at most 3 arguments, got %d", len(args))
	}

	assertion := "assertTrue"
	if m.Groups[0] != "" {
		assertion = "assertFalse"
	}

	var call string
	switch {
	case len(args) == 1:
		call = "associated(" + args[0] + ")"
	case messagePattern.MatchString(args[1]):
		call = "associated(" + args[0] + "), " + args[1]
	case len(args) == 3:
		call = "associated(" + args[0] + "," + args[1] + "), " + args[2]
	default:
		call = "associated(" + args[0] + "," + args[1] + ")"
	}

	writeExpansion(ctx, expansion{call: assertion + "(" + call, guard: guard})
	return nil
}

// equalityDirective expands @assertEqualUserDefined and @assertEquivalent
// into a boolean comparison of the two operands.
type equalityDirective struct{}

func (equalityDirective) Kind() Kind { return KindUserDefinedEquality }

func (d equalityDirective) Match(text string) (Match, bool) {
	return matchPattern(d.Kind(), equalityPattern, text)
}

func (equalityDirective) Apply(ctx *Context, m Match) error {
	args := SplitArguments(m.Groups[1])
	if len(args) < 2 || args[0] == "" || args[1] == "" {
		return ctx.errorfNamed(spelledAs(m.Raw, KindUserDefinedEquality), ctx.Line(), ErrInsufficientArguments,
			"expected two operands, got %d argument(s)", len(args))
	}
	if len(args) > 3 {
		return ctx.errorfNamed(spelledAs(m.Raw, KindUserDefinedEquality), ctx.Line(), ErrInvalidOption,
			"expected at most 3 arguments, got %d", len(args))
	}

	op := "=="
	if strings.EqualFold(m.Groups[0], "equivalent") {
		op = ".eqv."
	}
	e := expansion{
		call:  "assertTrue(" + args[0] + op + args[1],
		guard: guard,
	}
	if len(args) == 3 {
		e.call += ", " + args[2]
	} else if !messagePattern.MatchString(m.Groups[1]) {
		e.message = "'<" + quoteLiteral(args[0]) + "> not equal to <" + quoteLiteral(args[1]) + ">'"
	}

	writeExpansion(ctx, e)
	return nil
}

// quoteLiteral escapes s for embedding in a single-quoted string literal.
func quoteLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
