package preprocessor

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"pfpp/internal/domain"
)

var (
	testPattern          = regexp.MustCompile(`(?i)^\s*@(test|mpitest)\s*(?:\((.*)\))?\s*$`)
	testCasePattern      = regexp.MustCompile(`(?i)^\s*@testcase\s*(?:\((.*)\))?\s*$`)
	suitePattern         = regexp.MustCompile(`(?i)^\s*@suite\s*\(\s*name\s*=\s*(?:'(\w+)'|"(\w+)")\s*\)\s*$`)
	modulePattern        = regexp.MustCompile(`(?i)^\s*module\s+(\w+)\s*(?:!.*)?$`)
	beforePattern        = regexp.MustCompile(`(?i)^\s*@before\s*$`)
	afterPattern         = regexp.MustCompile(`(?i)^\s*@after\s*$`)
	testParameterPattern = regexp.MustCompile(`(?i)^\s*@testparameter\s*(?:\((.*)\))?\s*$`)

	subroutinePattern = regexp.MustCompile(`(?i)^\s*subroutine\s+(\w+)\s*(?:\([\w\s,]*\))?\s*(?:!.*)?$`)
	selfPattern       = regexp.MustCompile(`(?i)^\s*subroutine\s+\w+\s*\(\s*(\w+)\s*(?:,\s*\w+\s*)*\)\s*(?:!.*)?$`)
	typePattern       = regexp.MustCompile(`(?i)^\s*type(?:.*::\s*|\s+)(\w+)\s*(?:!.*)?$`)
)

// subroutineName extracts the procedure name from a subroutine declaration.
func subroutineName(text string) (string, bool) {
	g := subroutinePattern.FindStringSubmatch(text)
	if g == nil {
		return "", false
	}
	return g[1], true
}

// selfObjectName extracts the first dummy argument of a subroutine declaration.
func selfObjectName(text string) domain.Optional[string] {
	g := selfPattern.FindStringSubmatch(text)
	if g == nil {
		return domain.None[string]()
	}
	return domain.Some(g[1])
}

// typeName extracts the name from a derived-type declaration.
func typeName(text string) (string, bool) {
	g := typePattern.FindStringSubmatch(text)
	if g == nil {
		return "", false
	}
	return g[1], true
}

// expectSubroutine consumes the declaration following a directive.
func expectSubroutine(ctx *Context, kind Kind, line int) (raw, name string, err error) {
	raw, err = ctx.Lookahead(kind, line)
	if err != nil {
		return "", "", err
	}
	name, ok := subroutineName(lineText(raw))
	if !ok {
		return "", "", ctx.Errorf(kind, line, ErrMalformedDeclaration,
			"expected a subroutine declaration at line %d, got %q", ctx.Line(), strings.TrimSpace(raw))
	}
	return raw, name, nil
}

// expectType consumes the derived-type declaration following a directive.
func expectType(ctx *Context, kind Kind, line int) (raw, name string, err error) {
	raw, err = ctx.Lookahead(kind, line)
	if err != nil {
		return "", "", err
	}
	name, ok := typeName(lineText(raw))
	if !ok {
		return "", "", ctx.Errorf(kind, line, ErrMalformedDeclaration,
			"expected a type declaration at line %d, got %q", ctx.Line(), strings.TrimSpace(raw))
	}
	return raw, name, nil
}

// testDirective declares a test procedure.
type testDirective struct{}

func (testDirective) Kind() Kind { return KindTest }

func (d testDirective) Match(text string) (Match, bool) {
	return matchPattern(d.Kind(), testPattern, text)
}

func (d testDirective) Apply(ctx *Context, m Match) error {
	line := ctx.Line()
	if strings.EqualFold(m.Groups[0], "mpitest") {
		ctx.Logger().Warn("@mpitest is deprecated, use @test(npes=[...])", zap.Int("line", line))
	}
	opts, err := ParseOptions(KindTest, m.Groups[1])
	if err != nil {
		return ctx.wrap(KindTest, line, err)
	}
	ctx.warnUnknown(KindTest, line, opts.Unknown)

	ctx.Comment(m.Raw)
	decl, name, err := expectSubroutine(ctx, KindTest, line)
	if err != nil {
		return err
	}
	self := selfObjectName(lineText(decl))

	ctx.Meta().AddMethod(domain.TestMethod{
		Name:           name,
		SelfObjectName: self,
		Line:           ctx.Line(),
		NpRequests:     opts.NpRequests,
		Ifdef:          opts.Ifdef,
		Ifndef:         opts.Ifndef,
		Type:           opts.Type,
		TestParameters: opts.TestParameters,
		Cases:          opts.Cases,
	})
	ctx.self = self
	ctx.Write(decl)
	return nil
}

// testCaseDirective declares the user test-case type.
type testCaseDirective struct{}

func (testCaseDirective) Kind() Kind { return KindTestCase }

func (d testCaseDirective) Match(text string) (Match, bool) {
	return matchPattern(d.Kind(), testCasePattern, text)
}

func (d testCaseDirective) Apply(ctx *Context, m Match) error {
	line := ctx.Line()
	opts, err := ParseOptions(KindTestCase, m.Groups[0])
	if err != nil {
		return ctx.wrap(KindTestCase, line, err)
	}
	ctx.warnUnknown(KindTestCase, line, opts.Unknown)

	ctx.Comment(m.Raw)
	decl, name, err := expectType(ctx, KindTestCase, line)
	if err != nil {
		return err
	}

	tc := &ctx.Meta().Case
	tc.Type = domain.Some(name)
	tc.Constructor = opts.Constructor.OrElse(tc.Constructor)
	tc.NpRequests = opts.NpRequests.OrElse(tc.NpRequests)
	tc.Cases = opts.Cases.OrElse(tc.Cases)
	tc.TestParameters = opts.TestParameters.OrElse(tc.TestParameters)

	ctx.Write(decl)
	return nil
}

// suiteDirective names the suite explicitly.
type suiteDirective struct{}

func (suiteDirective) Kind() Kind { return KindSuite }

func (d suiteDirective) Match(text string) (Match, bool) {
	return matchPattern(d.Kind(), suitePattern, text)
}

func (d suiteDirective) Apply(ctx *Context, m Match) error {
	name := m.Groups[0]
	if name == "" {
		name = m.Groups[1]
	}
	suite := &ctx.Meta().Suite
	suite.Name = domain.Some(name)
	suite.WrapModuleName = domain.WrapPrefix + name

	ctx.Comment(m.Raw)
	return nil
}

// moduleDirective records the enclosing user module. The line itself is ordinary source.
type moduleDirective struct{}

func (moduleDirective) Kind() Kind { return KindModule }

func (d moduleDirective) Match(text string) (Match, bool) {
	m, ok := matchPattern(d.Kind(), modulePattern, text)
	// "module procedure" lines are interface bodies, not module headers.
	if ok && strings.EqualFold(m.Groups[0], "procedure") {
		return Match{}, false
	}
	return m, ok
}

func (d moduleDirective) Apply(ctx *Context, m Match) error {
	name := m.Groups[0]
	suite := &ctx.Meta().Suite
	suite.UserModuleName = name
	suite.WrapModuleName = domain.WrapPrefix + name

	ctx.Write(m.Raw)
	return nil
}

// hookDirective records a fixture set-up or tear-down procedure.
type hookDirective struct {
	kind Kind
}

func (d hookDirective) Kind() Kind { return d.kind }

func (d hookDirective) Match(text string) (Match, bool) {
	if d.kind == KindAfter {
		return matchPattern(d.kind, afterPattern, text)
	}
	return matchPattern(d.kind, beforePattern, text)
}

func (d hookDirective) Apply(ctx *Context, m Match) error {
	line := ctx.Line()
	ctx.Comment(m.Raw)
	decl, name, err := expectSubroutine(ctx, d.kind, line)
	if err != nil {
		return err
	}

	tc := &ctx.Meta().Case
	if d.kind == KindAfter {
		tc.TearDown = domain.Some(name)
	} else {
		tc.SetUp = domain.Some(name)
	}
	ctx.Write(decl)
	return nil
}

// testParameterDirective declares the parameter type of a parameterized case.
type testParameterDirective struct{}

func (testParameterDirective) Kind() Kind { return KindTestParameter }

func (d testParameterDirective) Match(text string) (Match, bool) {
	return matchPattern(d.Kind(), testParameterPattern, text)
}

func (d testParameterDirective) Apply(ctx *Context, m Match) error {
	line := ctx.Line()
	opts, err := ParseOptions(KindTestParameter, m.Groups[0])
	if err != nil {
		return ctx.wrap(KindTestParameter, line, err)
	}
	ctx.warnUnknown(KindTestParameter, line, opts.Unknown)

	ctx.Comment(m.Raw)
	decl, name, err := expectType(ctx, KindTestParameter, line)
	if err != nil {
		return err
	}

	tc := &ctx.Meta().Case
	if !tc.TestParameterType.IsSet() {
		tc.TestParameterType = domain.Some(name)
	} else if first, _ := tc.TestParameterType.Get(); first != name {
		ctx.Logger().Warn("keeping the first declared parameter type",
			zap.String("kept", first),
			zap.String("ignored", name),
			zap.Int("line", line),
		)
	}
	switch {
	case opts.Constructor.IsSet():
		tc.TestParameterConstructor = opts.Constructor
	case !tc.TestParameterConstructor.IsSet():
		tc.TestParameterConstructor = tc.TestParameterType
	}

	ctx.Write(decl)
	return nil
}
