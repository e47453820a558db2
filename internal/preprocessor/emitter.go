package preprocessor

import (
	"fmt"
	"io"
	"strings"

	"pfpp/internal/domain"
)

// Emitter renders the wrapper module and the suite factory from the final
// metadata. It never mutates the metadata it is given.
type Emitter struct {
	meta     *Metadata
	fileBase string
	file     string
}

// NewEmitter returns an emitter for meta. fileBase is the source name without
// extension, used for the default suite name; file is used in error reports.
func NewEmitter(meta *Metadata, fileBase, file string) *Emitter {
	return &Emitter{meta: meta, fileBase: fileBase, file: file}
}

// plan holds everything resolved before any text is produced.
type plan struct {
	suiteName  string
	wrapModule string
	userModule string
	caseType   string
	custom     bool
	mpi        bool
	paramType  domain.Optional[string]
}

// SuiteName resolves the suite factory name.
func (e *Emitter) SuiteName() string {
	return e.meta.Suite.ResolveName(e.fileBase)
}

// Emit writes the generated module and factory to w and returns the number of
// registration calls it emitted.
func (e *Emitter) Emit(w io.Writer) (int, error) {
	p := e.plan()
	if err := e.validate(p); err != nil {
		return 0, err
	}

	var b strings.Builder
	e.writeHeader(&b, p)
	if p.custom {
		e.writeWrapperType(&b, p)
	}
	b.WriteString("contains\n\n")
	if p.custom {
		e.writeRunMethod(&b)
		e.writeMakeCustomTest(&b, p)
	}
	fmt.Fprintf(&b, "\nend module %s\n\n", p.wrapModule)

	n := e.writeSuite(&b, p)
	if _, err := io.WriteString(w, b.String()); err != nil {
		return 0, fmt.Errorf("write generated module: %w", err)
	}
	return n, nil
}

func (e *Emitter) plan() *plan {
	md := e.meta
	return &plan{
		suiteName:  e.SuiteName(),
		wrapModule: md.Suite.WrapModuleName,
		userModule: md.Suite.UserModuleName,
		caseType:   md.Case.Type.Or(""),
		custom:     md.IsCustom(),
		mpi:        md.IsMPI(),
		paramType:  md.ParameterType(),
	}
}

// validate reports references the emitted code would need but no directive set.
func (e *Emitter) validate(p *plan) error {
	if !p.custom {
		return nil
	}
	for _, m := range e.meta.Methods {
		if e.meta.Cases(m).IsSet() && !e.meta.Case.TestParameterConstructor.IsSet() {
			return &DirectiveError{
				File:      e.file,
				Line:      m.Line,
				Directive: KindTest.String(),
				Err:       fmt.Errorf("%w: test %s lists cases but no @testParameter declares how to build them", ErrUnresolvedReference, m.Name),
			}
		}
		if m.TestParameters.OrElse(e.meta.Case.TestParameters).IsSet() && !p.paramType.IsSet() {
			return &DirectiveError{
				File:      e.file,
				Line:      m.Line,
				Directive: KindTest.String(),
				Err:       fmt.Errorf("%w: test %s lists testParameters but no parameter type is declared", ErrUnresolvedReference, m.Name),
			}
		}
	}
	return nil
}

func (e *Emitter) writeHeader(b *strings.Builder, p *plan) {
	b.WriteString("\n")
	fmt.Fprintf(b, "module %s\n", p.wrapModule)
	b.WriteString("   use pFUnit_mod\n")
	if p.userModule != "" {
		fmt.Fprintf(b, "   use %s\n", p.userModule)
	}
	b.WriteString("   implicit none\n")
	b.WriteString("   private\n\n")
}

func (e *Emitter) writeWrapperType(b *strings.Builder, p *plan) {
	b.WriteString("   public :: WrapUserTestCase\n")
	b.WriteString("   public :: makeCustomTest\n")
	fmt.Fprintf(b, "   type, extends(%s) :: WrapUserTestCase\n", p.caseType)
	b.WriteString("      procedure(userTestMethod), nopass, pointer :: testMethodPtr\n")
	b.WriteString("   contains\n")
	b.WriteString("      procedure :: runMethod\n")
	b.WriteString("   end type WrapUserTestCase\n\n")

	b.WriteString("   abstract interface\n")
	b.WriteString("     subroutine userTestMethod(this)\n")
	if p.userModule != "" {
		fmt.Fprintf(b, "        use %s\n", p.userModule)
	}
	fmt.Fprintf(b, "        class (%s), intent(inout) :: this\n", p.caseType)
	b.WriteString("     end subroutine userTestMethod\n")
	b.WriteString("   end interface\n\n")
}

func (e *Emitter) writeRunMethod(b *strings.Builder) {
	b.WriteString("   subroutine runMethod(this)\n")
	b.WriteString("      class (WrapUserTestCase), intent(inout) :: this\n\n")
	b.WriteString("      call this%testMethodPtr(this)\n")
	b.WriteString("   end subroutine runMethod\n\n")
}

func (e *Emitter) writeMakeCustomTest(b *strings.Builder, p *plan) {
	args := "methodName, testMethod"
	var decl strings.Builder
	decl.WriteString("#ifdef INTEL_13\n")
	decl.WriteString("      use pfunit_mod, only: testCase\n")
	decl.WriteString("#endif\n")
	decl.WriteString("      type (WrapUserTestCase) :: aTest\n")
	decl.WriteString("#ifdef INTEL_13\n")
	decl.WriteString("      target :: aTest\n")
	decl.WriteString("      class (WrapUserTestCase), pointer :: p\n")
	decl.WriteString("#endif\n")
	decl.WriteString("      character(len=*), intent(in) :: methodName\n")
	decl.WriteString("      procedure(userTestMethod) :: testMethod\n")

	paramType, parameterized := p.paramType.Get()
	if parameterized {
		args += ", testParameter"
		fmt.Fprintf(&decl, "      type (%s), intent(in) :: testParameter\n", paramType)
	}

	fmt.Fprintf(b, "   function makeCustomTest(%s) result(aTest)\n", args)
	b.WriteString(decl.String())

	if ctor, ok := e.meta.Case.Constructor.Get(); ok {
		call := ctor + "()"
		if parameterized {
			call = ctor + "(testParameter)"
		}
		b.WriteString("      aTest%" + p.caseType + " = " + call + "\n\n")
	}

	b.WriteString("      aTest%testMethodPtr => testMethod\n")
	b.WriteString("#ifdef INTEL_13\n")
	b.WriteString("      p => aTest\n")
	b.WriteString("      call p%setName(methodName)\n")
	b.WriteString("#else\n")
	b.WriteString("      call aTest%setName(methodName)\n")
	b.WriteString("#endif\n")
	if parameterized {
		b.WriteString("      call aTest%setTestParameter(testParameter)\n")
	}
	b.WriteString("   end function makeCustomTest\n")
}

// writeSuite emits the suite factory and returns the number of registration calls.
func (e *Emitter) writeSuite(b *strings.Builder, p *plan) int {
	md := e.meta

	fmt.Fprintf(b, "function %s() result(suite)\n", p.suiteName)
	b.WriteString("   use pFUnit_mod\n")
	if p.userModule != "" {
		fmt.Fprintf(b, "   use %s\n", p.userModule)
	}
	fmt.Fprintf(b, "   use %s\n", p.wrapModule)
	b.WriteString("   type (TestSuite) :: suite\n\n")

	if p.userModule == "" {
		for _, m := range md.Methods {
			openGuard(b, m)
			fmt.Fprintf(b, "   external %s\n", m.Name)
			closeGuard(b, m)
		}
		b.WriteString("\n")
		if setUp, ok := md.Case.SetUp.Get(); ok {
			fmt.Fprintf(b, "   external %s\n", setUp)
		}
		if tearDown, ok := md.Case.TearDown.Get(); ok {
			fmt.Fprintf(b, "   external %s\n", tearDown)
		}
		b.WriteString("\n")
	}

	if paramType, ok := p.paramType.Get(); ok {
		fmt.Fprintf(b, "   type (%s), allocatable :: testParameters(:)\n", paramType)
		fmt.Fprintf(b, "   type (%s) :: testParameter\n", paramType)
		b.WriteString("   integer :: iParam \n")
		b.WriteString("   integer, allocatable :: cases(:) \n")
		b.WriteString(" \n")
	}

	fmt.Fprintf(b, "   suite = newTestSuite('%s')\n\n", p.suiteName)

	var count int
	for _, m := range md.Methods {
		openGuard(b, m)
		switch md.BranchFor(m) {
		case BranchSimple:
			count += e.writeSimple(b, m)
		case BranchMPI:
			count += e.writeMPI(b, m)
		default:
			count += e.writeCustom(b, p, m)
		}
		b.WriteString("\n")
		closeGuard(b, m)
	}

	fmt.Fprintf(b, "\nend function %s\n\n", p.suiteName)
	return count
}

// fixtureArgs appends the resolved set-up and tear-down procedures.
func (e *Emitter) fixtureArgs(args string, m domain.TestMethod) string {
	if setUp, ok := e.meta.SetUp(m).Get(); ok {
		args += ", " + setUp
	}
	if tearDown, ok := e.meta.TearDown(m).Get(); ok {
		args += ", " + tearDown
	}
	return args
}

func (e *Emitter) writeSimple(b *strings.Builder, m domain.TestMethod) int {
	args := e.fixtureArgs(fmt.Sprintf("'%s', %s", m.Name, m.Name), m)
	b.WriteString("   call suite%addTest(" + m.Type.Or("newTestMethod") + "(" + args + "))\n")
	return 1
}

func (e *Emitter) writeMPI(b *strings.Builder, m domain.TestMethod) int {
	counts := e.meta.NpRequests(m).Or(nil)
	for _, np := range counts {
		args := e.fixtureArgs(fmt.Sprintf("'%s', %s, %d", m.Name, m.Name, np), m)
		b.WriteString("   call suite%addTest(" + m.Type.Or("newMpiTestMethod") + "(" + args + "))\n")
	}
	return len(counts)
}

func (e *Emitter) writeCustom(b *strings.Builder, p *plan, m domain.TestMethod) int {
	md := e.meta
	args := fmt.Sprintf("'%s', %s", m.Name, m.Name)
	counts := md.NpRequests(m).Or([]int{1})

	var paramArg string
	cases, hasCases := md.Cases(m).Get()
	if hasCases {
		paramArg = ", testParameter"
		ctor, _ := md.Case.TestParameterConstructor.Get()
		fmt.Fprintf(b, "   cases = %s\n", cases)
		fmt.Fprintf(b, "   testParameters = [(%s(cases(iCase)), iCase = 1, size(cases))]\n\n", ctor)
	}
	params, hasParams := md.TestParameters(m).Get()
	if hasParams {
		paramArg = ", testParameter"
		fmt.Fprintf(b, "   testParameters = %s\n\n", params)
	} else if p.mpi {
		paramArg = ", testParameter"
	}

	loop := hasCases || hasParams
	for _, np := range counts {
		if loop {
			b.WriteString("   do iParam = 1, size(testParameters)\n")
			b.WriteString("      testParameter = testParameters(iParam)\n")
		}
		if p.mpi {
			fmt.Fprintf(b, "   call testParameter%%setNumProcessesRequested(%d)\n", np)
		}
		b.WriteString("   call suite%addTest(makeCustomTest(" + args + paramArg + "))\n")
		if loop {
			b.WriteString("   end do\n")
		}
	}
	return len(counts)
}

func openGuard(b *strings.Builder, m domain.TestMethod) {
	if name, ok := m.Ifdef.Get(); ok {
		fmt.Fprintf(b, "#ifdef %s\n", name)
	} else if name, ok := m.Ifndef.Get(); ok {
		fmt.Fprintf(b, "#ifndef %s\n", name)
	}
}

func closeGuard(b *strings.Builder, m domain.TestMethod) {
	if m.Guarded() {
		b.WriteString("#endif\n")
	}
}
