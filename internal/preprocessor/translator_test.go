package preprocessor

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func translate(t *testing.T, name, src string, opts ...Option) (string, *Result) {
	t.Helper()
	var out bytes.Buffer
	res, err := New(opts...).Translate(name, strings.NewReader(src), &out)
	require.NoError(t, err)
	return out.String(), res
}

func translateErr(t *testing.T, name, src string) error {
	t.Helper()
	var out bytes.Buffer
	_, err := New().Translate(name, strings.NewReader(src), &out)
	require.Error(t, err)
	assert.Zero(t, out.Len(), "no output on failure")
	return err
}

func TestTranslate_SimpleGolden(t *testing.T) {
	src := "! a simple test\n" +
		"@test\n" +
		"subroutine testA()\n" +
		"   @assertEqual(1, 2)\n" +
		"end subroutine testA\n"

	want := "! a simple test\n" +
		"!@test\n" +
		"subroutine testA()\n" +
		"#line 4 \"foo.pf\"\n" +
		"  call assertEqual(1, 2, &\n" +
		" & location=SourceLocation( &\n" +
		" & 'foo.pf', &\n" +
		" & 4) )\n" +
		"  if (anyExceptions()) return\n" +
		"#line 5 \"foo.pf\"\n" +
		"end subroutine testA\n" +
		"\n" +
		"module Wrapfoo\n" +
		"   use pFUnit_mod\n" +
		"   implicit none\n" +
		"   private\n\n" +
		"contains\n\n" +
		"\nend module Wrapfoo\n\n" +
		"function foo_suite() result(suite)\n" +
		"   use pFUnit_mod\n" +
		"   use Wrapfoo\n" +
		"   type (TestSuite) :: suite\n\n" +
		"   external testA\n" +
		"\n" +
		"\n" +
		"   suite = newTestSuite('foo_suite')\n\n" +
		"   call suite%addTest(newTestMethod('testA', testA))\n" +
		"\n" +
		"\nend function foo_suite\n\n"

	got, res := translate(t, "tests/foo.pf", src)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "foo_suite", res.SuiteName)
	assert.Equal(t, "Wrapfoo", res.WrapModule)
	assert.Equal(t, 1, res.Registrations)
	assert.Equal(t, []string{"testA"}, res.TestNames())
	assert.Equal(t, 5, res.Lines)
}

func TestTranslate_Deterministic(t *testing.T) {
	src := "module m\n@before\nsubroutine setUp()\nend subroutine\n" +
		"@test(npes=[1,2])\nsubroutine t1(this)\n@mpiAssertTrue(.true.)\nend subroutine\n" +
		"@test(ifdef=FOO)\nsubroutine t2()\nend subroutine\nend module m\n"

	first, _ := translate(t, "det.pf", src)
	second, _ := translate(t, "det.pf", src)
	assert.Equal(t, first, second)
}

func TestTranslate_OneRegistrationPerTest(t *testing.T) {
	var src strings.Builder
	names := []string{"alpha", "beta", "gamma", "delta"}
	for _, n := range names {
		src.WriteString("@test\nsubroutine " + n + "()\nend subroutine " + n + "\n")
	}

	out, res := translate(t, "many.pf", src.String())
	assert.Equal(t, len(names), res.Registrations)
	assert.Equal(t, len(names), strings.Count(out, "call suite%addTest("))
	assert.Equal(t, names, res.TestNames())

	// Registrations follow declaration order.
	last := -1
	for _, n := range names {
		idx := strings.Index(out, "newTestMethod('"+n+"'")
		require.NotEqual(t, -1, idx)
		assert.Greater(t, idx, last)
		last = idx
	}
}

func TestTranslate_MPIProcessCounts(t *testing.T) {
	src := "@test(npes=[1,2,4])\nsubroutine testPar(this)\nend subroutine\n"

	out, res := translate(t, "par.pf", src)
	assert.Equal(t, 3, res.Registrations)
	for _, np := range []string{"1", "2", "4"} {
		assert.Contains(t, out, "call suite%addTest(newMpiTestMethod('testPar', testPar, "+np+"))\n")
	}
}

func TestTranslate_MPIWithFixtures(t *testing.T) {
	src := "@before\nsubroutine init()\nend subroutine\n" +
		"@after\nsubroutine done()\nend subroutine\n" +
		"@test(npes=[3])\nsubroutine t()\nend subroutine\n"

	out, _ := translate(t, "fix.pf", src)
	assert.Contains(t, out, "!@before\n")
	assert.Contains(t, out, "!@after\n")
	assert.Contains(t, out, "newMpiTestMethod('t', t, 3, init, done)")
	assert.Contains(t, out, "   external init\n   external done\n")
}

func TestTranslate_NegatedAssociation(t *testing.T) {
	out, _ := translate(t, "assoc.pf", "@assertNotAssociated(a, b)\n@assertUnAssociated(c)\n")
	assert.Contains(t, out, "  call assertFalse(associated(a,b), &\n")
	assert.Contains(t, out, "  call assertFalse(associated(c), &\n")
	assert.NotContains(t, out, "assertTrue")
}

func TestTranslate_Association(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"@assertAssociated(p)", "  call assertTrue(associated(p), &\n"},
		{"@assertAssociated(p, q)", "  call assertTrue(associated(p,q), &\n"},
		{"@assertAssociated(p, q, 'msg')", "  call assertTrue(associated(p,q), 'msg', &\n"},
		{"@assertAssociated(p, message='msg')", "  call assertTrue(associated(p), message='msg', &\n"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			out, _ := translate(t, "a.pf", tt.line+"\n")
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestTranslate_SynthesizedMessage(t *testing.T) {
	out, _ := translate(t, "eq.pf", "@assertEqualUserDefined(x, y)\n")
	assert.Contains(t, out, "  call assertTrue(x==y, &\n")
	assert.Contains(t, out, " & message='<x> not equal to <y>', &\n")

	out, _ = translate(t, "eq.pf", "@assertEqualUserDefined(x, y, message='custom')\n")
	assert.Contains(t, out, "  call assertTrue(x==y, message='custom', &\n")
	assert.NotContains(t, out, "not equal to")

	out, _ = translate(t, "eq.pf", "@assertEquivalent(p, name('a'))\n")
	assert.Contains(t, out, "  call assertTrue(p.eqv.name('a'), &\n")
	assert.Contains(t, out, " & message='<p> not equal to <name(''a'')>', &\n")
}

func TestTranslate_SuiteNameResolution(t *testing.T) {
	_, res := translate(t, "some/dir/foo.pf", "x = 1\n")
	assert.Equal(t, "foo_suite", res.SuiteName)

	_, res = translate(t, "foo.pf", "module bar\nend module bar\n")
	assert.Equal(t, "bar_suite", res.SuiteName)
	assert.Equal(t, "Wrapbar", res.WrapModule)

	out, res := translate(t, "foo.pf", "module bar\n@suite(name='explicit')\nend module bar\n")
	assert.Equal(t, "explicit", res.SuiteName)
	assert.Contains(t, out, "!@suite(name='explicit')\n")
	assert.Contains(t, out, "function explicit() result(suite)\n")
	assert.Contains(t, out, "   use bar\n")
}

func TestTranslate_LineMarkers(t *testing.T) {
	src := "x = 1\ny = 2\n@assertTrue(x == 1)\n"

	out, _ := translate(t, "dir/m.pf", src)
	assert.Contains(t, out, "#line 3 \"m.pf\"\n  call assertTrue(x == 1, &\n")
	assert.Contains(t, out, "  if (anyExceptions()) return\n#line 4 \"m.pf\"\n")

	out, _ = translate(t, "dir/m.pf", src, WithMarkers(true))
	assert.Contains(t, out, "#3 \"m.pf\"\n")
	assert.Contains(t, out, "#4 \"m.pf\"\n")
	assert.NotContains(t, out, "#line")
}

func TestTranslate_ConditionalGuards(t *testing.T) {
	src := "@test(ifdef=FOO)\nsubroutine t1()\nend subroutine\n" +
		"@test(ifndef=BAR)\nsubroutine t2()\nend subroutine\n"

	out, _ := translate(t, "g.pf", src)
	assert.Equal(t, 2, strings.Count(out, "#ifdef FOO\n"), "external block and registration block")
	assert.Equal(t, 2, strings.Count(out, "#ifndef BAR\n"))
	assert.Contains(t, out, "#ifdef FOO\n   external t1\n#endif\n")
	assert.Contains(t, out, "#ifdef FOO\n   call suite%addTest(newTestMethod('t1', t1))\n\n#endif\n")

	out, _ = translate(t, "g.pf", "module g\n"+src+"end module g\n")
	assert.Equal(t, 1, strings.Count(out, "#ifdef FOO\n"), "no external block inside a module")
	assert.NotContains(t, out, "external")
}

func TestTranslate_MPIAssertGuard(t *testing.T) {
	out, _ := translate(t, "mpi.pf", "@test(npes=[2])\nsubroutine t(this)\n@mpiAssertEqual(1, n)\nend subroutine\n")
	assert.Contains(t, out, "  call assertEqual(1, n, &\n")
	assert.Contains(t, out, "  if (anyExceptions(this%context)) return\n")

	out, _ = translate(t, "mpi.pf", "subroutine orphan()\n@mpiAssertEqual(1, n)\nend subroutine\n")
	assert.Contains(t, out, "  call assertEqual(1, n, &\n")
	assert.NotContains(t, out, "anyExceptions")
}

func TestTranslate_DeprecatedMpiTest(t *testing.T) {
	out, res := translate(t, "old.pf", "@mpitest(npes=[2])\nsubroutine t(this)\nend subroutine\n")
	assert.Contains(t, out, "!@mpitest(npes=[2])\n")
	assert.Equal(t, 1, res.Registrations)
	assert.Contains(t, out, "newMpiTestMethod('t', t, 2)")
}

func TestTranslate_CommentedDirectiveIsInert(t *testing.T) {
	out, res := translate(t, "c.pf", "!@test\nsubroutine notATest()\nend subroutine\n")
	assert.Zero(t, res.Registrations)
	assert.NotContains(t, out, "notATest'")
}

func TestTranslate_CustomCase(t *testing.T) {
	src := "module m\n" +
		"@testCase\n" +
		"type, extends(TestCase) :: MyCase\n" +
		"end type MyCase\n" +
		"contains\n" +
		"@test\n" +
		"subroutine t(this)\n" +
		"class (MyCase), intent(inout) :: this\n" +
		"end subroutine t\n" +
		"end module m\n"

	out, res := translate(t, "custom.pf", src)
	assert.Equal(t, 1, res.Registrations)
	assert.Contains(t, out, "   type, extends(MyCase) :: WrapUserTestCase\n")
	assert.Contains(t, out, "        use m\n        class (MyCase), intent(inout) :: this\n")
	assert.Contains(t, out, "   function makeCustomTest(methodName, testMethod) result(aTest)\n")
	assert.Contains(t, out, "   call suite%addTest(makeCustomTest('t', t))\n")
	assert.NotContains(t, out, "aTest%MyCase =")
	assert.NotContains(t, out, "testParameter")
}

func TestTranslate_ParameterizedCase(t *testing.T) {
	src := "module m\n" +
		"@testParameter\n" +
		"type, extends(AbstractTestParameter) :: MyParam\n" +
		"end type MyParam\n" +
		"@testCase(testParameters={getParams()})\n" +
		"type, extends(ParameterizedTestCase) :: MyCase\n" +
		"end type MyCase\n" +
		"contains\n" +
		"@test\n" +
		"subroutine t(this)\n" +
		"end subroutine t\n" +
		"end module m\n"

	out, res := translate(t, "param.pf", src)
	assert.Equal(t, 1, res.Registrations)
	assert.Equal(t, "MyCase", res.Metadata.Case.Constructor.Or(""), "constructor defaults to the case type")
	assert.Contains(t, out, "      type (MyParam), intent(in) :: testParameter\n")
	assert.Contains(t, out, "      aTest%MyCase = MyCase(testParameter)\n\n")
	assert.Contains(t, out, "      call aTest%setTestParameter(testParameter)\n")
	assert.Contains(t, out, "   type (MyParam), allocatable :: testParameters(:)\n")
	assert.Contains(t, out, "   testParameters = getParams()\n\n")
	assert.Contains(t, out, "   do iParam = 1, size(testParameters)\n"+
		"      testParameter = testParameters(iParam)\n"+
		"   call suite%addTest(makeCustomTest('t', t, testParameter))\n"+
		"   end do\n")
}

func TestTranslate_CasesList(t *testing.T) {
	src := "module m\n" +
		"@testParameter(constructor=newP)\n" +
		"type, extends(AbstractTestParameter) :: P\n" +
		"end type P\n" +
		"@testCase(constructor=newCase, cases=[1,2,3])\n" +
		"type, extends(ParameterizedTestCase) :: C\n" +
		"end type C\n" +
		"contains\n" +
		"@test\n" +
		"subroutine t(this)\n" +
		"end subroutine t\n" +
		"end module m\n"

	out, _ := translate(t, "cases.pf", src)
	assert.Contains(t, out, "   cases = [1,2,3]\n")
	assert.Contains(t, out, "   testParameters = [(newP(cases(iCase)), iCase = 1, size(cases))]\n\n")
	assert.Contains(t, out, "      aTest%C = newCase(testParameter)\n\n")
}

func TestTranslate_CustomMPICase(t *testing.T) {
	src := "module m\n" +
		"@testCase(npes=[1,3])\n" +
		"type, extends(MpiTestCase) :: MyCase\n" +
		"end type MyCase\n" +
		"contains\n" +
		"@test\n" +
		"subroutine t(this)\n" +
		"@mpiAssertTrue(.true.)\n" +
		"end subroutine t\n" +
		"end module m\n"

	out, res := translate(t, "mpicase.pf", src)
	assert.Equal(t, 2, res.Registrations)
	assert.Contains(t, out, "      type (MpiTestParameter), intent(in) :: testParameter\n")
	assert.Contains(t, out, "   call testParameter%setNumProcessesRequested(1)\n"+
		"   call suite%addTest(makeCustomTest('t', t, testParameter))\n"+
		"   call testParameter%setNumProcessesRequested(3)\n")
	assert.Contains(t, out, "  if (anyExceptions(this%context)) return\n")
}

func TestTranslate_FirstParameterTypeWins(t *testing.T) {
	src := "module m\n" +
		"@testParameter\n" +
		"type, extends(AbstractTestParameter) :: P1\n" +
		"end type P1\n" +
		"@testParameter(constructor=mk2)\n" +
		"type, extends(AbstractTestParameter) :: P2\n" +
		"end type P2\n" +
		"@testCase(testParameters={gp()})\n" +
		"type, extends(ParameterizedTestCase) :: C\n" +
		"end type C\n" +
		"contains\n" +
		"@test\n" +
		"subroutine t(this)\n" +
		"end subroutine t\n" +
		"end module m\n"

	out, res := translate(t, "twoparams.pf", src)
	assert.Equal(t, "P1", res.Metadata.Case.TestParameterType.Or(""))
	assert.Equal(t, "mk2", res.Metadata.Case.TestParameterConstructor.Or(""), "a later constructor still applies")
	assert.Contains(t, out, "      type (P1), intent(in) :: testParameter\n")
	assert.Contains(t, out, "   type (P1), allocatable :: testParameters(:)\n")
	assert.NotContains(t, out, "type (P2)")
}

func TestTranslate_ParameterizedMPICase(t *testing.T) {
	src := "module m\n" +
		"@testParameter\n" +
		"type, extends(MpiTestParameter) :: P\n" +
		"end type P\n" +
		"@testCase(npes=[1,2], testParameters={gp()})\n" +
		"type, extends(MpiTestCase) :: C\n" +
		"end type C\n" +
		"contains\n" +
		"@test\n" +
		"subroutine t(this)\n" +
		"end subroutine t\n" +
		"end module m\n"

	out, res := translate(t, "mpiparams.pf", src)
	assert.Equal(t, 2, res.Registrations)

	loop := func(np int) string {
		return "   do iParam = 1, size(testParameters)\n" +
			"      testParameter = testParameters(iParam)\n" +
			fmt.Sprintf("   call testParameter%%setNumProcessesRequested(%d)\n", np) +
			"   call suite%addTest(makeCustomTest('t', t, testParameter))\n" +
			"   end do\n"
	}
	assert.Contains(t, out, "   testParameters = gp()\n\n"+loop(1)+loop(2))
	assert.Equal(t, 2, strings.Count(out, "   do iParam = 1, size(testParameters)\n"))
}

func TestTranslate_ErrorNamesWrittenDirective(t *testing.T) {
	tests := []struct {
		src       string
		directive string
	}{
		{"@assertAssociated()\n", "@assertAssociated"},
		{"@assertNotAssociated()\n", "@assertNotAssociated"},
		{"@assertUnAssociated(a, b, c, d)\n", "@assertUnAssociated"},
		{"@assertEquivalent(a)\n", "@assertEquivalent"},
		{"@assertEqualUserDefined(a)\n", "@assertEqualUserDefined"},
	}

	for _, tt := range tests {
		t.Run(tt.directive, func(t *testing.T) {
			err := translateErr(t, "bad.pf", tt.src)
			var de *DirectiveError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.directive, de.Directive)
		})
	}
}

func TestTranslate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		sentinel error
		line     int
	}{
		{"test without declaration", "@test\nx = 1\n", ErrMalformedDeclaration, 1},
		{"test at end of input", "x = 1\n@test\n! trailing\n", ErrMalformedDeclaration, 2},
		{"testCase without type", "@testCase\nsubroutine foo()\n", ErrMalformedDeclaration, 1},
		{"before without subroutine", "@before\ntype :: T\n", ErrMalformedDeclaration, 1},
		{"equality with one operand", "y = 2\n@assertEqualUserDefined(x)\n", ErrInsufficientArguments, 2},
		{"association without arguments", "@assertAssociated()\n", ErrInsufficientArguments, 1},
		{"bad npes", "@test(npes=[x])\nsubroutine t()\n", ErrInvalidOption, 1},
		{"cases without parameter", "@testCase(cases=[1])\ntype :: C\nend type\n@test\nsubroutine t(this)\n", ErrUnresolvedReference, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translateErr(t, "bad.pf", tt.src)
			assert.ErrorIs(t, err, tt.sentinel)

			var de *DirectiveError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, "bad.pf", de.File)
			assert.Equal(t, tt.line, de.Line)
		})
	}
}

func TestTranslateFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "unit.pf")
	dst := filepath.Join(dir, "out", "unit.F90")
	require.NoError(t, os.WriteFile(src, []byte("@test\nsubroutine t()\nend subroutine\n"), 0644))

	res, err := New().TranslateFile(src, dst)
	require.NoError(t, err)
	assert.Equal(t, "unit_suite", res.SuiteName)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(data), "function unit_suite() result(suite)")

	entries, err := os.ReadDir(filepath.Dir(dst))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file is cleaned up")
}

func TestTranslateFile_FailureLeavesTargetUntouched(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.pf")
	dst := filepath.Join(dir, "broken.F90")
	require.NoError(t, os.WriteFile(src, []byte("@test\nnot a declaration\n"), 0644))
	require.NoError(t, os.WriteFile(dst, []byte("previous"), 0644))

	_, err := New().TranslateFile(src, dst)
	require.ErrorIs(t, err, ErrMalformedDeclaration)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
}

func TestTranslateFile_MissingSource(t *testing.T) {
	_, err := New().TranslateFile(filepath.Join(t.TempDir(), "nope.pf"), "out.F90")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, "io", ErrorKind(err))
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "probe.pf")
	require.NoError(t, os.WriteFile(src, []byte("@test\nsubroutine a()\nend subroutine\n@test\nsubroutine b()\nend subroutine\n"), 0644))

	res, err := New().Inspect(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.TestNames())
	assert.Equal(t, 2, res.Registrations)
}
