package commands

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pfpp/internal/preprocessor"
)

const sampleSource = `module foo_mod
contains
@test
subroutine test_one()
@assertTrue(.true.)
end subroutine test_one
end module foo_mod
`

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand("test")
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(NormalizeArgs(args))
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestTranslateCommand(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "foo.pf"), sampleSource)
	dst := filepath.Join(dir, "out", "foo.F90")

	out, err := execute(t, "--project", dir, src, dst)
	require.NoError(t, err)
	assert.Contains(t, out, "Processing file "+src)
	assert.Contains(t, out, " ... Done.  Results in "+dst)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(data), "#line 5 \"foo.pf\"")
	assert.Contains(t, string(data), "function foo_mod_suite()")
}

func TestTranslateCommand_LegacyMarkersFlag(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "foo.pf"), sampleSource)
	dst := filepath.Join(dir, "foo.F90")

	_, err := execute(t, "--project", dir, "-markers", src, dst)
	require.NoError(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(data), "#5 \"foo.pf\"")
	assert.NotContains(t, string(data), "#line")
}

func TestExitCodes(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, filepath.Join(dir, "good.pf"), sampleSource)
	malformed := writeFile(t, filepath.Join(dir, "malformed.pf"), "@test\ninteger :: i\n")
	unresolved := writeFile(t, filepath.Join(dir, "unresolved.pf"),
		"@testCase(cases=[1])\ntype :: C\nend type\n@test\nsubroutine t(this)\n")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"success", []string{good, filepath.Join(dir, "good.F90")}, ExitOK},
		{"missing target argument", []string{good}, ExitInvalidArgs},
		{"unknown flag", []string{"--bogus", good, filepath.Join(dir, "x.F90")}, ExitInvalidArgs},
		{"missing source", []string{filepath.Join(dir, "absent.pf"), filepath.Join(dir, "absent.F90")}, ExitIO},
		{"malformed declaration", []string{malformed, filepath.Join(dir, "malformed.F90")}, ExitParse},
		{"unresolved reference", []string{unresolved, filepath.Join(dir, "unresolved.F90")}, ExitGeneration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"--project", dir}, tt.args...)...)
			assert.Equal(t, tt.want, ExitCode(err), "error: %v", err)
		})
	}

	t.Run("failed translation leaves no target", func(t *testing.T) {
		assert.NoFileExists(t, filepath.Join(dir, "malformed.F90"))
		assert.NoFileExists(t, filepath.Join(dir, "unresolved.F90"))
	})
}

func TestExitCode_Wrapped(t *testing.T) {
	de := &preprocessor.DirectiveError{File: "a.pf", Line: 3, Directive: "@test", Err: preprocessor.ErrInvalidOption}
	assert.Equal(t, ExitParse, ExitCode(fmt.Errorf("batch: %w", de)))
	assert.Equal(t, ExitInvalidArgs, ExitCode(&ArgsError{Err: errors.New("bad")}))
	assert.Equal(t, ExitIO, ExitCode(os.ErrPermission))
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tests", "unit", "vec.pf"), sampleSource)
	writeFile(t, filepath.Join(dir, "tests", "mpi", "halo.pf"),
		"@test(npes=[1,2])\nsubroutine test_halo(this)\nend subroutine\n")

	out, err := execute(t, "--project", dir, "batch", "--path", "tests", "--out", "gen", "-p", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "All sources translated")

	assert.FileExists(t, filepath.Join(dir, "gen", "unit", "vec.F90"))
	assert.FileExists(t, filepath.Join(dir, "gen", "mpi", "halo.F90"))
	assert.FileExists(t, filepath.Join(dir, ".pfpp", "pfpp-manifest.json"))

	t.Run("failures set the exit code", func(t *testing.T) {
		writeFile(t, filepath.Join(dir, "tests", "unit", "broken.pf"), "@assertAssociated()\n")
		out, err := execute(t, "--project", dir, "batch", "--path", "tests")
		require.Error(t, err)
		assert.Equal(t, ExitParse, ExitCode(err))
		assert.Contains(t, out, "broken.pf")
	})

	t.Run("list marks the failed source", func(t *testing.T) {
		out, err := execute(t, "--project", dir, "list", "--path", "tests", "--tests")
		require.NoError(t, err)
		assert.Contains(t, out, "broken.pf [F]")
		assert.Contains(t, out, "test_halo")
		assert.Contains(t, out, "test_one")
	})

	t.Run("include globs narrow the batch", func(t *testing.T) {
		out, err := execute(t, "--project", dir, "batch", "--path", "tests", "--include", "mpi/**")
		require.NoError(t, err)
		assert.Contains(t, out, "All sources translated")
	})
}

func TestLocateCommand(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "foo.pf"), sampleSource)
	dst := filepath.Join(dir, "foo.F90")
	_, err := execute(t, "--project", dir, src, dst)
	require.NoError(t, err)

	out, err := execute(t, "--project", dir, "locate", dst, "6")
	require.NoError(t, err)
	assert.Equal(t, "foo.pf:5\n", out)

	out, err = execute(t, "--project", dir, "locate", dst, "2")
	require.NoError(t, err)
	assert.Equal(t, dst+":2\n", out)

	_, err = execute(t, "--project", dir, "locate", dst, "5")
	assert.Equal(t, ExitInvalidArgs, ExitCode(err))

	_, err = execute(t, "--project", dir, "locate", dst, "zero")
	assert.Equal(t, ExitInvalidArgs, ExitCode(err))
}

func TestNormalizeArgs(t *testing.T) {
	got := NormalizeArgs([]string{"-markers", "a.pf", "-help", "-m"})
	assert.Equal(t, []string{"--markers", "a.pf", "--help", "-m"}, got)
}
