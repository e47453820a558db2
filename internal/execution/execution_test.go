package execution

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pfpp/internal/config"
	"pfpp/internal/preprocessor"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeSources(t *testing.T, dir string, good, bad int) []string {
	t.Helper()
	var paths []string
	for i := 0; i < good; i++ {
		p := filepath.Join(dir, fmt.Sprintf("good_%02d.pf", i))
		src := fmt.Sprintf("@test\nsubroutine t%d()\nend subroutine\n", i)
		require.NoError(t, os.WriteFile(p, []byte(src), 0644))
		paths = append(paths, p)
	}
	for i := 0; i < bad; i++ {
		p := filepath.Join(dir, fmt.Sprintf("bad_%02d.pf", i))
		require.NoError(t, os.WriteFile(p, []byte("@test\nnot a declaration\n"), 0644))
		paths = append(paths, p)
	}
	return paths
}

func newPool(t *testing.T, processors int, failFast bool) *WorkerPool {
	t.Helper()
	cfg := config.New()
	cfg.Processors = processors
	cfg.Flags.FailFast = failFast
	runner := NewRunner(cfg, preprocessor.New(), nil)
	return NewWorkerPool(cfg, runner, NewRoundRobinScheduler())
}

func TestRoundRobinScheduler_Schedule(t *testing.T) {
	s := NewRoundRobinScheduler()

	tests := []struct {
		name    string
		sources []string
		workers int
		want    [][]string
	}{
		{"even split", []string{"a", "b", "c", "d"}, 2, [][]string{{"a", "c"}, {"b", "d"}}},
		{"more workers than sources", []string{"a", "b"}, 4, [][]string{{"a"}, {"b"}}},
		{"zero workers", []string{"a", "b"}, 0, [][]string{{"a", "b"}}},
		{"no sources", nil, 3, [][]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Schedule(tt.sources, tt.workers))
		})
	}
}

func TestRunner_Run(t *testing.T) {
	dir := t.TempDir()
	paths := writeSources(t, dir, 1, 1)

	cfg := config.New()
	runner := NewRunner(cfg, preprocessor.New(), nil)

	ok := runner.Run(paths[0], 1)
	require.True(t, ok.Success, "%v", ok.Error)
	assert.Equal(t, filepath.Join(dir, "good_00.F90"), ok.Target)
	assert.Equal(t, "good_00_suite", ok.SuiteName)
	assert.Equal(t, []string{"t0"}, ok.Tests)
	assert.Equal(t, 1, ok.Registrations)
	assert.FileExists(t, ok.Target)

	bad := runner.Run(paths[1], 1)
	assert.False(t, bad.Success)
	assert.ErrorIs(t, bad.Error, preprocessor.ErrMalformedDeclaration)
	assert.NoFileExists(t, bad.Target)
}

func TestWorkerPool_Execute(t *testing.T) {
	dir := t.TempDir()
	paths := writeSources(t, dir, 7, 2)

	results, _, err := newPool(t, 3, false).Execute(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, results, 9)

	var failed int
	for i, r := range results {
		if i > 0 {
			assert.Less(t, results[i-1].Source, r.Source, "results are sorted by source")
		}
		if !r.Success {
			failed++
		}
	}
	assert.Equal(t, 2, failed)
}

func TestWorkerPool_FailFast(t *testing.T) {
	dir := t.TempDir()
	paths := writeSources(t, dir, 0, 3)

	results, _, err := newPool(t, 1, true).Execute(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, results, 1, "a single worker stops at its first failure")
	assert.False(t, results[0].Success)
}

func TestWorkerPool_Cancelled(t *testing.T) {
	dir := t.TempDir()
	paths := writeSources(t, dir, 4, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, _, err := newPool(t, 2, false).Execute(ctx, paths)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestWorkerPool_Empty(t *testing.T) {
	results, d, err := newPool(t, 2, false).Execute(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, results)
	assert.Zero(t, d)
}
