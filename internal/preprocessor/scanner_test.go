package preprocessor

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanner_ForwardsCommentsAndBlanks(t *testing.T) {
	src := "! header\n\n   ! indented\nx = 1\n\t\ny = 2"
	var sink bytes.Buffer
	sc := NewScanner("dir/a.pf", strings.NewReader(src), &sink)

	line, ok := sc.Next()
	require.True(t, ok)
	assert.Equal(t, "x = 1\n", line)
	assert.Equal(t, 4, sc.Line())
	assert.Equal(t, "! header\n\n   ! indented\n", sink.String())

	line, ok = sc.Next()
	require.True(t, ok)
	assert.Equal(t, "y = 2", line, "last line without terminator is still returned")
	assert.Equal(t, 6, sc.Line())
	assert.Equal(t, "! header\n\n   ! indented\n\t\n", sink.String())

	_, ok = sc.Next()
	assert.False(t, ok)
	assert.NoError(t, sc.Err())
	assert.Equal(t, "a.pf", sc.Base())
	assert.Equal(t, "dir/a.pf", sc.File())
}

func TestScanner_TrailingComments(t *testing.T) {
	var sink bytes.Buffer
	sc := NewScanner("a.pf", strings.NewReader("x\n! tail\n"), &sink)

	_, ok := sc.Next()
	require.True(t, ok)
	_, ok = sc.Next()
	assert.False(t, ok)
	assert.Equal(t, "! tail\n", sink.String())
	assert.Equal(t, 2, sc.Line())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestScanner_ReadError(t *testing.T) {
	sc := NewScanner("a.pf", failingReader{}, io.Discard)

	_, ok := sc.Next()
	assert.False(t, ok)
	require.Error(t, sc.Err())
	assert.Contains(t, sc.Err().Error(), "disk on fire")
}
