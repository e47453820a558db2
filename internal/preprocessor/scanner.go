package preprocessor

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// commentMarker starts a comment in the host language.
const commentMarker = "!"

// Scanner is the single read cursor over a source file. Blank and comment-only
// lines are forwarded to the sink as they are passed over, so callers only ever
// see lines that may carry a directive. Lookahead from directive actions goes
// through the same Scanner as the main loop.
type Scanner struct {
	r    *bufio.Reader
	sink io.Writer
	file string
	line int
	err  error
	done bool
}

// NewScanner creates a Scanner reading r. file names the input for diagnostics.
func NewScanner(file string, r io.Reader, sink io.Writer) *Scanner {
	return &Scanner{
		r:    bufio.NewReader(r),
		sink: sink,
		file: file,
	}
}

// Next returns the next line that is neither blank nor comment-only, including
// its line terminator. It returns false at end of input or after an error.
func (s *Scanner) Next() (string, bool) {
	for !s.done {
		raw, err := s.r.ReadString('\n')
		if err != nil {
			s.done = true
			if err != io.EOF {
				s.err = fmt.Errorf("read %s: %w", s.file, err)
				return "", false
			}
			if raw == "" {
				return "", false
			}
		}
		s.line++

		if !isCommentLine(raw) {
			return raw, true
		}
		if _, err := io.WriteString(s.sink, raw); err != nil {
			s.err = fmt.Errorf("forward comment line %d: %w", s.line, err)
			s.done = true
		}
	}
	return "", false
}

// Line returns the 1-based number of the last line read.
func (s *Scanner) Line() int {
	return s.line
}

// File returns the input name as given.
func (s *Scanner) File() string {
	return s.file
}

// Base returns the input file's base name, used in source locations and line markers.
func (s *Scanner) Base() string {
	return filepath.Base(s.file)
}

// Err returns the first read or forwarding error.
func (s *Scanner) Err() error {
	return s.err
}

func isCommentLine(raw string) bool {
	t := strings.TrimSpace(raw)
	return t == "" || strings.HasPrefix(t, commentMarker)
}

// lineText strips the line terminator.
func lineText(raw string) string {
	return strings.TrimRight(raw, "\r\n")
}
