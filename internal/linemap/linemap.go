package linemap

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
)

// markerPattern accepts both `#line N "file"` and `#N ["file"]`.
var markerPattern = regexp.MustCompile(`^#(?:line\s+|\s*)(\d+)(?:\s+"([^"]*)")?\s*$`)

// Marker is a line marker found in generated output
type Marker struct {
	GeneratedLine int    // Line of the marker itself in the generated file
	SourceLine    int    // Source line the next generated line corresponds to
	File          string // Source file named by the marker; empty for the bare form
}

// Map translates generated-file lines back to source lines
type Map struct {
	markers []Marker
}

// Parse reads generated output and collects its line markers
func Parse(r io.Reader) (*Map, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	m := &Map{}
	for n := 1; sc.Scan(); n++ {
		g := markerPattern.FindStringSubmatch(sc.Text())
		if g == nil {
			continue
		}
		line, err := strconv.Atoi(g[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad marker: %w", n, err)
		}
		m.markers = append(m.markers, Marker{GeneratedLine: n, SourceLine: line, File: g[2]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read generated output: %w", err)
	}
	return m, nil
}

// ParseFile parses the generated file at path
func ParseFile(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open generated file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Markers returns the markers in file order
func (m *Map) Markers() []Marker {
	out := make([]Marker, len(m.markers))
	copy(out, m.markers)
	return out
}

// Resolve maps a generated line to the source file and line a compiler would
// report for it. Lines before the first marker map to themselves with an empty
// file. Marker lines have no source line and return false.
func (m *Map) Resolve(generatedLine int) (file string, line int, ok bool) {
	if generatedLine <= 0 {
		return "", 0, false
	}
	// Index of the first marker at or after generatedLine.
	i := sort.Search(len(m.markers), func(i int) bool {
		return m.markers[i].GeneratedLine >= generatedLine
	})
	if i < len(m.markers) && m.markers[i].GeneratedLine == generatedLine {
		return "", 0, false
	}
	if i == 0 {
		return "", generatedLine, true
	}

	prev := m.markers[i-1]
	// A bare marker keeps the file named by an earlier marker.
	file = prev.File
	for j := i - 2; file == "" && j >= 0; j-- {
		file = m.markers[j].File
	}
	return file, prev.SourceLine + (generatedLine - prev.GeneratedLine - 1), true
}
