package preprocessor

import "fmt"

// MarkerStyle selects the line-marker syntax written around expanded assertions.
type MarkerStyle int

const (
	// StyleLineDirective writes `#line N "file"`.
	StyleLineDirective MarkerStyle = iota
	// StyleCompact writes the compiler-native `# N "file"` form.
	StyleCompact
)

// MarkerStyleFor maps the command-line markers flag to a style.
func MarkerStyleFor(compact bool) MarkerStyle {
	if compact {
		return StyleCompact
	}
	return StyleLineDirective
}

// Mark renders a marker stating that the next output line corresponds to line of file.
func (s MarkerStyle) Mark(line int, file string) string {
	if s == StyleCompact {
		if file == "" {
			return fmt.Sprintf("#%d\n", line)
		}
		return fmt.Sprintf("#%d \"%s\"\n", line, file)
	}
	return fmt.Sprintf("#line %d \"%s\"\n", line, file)
}

// String implements fmt.Stringer.
func (s MarkerStyle) String() string {
	if s == StyleCompact {
		return "compact"
	}
	return "line"
}
