package preprocessor

import "strings"

// SplitArguments splits a raw argument list on top-level commas. Commas nested in
// parentheses, brackets or braces, or inside quoted literals, do not split.
// Arguments are trimmed; a blank input yields no arguments.
func SplitArguments(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var (
		args  []string
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			// A doubled quote closes and immediately reopens, which keeps us inside.
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(args, strings.TrimSpace(s[start:]))
}
