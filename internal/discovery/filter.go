package discovery

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter narrows a list of discovered sources
type Filter struct{}

// NewFilter creates a new Filter
func NewFilter() *Filter {
	return &Filter{}
}

// FilterByName filters sources by base-name pattern using wildcard matching.
// Supports patterns like "test_*.pf" or "*mpi*"; a pattern without wildcards
// matches as a substring.
func (f *Filter) FilterByName(sources []string, pattern string) []string {
	if pattern == "" {
		return sources
	}

	var filtered []string
	for _, source := range sources {
		name := filepath.Base(source)

		if matched, err := filepath.Match(pattern, name); err == nil && matched {
			filtered = append(filtered, source)
			continue
		}

		if strings.ContainsAny(pattern, "*?") {
			if containsAllParts(name, pattern) {
				filtered = append(filtered, source)
			}
			continue
		}

		if strings.Contains(name, pattern) {
			filtered = append(filtered, source)
		}
	}
	return filtered
}

// containsAllParts reports whether every non-empty literal segment of a
// wildcard pattern occurs in name.
func containsAllParts(name, pattern string) bool {
	parts := strings.FieldsFunc(pattern, func(r rune) bool { return r == '*' || r == '?' })
	if len(parts) == 0 {
		return false
	}
	for _, part := range parts {
		if !strings.Contains(name, part) {
			return false
		}
	}
	return true
}

// FilterByPatterns keeps sources whose path relative to root matches any of
// the doublestar patterns. No patterns keeps everything.
func (f *Filter) FilterByPatterns(sources []string, root string, patterns []string) []string {
	if len(patterns) == 0 {
		return sources
	}

	var filtered []string
	for _, source := range sources {
		if matchesAnyPattern(source, root, patterns) {
			filtered = append(filtered, source)
		}
	}
	return filtered
}

func matchesAnyPattern(path, root string, patterns []string) bool {
	relPath, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	relPath = filepath.ToSlash(relPath)

	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, relPath)
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
