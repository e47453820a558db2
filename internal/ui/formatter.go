package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"

	"pfpp/internal/config"
	"pfpp/internal/discovery"
	"pfpp/internal/domain"
)

// Formatter formats and displays output
type Formatter struct {
	config *config.Config
	parser *discovery.Parser
	out    io.Writer
}

// NewFormatter creates a new Formatter writing to out (stdout when nil)
func NewFormatter(cfg *config.Config, parser *discovery.Parser, out io.Writer) *Formatter {
	if out == nil {
		out = color.Output
	}
	return &Formatter{
		config: cfg,
		parser: parser,
		out:    out,
	}
}

// PrintTranslateStart announces a single-file translation
func (f *Formatter) PrintTranslateStart(source string) {
	fmt.Fprintln(f.out, color.CyanString("Processing file %s", source))
}

// PrintTranslateDone reports a completed single-file translation
func (f *Formatter) PrintTranslateDone(target string) {
	fmt.Fprintln(f.out, color.GreenString(" ... Done.  Results in %s", target))
}

// PrintMetaStats displays the statistics of a batch manifest
func (f *Formatter) PrintMetaStats(manifest *domain.Manifest) {
	meta := manifest.Meta

	fmt.Fprint(f.out, "\n")
	fmt.Fprintln(f.out, color.CyanString("╔═══════════════════════════════════════════════════════════════╗"))
	fmt.Fprintln(f.out, color.CyanString("║                   Translation Statistics                      ║"))
	fmt.Fprintln(f.out, color.CyanString("╚═══════════════════════════════════════════════════════════════╝"))
	fmt.Fprintln(f.out)

	const sep = "├─────────────────────────────────┼─────────────────────────────┤"
	row := func(label, value string, paint func(string, ...interface{}) string) {
		fmt.Fprintf(f.out, "│ %-31s │ %s\n", label, paint("%-27s │", value))
	}

	fmt.Fprintln(f.out, "┌─────────────────────────────────┬─────────────────────────────┐")
	row("Source Files", fmt.Sprint(meta.TotalFiles), color.WhiteString)
	fmt.Fprintln(f.out, sep)
	row("Translated Files", fmt.Sprint(meta.TranslatedFiles), color.GreenString)
	fmt.Fprintln(f.out, sep)
	row("Failed Files", fmt.Sprint(meta.FailedFiles), color.RedString)
	fmt.Fprintln(f.out, sep)
	row("Declared Tests", fmt.Sprint(meta.TotalTests), color.WhiteString)
	fmt.Fprintln(f.out, sep)
	row("Registrations", fmt.Sprint(meta.Registrations), color.WhiteString)
	fmt.Fprintln(f.out, sep)
	row("Duration", fmt.Sprintf("%.2fs", meta.DurationSeconds), color.WhiteString)
	fmt.Fprintln(f.out, sep)
	row("Workers", fmt.Sprint(meta.Workers), color.WhiteString)
	fmt.Fprintln(f.out, sep)
	row("Run ID", meta.RunID, color.WhiteString)
	fmt.Fprintln(f.out, "└─────────────────────────────────┴─────────────────────────────┘")

	fmt.Fprintln(f.out)
	if meta.FailedFiles == 0 {
		fmt.Fprintln(f.out, color.GreenString("✓ All sources translated!"))
		return
	}
	fmt.Fprintln(f.out, color.RedString("✗ %d source file(s) failed to translate", meta.FailedFiles))
	fmt.Fprintln(f.out)
	f.printFailuresTree(manifest.Failures)
}

// TreeNode represents a node in the file tree structure
type TreeNode struct {
	Name     string
	Children map[string]*TreeNode
	Failures []domain.TranslationFailure
	IsFile   bool
}

// printFailuresTree prints the failed sources as a directory tree
func (f *Formatter) printFailuresTree(failures []domain.TranslationFailure) {
	if len(failures) == 0 {
		return
	}

	// Group failures by file path
	fileMap := make(map[string][]domain.TranslationFailure)
	for _, failure := range failures {
		fileMap[f.relative(failure.Source)] = append(fileMap[f.relative(failure.Source)], failure)
	}

	root := &TreeNode{Children: make(map[string]*TreeNode)}
	for filePath, fileFailures := range fileMap {
		parts := strings.Split(filepath.ToSlash(filePath), "/")
		current := root

		for i, part := range parts {
			if part == "" || part == "." {
				continue
			}
			if current.Children[part] == nil {
				current.Children[part] = &TreeNode{
					Name:     part,
					Children: make(map[string]*TreeNode),
					IsFile:   i == len(parts)-1,
				}
			}
			current = current.Children[part]
			if i == len(parts)-1 {
				current.Failures = fileFailures
			}
		}
	}

	f.printTreeNode(root, "")
}

func (f *Formatter) printTreeNode(node *TreeNode, prefix string) {
	// Sort children for consistent output
	keys := make([]string, 0, len(node.Children))
	for key := range node.Children {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for i, key := range keys {
		child := node.Children[key]
		last := i == len(keys)-1

		connector, childPrefix := "├── ", prefix+"│   "
		if last {
			connector, childPrefix = "└── ", prefix+"    "
		}

		if child.IsFile {
			fmt.Fprintln(f.out, prefix+connector+color.YellowString(child.Name))
			for j, failure := range child.Failures {
				branch := "├── "
				if j == len(child.Failures)-1 {
					branch = "└── "
				}
				fmt.Fprintln(f.out, childPrefix+branch+color.RedString(describeFailure(failure)))
			}
			continue
		}
		fmt.Fprintln(f.out, prefix+connector+color.CyanString(child.Name))
		f.printTreeNode(child, childPrefix)
	}
}

func describeFailure(failure domain.TranslationFailure) string {
	var b strings.Builder
	if failure.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", failure.Line)
	}
	if failure.Directive != "" {
		b.WriteString(failure.Directive + ": ")
	}
	b.WriteString(failure.Message)
	return b.String()
}

// CountTestCases returns the total number of declared tests across the given sources.
func (f *Formatter) CountTestCases(sources []string) (int, error) {
	var total int
	for _, source := range sources {
		cases, err := f.parser.FindTestCases(source)
		if err != nil {
			return 0, err
		}
		total += len(cases)
	}
	return total, nil
}

// PrintSourceList prints discovered sources, optionally with their declared tests.
// failed is optional; sources in it are marked with [F] (from the last manifest).
func (f *Formatter) PrintSourceList(sources []string, showTests bool, failed map[string]struct{}) {
	if showTests {
		fmt.Fprintln(f.out, color.GreenString("Found %d source file(s) with tests:", len(sources)))
	} else {
		fmt.Fprintln(f.out, color.GreenString("Found %d source file(s):", len(sources)))
	}
	fmt.Fprintln(f.out)

	for i, source := range sources {
		isLastFile := i == len(sources)-1

		failMarker := ""
		if _, ok := failed[filepath.Clean(source)]; ok {
			failMarker = " " + color.RedString("[F]")
		}
		branch, indent := "├── ", "│   "
		if isLastFile {
			branch, indent = "└── ", "    "
		}
		fmt.Fprintln(f.out, color.CyanString("%s%s", branch, f.relative(source))+failMarker)

		if !showTests {
			continue
		}

		tests, err := f.parser.FindTestCases(source)
		switch {
		case err != nil:
			fmt.Fprintln(f.out, indent+"└── "+color.RedString("%v", err))
		case len(tests) == 0:
			fmt.Fprintln(f.out, indent+"└── "+color.RedString("(no tests found)"))
		default:
			for j, test := range tests {
				leaf := "├── "
				if j == len(tests)-1 {
					leaf = "└── "
				}
				fmt.Fprintln(f.out, indent+leaf+color.YellowString(test))
			}
		}

		// Add spacing between files (except for the last one)
		if !isLastFile {
			fmt.Fprintln(f.out)
		}
	}
}

// relative returns path relative to the project for cleaner display
func (f *Formatter) relative(path string) string {
	if f.config == nil {
		return path
	}
	rel, err := filepath.Rel(f.config.ProjectPath, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
