package preprocessor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"pfpp/internal/domain"
)

// Option keys. Keys are matched case-insensitively.
const (
	optNpes           = "npes"
	optIfdef          = "ifdef"
	optIfndef         = "ifndef"
	optType           = "type"
	optTestParameters = "testparameters"
	optCases          = "cases"
	optConstructor    = "constructor"
)

// allowedOptions lists the keys each declaration directive understands.
var allowedOptions = map[Kind]map[string]bool{
	KindTest: {
		optNpes: true, optIfdef: true, optIfndef: true,
		optType: true, optTestParameters: true, optCases: true,
	},
	KindTestCase: {
		optConstructor: true, optNpes: true, optCases: true, optTestParameters: true,
	},
	KindTestParameter: {
		optConstructor: true,
	},
}

var identifierPattern = regexp.MustCompile(`^\w+$`)

// OptionSet is the typed form of a directive's parenthesized key=value list.
type OptionSet struct {
	NpRequests     domain.Optional[[]int]
	Ifdef          domain.Optional[string]
	Ifndef         domain.Optional[string]
	Type           domain.Optional[string]
	Constructor    domain.Optional[string]
	TestParameters domain.Optional[string]
	Cases          domain.Optional[string]

	// Unknown holds keys the directive does not understand; they are otherwise ignored.
	Unknown []string
}

// ParseOptions parses the inside of a directive's option parentheses.
// An empty list yields an empty OptionSet.
func ParseOptions(kind Kind, list string) (OptionSet, error) {
	var opts OptionSet
	allowed := allowedOptions[kind]

	for _, item := range SplitArguments(list) {
		key, value, ok := strings.Cut(item, "=")
		if !ok {
			return opts, fmt.Errorf("%w: expected key=value, got %q", ErrInvalidOption, item)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		if !allowed[key] {
			opts.Unknown = append(opts.Unknown, key)
			continue
		}
		if value == "" {
			return opts, fmt.Errorf("%w: %s has no value", ErrInvalidOption, key)
		}

		switch key {
		case optNpes:
			counts, err := parseProcessCounts(value)
			if err != nil {
				return opts, err
			}
			opts.NpRequests = domain.Some(counts)
		case optIfdef, optIfndef, optType, optConstructor:
			if !identifierPattern.MatchString(value) {
				return opts, fmt.Errorf("%w: %s=%s is not an identifier", ErrInvalidOption, key, value)
			}
			v := domain.Some(value)
			switch key {
			case optIfdef:
				opts.Ifdef = v
			case optIfndef:
				opts.Ifndef = v
			case optType:
				opts.Type = v
			default:
				opts.Constructor = v
			}
		case optTestParameters:
			if !strings.HasPrefix(value, "{") || !strings.HasSuffix(value, "}") {
				return opts, fmt.Errorf("%w: testParameters must be enclosed in braces", ErrInvalidOption)
			}
			opts.TestParameters = domain.Some(strings.TrimSpace(value[1 : len(value)-1]))
		case optCases:
			if !strings.HasPrefix(value, "[") || !strings.HasSuffix(value, "]") {
				return opts, fmt.Errorf("%w: cases must be a bracketed list", ErrInvalidOption)
			}
			opts.Cases = domain.Some(value)
		}
	}
	return opts, nil
}

// parseProcessCounts parses a bracketed list of positive process counts, e.g. [1,2,4].
func parseProcessCounts(value string) ([]int, error) {
	if !strings.HasPrefix(value, "[") || !strings.HasSuffix(value, "]") {
		return nil, fmt.Errorf("%w: npes must be a bracketed list, got %s", ErrInvalidOption, value)
	}
	items := SplitArguments(value[1 : len(value)-1])
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: npes is empty", ErrInvalidOption)
	}

	counts := make([]int, 0, len(items))
	for _, item := range items {
		n, err := strconv.Atoi(item)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: npes entry %q is not a positive integer", ErrInvalidOption, item)
		}
		counts = append(counts, n)
	}
	return counts, nil
}
