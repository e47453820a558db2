package domain

// WrapPrefix prefixes every generated wrapper module name.
const WrapPrefix = "Wrap"

// SuiteSuffix is appended to a module or file base name to form a default suite name.
const SuiteSuffix = "_suite"

// Suite describes the generated suite for one source file.
type Suite struct {
	// Name is set by an explicit suite directive.
	Name Optional[string]
	// WrapModuleName follows the most recent naming directive.
	WrapModuleName string
	// UserModuleName is empty when the source declares no enclosing module.
	UserModuleName string
}

// ResolveName returns the explicit suite name, else the module-derived one,
// else one derived from the source file's base name.
func (s Suite) ResolveName(fileBase string) string {
	if name, ok := s.Name.Get(); ok {
		return name
	}
	if s.UserModuleName != "" {
		return s.UserModuleName + SuiteSuffix
	}
	return fileBase + SuiteSuffix
}
