package cli

import "pfpp/internal/config"

// Flags holds command-line flags
type Flags struct {
	ProjectPath string
	Verbose     bool
	Markers     bool
	Processors  int
	SourcePath  string
	OutputDir   string
	NameFilter  string
	Include     []string
	FailFast    bool
	WithTests   bool
}

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	return config.Flags{
		Markers:    f.Markers,
		Processors: f.Processors,
		SourcePath: f.SourcePath,
		OutputDir:  f.OutputDir,
		NameFilter: f.NameFilter,
		Include:    append([]string(nil), f.Include...),
		FailFast:   f.FailFast,
		WithTests:  f.WithTests,
	}
}
