package preprocessor

import "pfpp/internal/domain"

// DefaultParameterType is the parameter type assumed by MPI-capable custom cases
// that never declare one.
const DefaultParameterType = "MpiTestParameter"

// Branch is the registration form emitted for one test method.
type Branch int

const (
	BranchSimple Branch = iota
	BranchMPI
	BranchCustom
	BranchCustomParameterized
)

func (b Branch) String() string {
	switch b {
	case BranchMPI:
		return "mpi"
	case BranchCustom:
		return "custom"
	case BranchCustomParameterized:
		return "custom-parameterized"
	default:
		return "simple"
	}
}

// Metadata accumulates everything directives learn during one scan.
// Method-level fields override case-level ones; see the resolution helpers.
type Metadata struct {
	Suite   domain.Suite
	Case    domain.TestCase
	Methods []domain.TestMethod
}

// NewMetadata returns an empty accumulator for a file with the given base name.
func NewMetadata(fileBase string) *Metadata {
	return &Metadata{
		Suite: domain.Suite{WrapModuleName: domain.WrapPrefix + fileBase},
	}
}

// AddMethod records a test in declaration order.
func (md *Metadata) AddMethod(m domain.TestMethod) {
	md.Methods = append(md.Methods, m)
}

// TestNames returns the declared test names in order.
func (md *Metadata) TestNames() []string {
	names := make([]string, len(md.Methods))
	for i, m := range md.Methods {
		names[i] = m.Name
	}
	return names
}

// SetUp resolves the fixture set-up procedure for m.
func (md *Metadata) SetUp(m domain.TestMethod) domain.Optional[string] {
	return m.SetUp.OrElse(md.Case.SetUp)
}

// TearDown resolves the fixture tear-down procedure for m.
func (md *Metadata) TearDown(m domain.TestMethod) domain.Optional[string] {
	return m.TearDown.OrElse(md.Case.TearDown)
}

// NpRequests resolves the process counts for m.
func (md *Metadata) NpRequests(m domain.TestMethod) domain.Optional[[]int] {
	return m.NpRequests.OrElse(md.Case.NpRequests)
}

// Cases resolves the case-list expression for m.
func (md *Metadata) Cases(m domain.TestMethod) domain.Optional[string] {
	return m.Cases.OrElse(md.Case.Cases)
}

// TestParameters resolves the parameter-list expression for m. It is only
// meaningful once a parameter type is in effect.
func (md *Metadata) TestParameters(m domain.TestMethod) domain.Optional[string] {
	if !md.ParameterType().IsSet() {
		return domain.None[string]()
	}
	return m.TestParameters.OrElse(md.Case.TestParameters)
}

// IsCustom reports whether a user test-case type was declared.
func (md *Metadata) IsCustom() bool {
	return md.Case.Type.IsSet()
}

// IsMPI reports whether process counts were requested anywhere in the file.
func (md *Metadata) IsMPI() bool {
	if md.Case.NpRequests.IsSet() {
		return true
	}
	for _, m := range md.Methods {
		if m.NpRequests.IsSet() {
			return true
		}
	}
	return false
}

// ParameterType returns the declared parameter type, or the MPI default for
// custom MPI cases.
func (md *Metadata) ParameterType() domain.Optional[string] {
	if md.Case.TestParameterType.IsSet() {
		return md.Case.TestParameterType
	}
	if md.IsCustom() && md.IsMPI() {
		return domain.Some(DefaultParameterType)
	}
	return domain.None[string]()
}

// BranchFor selects the registration form for m.
func (md *Metadata) BranchFor(m domain.TestMethod) Branch {
	if md.IsCustom() {
		if md.Cases(m).IsSet() || md.TestParameters(m).IsSet() {
			return BranchCustomParameterized
		}
		return BranchCustom
	}
	if md.NpRequests(m).IsSet() {
		return BranchMPI
	}
	return BranchSimple
}

// Finalize applies end-of-scan defaults. A parameterized case without an
// explicit constructor is built by its type name.
func (md *Metadata) Finalize() {
	if md.Case.TestParameterType.IsSet() && !md.Case.Constructor.IsSet() {
		md.Case.Constructor = md.Case.Type
	}
}
