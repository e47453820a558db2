package domain

// TestCase describes the user-defined test-case type shared by the tests of one source file.
// At most one exists per translation; directives only ever set or extend its fields.
type TestCase struct {
	Type        Optional[string]
	Constructor Optional[string]
	SetUp       Optional[string]
	TearDown    Optional[string]

	TestParameterType        Optional[string]
	TestParameterConstructor Optional[string]

	// NpRequests is the default list of process counts; present only for MPI-style cases.
	NpRequests Optional[[]int]
	// Cases and TestParameters are opaque host-language expressions.
	Cases          Optional[string]
	TestParameters Optional[string]
}

// TestMethod represents one declared test procedure. Registration order follows declaration order.
type TestMethod struct {
	Name           string
	SelfObjectName Optional[string]
	Line           int // Line of the declaration in the source file

	NpRequests Optional[[]int]
	Ifdef      Optional[string]
	Ifndef     Optional[string]
	// Type overrides the registration helper (newTestMethod / newMpiTestMethod).
	Type Optional[string]

	TestParameters Optional[string]
	Cases          Optional[string]
	SetUp          Optional[string]
	TearDown       Optional[string]
}

// Guarded reports whether the registration is wrapped in a conditional-compilation guard.
func (m TestMethod) Guarded() bool {
	return m.Ifdef.IsSet() || m.Ifndef.IsSet()
}
