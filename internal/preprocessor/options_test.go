package preprocessor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions_Test(t *testing.T) {
	opts, err := ParseOptions(KindTest, "npes=[1, 2,4], ifdef=USE_MPI, type=newFooMethod, cases=[3,5], testParameters={params()}")
	require.NoError(t, err)

	np, ok := opts.NpRequests.Get()
	require.True(t, ok)
	assert.Equal(t, []int{1, 2, 4}, np)
	assert.Equal(t, "USE_MPI", opts.Ifdef.Or(""))
	assert.Equal(t, "newFooMethod", opts.Type.Or(""))
	assert.Equal(t, "[3,5]", opts.Cases.Or(""))
	assert.Equal(t, "params()", opts.TestParameters.Or(""))
	assert.False(t, opts.Ifndef.IsSet())
	assert.Empty(t, opts.Unknown)
}

func TestParseOptions_Empty(t *testing.T) {
	opts, err := ParseOptions(KindTest, "")
	require.NoError(t, err)
	assert.False(t, opts.NpRequests.IsSet())
	assert.False(t, opts.Type.IsSet())
}

func TestParseOptions_CaseInsensitiveKeys(t *testing.T) {
	opts, err := ParseOptions(KindTestCase, "Constructor=newCase, NPES=[3]")
	require.NoError(t, err)
	assert.Equal(t, "newCase", opts.Constructor.Or(""))
	assert.Equal(t, []int{3}, opts.NpRequests.Or(nil))
}

func TestParseOptions_UnknownKeys(t *testing.T) {
	opts, err := ParseOptions(KindTestParameter, "constructor=newP, npes=[2]")
	require.NoError(t, err)
	assert.Equal(t, "newP", opts.Constructor.Or(""))
	assert.Equal(t, []string{"npes"}, opts.Unknown)
	assert.False(t, opts.NpRequests.IsSet())
}

func TestParseOptions_Invalid(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		list string
	}{
		{"missing equals", KindTest, "npes"},
		{"empty value", KindTest, "ifdef="},
		{"npes not a list", KindTest, "npes=4"},
		{"npes not numeric", KindTest, "npes=[a]"},
		{"npes zero", KindTest, "npes=[0,1]"},
		{"npes empty", KindTest, "npes=[]"},
		{"ifdef not identifier", KindTest, "ifdef=A B"},
		{"parameters without braces", KindTest, "testParameters=params()"},
		{"cases without brackets", KindTestCase, "cases=3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOptions(tt.kind, tt.list)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidOption)
		})
	}
}
