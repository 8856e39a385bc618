package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "prealgebra", NormalizeName("  Pre Algebra\n"))
	require.Equal(t, "lang/lit", NormalizeName("Lang / Lit"))
}

func TestMatchName(t *testing.T) {
	require.True(t, MatchName("Pre Algebra (Period 3)", []string{"prealgebra"}))
	require.False(t, MatchName("Science 7", []string{"prealgebra", "spanish"}))
}

func TestFirstNumber(t *testing.T) {
	{
		value, ok := FirstNumber("85.5%")
		require.True(t, ok)
		require.Equal(t, 85.5, value)
	}
	{
		value, ok := FirstNumber("Grade: 92 / 100")
		require.True(t, ok)
		require.Equal(t, float64(92), value)
	}
	{
		_, ok := FirstNumber("B+")
		require.False(t, ok)
	}
	{
		_, ok := FirstNumber("")
		require.False(t, ok)
	}
}
