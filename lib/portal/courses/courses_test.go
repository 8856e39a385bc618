package courses

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testCatalog() Catalog {
	return NewCatalog(
		map[string]string{
			"math":    "pre_algebra",
			"science": "science_7",
			"band":    "orchestra",
		},
		map[string]string{
			"pre_algebra": "https://portal.example.com/courses/pre_algebra",
			"science_7":   "https://portal.example.com/courses/science_7",
		},
	)
}

func TestResolve(t *testing.T) {
	c := testCatalog()

	{
		m, ok := c.Resolve("Math")
		require.True(t, ok)
		require.Equal(t, "pre_algebra", m.Key)
		require.Equal(t, "https://portal.example.com/courses/pre_algebra", m.Url)
	}
	{
		// aliases match as substrings of longer filters
		m, ok := c.Resolve("7th Grade Math")
		require.True(t, ok)
		require.Equal(t, "pre_algebra", m.Key)
	}
	{
		// course keys double as aliases
		m, ok := c.Resolve("pre algebra")
		require.True(t, ok)
		require.Equal(t, "pre_algebra", m.Key)
	}
	{
		// an alias pointing at a course with no dedicated page is a miss
		_, ok := c.Resolve("band")
		require.False(t, ok)
	}
	{
		_, ok := c.Resolve("orchestra")
		require.False(t, ok)
	}
	{
		_, ok := c.Resolve("")
		require.False(t, ok)
	}
}

func TestResolvePrefersMostSpecificAlias(t *testing.T) {
	c := NewCatalog(
		map[string]string{
			"sci":     "general_science",
			"science": "science_7",
		},
		map[string]string{
			"general_science": "https://portal.example.com/courses/general_science",
			"science_7":       "https://portal.example.com/courses/science_7",
		},
	)

	m, ok := c.Resolve("science")
	require.True(t, ok)
	require.Equal(t, "science_7", m.Key)
}

func TestSuggest(t *testing.T) {
	c := testCatalog()

	{
		alias, ok := c.Suggest("mathh")
		require.True(t, ok)
		require.Equal(t, "math", alias)
	}
	{
		_, ok := c.Suggest("woodworking")
		require.False(t, ok)
	}
}
