package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExactMatchesOnlyThatName(t *testing.T) {
	m, err := Exact("my-log-group")
	require.NoError(t, err)

	assert.True(t, m.IsMatch("my-log-group"))
	assert.False(t, m.IsMatch("my-log-group-2"))
	assert.False(t, m.IsMatch("xmy-log-group"))
}

func TestExactEscapesRegexMetacharacters(t *testing.T) {
	m, err := Exact("a.b")
	require.NoError(t, err)

	assert.True(t, m.IsMatch("a.b"))
	assert.False(t, m.IsMatch("aXb"))
}

func TestRegexCompilesAsIs(t *testing.T) {
	m, err := Regex("^g.$")
	require.NoError(t, err)

	assert.True(t, m.IsMatch("g1"))
	assert.True(t, m.IsMatch("g2"))
	assert.False(t, m.IsMatch("g10"))
}

func TestRegexInvalidPatternIsConfigError(t *testing.T) {
	_, err := Regex("(unterminated")

	require.Error(t, err)
}

func TestPatternEqualityIsSourceTextNotSemantics(t *testing.T) {
	exact, err := Exact("g")
	require.NoError(t, err)
	regex, err := Regex("^g$")
	require.NoError(t, err)

	assert.False(t, exact.Equal(regex), "Exact(\"g\") and Regex(\"^g$\") must be distinct cache keys despite matching the same names")

	again, err := Exact("g")
	require.NoError(t, err)
	assert.True(t, exact.Equal(again))
}

func TestCacheKeyDistinguishesExactFromRegexOverSamePatternText(t *testing.T) {
	exact, err := Exact("g")
	require.NoError(t, err)
	regex, err := Regex("g")
	require.NoError(t, err)

	assert.Equal(t, "g", exact.Pattern())
	assert.Equal(t, "g", regex.Pattern())
	assert.NotEqual(t, exact.CacheKey(), regex.CacheKey(),
		"Exact(\"g\") matches only the literal name \"g\"; Regex(\"g\") matches any name containing \"g\" — same pattern text must not collide as a cache key")
}

func TestCacheKeyEqualAcrossIndependentCompilations(t *testing.T) {
	first, err := Exact("my-log-group")
	require.NoError(t, err)
	second, err := Exact("my-log-group")
	require.NoError(t, err)

	assert.Equal(t, first.CacheKey(), second.CacheKey())
}
