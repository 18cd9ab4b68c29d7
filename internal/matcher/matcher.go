// Package matcher implements the log-group name criterion used to select
// which CloudWatch Logs groups a query fans out over: either an exact name
// or a regular expression over names.
package matcher

import (
	"fmt"
	"regexp"
)

// Kind discriminates how a Matcher's pattern string is interpreted: the
// same source text means different things as an exact name versus a
// regular expression, so it must be carried alongside the pattern
// wherever matchers are compared or used as cache keys.
type Kind int

const (
	KindExact Kind = iota
	KindRegex
)

// Matcher tests CloudWatch Logs group names for membership in a set
// selected by either an exact name or a regular expression.
//
// Two matchers are compared by their source pattern string and kind, not
// by semantic equivalence of the compiled regex, and never by the
// identity of the compiled *regexp.Regexp itself — this is deliberate so
// that cache keys stay conservative (see CacheKey).
type Matcher struct {
	pattern string
	kind    Kind
	re      *regexp.Regexp
}

// Exact builds a matcher that accepts only the log group named n.
func Exact(n string) (Matcher, error) {
	return compile(n, "^"+regexp.QuoteMeta(n)+"$", KindExact)
}

// Regex builds a matcher from a regular expression pattern, compiled as-is.
func Regex(pattern string) (Matcher, error) {
	return compile(pattern, pattern, KindRegex)
}

func compile(pattern, expr string, kind Kind) (Matcher, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Matcher{}, fmt.Errorf("compile matcher pattern %q: %w", pattern, err)
	}
	return Matcher{pattern: pattern, kind: kind, re: re}, nil
}

// IsMatch reports whether name satisfies the matcher.
func (m Matcher) IsMatch(name string) bool {
	return m.re.MatchString(name)
}

// Pattern returns the source pattern string used to construct the matcher.
func (m Matcher) Pattern() string {
	return m.pattern
}

// CacheKey returns a plain, comparable value identifying this matcher by
// its source pattern and kind (Exact vs Regex) — never by the identity of
// the compiled *regexp.Regexp pointer. Two matchers independently compiled
// from the same pattern and kind always produce equal CacheKeys, which is
// the property callers that use a Matcher inside a map/LRU key depend on;
// Matcher itself must never be used directly as such a key, since Go's
// struct equality would compare the unexported *regexp.Regexp field too.
func (m Matcher) CacheKey() CacheKey {
	return CacheKey{Pattern: m.pattern, Kind: m.kind}
}

// CacheKey is the value-comparable identity of a Matcher: source pattern
// plus kind, with no pointer fields.
type CacheKey struct {
	Pattern string
	Kind    Kind
}

// Equal reports whether two matchers were built from the same source
// pattern string and kind.
func (m Matcher) Equal(other Matcher) bool {
	return m.CacheKey() == other.CacheKey()
}
