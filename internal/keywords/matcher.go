package keywords

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Matcher finds the first keyword, in list order, contained in a line.
//
// All keywords are matched in a single pass with an Aho-Corasick automaton.
// Patterns are grouped by canonical form, keeping the position of their first
// occurrence, so the smallest matched position is always the earliest keyword.
// A Matcher is not safe for concurrent use; build one per run.
type Matcher struct {
	matcher *ahocorasick.Matcher
	terms   []string // canonical pattern per automaton index
	rank    []int    // position in the original Set per automaton index
}

// NewMatcher builds a matcher for s. Blank keywords are ignored.
func NewMatcher(s Set) *Matcher {
	m := &Matcher{}
	seen := make(map[string]bool, len(s))
	var patterns [][]byte
	for i, kw := range s {
		term := Canonical(kw)
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		m.terms = append(m.terms, term)
		m.rank = append(m.rank, i)
		patterns = append(patterns, []byte(term))
	}
	if len(patterns) > 0 {
		m.matcher = ahocorasick.NewMatcher(patterns)
	}
	return m
}

// Match returns the canonical term of the first keyword found in line.
func (m *Matcher) Match(line string) (string, bool) {
	if m.matcher == nil {
		return "", false
	}
	hits := m.matcher.Match([]byte(strings.ToUpper(line)))
	if len(hits) == 0 {
		return "", false
	}
	best := -1
	for _, idx := range hits {
		if idx < 0 || idx >= len(m.terms) {
			continue
		}
		if best < 0 || m.rank[idx] < m.rank[best] {
			best = idx
		}
	}
	if best < 0 {
		return "", false
	}
	return m.terms[best], true
}

// Match is a one-shot form of Matcher.Match for callers holding only a Set.
func Match(line string, s Set) (string, bool) {
	return NewMatcher(s).Match(line)
}
