// Package keywords holds the user-configurable list of terms that mark an
// invoice line as an expense of interest, how it is matched against text,
// and how it is persisted.
package keywords

import (
	"errors"
	"strings"
)

// ErrEmptyTerm is returned when a blank term is added or removed.
var ErrEmptyTerm = errors.New("keyword must not be empty")

// Set is an ordered list of keywords. Order is significant: when several
// keywords match the same line, the earliest one wins.
type Set []string

// DefaultSet is used when no keyword list has been persisted yet.
func DefaultSet() Set {
	return Set{"UBER", "99"}
}

// Canonical returns the grouping key for a keyword.
func Canonical(term string) string {
	return strings.ToUpper(strings.TrimSpace(term))
}

// Contains reports whether term is present, ignoring case.
func (s Set) Contains(term string) bool {
	target := Canonical(term)
	for _, kw := range s {
		if Canonical(kw) == target {
			return true
		}
	}
	return false
}

// Add returns a copy of s with term appended, keeping the caller's spelling.
// The second result is false when an equivalent term already exists.
func (s Set) Add(term string) (Set, bool, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s, false, ErrEmptyTerm
	}
	if s.Contains(term) {
		return s, false, nil
	}
	out := make(Set, len(s), len(s)+1)
	copy(out, s)
	return append(out, term), true, nil
}

// Remove returns a copy of s without any entry equal to term, ignoring case.
// The second result is false when nothing was removed.
func (s Set) Remove(term string) (Set, bool, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s, false, ErrEmptyTerm
	}
	target := Canonical(term)
	out := make(Set, 0, len(s))
	for _, kw := range s {
		if Canonical(kw) != target {
			out = append(out, kw)
		}
	}
	return out, len(out) != len(s), nil
}

// clean trims entries and drops blanks. Case-variant duplicates are kept so a
// hand-edited list loads exactly as written.
func clean(raw []string) Set {
	out := make(Set, 0, len(raw))
	for _, kw := range raw {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
