package completion

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// PrefixMatcher decides whether a candidate text fits what the user typed.
type PrefixMatcher interface {
	Matches(candidate string) bool
}

// MatcherFactory builds the matcher for one typed prefix.
type MatcherFactory func(prefix string) PrefixMatcher

// Matcher names accepted by NewMatcherFactory.
const (
	MatcherPrefix        = "prefix"
	MatcherCaseSensitive = "case_sensitive"
	MatcherFuzzy         = "fuzzy"
)

// NewMatcherFactory returns the factory registered under name.
func NewMatcherFactory(name string) (MatcherFactory, error) {
	switch name {
	case "", MatcherPrefix:
		return NewPrefixMatcher, nil
	case MatcherCaseSensitive:
		return NewCaseSensitiveMatcher, nil
	case MatcherFuzzy:
		return NewFuzzyMatcher, nil
	}
	return nil, fmt.Errorf("unknown matcher %q, expected one of %s, %s, %s", name, MatcherPrefix, MatcherCaseSensitive, MatcherFuzzy)
}

type prefixMatcher struct {
	prefix        string
	caseSensitive bool
}

// NewPrefixMatcher accepts candidates starting with prefix, ignoring case.
func NewPrefixMatcher(prefix string) PrefixMatcher {
	return prefixMatcher{prefix: strings.ToLower(prefix)}
}

// NewCaseSensitiveMatcher accepts candidates starting with prefix.
func NewCaseSensitiveMatcher(prefix string) PrefixMatcher {
	return prefixMatcher{prefix: prefix, caseSensitive: true}
}

func (m prefixMatcher) Matches(candidate string) bool {
	if !m.caseSensitive {
		candidate = strings.ToLower(candidate)
	}
	return strings.HasPrefix(candidate, m.prefix)
}

type fuzzyMatcher struct {
	prefix string
}

// NewFuzzyMatcher accepts candidates containing the characters of prefix in
// order, the way editors filter by typing a few letters of each word.
func NewFuzzyMatcher(prefix string) PrefixMatcher {
	return fuzzyMatcher{prefix: prefix}
}

func (m fuzzyMatcher) Matches(candidate string) bool {
	if m.prefix == "" {
		return true
	}
	return len(fuzzy.Find(m.prefix, []string{candidate})) > 0
}
