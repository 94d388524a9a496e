package grading

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Matcher decides whether a submitted value equals an answer key entry.
type Matcher interface {
	Match(given, expected string) bool
}

// ExactMatcher compares byte for byte: case sensitive, untrimmed.
type ExactMatcher struct{}

func (ExactMatcher) Match(given, expected string) bool {
	return given == expected
}

// NormalizedMatcher ignores case, surrounding whitespace, repeated inner
// whitespace and Unicode composition differences.
type NormalizedMatcher struct{}

func (NormalizedMatcher) Match(given, expected string) bool {
	return normalize(given) == normalize(expected)
}

func normalize(s string) string {
	s = norm.NFC.String(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}

// NewMatcher returns the matcher selected by configuration.
func NewMatcher(normalizeAnswers bool) Matcher {
	if normalizeAnswers {
		return NormalizedMatcher{}
	}
	return ExactMatcher{}
}
