// Package words provides the word normalization shared by the recognition
// monitor and the feedback synthesizer.
//
// Both components must agree exactly on what counts as "the same word"
// (lowercased, punctuation stripped, whitespace split), otherwise a word the
// recognizer heard would never match the expected sentence's words and
// auto-stop would misbehave.
package words

import (
	"strings"
	"unicode"
)

// Normalize lowercases w and strips every rune that is not a letter, digit, or
// whitespace. The result may be empty (e.g. for a token that was pure
// punctuation).
func Normalize(w string) string {
	var b strings.Builder
	b.Grow(len(w))
	for _, r := range strings.ToLower(w) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// Split breaks text into its whitespace-separated tokens, preserving original
// spelling and punctuation. Empty tokens are dropped.
func Split(text string) []string {
	return strings.Fields(text)
}

// NormalizedSet returns the set of normalized words in text. Tokens that
// normalize to the empty string are discarded.
func NormalizedSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range Split(text) {
		if n := Normalize(tok); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// Count returns the number of whitespace-separated words in text.
func Count(text string) int {
	return len(Split(text))
}
