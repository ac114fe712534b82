// Package storage implements the in-memory training store and its data sources.
package storage

import (
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// trailing punctuation stripped from normalized labels
const trailingPunct = ".,;:!?"

// Normalize canonicalizes a label for comparison: lowercase, trimmed,
// internal whitespace collapsed to single spaces, trailing punctuation
// stripped. Every text-based strategy uses this exact rule so that scores
// are comparable across strategies.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimRight(s, trailingPunct)
	return strings.TrimSpace(s)
}

// Tokens splits a normalized string into its words.
func Tokens(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, " ")
}
