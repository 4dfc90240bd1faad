// Package textutil provides text processing utilities for violation records.
package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Clean trims surrounding whitespace and lowercases a categorical value.
func Clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Len returns the length of s in characters, not bytes.
func Len(s string) int {
	return utf8.RuneCountInString(s)
}

// WordCount returns the number of whitespace-delimited words in s.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

var (
	newlineRe    = regexp.MustCompile(`[\n\r]`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
)

// NormalizeWhitespaces replaces newlines and multiple whitespace with a single space.
func NormalizeWhitespaces(text string) string {
	text = newlineRe.ReplaceAllString(text, " ")
	return multiSpaceRe.ReplaceAllString(text, " ")
}

// Excerpt returns a single-line prefix of text at most n characters long,
// suitable for log attributes.
func Excerpt(text string, n int) string {
	text = strings.TrimSpace(NormalizeWhitespaces(text))
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n]) + "..."
}
