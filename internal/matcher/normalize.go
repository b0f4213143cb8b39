// Package matcher pairs book files with bookmark exports by fuzzy file name matching.
package matcher

import (
	"strings"
	"unicode"
)

// stopwords are removed in this order after punctuation is stripped.
var stopwords = []string{"the", " a ", "novel"}

const punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Normalize canonicalizes a file stem for substring comparison: lowercase,
// ASCII punctuation removed, stopwords removed, whitespace removed.
//
// Removing whitespace can bring a stopword together ("t he"), so the steps
// repeat until the key is stable. This keeps Normalize idempotent.
func Normalize(stem string) string {
	key := strings.ToLower(stem)
	key = strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return -1
		}
		return r
	}, key)

	for {
		next := key
		for _, w := range stopwords {
			next = strings.ReplaceAll(next, w, "")
		}
		next = strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, next)
		if next == key {
			return key
		}
		key = next
	}
}
