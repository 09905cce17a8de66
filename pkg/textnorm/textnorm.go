// Package textnorm derives the canonical searchable key of free-text names.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Searchable removes every whitespace and punctuation rune from s after
// NFC composition. ASCII symbols such as + $ | ~ count as punctuation.
// Letters, digits and non-ASCII symbols keep their order and case.
func Searchable(s string) string {
	if s == "" {
		return ""
	}
	composed := norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(composed))
	for _, r := range composed {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || isASCIISymbol(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isASCIISymbol(r rune) bool {
	return r <= unicode.MaxASCII && unicode.IsSymbol(r)
}
