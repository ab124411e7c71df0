package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeSearchText lowercases, removes diacritics and collapses
// whitespace so "taladro inalámbrico" and "TALADRO INALAMBRICO" compare
// equal. Ñ folds to plain n under the same rule.
func NormalizeSearchText(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	return strings.Join(strings.Fields(folded), " ")
}

// SearchText returns the entry's normalized searchable text.
func (e *Entry) SearchText() string {
	return NormalizeSearchText(e.Description + " " + e.Brand + " " + e.Code)
}

// MatchesQuery reports whether the entry matches an already-normalized
// query. Every whitespace-separated term must appear somewhere in the
// entry's text.
func (e *Entry) MatchesQuery(normalizedQuery string) bool {
	if normalizedQuery == "" {
		return true
	}
	text := e.SearchText()
	for _, term := range strings.Fields(normalizedQuery) {
		if !strings.Contains(text, term) {
			return false
		}
	}
	return true
}
