package filter

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s and strips diacritics ("São João" -> "sao joao").
// Source documents mix encodings and capitalization freely, so every text
// comparison in this package runs on folded strings.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		// Transform failures only happen on broken UTF-8; fall back to the
		// raw string rather than losing the record from text search.
		folded = s
	}
	return strings.ToLower(folded)
}
