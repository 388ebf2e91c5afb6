package tracklist

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldMarks decomposes text and drops combining marks, so "Löffler"
// compares equal to "Loffler".
var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// punctReplacer maps smart quotes and typographic dashes to their ASCII forms.
var punctReplacer = strings.NewReplacer(
	"‘", "'", // left single quote
	"’", "'", // right single quote
	"“", `"`, // left double quote
	"”", `"`, // right double quote
	"–", "-", // en dash
	"—", "-", // em dash
	"…", "...", // ellipsis
)

// Normalize canonicalizes a string for comparison.
//
// Lower-cases, folds diacritics, maps smart punctuation to ASCII, collapses
// internal whitespace and trims. Idempotent; the result is for scoring and
// cache keys only, never for display.
func Normalize(s string) string {
	s = punctReplacer.Replace(s)
	if folded, _, err := transform.String(foldMarks, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeKey builds a comparison key from a title and artist pair.
func NormalizeKey(title, artist string) string {
	return Normalize(title) + "|" + Normalize(artist)
}
