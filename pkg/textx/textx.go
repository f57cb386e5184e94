// Package textx provides small text utilities used across the project.
package textx

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripAccents removes combining marks after NFD decomposition, so that
// e.g. "résumé" becomes "resume".
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SanitizeText removes control characters except tab/newline/CR and trims spaces.
func SanitizeText(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// StripAccents returns s with diacritics removed. On transform failure the
// input is returned unchanged.
func StripAccents(s string) string {
	out, _, err := transform.String(stripAccents, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize lowercases s, strips accents, replaces punctuation outside the
// allow-list (+ # .) with spaces, and collapses runs of whitespace. This is
// the canonical form both the hallucination guard and the matcher compare in.
func Normalize(s string) string {
	s = StripAccents(strings.ToLower(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' || r == '#' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokens returns the whitespace-separated tokens of Normalize(s).
func Tokens(s string) []string {
	return strings.Fields(Normalize(s))
}

// Squeeze returns only the letters and digits of s, lowercased and
// accent-stripped. "CI/CD" squeezes to "cicd".
func Squeeze(s string) string {
	s = StripAccents(strings.ToLower(s))
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Initials returns the concatenated first runes of each token in s, using the
// normalized token split. "Continuous Integration" yields "ci".
func Initials(s string) string {
	var b strings.Builder
	for _, tok := range Tokens(s) {
		r := []rune(tok)
		if len(r) > 0 {
			b.WriteRune(r[0])
		}
	}
	return b.String()
}
