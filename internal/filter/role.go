package filter

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds accents, case and punctuation so "Sr. Software-Engineer"
// and "sr software engineer" compare equal.
func Normalize(str string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, str)
	if err != nil {
		result = str
	}
	result = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, result)
	return strings.Join(strings.Fields(result), " ")
}

// MatchesRole reports whether every word of role appears as a word in title.
// An empty role matches everything.
func MatchesRole(title, role string) bool {
	words := strings.Fields(Normalize(role))
	if len(words) == 0 {
		return true
	}

	titleWords := make(map[string]bool)
	for _, w := range strings.Fields(Normalize(title)) {
		titleWords[w] = true
	}

	for _, w := range words {
		if !titleWords[w] {
			return false
		}
	}
	return true
}
